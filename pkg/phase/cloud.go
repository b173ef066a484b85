package phase

import (
	"math"

	perr "github.com/matzehuels/phasehull/pkg/errors"
)

// PointCloud is a set of entries lifted into composition+energy space.
type PointCloud struct {
	Components int

	// Entries holds one entry per distinct composition, the lowest in energy.
	Entries []Entry
	// Shadowed holds entries dropped because another entry with the same
	// composition is lower in energy.
	Shadowed []Entry

	// Points are the lifted entries followed by the lid point at index Lid.
	Points [][]float64
	Lid    int
}

// EnergyAxis returns the index of the energy coordinate in the lifted space.
func (pc *PointCloud) EnergyAxis() int { return pc.Components - 1 }

// Lift maps a composition and energy to the lifted point (x_1..x_{N-1}, E).
func Lift(composition []float64, energy float64) []float64 {
	p := make([]float64, len(composition))
	copy(p, composition[1:])
	p[len(p)-1] = energy
	return p
}

// NewPointCloud validates entries and lifts them.
//
// All entries must share a component count of at least 2 and carry valid
// compositions. Entries with identical compositions collapse to the lowest
// in energy. Every pure component must be present (MISSING_TERMINAL).
func NewPointCloud(entries []Entry) (*PointCloud, error) {
	if len(entries) == 0 {
		return nil, perr.New(perr.ErrCodeDegenerateInput, "no entries")
	}
	n := entries[0].Components()
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Components() != n {
			return nil, perr.New(perr.ErrCodeInvalidInput,
				"entry %s has %d components, want %d", e.Label, e.Components(), n)
		}
		if err := perr.ValidateComposition(e.Composition); err != nil {
			return nil, perr.Wrap(perr.ErrCodeInvalidComposition, err, "entry %s", e.Label)
		}
		if err := perr.ValidateFinite("energy", e.Energy); err != nil {
			return nil, perr.Wrap(perr.ErrCodeInvalidInput, err, "entry %s", e.Label)
		}
		if seen[e.Label] {
			return nil, perr.New(perr.ErrCodeInvalidInput, "duplicate entry label: %s", e.Label)
		}
		seen[e.Label] = true
	}

	pc := &PointCloud{Components: n}
	for _, e := range entries {
		dup := -1
		for i, kept := range pc.Entries {
			if sameComposition(kept.Composition, e.Composition) {
				dup = i
				break
			}
		}
		switch {
		case dup < 0:
			pc.Entries = append(pc.Entries, e)
		case e.Energy < pc.Entries[dup].Energy:
			pc.Shadowed = append(pc.Shadowed, pc.Entries[dup])
			pc.Entries[dup] = e
		default:
			pc.Shadowed = append(pc.Shadowed, e)
		}
	}

	terminals := make([]bool, n)
	for _, e := range pc.Entries {
		if i := terminalIndex(e.Composition); i >= 0 {
			terminals[i] = true
		}
	}
	for i, ok := range terminals {
		if !ok {
			return nil, perr.New(perr.ErrCodeMissingTerminal, "no entry for pure component %d", i)
		}
	}

	top := math.Inf(-1)
	pc.Points = make([][]float64, 0, len(pc.Entries)+1)
	for _, e := range pc.Entries {
		pc.Points = append(pc.Points, Lift(e.Composition, e.Energy))
		top = max(top, e.Energy)
	}
	centroid := make([]float64, n)
	for i := range centroid {
		centroid[i] = 1 / float64(n)
	}
	pc.Lid = len(pc.Points)
	pc.Points = append(pc.Points, Lift(centroid, top+1))
	return pc, nil
}
