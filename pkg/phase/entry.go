package phase

import (
	"slices"

	perr "github.com/matzehuels/phasehull/pkg/errors"
)

// Entry is one candidate phase. Entries are values; do not mutate the
// composition slice of an entry that has been handed to [Build].
type Entry struct {
	Label       string    `json:"label"`
	Composition []float64 `json:"composition"`
	Energy      float64   `json:"energy"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// NewEntry validates and returns an entry. The composition must be a point of
// the simplex (INVALID_COMPOSITION) and the energy must be finite.
func NewEntry(label string, composition []float64, energy float64) (Entry, error) {
	if err := perr.ValidateLabel(label); err != nil {
		return Entry{}, err
	}
	if err := perr.ValidateComposition(composition); err != nil {
		return Entry{}, perr.Wrap(perr.ErrCodeInvalidComposition, err, "entry %s", label)
	}
	if err := perr.ValidateFinite("energy", energy); err != nil {
		return Entry{}, perr.Wrap(perr.ErrCodeInvalidInput, err, "entry %s", label)
	}
	return Entry{Label: label, Composition: slices.Clone(composition), Energy: energy}, nil
}

// Components returns the number of components of the entry's system.
func (e Entry) Components() int { return len(e.Composition) }

// At returns a copy of e with the given energy evaluated at temperature t.
func (e Entry) At(t, energy float64) Entry {
	e.Composition = slices.Clone(e.Composition)
	e.Energy = energy
	e.Temperature = &t
	return e
}

// IsTerminal reports whether e is a pure component.
func (e Entry) IsTerminal() bool {
	return terminalIndex(e.Composition) >= 0
}

func terminalIndex(c []float64) int {
	for i, x := range c {
		if x >= 1-perr.SimplexTolerance {
			return i
		}
	}
	return -1
}

// Reduced drops the first component of a composition, giving the coordinates
// in which the lifted cloud, regions and their orientation are expressed.
func Reduced(c []float64) []float64 {
	return slices.Clone(c[1:])
}

// Expand is the inverse of [Reduced].
func Expand(x []float64) []float64 {
	c := make([]float64, len(x)+1)
	c[0] = 1
	for i, v := range x {
		c[i+1] = v
		c[0] -= v
	}
	return c
}

func sameComposition(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if diff := a[i] - b[i]; diff > perr.SimplexTolerance || diff < -perr.SimplexTolerance {
			return false
		}
	}
	return true
}
