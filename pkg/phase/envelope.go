package phase

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/geom"
	"github.com/matzehuels/phasehull/pkg/hull"
)

const (
	// NormalTolerance is the smallest magnitude of a facet normal's energy
	// component for the facet to count as part of the lower envelope.
	NormalTolerance = 1e-9

	// MeasureTolerance is the relative error allowed between the summed
	// projected facet measures and the measure of the composition simplex.
	MeasureTolerance = 1e-7

	// membershipTolerance bounds the barycentric weights treated as zero.
	membershipTolerance = 1e-9

	// coverageTolerance bounds the negative weight accepted when locating a
	// composition that falls between facets through rounding.
	coverageTolerance = 1e-6
)

// StableComplex is the lower envelope of a lifted point cloud.
type StableComplex struct {
	Cloud *PointCloud
	Hull  *hull.Hull
	// Facets are the stable facets in hull order; vertex indices refer to
	// Cloud.Points (and Cloud.Entries).
	Facets []hull.Facet

	// Warnings carries NUMERICAL_INSTABILITY errors reported while building.
	Warnings []error
}

// Components returns the number of components of the system.
func (c *StableComplex) Components() int { return c.Cloud.Components }

// ExtractStableComplex returns the facets whose outward normal points down
// the energy axis. Facets touching any excluded vertex are dropped.
func ExtractStableComplex(facets []hull.Facet, energyAxis int, exclude ...int) []hull.Facet {
	var out []hull.Facet
next:
	for _, f := range facets {
		if energyAxis < 0 || energyAxis >= len(f.Normal) || f.Normal[energyAxis] >= -NormalTolerance {
			continue
		}
		for _, v := range f.Vertices {
			if slices.Contains(exclude, v) {
				continue next
			}
		}
		out = append(out, f)
	}
	return out
}

// Build lifts entries, computes their hull and extracts the stable complex.
// The options configure the hull builder.
func Build(entries []Entry, opts ...hull.Option) (*StableComplex, error) {
	pc, err := NewPointCloud(entries)
	if err != nil {
		return nil, err
	}
	h, err := hull.Build(pc.Points, opts...)
	if err != nil {
		return nil, err
	}
	c := &StableComplex{
		Cloud:    pc,
		Hull:     h,
		Facets:   ExtractStableComplex(h.Facets, pc.EnergyAxis(), pc.Lid),
		Warnings: h.Warnings,
	}
	if err := c.CheckIntegrity(); err != nil {
		return nil, err
	}
	return c, nil
}

// CheckIntegrity verifies that the stable facets tile the composition simplex:
// their projected measures sum to the measure of the simplex and every ridge
// is shared by two facets, or by one when it lies on the simplex boundary.
func (c *StableComplex) CheckIntegrity() error {
	if len(c.Facets) == 0 {
		return perr.New(perr.ErrCodeComplexIntegrity, "lower envelope is empty")
	}
	k := c.Components() - 1

	var total float64
	for i, f := range c.Facets {
		m, err := geom.SimplexMeasure(c.projected(f))
		if err != nil {
			return perr.Wrap(perr.ErrCodeComplexIntegrity, err, "facet %d", i)
		}
		total += m
	}
	want := 1.0
	for i := 2; i <= k; i++ {
		want /= float64(i)
	}
	if math.Abs(total-want) > MeasureTolerance*want {
		return perr.New(perr.ErrCodeComplexIntegrity,
			"stable facets cover measure %.12g of the simplex, want %.12g", total, want)
	}

	shared := make(map[string]int)
	ridges := make(map[string][]int)
	for _, f := range c.Facets {
		for skip := range f.Vertices {
			r := without(f.Vertices, skip)
			key := ridgeKey(r)
			shared[key]++
			ridges[key] = r
		}
	}
	for key, n := range shared {
		want := 2
		if c.onBoundary(ridges[key]) {
			want = 1
		}
		if n != want {
			return perr.New(perr.ErrCodeComplexIntegrity,
				"ridge %v shared by %d stable facets, want %d", ridges[key], n, want)
		}
	}
	return nil
}

// onBoundary reports whether all vertices share a zero component, i.e. the
// ridge lies on a face of the composition simplex.
func (c *StableComplex) onBoundary(verts []int) bool {
	for comp := 0; comp < c.Components(); comp++ {
		zero := true
		for _, v := range verts {
			if c.Cloud.Entries[v].Composition[comp] > perr.SimplexTolerance {
				zero = false
				break
			}
		}
		if zero {
			return true
		}
	}
	return false
}

// projected returns the reduced compositions of a facet's vertices.
func (c *StableComplex) projected(f hull.Facet) [][]float64 {
	k := c.Components() - 1
	pts := make([][]float64, len(f.Vertices))
	for i, v := range f.Vertices {
		pts[i] = c.Cloud.Points[v][:k]
	}
	return pts
}

// =============================================================================
// Queries
// =============================================================================

// Stable returns the entries that are vertices of the lower envelope, in
// cloud order.
func (c *StableComplex) Stable() []Entry {
	idx := c.stableIndices()
	out := make([]Entry, len(idx))
	for i, v := range idx {
		out[i] = c.Cloud.Entries[v]
	}
	return out
}

func (c *StableComplex) stableIndices() []int {
	seen := make(map[int]bool)
	var out []int
	for _, f := range c.Facets {
		for _, v := range f.Vertices {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Ints(out)
	return out
}

// IsStable reports whether the entry with the given label is on the envelope.
func (c *StableComplex) IsStable(label string) bool {
	for _, e := range c.Stable() {
		if e.Label == label {
			return true
		}
	}
	return false
}

// Component is one stable phase of a decomposition.
type Component struct {
	Entry    Entry   `json:"entry"`
	Fraction float64 `json:"fraction"`
}

// Decomposition returns the stable phases, and their molar fractions, that a
// material of the given composition separates into at equilibrium.
func (c *StableComplex) Decomposition(composition []float64) ([]Component, error) {
	f, w, err := c.locate(composition)
	if err != nil {
		return nil, err
	}
	var out []Component
	for i, v := range c.Facets[f].Vertices {
		if w[i] > membershipTolerance {
			out = append(out, Component{Entry: c.Cloud.Entries[v], Fraction: w[i]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fraction > out[j].Fraction })
	return out, nil
}

// HullEnergy returns the energy of the lower envelope at a composition.
func (c *StableComplex) HullEnergy(composition []float64) (float64, error) {
	f, w, err := c.locate(composition)
	if err != nil {
		return 0, err
	}
	var e float64
	for i, v := range c.Facets[f].Vertices {
		e += w[i] * c.Cloud.Entries[v].Energy
	}
	return e, nil
}

// EnergyAboveHull returns how far an entry lies above the envelope. Stable
// entries return 0 up to rounding.
func (c *StableComplex) EnergyAboveHull(e Entry) (float64, error) {
	h, err := c.HullEnergy(e.Composition)
	if err != nil {
		return 0, err
	}
	return e.Energy - h, nil
}

// locate finds the stable facet whose projection contains composition and
// returns its index with the barycentric weights of its vertices.
func (c *StableComplex) locate(composition []float64) (int, []float64, error) {
	if len(composition) != c.Components() {
		return 0, nil, perr.New(perr.ErrCodeInvalidComposition,
			"composition has %d components, want %d", len(composition), c.Components())
	}
	if err := perr.ValidateComposition(composition); err != nil {
		return 0, nil, err
	}
	x := Reduced(composition)

	best, bestW, bestMin := -1, []float64(nil), math.Inf(-1)
	for i, f := range c.Facets {
		w, err := geom.Barycentric(c.projected(f), x)
		if err != nil {
			continue
		}
		if m := slices.Min(w); m > bestMin {
			best, bestW, bestMin = i, w, m
		}
	}
	if best < 0 || bestMin < -coverageTolerance {
		return 0, nil, perr.New(perr.ErrCodeComplexIntegrity, "composition %v not covered by the envelope", composition)
	}
	return best, bestW, nil
}

// =============================================================================
// Helpers
// =============================================================================

func without(verts []int, skip int) []int {
	out := make([]int, 0, len(verts)-1)
	out = append(out, verts[:skip]...)
	return append(out, verts[skip+1:]...)
}

func ridgeKey(verts []int) string {
	var sb strings.Builder
	for _, v := range verts {
		sb.WriteString(strconv.Itoa(v))
		sb.WriteByte(',')
	}
	return sb.String()
}
