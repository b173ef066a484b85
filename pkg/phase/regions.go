package phase

import (
	"math"
	"slices"
	"sort"

	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/geom"
)

// PhaseRegion is the projection of one stable facet onto the composition
// simplex. Inside it the facet's vertex entries coexist.
type PhaseRegion struct {
	// Facet indexes StableComplex.Facets.
	Facet int `json:"facet"`
	// Boundary lists the region's corner compositions. Binary regions are
	// ordered by increasing second-component fraction; ternary polygons are
	// counter-clockwise and quaternary tetrahedra positively oriented in
	// reduced coordinates (see [Reduced]).
	Boundary [][]float64 `json:"boundary"`
	Labels   []string    `json:"labels"`
	Entries  []Entry     `json:"-"`
}

// TieLine connects two stable entries that coexist in equilibrium.
type TieLine struct {
	A            string    `json:"a"`
	B            string    `json:"b"`
	CompositionA []float64 `json:"composition_a"`
	CompositionB []float64 `json:"composition_b"`
}

// SpecialKind classifies an invariant point.
type SpecialKind string

const (
	// Eutectic marks a phase that is stable above the invariant temperature
	// and decomposes into its neighbors on cooling.
	Eutectic SpecialKind = "eutectic"
	// Peritectic marks a phase that forms on cooling and decomposes on heating.
	Peritectic SpecialKind = "peritectic"
)

// SpecialPoint is an invariant point of a temperature-swept diagram: the
// composition and temperature at which a phase and its decomposition
// products coexist.
type SpecialPoint struct {
	Kind        SpecialKind `json:"kind"`
	Composition []float64   `json:"composition"`
	Temperature float64     `json:"temperature"`
	Labels      []string    `json:"labels"`
}

// Diagram is the derived view of a stable complex.
type Diagram struct {
	Dimension     int            `json:"dimension"`
	Regions       []PhaseRegion  `json:"regions"`
	TieLines      []TieLine      `json:"tie_lines"`
	SpecialPoints []SpecialPoint `json:"special_points"`
}

// MaxRegionComponents is the largest system [DeriveRegions] supports.
const MaxRegionComponents = 4

// DeriveRegions projects every stable facet of c onto the composition simplex.
//
// dimension is the number of components and must match c (2, 3 or 4).
// Every edge of a stable facet is a tie-line, except binary edges whose
// endpoints have equal energy. Special points depend on a temperature sweep
// and are left empty; the thermo package fills them in.
func DeriveRegions(c *StableComplex, dimension int) (*Diagram, error) {
	if dimension < 2 || dimension > MaxRegionComponents {
		return nil, perr.New(perr.ErrCodeUnsupported, "phase regions for %d components not supported", dimension)
	}
	if dimension != c.Components() {
		return nil, perr.New(perr.ErrCodeInvalidInput,
			"dimension %d does not match %d-component complex", dimension, c.Components())
	}

	d := &Diagram{Dimension: dimension}
	type edge struct{ a, b int }
	edges := make(map[edge]bool)

	for i, f := range c.Facets {
		verts := slices.Clone(f.Vertices)
		if err := orderBoundary(c, verts); err != nil {
			return nil, perr.Wrap(perr.ErrCodeComplexIntegrity, err, "facet %d", i)
		}

		r := PhaseRegion{Facet: i}
		for _, v := range verts {
			e := c.Cloud.Entries[v]
			r.Boundary = append(r.Boundary, slices.Clone(e.Composition))
			r.Labels = append(r.Labels, e.Label)
			r.Entries = append(r.Entries, e)
		}
		d.Regions = append(d.Regions, r)

		for a := 0; a < len(f.Vertices); a++ {
			for b := a + 1; b < len(f.Vertices); b++ {
				edges[edge{f.Vertices[a], f.Vertices[b]}] = true
			}
		}
	}

	keys := make([]edge, 0, len(edges))
	for e := range edges {
		keys = append(keys, e)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	for _, e := range keys {
		a, b := c.Cloud.Entries[e.a], c.Cloud.Entries[e.b]
		// A binary interval between equal energies is a flat segment,
		// not a two-phase field.
		if dimension == 2 && math.Abs(a.Energy-b.Energy) <= NormalTolerance {
			continue
		}
		d.TieLines = append(d.TieLines, TieLine{
			A:            a.Label,
			B:            b.Label,
			CompositionA: slices.Clone(a.Composition),
			CompositionB: slices.Clone(b.Composition),
		})
	}
	return d, nil
}

// orderBoundary reorders facet vertices in place: by composition for
// binaries, positively oriented otherwise.
func orderBoundary(c *StableComplex, verts []int) error {
	k := c.Components() - 1
	if k == 1 {
		sort.Slice(verts, func(i, j int) bool {
			return c.Cloud.Points[verts[i]][0] < c.Cloud.Points[verts[j]][0]
		})
		return nil
	}
	pts := make([][]float64, len(verts))
	for i, v := range verts {
		pts[i] = c.Cloud.Points[v][:k]
	}
	o, err := geom.Orient(pts, 0)
	if err != nil {
		return err
	}
	if o.Sign == geom.Negative {
		n := len(verts)
		verts[n-2], verts[n-1] = verts[n-1], verts[n-2]
	}
	return nil
}

// Locate returns the region that contains composition. Points on a shared
// boundary resolve to the lowest-indexed region.
func (d *Diagram) Locate(composition []float64) (*PhaseRegion, error) {
	if len(composition) != d.Dimension {
		return nil, perr.New(perr.ErrCodeInvalidComposition,
			"composition has %d components, want %d", len(composition), d.Dimension)
	}
	x := Reduced(composition)
	for i := range d.Regions {
		r := &d.Regions[i]
		pts := make([][]float64, len(r.Boundary))
		for j, b := range r.Boundary {
			pts[j] = Reduced(b)
		}
		w, err := geom.Barycentric(pts, x)
		if err != nil {
			continue
		}
		if slices.Min(w) >= -membershipTolerance {
			return r, nil
		}
	}
	return nil, perr.New(perr.ErrCodeNotFound, "no region contains %v", composition)
}
