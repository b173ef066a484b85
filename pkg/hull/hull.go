package hull

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/geom"
)

// Facet is an oriented (d-1)-simplex on the hull boundary.
type Facet struct {
	// Vertices are ascending indices into Hull.Points.
	Vertices []int
	// Normal is the outward unit normal.
	Normal []float64
	// Offset is the plane constant: Normal·x = Offset on the facet.
	Offset float64
}

// Distance returns the signed distance of p above the facet plane.
func (f Facet) Distance(p []float64) float64 {
	return geom.Dot(f.Normal, p) - f.Offset
}

// Hull is the convex hull of a point set.
type Hull struct {
	Dim     int
	Points  [][]float64
	Facets  []Facet
	Epsilon float64

	// Warnings holds NUMERICAL_INSTABILITY errors for predicates that landed
	// inside the warning band. A non-empty list does not invalidate the hull.
	Warnings []error
}

// Vertices returns the ascending indices of points that are hull vertices.
func (h *Hull) Vertices() []int {
	seen := make(map[int]bool)
	var out []int
	for _, f := range h.Facets {
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

// Distance returns the largest signed facet distance of p. Values <= Epsilon
// mean p lies inside or on the hull.
func (h *Hull) Distance(p []float64) float64 {
	best := math.Inf(-1)
	for _, f := range h.Facets {
		best = max(best, f.Distance(p))
	}
	return best
}

// Contains reports whether p lies inside the hull or within Epsilon of its boundary.
func (h *Hull) Contains(p []float64) bool {
	return len(p) == h.Dim && h.Distance(p) <= h.Epsilon
}

// Build computes the convex hull of points with Quickhull.
//
// All points must share a dimension d >= 2. Fewer than d+1 points, or a set
// whose affine span is lower-dimensional, fails with DEGENERATE_INPUT.
func Build(points [][]float64, opts ...Option) (*Hull, error) {
	o := gatherOptions(opts)

	if len(points) == 0 {
		return nil, perr.New(perr.ErrCodeDegenerateInput, "empty point set")
	}
	d := len(points[0])
	if d < 2 {
		return nil, perr.New(perr.ErrCodeDegenerateInput, "dimension %d not supported (need at least 2)", d)
	}
	pts := make([][]float64, len(points))
	for i, p := range points {
		if len(p) != d {
			return nil, perr.New(perr.ErrCodeInvalidInput, "point %d has dimension %d, want %d", i, len(p), d)
		}
		if err := perr.ValidateFinite(fmt.Sprintf("point %d", i), p...); err != nil {
			return nil, err
		}
		pts[i] = geom.Clone(p)
	}
	if len(pts) < d+1 {
		return nil, perr.New(perr.ErrCodeDegenerateInput, "need at least %d points in %d dimensions, got %d", d+1, d, len(pts))
	}

	eps := o.tol * max(1, geom.MaxAbs(pts))
	b := &builder{
		pts:     pts,
		d:       d,
		eps:     eps,
		warnEps: eps * o.warnFactor,
		logger:  o.logger,
		ridges:  make(map[string][]int),
		warned:  make(map[int]bool),
	}
	if err := b.run(); err != nil {
		return nil, err
	}

	h := &Hull{Dim: d, Points: pts, Epsilon: eps, Warnings: b.warnings}
	for _, f := range b.facets {
		if f.alive {
			h.Facets = append(h.Facets, Facet{Vertices: f.verts, Normal: f.normal, Offset: f.offset})
		}
	}
	sort.Slice(h.Facets, func(i, j int) bool {
		return slices.Compare(h.Facets[i].Vertices, h.Facets[j].Vertices) < 0
	})
	return h, nil
}

// =============================================================================
// Quickhull
// =============================================================================

type facet struct {
	verts   []int
	normal  []float64
	offset  float64
	outside []int
	alive   bool
}

func (f *facet) distance(p []float64) float64 {
	return geom.Dot(f.normal, p) - f.offset
}

type builder struct {
	pts      [][]float64
	d        int
	eps      float64
	warnEps  float64
	logger   *log.Logger
	interior []float64

	facets []*facet
	// ridges maps a sorted (d-1)-vertex key to the ids of the facets sharing it.
	ridges map[string][]int

	warnings []error
	warned   map[int]bool
}

func (b *builder) run() error {
	simplex, err := b.seed()
	if err != nil {
		return err
	}

	seedPts := make([][]float64, len(simplex))
	for i, v := range simplex {
		seedPts[i] = b.pts[v]
	}
	b.interior = geom.Centroid(seedPts)

	var stack []int
	for skip := range simplex {
		id, err := b.addFacet(without(simplex, skip))
		if err != nil {
			return err
		}
		stack = append(stack, id)
	}

	inSeed := make(map[int]bool, len(simplex))
	for _, v := range simplex {
		inSeed[v] = true
	}
	for p := range b.pts {
		if !inSeed[p] {
			b.assign(p, stack)
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f := b.facets[id]
		if !f.alive || len(f.outside) == 0 {
			continue
		}

		eye, dist := b.farthest(f)
		b.checkMargin(eye, dist, f.verts)

		visible := b.visible(id, eye)
		horizon := b.horizon(visible)

		var orphans []int
		for _, vid := range visible {
			for _, p := range b.facets[vid].outside {
				if p != eye {
					orphans = append(orphans, p)
				}
			}
			b.remove(vid)
		}

		created := make([]int, 0, len(horizon))
		for _, ridge := range horizon {
			nid, err := b.addFacet(append(ridge, eye))
			if err != nil {
				return err
			}
			created = append(created, nid)
		}
		for _, p := range orphans {
			b.assign(p, created)
		}
		stack = append(stack, created...)
	}
	return nil
}

// seed picks d+1 affinely independent points by repeatedly taking the point
// farthest from the affine span of those already chosen.
func (b *builder) seed() ([]int, error) {
	first := 0
	for i, p := range b.pts {
		if p[0] < b.pts[first][0] {
			first = i
		}
	}
	origin := b.pts[first]
	simplex := []int{first}
	var basis [][]float64

	for len(simplex) < b.d+1 {
		best, bestDist := -1, b.eps
		var bestResid []float64
		for i, p := range b.pts {
			r := geom.Sub(p, origin)
			for _, e := range basis {
				r = geom.Sub(r, geom.Scale(e, geom.Dot(r, e)))
			}
			if dist := geom.Norm(r); dist > bestDist {
				best, bestDist, bestResid = i, dist, r
			}
		}
		if best < 0 {
			return nil, perr.New(perr.ErrCodeDegenerateInput,
				"points span only %d of %d dimensions", len(basis), b.d)
		}
		basis = append(basis, geom.Scale(bestResid, 1/bestDist))
		simplex = append(simplex, best)
	}
	return simplex, nil
}

func (b *builder) addFacet(verts []int) (int, error) {
	verts = slices.Clone(verts)
	sort.Ints(verts)
	vp := make([][]float64, len(verts))
	for i, v := range verts {
		vp[i] = b.pts[v]
	}
	normal, offset, err := geom.Hyperplane(vp, math.SmallestNonzeroFloat64)
	if err != nil {
		return 0, perr.Wrap(perr.ErrCodeDegenerateInput, err, "facet %v", verts)
	}
	if geom.Dot(normal, b.interior)-offset > 0 {
		normal = geom.Scale(normal, -1)
		offset = -offset
	}

	id := len(b.facets)
	b.facets = append(b.facets, &facet{verts: verts, normal: normal, offset: offset, alive: true})
	for skip := range verts {
		key := ridgeKey(verts, skip)
		b.ridges[key] = append(b.ridges[key], id)
	}
	return id, nil
}

func (b *builder) remove(id int) {
	f := b.facets[id]
	f.alive = false
	f.outside = nil
	for skip := range f.verts {
		key := ridgeKey(f.verts, skip)
		ids := slices.DeleteFunc(b.ridges[key], func(x int) bool { return x == id })
		if len(ids) == 0 {
			delete(b.ridges, key)
		} else {
			b.ridges[key] = ids
		}
	}
}

// assign puts p in the outside set of the first candidate it lies above.
// Points within eps of every candidate are inside (or coplanar) and dropped.
func (b *builder) assign(p int, candidates []int) {
	for _, id := range candidates {
		f := b.facets[id]
		if f.distance(b.pts[p]) > b.eps {
			f.outside = append(f.outside, p)
			return
		}
	}
}

func (b *builder) farthest(f *facet) (int, float64) {
	best, bestDist := f.outside[0], math.Inf(-1)
	for _, p := range f.outside {
		if dist := f.distance(b.pts[p]); dist > bestDist {
			best, bestDist = p, dist
		}
	}
	return best, bestDist
}

// visible collects the facets the eye point lies above, starting from start
// and spreading across shared ridges.
func (b *builder) visible(start, eye int) []int {
	seen := map[int]bool{start: true}
	queue := []int{start}
	var out []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)

		f := b.facets[id]
		for skip := range f.verts {
			for _, nb := range b.ridges[ridgeKey(f.verts, skip)] {
				if nb == id || seen[nb] {
					continue
				}
				seen[nb] = true
				n := b.facets[nb]
				dist := n.distance(b.pts[eye])
				if dist > b.eps {
					b.checkMargin(eye, dist, n.verts)
					queue = append(queue, nb)
				}
			}
		}
	}
	return out
}

// horizon returns the ridges between visible and non-visible facets.
func (b *builder) horizon(visible []int) [][]int {
	vis := make(map[int]bool, len(visible))
	for _, id := range visible {
		vis[id] = true
	}
	var out [][]int
	for _, id := range visible {
		f := b.facets[id]
		for skip := range f.verts {
			for _, nb := range b.ridges[ridgeKey(f.verts, skip)] {
				if nb != id && !vis[nb] {
					out = append(out, without(f.verts, skip))
				}
			}
		}
	}
	return out
}

func (b *builder) checkMargin(p int, dist float64, verts []int) {
	if dist > b.warnEps || b.warned[p] {
		return
	}
	b.warned[p] = true
	err := perr.New(perr.ErrCodeNumericalInstability,
		"point %d lies %.3g above facet %v (eps %.3g)", p, dist, verts, b.eps)
	b.warnings = append(b.warnings, err)
	if b.logger != nil {
		b.logger.Warn("near-degenerate hull predicate", "point", p, "distance", dist, "eps", b.eps)
	}
}

// without returns verts with the element at skip removed.
func without(verts []int, skip int) []int {
	out := make([]int, 0, len(verts)-1)
	out = append(out, verts[:skip]...)
	return append(out, verts[skip+1:]...)
}

func ridgeKey(verts []int, skip int) string {
	var sb strings.Builder
	for i, v := range verts {
		if i == skip {
			continue
		}
		sb.WriteString(strconv.Itoa(v))
		sb.WriteByte(',')
	}
	return sb.String()
}
