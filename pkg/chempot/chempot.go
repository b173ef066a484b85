// Package chempot maps a stable complex to chemical-potential space.
//
// Each stable facet is a plane E = μ·x over the compositions of its vertex
// entries. Solving that N×N system gives the facet's chemical potentials
// μ_i = ∂E/∂x_i, one point of the Legendre-dual polytope. Facets that share
// a ridge are joined by an edge, and the facets around a stable phase bound
// its existence domain. [Project] keeps three of the N axes for display.
//
// Unbounded rays of the domains (phases at the simplex boundary extend to
// μ → -∞) are not represented; only the finite vertices and edges are.
package chempot

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/geom"
	"github.com/matzehuels/phasehull/pkg/phase"
)

// Vertex is the chemical-potential point of one stable facet.
type Vertex struct {
	Facet  int       `json:"facet"`
	Mu     []float64 `json:"mu"`
	MuFull []float64 `json:"mu_full"`
	Labels []string  `json:"labels"`
}

// Polytope is the projected chemical-potential diagram.
type Polytope struct {
	Axes     [3]int           `json:"axes"`
	Vertices []Vertex         `json:"vertices"`
	Edges    [][2]int         `json:"edges"`
	Domains  map[string][]int `json:"domains"`

	compositions [][][]float64 // per vertex: facet vertex compositions
}

// Project computes the chemical-potential polytope of c and keeps the given
// three axes. c must have at least three components.
func Project(c *phase.StableComplex, axes [3]int) (*Polytope, error) {
	n := c.Components()
	if err := perr.ValidateAxes(axes, n); err != nil {
		return nil, err
	}

	p := &Polytope{Axes: axes, Domains: make(map[string][]int)}
	ridges := make(map[string][]int)

	for i, f := range c.Facets {
		rows := make([][]float64, len(f.Vertices))
		energies := make([]float64, len(f.Vertices))
		labels := make([]string, len(f.Vertices))
		for j, v := range f.Vertices {
			e := c.Cloud.Entries[v]
			rows[j] = slices.Clone(e.Composition)
			energies[j] = e.Energy
			labels[j] = e.Label
		}
		mu, err := geom.Solve(rows, energies)
		if err != nil {
			return nil, perr.Wrap(perr.ErrCodeNumericalInstability, err, "chemical potentials of facet %d", i)
		}

		idx := len(p.Vertices)
		p.Vertices = append(p.Vertices, Vertex{
			Facet:  i,
			Mu:     []float64{mu[axes[0]], mu[axes[1]], mu[axes[2]]},
			MuFull: mu,
			Labels: labels,
		})
		p.compositions = append(p.compositions, rows)
		for _, l := range labels {
			p.Domains[l] = append(p.Domains[l], idx)
		}
		for skip := range f.Vertices {
			key := ridgeKey(f.Vertices, skip)
			ridges[key] = append(ridges[key], idx)
		}
	}

	for _, ids := range ridges {
		if len(ids) == 2 {
			p.Edges = append(p.Edges, [2]int{min(ids[0], ids[1]), max(ids[0], ids[1])})
		}
	}
	sort.Slice(p.Edges, func(i, j int) bool {
		if p.Edges[i][0] != p.Edges[j][0] {
			return p.Edges[i][0] < p.Edges[j][0]
		}
		return p.Edges[i][1] < p.Edges[j][1]
	})
	return p, nil
}

// FacetEnergies maps vertex i back to the energies of its facet's entries,
// E_j = x_j·μ. It inverts [Project].
func (p *Polytope) FacetEnergies(i int) ([]float64, error) {
	// Decoded polytopes carry no compositions.
	if i < 0 || i >= len(p.compositions) {
		return nil, perr.New(perr.ErrCodeNotFound, "vertex %d not in [0, %d)", i, len(p.compositions))
	}
	rows := p.compositions[i]
	out := make([]float64, len(rows))
	for j, x := range rows {
		out[j] = geom.Dot(x, p.Vertices[i].MuFull)
	}
	return out, nil
}

// Compositions returns the entry compositions of vertex i's facet.
func (p *Polytope) Compositions(i int) [][]float64 {
	out := make([][]float64, len(p.compositions[i]))
	for j, c := range p.compositions[i] {
		out[j] = slices.Clone(c)
	}
	return out
}

func ridgeKey(verts []int, skip int) string {
	var sb strings.Builder
	for i, v := range verts {
		if i != skip {
			sb.WriteString(strconv.Itoa(v))
			sb.WriteByte(',')
		}
	}
	return sb.String()
}
