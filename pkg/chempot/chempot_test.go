package chempot_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/phasehull/pkg/chempot"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/phase"
)

func ternaryComplex(t *testing.T) *phase.StableComplex {
	t.Helper()
	entries := []phase.Entry{
		{Label: "A", Composition: []float64{1, 0, 0}},
		{Label: "B", Composition: []float64{0, 1, 0}},
		{Label: "C", Composition: []float64{0, 0, 1}},
		{Label: "ABC", Composition: []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, Energy: -0.9},
	}
	c, err := phase.Build(entries)
	require.NoError(t, err)
	return c
}

func TestProject_Ternary(t *testing.T) {
	c := ternaryComplex(t)
	p, err := chempot.Project(c, [3]int{0, 1, 2})
	require.NoError(t, err)

	// ABC splits the simplex into three triangles, each one potential vertex.
	require.Len(t, p.Vertices, 3)
	assert.Len(t, p.Edges, 3)
	assert.Len(t, p.Domains["ABC"], 3)
	assert.Len(t, p.Domains["A"], 2)

	// Facet A-B-ABC: μ_A = μ_B = 0, so μ_C = 3·(-0.9).
	for _, v := range p.Vertices {
		assert.Contains(t, v.Labels, "ABC")
		zeros := 0
		for _, mu := range v.MuFull {
			if mu > -1e-9 && mu < 1e-9 {
				zeros++
			}
		}
		assert.Equal(t, 2, zeros, "vertex %v", v.Labels)
		assert.InDelta(t, -2.7, v.Mu[0]+v.Mu[1]+v.Mu[2], 1e-9)
	}
}

func TestProject_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	entries := []phase.Entry{
		{Label: "A", Composition: []float64{1, 0, 0, 0}, Energy: -0.1},
		{Label: "B", Composition: []float64{0, 1, 0, 0}},
		{Label: "C", Composition: []float64{0, 0, 1, 0}, Energy: 0.2},
		{Label: "D", Composition: []float64{0, 0, 0, 1}},
	}
	for i := range 15 {
		w := []float64{rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()}
		sum := w[0] + w[1] + w[2] + w[3]
		for j := range w {
			w[j] /= sum
		}
		w[0] = 1 - w[1] - w[2] - w[3]
		entries = append(entries, phase.Entry{Label: fmt.Sprintf("Q%d", i), Composition: w, Energy: -rng.Float64()})
	}
	c, err := phase.Build(entries)
	require.NoError(t, err)

	p, err := chempot.Project(c, [3]int{3, 1, 0})
	require.NoError(t, err)
	require.Len(t, p.Vertices, len(c.Facets))

	for i, v := range p.Vertices {
		got, err := p.FacetEnergies(i)
		require.NoError(t, err)
		f := c.Facets[v.Facet]
		for j, idx := range f.Vertices {
			assert.InDelta(t, c.Cloud.Entries[idx].Energy, got[j], 1e-9)
		}
		assert.Equal(t, []float64{v.MuFull[3], v.MuFull[1], v.MuFull[0]}, v.Mu)
	}
}

func TestProject_InvalidAxes(t *testing.T) {
	c := ternaryComplex(t)
	for _, axes := range [][3]int{{0, 0, 1}, {0, 1, 3}} {
		_, err := chempot.Project(c, axes)
		assert.True(t, perr.Is(err, perr.ErrCodeInvalidInput), "axes %v", axes)
	}

	bin, err := phase.Build([]phase.Entry{
		{Label: "A", Composition: []float64{1, 0}},
		{Label: "B", Composition: []float64{0, 1}},
	})
	require.NoError(t, err)
	_, err = chempot.Project(bin, [3]int{0, 1, 2})
	assert.True(t, perr.Is(err, perr.ErrCodeInvalidInput))

	p, err := chempot.Project(c, [3]int{0, 1, 2})
	require.NoError(t, err)
	_, err = p.FacetEnergies(99)
	assert.True(t, perr.Is(err, perr.ErrCodeNotFound))
}
