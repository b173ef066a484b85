package geom_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/phasehull/pkg/geom"
)

func TestOrient_Signs(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		want   geom.Orientation
	}{
		{"ccw triangle", [][]float64{{0, 0}, {1, 0}, {0, 1}}, geom.Positive},
		{"cw triangle", [][]float64{{0, 0}, {0, 1}, {1, 0}}, geom.Negative},
		{"collinear", [][]float64{{0, 0}, {1, 1}, {2, 2}}, geom.Degenerate},
		{"repeated point", [][]float64{{0, 0}, {0, 0}, {1, 2}}, geom.Degenerate},
		{"tetrahedron", [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, geom.Positive},
		{"flat tetrahedron", [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}, geom.Degenerate},
		{"4-simplex", [][]float64{{0, 0, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}, geom.Positive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := geom.OrientationOf(tt.points)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrient_ScaleInvariant(t *testing.T) {
	// A sliver that is degenerate at unit scale must stay degenerate when the
	// coordinates are multiplied by a large factor.
	base := [][]float64{{0, 0}, {1, 0}, {2, 1e-12}}
	for _, s := range []float64{1e-6, 1, 1e6} {
		pts := make([][]float64, len(base))
		for i, p := range base {
			pts[i] = geom.Scale(p, s)
		}
		res, err := geom.Orient(pts, 0)
		require.NoError(t, err)
		assert.Equal(t, geom.Degenerate, res.Sign, "scale %g", s)
	}
}

func TestOrient_Marginal(t *testing.T) {
	res, err := geom.Orient([][]float64{{0, 0}, {1, 0}, {0.5, 5e-9}}, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, geom.Positive, res.Sign)
	assert.True(t, res.Marginal)

	res, err = geom.Orient([][]float64{{0, 0}, {1, 0}, {0, 1}}, 1e-9)
	require.NoError(t, err)
	assert.False(t, res.Marginal)
}

func TestOrient_DimensionMismatch(t *testing.T) {
	_, err := geom.Orient([][]float64{{0, 0}, {1, 0}}, 0)
	require.ErrorIs(t, err, geom.ErrDimensionMismatch)

	_, err = geom.Orient([][]float64{{0}}, 0)
	require.ErrorIs(t, err, geom.ErrDimensionMismatch)
}

func TestHyperplane(t *testing.T) {
	// Line through (0,0) and (1,0): normal must be ±y.
	n, c, err := geom.Hyperplane([][]float64{{0, 0}, {1, 0}}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, n[0], 1e-12)
	assert.InDelta(t, 1, math.Abs(n[1]), 1e-12)
	assert.InDelta(t, 0, c, 1e-12)

	// Plane z = 1 in 3D.
	pts := [][]float64{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}}
	n, c, err = geom.Hyperplane(pts, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1, math.Abs(n[2]), 1e-12)
	assert.InDelta(t, 1, math.Abs(c), 1e-12)

	// Sign is consistent with Orient for any query point.
	q := []float64{0.3, 0.2, 5}
	res, err := geom.Orient(append(append([][]float64{}, pts...), q), 0)
	require.NoError(t, err)
	side := geom.Dot(n, q) - c
	assert.Equal(t, res.Sign == geom.Positive, side > 0)
}

func TestHyperplane_Degenerate(t *testing.T) {
	_, _, err := geom.Hyperplane([][]float64{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}}, 0)
	require.ErrorIs(t, err, geom.ErrDegenerate)
}

func TestInSimplex(t *testing.T) {
	assert.True(t, geom.InSimplex([]float64{0.25, 0.75}))
	assert.True(t, geom.InSimplex([]float64{1, 0, 0}))
	assert.True(t, geom.InSimplex([]float64{0.5, 0.5 - 5e-10}))
	assert.False(t, geom.InSimplex([]float64{0.5, 0.6}))
	assert.False(t, geom.InSimplex([]float64{1.1, -0.1}))
	assert.False(t, geom.InSimplex(nil))
}

func TestSolve(t *testing.T) {
	x, err := geom.Solve([][]float64{{2, 1}, {1, 3}}, []float64{3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, x[0], 1e-12)
	assert.InDelta(t, 1.4, x[1], 1e-12)

	_, err = geom.Solve([][]float64{{1, 2}, {2, 4}}, []float64{1, 2})
	require.ErrorIs(t, err, geom.ErrSingular)

	_, err = geom.Solve([][]float64{{1, 2}, {2, 4}}, []float64{1})
	require.ErrorIs(t, err, geom.ErrDimensionMismatch)
}

func TestSimplexMeasure(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		want   float64
	}{
		{"interval", [][]float64{{0.25}, {0.75}}, 0.5},
		{"unit triangle", [][]float64{{0, 0}, {1, 0}, {0, 1}}, 0.5},
		{"unit tetrahedron", [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, 1.0 / 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := geom.SimplexMeasure(tt.points)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestBarycentric(t *testing.T) {
	tri := [][]float64{{0, 0}, {1, 0}, {0, 1}}
	w, err := geom.Barycentric(tri, []float64{0.25, 0.25})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.25, 0.25}, w, 1e-12)

	w, err = geom.Barycentric([][]float64{{0.2}, {0.6}}, []float64{0.5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, w, 1e-12)
}

func TestCentroid(t *testing.T) {
	c := geom.Centroid([][]float64{{0, 0}, {2, 0}, {1, 3}})
	assert.InDeltaSlice(t, []float64{1, 1}, c, 1e-12)
	assert.Nil(t, geom.Centroid(nil))
}
