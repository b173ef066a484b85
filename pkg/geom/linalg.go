package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Det returns the determinant of a square matrix given as rows.
func Det(rows [][]float64) (float64, error) {
	n := len(rows)
	if n == 0 {
		return 0, fmt.Errorf("det: empty matrix: %w", ErrDimensionMismatch)
	}
	m, err := dense(rows, n)
	if err != nil {
		return 0, fmt.Errorf("det: %w", err)
	}
	return mat.Det(m), nil
}

// Solve returns x with a·x = b for a square matrix a given as rows.
// Ill-conditioned systems are solved on a best-effort basis; exactly singular
// systems return ErrSingular.
func Solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 || len(b) != n {
		return nil, fmt.Errorf("solve: %dx? matrix with %d right-hand side values: %w", n, len(b), ErrDimensionMismatch)
	}
	m, err := dense(a, n)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	var x mat.VecDense
	if err := x.SolveVec(m, mat.NewVecDense(n, Clone(b))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, ErrSingular
		}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = x.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, ErrSingular
		}
	}
	return out, nil
}

// SimplexMeasure returns the k-dimensional volume of the simplex spanned by
// k+1 points in k-space: |det[p1-p0, ..., pk-p0]| / k!.
func SimplexMeasure(points [][]float64) (float64, error) {
	k := len(points) - 1
	if k < 1 {
		return 0, fmt.Errorf("measure: need at least 2 points: %w", ErrDimensionMismatch)
	}
	rows := make([][]float64, k)
	for i := 1; i <= k; i++ {
		if len(points[i]) != k || len(points[0]) != k {
			return 0, fmt.Errorf("measure: %d points in %d-space: %w", k+1, len(points[i]), ErrDimensionMismatch)
		}
		rows[i-1] = Sub(points[i], points[0])
	}
	det, err := Det(rows)
	if err != nil {
		return 0, err
	}
	fact := 1.0
	for i := 2; i <= k; i++ {
		fact *= float64(i)
	}
	return math.Abs(det) / fact, nil
}

// Barycentric returns the barycentric coordinates of p with respect to the
// k-simplex with vertices (k+1 points in k-space).
func Barycentric(vertices [][]float64, p []float64) ([]float64, error) {
	k := len(vertices) - 1
	if k < 1 || len(p) != k {
		return nil, fmt.Errorf("barycentric: %d vertices for a %d-point: %w", len(vertices), len(p), ErrDimensionMismatch)
	}
	// Columns are v_i - v_0; solve for the last k weights.
	a := make([][]float64, k)
	for r := 0; r < k; r++ {
		a[r] = make([]float64, k)
		for c := 1; c <= k; c++ {
			a[r][c-1] = vertices[c][r] - vertices[0][r]
		}
	}
	w, err := Solve(a, Sub(p, vertices[0]))
	if err != nil {
		return nil, err
	}
	lambda := make([]float64, k+1)
	lambda[0] = 1
	for i, x := range w {
		lambda[i+1] = x
		lambda[0] -= x
	}
	return lambda, nil
}

func dense(rows [][]float64, cols int) (*mat.Dense, error) {
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(r), cols, ErrDimensionMismatch)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
