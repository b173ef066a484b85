package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultTolerance is the relative epsilon used by the predicates.
	DefaultTolerance = 1e-9

	// DefaultWarnFactor widens the tolerance band in which a result is still
	// classified but reported as marginal.
	DefaultWarnFactor = 10.0

	// SimplexTolerance is the allowed deviation of a composition sum from 1.
	SimplexTolerance = 1e-9
)

// Orientation is the sign of a d-simplex volume.
type Orientation int

const (
	Negative   Orientation = -1
	Degenerate Orientation = 0
	Positive   Orientation = 1
)

func (o Orientation) String() string {
	switch o {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "degenerate"
	}
}

// OrientationResult is the detailed outcome of [Orient].
type OrientationResult struct {
	Sign Orientation
	// Det is the raw determinant of the edge-vector matrix.
	Det float64
	// Relative is Det divided by the product of the edge lengths, in [-1, 1].
	Relative float64
	// Marginal is set for a non-degenerate result whose |Relative| lies within
	// DefaultWarnFactor times the tolerance.
	Marginal bool
}

// Orient classifies d+1 points in d-space by the sign of det[p1-p0, ..., pd-p0].
// The determinant is normalized by the product of the edge lengths before being
// compared with tol, so the classification does not depend on the scale of the
// coordinates. A non-positive tol selects DefaultTolerance.
func Orient(points [][]float64, tol float64) (OrientationResult, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	d := len(points) - 1
	if d < 1 {
		return OrientationResult{}, fmt.Errorf("orient: need at least 2 points: %w", ErrDimensionMismatch)
	}
	for i, p := range points {
		if len(p) != d {
			return OrientationResult{}, fmt.Errorf("orient: point %d has dimension %d, want %d: %w", i, len(p), d, ErrDimensionMismatch)
		}
	}

	data := make([]float64, 0, d*d)
	scale := 1.0
	for i := 1; i <= d; i++ {
		e := Sub(points[i], points[0])
		n := Norm(e)
		if n == 0 {
			return OrientationResult{Sign: Degenerate}, nil
		}
		scale *= n
		data = append(data, e...)
	}

	det := mat.Det(mat.NewDense(d, d, data))
	rel := det / scale
	res := OrientationResult{Det: det, Relative: rel}
	switch {
	case math.Abs(rel) <= tol:
		res.Sign = Degenerate
	case rel > 0:
		res.Sign = Positive
	default:
		res.Sign = Negative
	}
	res.Marginal = res.Sign != Degenerate && math.Abs(rel) <= tol*DefaultWarnFactor
	return res, nil
}

// OrientationOf is [Orient] with the default tolerance, returning only the sign.
func OrientationOf(points [][]float64) (Orientation, error) {
	res, err := Orient(points, DefaultTolerance)
	return res.Sign, err
}

// Hyperplane returns the unit normal n and offset c of the hyperplane n·x = c
// through d points in d-space. The normal is the generalized cross product of
// the edge vectors (cofactor expansion), so its sign follows the point order:
// for points p0..p{d-1} and any q, Orient(p0..p{d-1}, q) has the sign of
// n·q - c.
//
// ErrDegenerate is returned when the points do not span a (d-1)-flat.
func Hyperplane(points [][]float64, tol float64) ([]float64, float64, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	d := len(points)
	if d < 2 {
		return nil, 0, fmt.Errorf("hyperplane: need at least 2 points: %w", ErrDimensionMismatch)
	}
	for i, p := range points {
		if len(p) != d {
			return nil, 0, fmt.Errorf("hyperplane: point %d has dimension %d, want %d: %w", i, len(p), d, ErrDimensionMismatch)
		}
	}

	edges := make([][]float64, d-1)
	scale := 1.0
	for i := 1; i < d; i++ {
		edges[i-1] = Sub(points[i], points[0])
		scale *= Norm(edges[i-1])
	}
	if scale == 0 {
		return nil, 0, ErrDegenerate
	}

	normal := make([]float64, d)
	minor := make([]float64, (d-1)*(d-1))
	for j := 0; j < d; j++ {
		k := 0
		for _, e := range edges {
			for c := 0; c < d; c++ {
				if c == j {
					continue
				}
				minor[k] = e[c]
				k++
			}
		}
		cof := mat.Det(mat.NewDense(d-1, d-1, minor))
		// Sign chosen so that det[edges; q-p0] = n·(q-p0).
		if (d-1+j)%2 == 1 {
			cof = -cof
		}
		normal[j] = cof
	}

	n := Norm(normal)
	if n <= tol*scale {
		return nil, 0, ErrDegenerate
	}
	normal = Scale(normal, 1/n)
	return normal, Dot(normal, points[0]), nil
}

// InSimplex reports whether c is a valid composition: all fractions
// non-negative and summing to 1 within SimplexTolerance.
func InSimplex(c []float64) bool {
	if len(c) == 0 {
		return false
	}
	sum := 0.0
	for _, x := range c {
		if x < -SimplexTolerance || math.IsNaN(x) {
			return false
		}
		sum += x
	}
	return math.Abs(sum-1) <= SimplexTolerance
}
