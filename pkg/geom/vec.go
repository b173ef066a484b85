package geom

import "math"

// Sub returns a - b.
func Sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Add returns a + b.
func Add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// Scale returns s * a.
func Scale(a []float64, s float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * s
	}
	return out
}

// Dot returns the inner product of a and b.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the Euclidean length of a.
func Norm(a []float64) float64 {
	return math.Sqrt(Dot(a, a))
}

// Centroid returns the arithmetic mean of points. It returns nil for an empty set.
func Centroid(points [][]float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	c := make([]float64, len(points[0]))
	for _, p := range points {
		for i, x := range p {
			c[i] += x
		}
	}
	return Scale(c, 1/float64(len(points)))
}

// MaxAbs returns the largest absolute coordinate over all points, or 0 for an empty set.
// It is used to scale tolerances to the magnitude of the input.
func MaxAbs(points [][]float64) float64 {
	var m float64
	for _, p := range points {
		for _, x := range p {
			m = max(m, math.Abs(x))
		}
	}
	return m
}

// Clone returns a deep copy of p.
func Clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}
