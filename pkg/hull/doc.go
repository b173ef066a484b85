// Package hull builds convex hulls of point sets in arbitrary dimension.
//
// # Overview
//
// [Build] implements Quickhull for d >= 2. The result is a list of oriented
// (d-1)-simplices, one per facet, each carrying an outward unit normal and an
// offset such that every input point p satisfies n·p - c <= eps.
//
//	h, err := hull.Build(points, hull.WithTolerance(1e-10))
//	if errors.Is(err, errors.ErrCodeDegenerateInput) {
//	    // fewer than d+1 affinely independent points
//	}
//	for _, f := range h.Facets {
//	    fmt.Println(f.Vertices, f.Normal)
//	}
//
// # Degeneracy
//
// Points lying within eps of a facet are treated as inside and never become
// vertices, so the output is minimal: no facet has a vertex that lies in the
// affine span of its other vertices. Facets of a flat region are triangulated
// arbitrarily but consistently.
//
// eps is the configured relative tolerance scaled by the magnitude of the
// input coordinates. Distances that fall within the warning band above eps
// are classified as usual but recorded in [Hull.Warnings] as
// NUMERICAL_INSTABILITY so callers can flag near-degenerate input.
//
// # Concurrency
//
// Build does not retain its input and a returned Hull is immutable; it may be
// shared between goroutines.
package hull
