package geom

import "errors"

var (
	// ErrDimensionMismatch is returned when points or matrices have
	// incompatible shapes (e.g. d+1 points required in d-space).
	ErrDimensionMismatch = errors.New("geom: dimension mismatch")

	// ErrDegenerate is returned when a point set does not span the space a
	// predicate needs (collinear, coplanar, repeated points).
	ErrDegenerate = errors.New("geom: degenerate point set")

	// ErrSingular is returned by [Solve] when the system has no unique solution.
	ErrSingular = errors.New("geom: singular matrix")
)
