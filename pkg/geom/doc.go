// Package geom provides the N-dimensional primitives the hull engine is built on.
//
// # Overview
//
// Points and vectors are plain []float64 slices. The package offers vector
// arithmetic ([Sub], [Dot], [Norm], [Centroid]), determinant-based predicates
// ([Orient], [Hyperplane]), composition checks ([InSimplex]) and small dense
// linear algebra ([Solve], [SimplexMeasure]) backed by gonum.
//
// # Robustness
//
// Naive floating-point orientation tests misclassify nearly coplanar point
// sets. [Orient] therefore compares the determinant of the edge-vector matrix
// against a threshold scaled by the product of the edge lengths (the Hadamard
// bound), which makes the test invariant to the magnitude of the input. A
// result whose magnitude is within WarnFactor times the threshold is flagged
// as Marginal so callers can report it as a numerical-instability warning.
//
// # Concurrency
//
// Every function is pure and safe for concurrent use.
package geom
