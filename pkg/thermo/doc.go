// Package thermo recomputes stable complexes across temperature.
//
// A [Series] holds the energies of a fixed set of entries at discrete
// temperature samples. [Series.HullAt] interpolates every entry's energy
// linearly between the two bracketing samples and rebuilds the complex from
// scratch; hulls are never updated incrementally. Temperatures outside the
// sampled range fail with OUT_OF_RANGE, whose detail carries the bounds:
//
//	c, err := s.HullAt(1750)
//	var oor *errors.OutOfRangeError
//	if stderrors.As(err, &oor) {
//	    c, err = s.HullAt(oor.Clamp())
//	}
//
// Slider-style callers that address samples by position use
// [Series.HullAtIndex]. Memoizing results is left to the caller (see the
// pipeline package).
package thermo
