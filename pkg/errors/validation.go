package errors

import (
	"math"
	"strings"
	"unicode"
)

// SimplexTolerance is the allowed deviation of a composition's sum from 1.
const SimplexTolerance = 1e-9

// ValidateLabel validates an entry label (usually a formula such as "Fe2O3").
//
// The validation rules are intentionally conservative:
//   - No empty labels
//   - No control characters
//   - Maximum length of 128 characters
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return New(ErrCodeInvalidInput, "entry label cannot be empty")
	}

	if len(label) > 128 {
		return New(ErrCodeInvalidInput, "entry label too long (max 128 characters)")
	}

	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "entry label contains invalid control characters")
		}
	}

	return nil
}

// ValidateFinite rejects NaN and infinite values in v.
// The name is used in the error message to point at the offending field.
func ValidateFinite(name string, v ...float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return New(ErrCodeInvalidInput, "%s[%d] is not finite: %v", name, i, x)
		}
	}
	return nil
}

// ValidateComposition checks that c is a point of the composition simplex:
// at least two components, every fraction non-negative and the sum equal to 1
// within SimplexTolerance.
func ValidateComposition(c []float64) error {
	if len(c) < 2 {
		return New(ErrCodeInvalidComposition, "composition needs at least 2 components, got %d", len(c))
	}
	if err := ValidateFinite("composition", c...); err != nil {
		return New(ErrCodeInvalidComposition, "%s", UserMessage(err))
	}

	sum := 0.0
	for i, x := range c {
		if x < -SimplexTolerance {
			return New(ErrCodeInvalidComposition, "composition fraction %d is negative: %g", i, x)
		}
		sum += x
	}
	if math.Abs(sum-1) > SimplexTolerance {
		return New(ErrCodeInvalidComposition, "composition fractions sum to %g, want 1", sum)
	}
	return nil
}

// ValidateAxes checks a chemical-potential projection: three distinct axes,
// each in [0, components).
func ValidateAxes(axes [3]int, components int) error {
	if components < 3 {
		return New(ErrCodeInvalidInput, "chemical potential projection needs at least 3 components, got %d", components)
	}
	for i, a := range axes {
		if a < 0 || a >= components {
			return New(ErrCodeInvalidInput, "axis %d out of range: %d (components: %d)", i, a, components)
		}
		for _, b := range axes[:i] {
			if a == b {
				return New(ErrCodeInvalidInput, "duplicate axis: %d", a)
			}
		}
	}
	return nil
}
