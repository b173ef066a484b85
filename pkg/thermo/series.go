package thermo

import (
	"math"
	"slices"
	"sort"

	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/hull"
	"github.com/matzehuels/phasehull/pkg/phase"
)

// Series is a fixed set of entries with energies sampled at discrete
// temperatures. It is immutable and safe for concurrent use.
type Series struct {
	temps    []float64
	base     []phase.Entry
	index    map[string]int
	energies [][]float64 // [sample][entry]
	opts     []hull.Option
}

// Slice is the stable complex and derived diagram at one temperature.
type Slice struct {
	Temperature float64
	Complex     *phase.StableComplex
	Diagram     *phase.Diagram
}

// NewSeries validates samples and returns a series. Every sample must contain
// the same labels with the same compositions; only energies may differ.
// The options configure each hull rebuild.
func NewSeries(samples map[float64][]phase.Entry, opts ...hull.Option) (*Series, error) {
	if len(samples) == 0 {
		return nil, perr.New(perr.ErrCodeInvalidInput, "series has no temperature samples")
	}
	temps := make([]float64, 0, len(samples))
	for t := range samples {
		if err := perr.ValidateFinite("temperature", t); err != nil {
			return nil, err
		}
		temps = append(temps, t)
	}
	sort.Float64s(temps)

	first := samples[temps[0]]
	if len(first) == 0 {
		return nil, perr.New(perr.ErrCodeInvalidInput, "sample at %g has no entries", temps[0])
	}
	s := &Series{
		temps:    temps,
		base:     make([]phase.Entry, len(first)),
		index:    make(map[string]int, len(first)),
		energies: make([][]float64, len(temps)),
		opts:     opts,
	}
	for i, e := range first {
		if _, dup := s.index[e.Label]; dup {
			return nil, perr.New(perr.ErrCodeInvalidInput, "duplicate entry %s at %g", e.Label, temps[0])
		}
		s.index[e.Label] = i
		s.base[i] = phase.Entry{Label: e.Label, Composition: slices.Clone(e.Composition)}
	}

	for k, t := range temps {
		sample := samples[t]
		if len(sample) != len(s.base) {
			return nil, perr.New(perr.ErrCodeInvalidInput,
				"sample at %g has %d entries, want %d", t, len(sample), len(s.base))
		}
		row := make([]float64, len(s.base))
		seen := make([]bool, len(s.base))
		for _, e := range sample {
			i, ok := s.index[e.Label]
			if !ok {
				return nil, perr.New(perr.ErrCodeInvalidInput, "entry %s at %g missing from other samples", e.Label, t)
			}
			if seen[i] {
				return nil, perr.New(perr.ErrCodeInvalidInput, "duplicate entry %s at %g", e.Label, t)
			}
			if !slices.Equal(e.Composition, s.base[i].Composition) {
				return nil, perr.New(perr.ErrCodeInvalidComposition,
					"entry %s changes composition at %g", e.Label, t)
			}
			if err := perr.ValidateFinite("energy", e.Energy); err != nil {
				return nil, perr.Wrap(perr.ErrCodeInvalidInput, err, "entry %s at %g", e.Label, t)
			}
			seen[i] = true
			row[i] = e.Energy
		}
		s.energies[k] = row
	}
	return s, nil
}

// Temperatures returns the sampled temperatures in ascending order.
func (s *Series) Temperatures() []float64 { return slices.Clone(s.temps) }

// Range returns the lowest and highest sampled temperature.
func (s *Series) Range() (lo, hi float64) { return s.temps[0], s.temps[len(s.temps)-1] }

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.temps) }

// Labels returns the entry labels in series order.
func (s *Series) Labels() []string {
	out := make([]string, len(s.base))
	for i, e := range s.base {
		out[i] = e.Label
	}
	return out
}

// EntriesAt returns every entry with its energy interpolated at t.
func (s *Series) EntriesAt(t float64) ([]phase.Entry, error) {
	lo, hi := s.Range()
	if math.IsNaN(t) || t < lo || t > hi {
		return nil, perr.OutOfRange(t, lo, hi)
	}
	i := sort.SearchFloat64s(s.temps, t)
	if s.temps[i] == t {
		return s.sample(i), nil
	}

	t0, t1 := s.temps[i-1], s.temps[i]
	w := (t - t0) / (t1 - t0)
	out := make([]phase.Entry, len(s.base))
	for j, e := range s.base {
		energy := (1-w)*s.energies[i-1][j] + w*s.energies[i][j]
		out[j] = e.At(t, energy)
	}
	return out, nil
}

func (s *Series) sample(k int) []phase.Entry {
	out := make([]phase.Entry, len(s.base))
	for j, e := range s.base {
		out[j] = e.At(s.temps[k], s.energies[k][j])
	}
	return out
}

// HullAt rebuilds the stable complex at temperature t.
func (s *Series) HullAt(t float64) (*phase.StableComplex, error) {
	entries, err := s.EntriesAt(t)
	if err != nil {
		return nil, err
	}
	return phase.Build(entries, s.opts...)
}

// HullAtIndex rebuilds the stable complex at the i-th sampled temperature.
func (s *Series) HullAtIndex(i int) (*phase.StableComplex, error) {
	if i < 0 || i >= len(s.temps) {
		return nil, perr.New(perr.ErrCodeOutOfRange, "sample index %d not in [0, %d]", i, len(s.temps)-1)
	}
	return phase.Build(s.sample(i), s.opts...)
}

// Sweep builds a slice at every requested temperature, or at every sample
// when temps is empty. All slices carry the series' special points; regions
// are derived only for systems of up to [phase.MaxRegionComponents]
// components.
func (s *Series) Sweep(temps []float64) ([]Slice, error) {
	if len(temps) == 0 {
		temps = s.temps
	}
	special, err := s.SpecialPoints()
	if err != nil {
		return nil, err
	}

	out := make([]Slice, 0, len(temps))
	for _, t := range temps {
		c, err := s.HullAt(t)
		if err != nil {
			return nil, err
		}
		d := &phase.Diagram{Dimension: c.Components()}
		if c.Components() <= phase.MaxRegionComponents {
			if d, err = phase.DeriveRegions(c, c.Components()); err != nil {
				return nil, err
			}
		}
		d.SpecialPoints = special
		out = append(out, Slice{Temperature: t, Complex: c, Diagram: d})
	}
	return out, nil
}

// SpecialPoints locates invariant points between adjacent samples.
//
// An entry whose stability flips between two samples coexists with its
// decomposition products at the temperature where its energy crosses theirs.
// The products and their fractions are taken from the sample on which the
// entry is unstable, and the crossing is found by linear interpolation.
// Entries that decompose into a single phase (polymorphs) are skipped.
func (s *Series) SpecialPoints() ([]phase.SpecialPoint, error) {
	complexes := make([]*phase.StableComplex, len(s.temps))
	for k := range s.temps {
		c, err := phase.Build(s.sample(k), s.opts...)
		if err != nil {
			return nil, err
		}
		complexes[k] = c
	}

	var out []phase.SpecialPoint
	for k := 0; k+1 < len(s.temps); k++ {
		lo, hi := complexes[k], complexes[k+1]
		for j, e := range s.base {
			stableLo, stableHi := lo.IsStable(e.Label), hi.IsStable(e.Label)
			if stableLo == stableHi {
				continue
			}
			unstable := hi
			if stableHi {
				unstable = lo
			}
			parts, err := unstable.Decomposition(e.Composition)
			if err != nil {
				return nil, err
			}
			if len(parts) < 2 {
				continue
			}

			delta := func(sample int) float64 {
				d := s.energies[sample][j]
				for _, p := range parts {
					d -= p.Fraction * s.energies[sample][s.index[p.Entry.Label]]
				}
				return d
			}
			d0, d1 := delta(k), delta(k+1)
			t0, t1 := s.temps[k], s.temps[k+1]
			tc := (t0 + t1) / 2
			if d0 != d1 {
				tc = t0 + min(max(d0/(d0-d1), 0), 1)*(t1-t0)
			}

			kind := phase.Peritectic
			if stableHi {
				kind = phase.Eutectic
			}
			labels := []string{e.Label}
			for _, p := range parts {
				labels = append(labels, p.Entry.Label)
			}
			out = append(out, phase.SpecialPoint{
				Kind:        kind,
				Composition: slices.Clone(e.Composition),
				Temperature: tc,
				Labels:      labels,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Temperature < out[j].Temperature })
	return out, nil
}
