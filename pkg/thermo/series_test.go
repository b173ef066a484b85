package thermo_test

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/phase"
	"github.com/matzehuels/phasehull/pkg/thermo"
)

var sliderTemps = []float64{300, 600, 900, 1200, 1500}

// rotatingSeries makes a different intermediate compound the only stable one
// at each of the five slider temperatures.
func rotatingSeries(t *testing.T) *thermo.Series {
	t.Helper()
	samples := make(map[float64][]phase.Entry)
	for k, temp := range sliderTemps {
		entries := []phase.Entry{
			{Label: "A", Composition: []float64{1, 0}},
			{Label: "B", Composition: []float64{0, 1}},
		}
		for i := range 5 {
			x := float64(i+1) / 6
			energy := 0.1
			if i == k {
				energy = -0.5
			}
			entries = append(entries, phase.Entry{
				Label:       fmt.Sprintf("P%d", i),
				Composition: []float64{1 - x, x},
				Energy:      energy,
			})
		}
		samples[temp] = entries
	}
	s, err := thermo.NewSeries(samples)
	require.NoError(t, err)
	return s
}

func stableLabels(c *phase.StableComplex) []string {
	var out []string
	for _, e := range c.Stable() {
		out = append(out, e.Label)
	}
	slices.Sort(out)
	return out
}

func TestSeries_SliderProducesDistinctComplexes(t *testing.T) {
	s := rotatingSeries(t)
	require.Equal(t, sliderTemps, s.Temperatures())

	seen := make(map[string]bool)
	for i := range s.Len() {
		c, err := s.HullAtIndex(i)
		require.NoError(t, err)
		got := stableLabels(c)
		assert.Equal(t, []string{"A", "B", fmt.Sprintf("P%d", i)}, got)
		seen[fmt.Sprint(got)] = true
	}
	assert.Len(t, seen, 5)
}

func TestSeries_OutOfRange(t *testing.T) {
	s := rotatingSeries(t)

	for _, temp := range []float64{299.9, 2000, math.NaN()} {
		_, err := s.HullAt(temp)
		require.Error(t, err)
		assert.True(t, perr.Is(err, perr.ErrCodeOutOfRange), "HullAt(%g) = %v", temp, err)
	}

	_, err := s.HullAt(2000)
	var oor *perr.OutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, 1500.0, oor.Clamp())

	_, err = s.HullAtIndex(5)
	assert.True(t, perr.Is(err, perr.ErrCodeOutOfRange))
	_, err = s.HullAtIndex(-1)
	assert.True(t, perr.Is(err, perr.ErrCodeOutOfRange))
}

func TestSeries_Interpolation(t *testing.T) {
	s := rotatingSeries(t)
	entries, err := s.EntriesAt(450)
	require.NoError(t, err)
	byLabel := make(map[string]phase.Entry)
	for _, e := range entries {
		byLabel[e.Label] = e
	}
	assert.InDelta(t, -0.2, byLabel["P0"].Energy, 1e-12)
	assert.InDelta(t, -0.2, byLabel["P1"].Energy, 1e-12)
	assert.InDelta(t, 0.1, byLabel["P2"].Energy, 1e-12)
	require.NotNil(t, byLabel["A"].Temperature)
	assert.Equal(t, 450.0, *byLabel["A"].Temperature)

	lo, hi := s.Range()
	assert.Equal(t, 300.0, lo)
	assert.Equal(t, 1500.0, hi)
}

func TestSeries_Continuity(t *testing.T) {
	s := rotatingSeries(t)
	// Energies change by at most 0.6 per 300 K between samples.
	const rate = 0.6 / 300
	x := []float64{0.6, 0.4}

	prev := math.NaN()
	prevT := 0.0
	for temp := 300.0; temp <= 1500; temp += 10 {
		c, err := s.HullAt(temp)
		require.NoError(t, err)
		e, err := c.HullEnergy(x)
		require.NoError(t, err)
		if !math.IsNaN(prev) {
			assert.LessOrEqual(t, math.Abs(e-prev), rate*(temp-prevT)+1e-9, "jump at %g K", temp)
		}
		prev, prevT = e, temp
	}
}

func TestSeries_SpecialPoints(t *testing.T) {
	entry := func(e float64) []phase.Entry {
		return []phase.Entry{
			{Label: "A", Composition: []float64{1, 0}},
			{Label: "B", Composition: []float64{0, 1}},
			{Label: "M", Composition: []float64{0.5, 0.5}, Energy: e},
		}
	}
	s, err := thermo.NewSeries(map[float64][]phase.Entry{
		300: entry(0.1),
		600: entry(-0.1),
		900: entry(-0.2),
	})
	require.NoError(t, err)

	points, err := s.SpecialPoints()
	require.NoError(t, err)
	require.Len(t, points, 1)
	p := points[0]
	assert.Equal(t, phase.Eutectic, p.Kind)
	assert.InDelta(t, 450, p.Temperature, 1e-9)
	assert.Equal(t, []float64{0.5, 0.5}, p.Composition)
	assert.Equal(t, "M", p.Labels[0])
	assert.ElementsMatch(t, []string{"A", "B"}, p.Labels[1:])

	// Reversed temperature dependence: M forms on cooling.
	s, err = thermo.NewSeries(map[float64][]phase.Entry{
		300: entry(-0.1),
		600: entry(0.3),
	})
	require.NoError(t, err)
	points, err = s.SpecialPoints()
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, phase.Peritectic, points[0].Kind)
	assert.InDelta(t, 375, points[0].Temperature, 1e-9)
}

func TestSeries_Sweep(t *testing.T) {
	s := rotatingSeries(t)
	got, err := s.Sweep(nil)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, sl := range got {
		assert.Equal(t, sliderTemps[i], sl.Temperature)
		assert.Equal(t, 2, sl.Diagram.Dimension)
		assert.Len(t, sl.Diagram.TieLines, 2)
		assert.NotEmpty(t, sl.Diagram.SpecialPoints)
	}

	_, err = s.Sweep([]float64{100})
	assert.True(t, perr.Is(err, perr.ErrCodeOutOfRange))
}

func TestNewSeries_Validation(t *testing.T) {
	base := []phase.Entry{
		{Label: "A", Composition: []float64{1, 0}},
		{Label: "B", Composition: []float64{0, 1}},
	}
	moved := []phase.Entry{
		{Label: "A", Composition: []float64{1, 0}},
		{Label: "B", Composition: []float64{0.1, 0.9}},
	}
	renamed := []phase.Entry{
		{Label: "A", Composition: []float64{1, 0}},
		{Label: "C", Composition: []float64{0, 1}},
	}

	tests := []struct {
		name    string
		samples map[float64][]phase.Entry
		code    perr.Code
	}{
		{"empty", nil, perr.ErrCodeInvalidInput},
		{"composition changes", map[float64][]phase.Entry{300: base, 600: moved}, perr.ErrCodeInvalidComposition},
		{"label missing", map[float64][]phase.Entry{300: base, 600: renamed}, perr.ErrCodeInvalidInput},
		{"entry count", map[float64][]phase.Entry{300: base, 600: base[:1]}, perr.ErrCodeInvalidInput},
		{"infinite temperature", map[float64][]phase.Entry{math.Inf(1): base}, perr.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := thermo.NewSeries(tt.samples)
			require.Error(t, err)
			assert.Equal(t, tt.code, perr.GetCode(err), "got %v", err)
		})
	}
}
