package pipeline

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/matzehuels/phasehull/pkg/cache"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	phio "github.com/matzehuels/phasehull/pkg/io"
	"github.com/matzehuels/phasehull/pkg/observability"
	"github.com/matzehuels/phasehull/pkg/phase"
)

func binaryDataset() *phio.Dataset {
	return &phio.Dataset{
		Components: []string{"A", "B"},
		Entries: []phase.Entry{
			{Label: "A", Composition: []float64{1, 0}},
			{Label: "AB", Composition: []float64{0.5, 0.5}, Energy: -0.3},
			{Label: "A3B", Composition: []float64{0.75, 0.25}, Energy: -0.1},
			{Label: "B", Composition: []float64{0, 1}},
		},
	}
}

func ternaryDataset() *phio.Dataset {
	return &phio.Dataset{
		Components: []string{"A", "B", "C"},
		Entries: []phase.Entry{
			{Label: "A", Composition: []float64{1, 0, 0}},
			{Label: "B", Composition: []float64{0, 1, 0}},
			{Label: "C", Composition: []float64{0, 0, 1}},
			{Label: "ABC", Composition: []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, Energy: -0.9},
		},
	}
}

func series() *phio.Series {
	at := func(e float64) []phase.Entry {
		return []phase.Entry{
			{Label: "A", Composition: []float64{1, 0}},
			{Label: "M", Composition: []float64{0.5, 0.5}, Energy: e},
			{Label: "B", Composition: []float64{0, 1}},
		}
	}
	return &phio.Series{
		Components: []string{"A", "B"},
		Samples:    map[float64][]phase.Entry{300: at(0.1), 600: at(-0.1)},
	}
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	if opts.Tolerance != DefaultTolerance {
		t.Errorf("Tolerance = %v, want %v", opts.Tolerance, DefaultTolerance)
	}
	if opts.WarnFactor != DefaultWarnFactor {
		t.Errorf("WarnFactor = %v, want %v", opts.WarnFactor, DefaultWarnFactor)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}
	if opts.axes() != DefaultAxes {
		t.Errorf("axes() = %v, want %v", opts.axes(), DefaultAxes)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative tolerance", Options{Tolerance: -1}},
		{"nan tolerance", Options{Tolerance: math.NaN()}},
		{"small warn factor", Options{WarnFactor: 0.5}},
		{"infinite temperature", Options{Temperatures: []float64{math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !perr.Is(err, perr.ErrCodeInvalidInput) {
				t.Errorf("ValidateAndSetDefaults() = %v, want INVALID_INPUT", err)
			}
		})
	}

	opts := Options{Axes: &[3]int{0, 0, 1}}
	if err := opts.ValidateForChemPot(3); err == nil {
		t.Error("repeated axes should fail")
	}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	defer r.Close()

	res, err := r.Analyze(ctx, binaryDataset(), Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.CacheHit {
		t.Error("first run should miss the cache")
	}
	if res.ID == "" || res.DatasetHash == "" {
		t.Errorf("missing ids: %+v", res)
	}
	if got := len(res.Document.Stable); got != 3 {
		t.Errorf("stable = %d, want 3", got)
	}
	if res.Stats.Entries != 4 || res.Stats.Stable != 3 || res.Stats.Facets != 2 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.Document.Diagram == nil || len(res.Document.Diagram.TieLines) != 2 {
		t.Errorf("Diagram = %+v", res.Document.Diagram)
	}

	again, err := r.Analyze(ctx, binaryDataset(), Options{})
	if err != nil {
		t.Fatalf("Analyze (cached): %v", err)
	}
	if !again.CacheHit {
		t.Error("second run should hit the cache")
	}
	if again.ID == res.ID {
		t.Error("each run should get a fresh ID")
	}
	if len(again.Document.Unstable) != 1 || again.Document.Unstable[0].Label != "A3B" {
		t.Errorf("cached Unstable = %+v", again.Document.Unstable)
	}

	refreshed, err := r.Analyze(ctx, binaryDataset(), Options{Refresh: true})
	if err != nil {
		t.Fatalf("Analyze (refresh): %v", err)
	}
	if refreshed.CacheHit {
		t.Error("Refresh should bypass the cache")
	}

	other, err := r.Analyze(ctx, binaryDataset(), Options{Tolerance: 1e-7})
	if err != nil {
		t.Fatalf("Analyze (tolerance): %v", err)
	}
	if other.CacheHit {
		t.Error("different tolerance should not share a cache entry")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ds := &phio.Dataset{
		Components: []string{"A", "B"},
		Entries:    []phase.Entry{{Label: "A", Composition: []float64{1, 0}}},
	}
	_, err := r.Analyze(context.Background(), ds, Options{})
	if !perr.Is(err, perr.ErrCodeMissingTerminal) {
		t.Errorf("Analyze() = %v, want MISSING_TERMINAL", err)
	}
}

func TestChemPot(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)

	res, err := r.ChemPot(ctx, ternaryDataset(), Options{})
	if err != nil {
		t.Fatalf("ChemPot: %v", err)
	}
	p := res.Document.ChemPot
	if p == nil {
		t.Fatal("document has no polytope")
	}
	if len(p.Vertices) != 3 || len(p.Edges) != 3 {
		t.Errorf("polytope has %d vertices and %d edges, want 3 and 3", len(p.Vertices), len(p.Edges))
	}

	again, err := r.ChemPot(ctx, ternaryDataset(), Options{})
	if err != nil {
		t.Fatalf("ChemPot (cached): %v", err)
	}
	if !again.CacheHit || again.Document.ChemPot == nil {
		t.Error("second run should return the cached polytope")
	}

	analyzed, err := r.Analyze(ctx, ternaryDataset(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if analyzed.CacheHit || analyzed.Document.ChemPot != nil {
		t.Error("Analyze should not reuse the chempot cache entry")
	}

	_, err = r.ChemPot(ctx, binaryDataset(), Options{})
	if !perr.Is(err, perr.ErrCodeInvalidInput) {
		t.Errorf("ChemPot(binary) = %v, want INVALID_INPUT", err)
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)

	res, err := r.Sweep(ctx, series(), Options{})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(res.Slices) != 2 {
		t.Fatalf("slices = %d, want 2", len(res.Slices))
	}
	for i, want := range []float64{300, 600} {
		if got := res.Slices[i].Temperature; got == nil || *got != want {
			t.Errorf("slice %d temperature = %v, want %v", i, got, want)
		}
	}
	if len(res.SpecialPoints) != 1 || res.SpecialPoints[0].Kind != phase.Eutectic {
		t.Errorf("SpecialPoints = %+v", res.SpecialPoints)
	}
	if res.Stats.Entries != 3 {
		t.Errorf("Stats.Entries = %d, want 3", res.Stats.Entries)
	}

	again, err := r.Sweep(ctx, series(), Options{})
	if err != nil {
		t.Fatalf("Sweep (cached): %v", err)
	}
	if !again.CacheHit || len(again.Slices) != 2 {
		t.Errorf("cached sweep: hit %v, %d slices", again.CacheHit, len(again.Slices))
	}

	mid, err := r.Sweep(ctx, series(), Options{Temperatures: []float64{450}})
	if err != nil {
		t.Fatalf("Sweep(450): %v", err)
	}
	if mid.CacheHit || len(mid.Slices) != 1 {
		t.Errorf("Sweep(450): hit %v, %d slices", mid.CacheHit, len(mid.Slices))
	}

	_, err = r.Sweep(ctx, series(), Options{Temperatures: []float64{1000}})
	if !perr.Is(err, perr.ErrCodeOutOfRange) {
		t.Errorf("Sweep(1000) = %v, want OUT_OF_RANGE", err)
	}
}

func TestSeriesDataset(t *testing.T) {
	ds, err := SeriesDataset(series(), 450)
	if err != nil {
		t.Fatalf("SeriesDataset: %v", err)
	}
	for _, e := range ds.Entries {
		if e.Label == "M" && math.Abs(e.Energy) > 1e-12 {
			t.Errorf("M energy at 450 = %v, want 0", e.Energy)
		}
	}
	if _, err := SeriesDataset(series(), 100); !perr.Is(err, perr.ErrCodeOutOfRange) {
		t.Errorf("SeriesDataset(100) = %v, want OUT_OF_RANGE", err)
	}
}

func TestHashes(t *testing.T) {
	h1, err := DatasetHash(binaryDataset())
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := DatasetHash(binaryDataset())
	if h1 != h2 {
		t.Error("DatasetHash should be deterministic")
	}
	ds := binaryDataset()
	ds.Entries[1].Energy = -0.31
	if h3, _ := DatasetHash(ds); h3 == h1 {
		t.Error("DatasetHash should change with energies")
	}

	s1, err := SeriesHash(series())
	if err != nil {
		t.Fatal(err)
	}
	s2, _ := SeriesHash(series())
	if s1 != s2 {
		t.Error("SeriesHash should not depend on map order")
	}
}

type countingCacheHooks struct {
	mu                sync.Mutex
	hits, misses, set map[string]int
}

func (h *countingCacheHooks) OnCacheHit(_ context.Context, k string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[k]++
}

func (h *countingCacheHooks) OnCacheMiss(_ context.Context, k string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses[k]++
}

func (h *countingCacheHooks) OnCacheSet(_ context.Context, k string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set[k]++
}

func TestRunnerCacheHooks(t *testing.T) {
	hooks := &countingCacheHooks{hits: map[string]int{}, misses: map[string]int{}, set: map[string]int{}}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	r := newRunner(t)
	for range 2 {
		if _, err := r.Analyze(ctx, binaryDataset(), Options{}); err != nil {
			t.Fatal(err)
		}
	}
	if hooks.misses[keyTypeDiagram] != 1 || hooks.set[keyTypeDiagram] != 1 || hooks.hits[keyTypeDiagram] != 1 {
		t.Errorf("hooks = hits %v, misses %v, set %v", hooks.hits, hooks.misses, hooks.set)
	}
}
