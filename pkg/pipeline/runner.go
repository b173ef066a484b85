package pipeline

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/phasehull/pkg/cache"
	"github.com/matzehuels/phasehull/pkg/chempot"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	phio "github.com/matzehuels/phasehull/pkg/io"
	"github.com/matzehuels/phasehull/pkg/observability"
	"github.com/matzehuels/phasehull/pkg/phase"
	"github.com/matzehuels/phasehull/pkg/thermo"
)

// Cache key types reported to observability hooks.
const (
	keyTypeDiagram = "diagram"
	keyTypeSweep   = "sweep"
	keyTypeChemPot = "chempot"
)

// Runner encapsulates stage execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Analyze builds the stable complex of ds and its phase diagram. Systems of
// more than [phase.MaxRegionComponents] components get no diagram.
func (r *Runner) Analyze(ctx context.Context, ds *phio.Dataset, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hash, err := DatasetHash(ds)
	if err != nil {
		return nil, err
	}
	res := &Result{ID: uuid.NewString(), DatasetHash: hash}
	key := r.Keyer.DiagramKey(hash, opts.DiagramKeyOpts())

	if !opts.Refresh && r.lookup(ctx, key, keyTypeDiagram, &res.Document) {
		res.CacheHit = true
		res.Stats = documentStats(res.Document)
		return res, nil
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnHullStart(ctx, len(ds.Components), len(ds.Entries))
	c, doc, err := analyze(ds, &opts, nil)
	res.Stats.Duration = time.Since(start)
	stable := 0
	if c != nil {
		stable = len(c.Stable())
	}
	hooks.OnHullComplete(ctx, len(ds.Components), stable, res.Stats.Duration, err)
	if err != nil {
		return nil, err
	}

	res.Document = doc
	res.Stats = documentStats(doc)
	res.Stats.Duration = time.Since(start)
	res.Stats.Facets = len(c.Facets)
	r.logComplex(opts.Logger, c, res.Stats)
	r.store(ctx, key, keyTypeDiagram, doc, opts.ttl(cache.TTLDiagram))
	return res, nil
}

// ChemPot projects the complex of ds onto the chemical-potential axes in
// opts. The returned document carries the polytope in its ChemPot field.
func (r *Runner) ChemPot(ctx context.Context, ds *phio.Dataset, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForChemPot(len(ds.Components)); err != nil {
		return nil, err
	}

	hash, err := DatasetHash(ds)
	if err != nil {
		return nil, err
	}
	res := &Result{ID: uuid.NewString(), DatasetHash: hash}
	key := r.Keyer.ChemPotKey(hash, opts.ChemPotKeyOpts())

	if !opts.Refresh && r.lookup(ctx, key, keyTypeChemPot, &res.Document) {
		res.CacheHit = true
		res.Stats = documentStats(res.Document)
		return res, nil
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnChemPotStart(ctx, len(ds.Components))
	axes := opts.axes()
	c, doc, err := analyze(ds, &opts, &axes)
	vertices := 0
	if doc != nil && doc.ChemPot != nil {
		vertices = len(doc.ChemPot.Vertices)
	}
	hooks.OnChemPotComplete(ctx, vertices, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	res.Document = doc
	res.Stats = documentStats(doc)
	res.Stats.Duration = time.Since(start)
	res.Stats.Facets = len(c.Facets)
	opts.Logger.Info("projected chemical potentials",
		"axes", axes,
		"vertices", vertices,
		"edges", len(doc.ChemPot.Edges),
		"duration", res.Stats.Duration)
	r.store(ctx, key, keyTypeChemPot, doc, opts.ttl(cache.TTLChemPot))
	return res, nil
}

// analyze builds the complex and its document. A non-nil axes also attaches
// the chemical-potential polytope.
func analyze(ds *phio.Dataset, opts *Options, axes *[3]int) (*phase.StableComplex, *phio.Document, error) {
	c, err := phase.Build(ds.Entries, opts.HullOptions()...)
	if err != nil {
		return nil, nil, err
	}
	var d *phase.Diagram
	if c.Components() <= phase.MaxRegionComponents {
		if d, err = phase.DeriveRegions(c, c.Components()); err != nil {
			return c, nil, err
		}
	}
	doc, err := phio.NewDocument(ds.Components, c, d)
	if err != nil {
		return c, nil, err
	}
	if axes != nil {
		if doc.ChemPot, err = chempot.Project(c, *axes); err != nil {
			return c, nil, err
		}
	}
	return c, doc, nil
}

// Sweep rebuilds series s at opts.Temperatures, or at every sample when
// none are given, and reports the special points of the whole series.
func (r *Runner) Sweep(ctx context.Context, s *phio.Series, opts Options) (*SweepResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hash, err := SeriesHash(s)
	if err != nil {
		return nil, err
	}
	res := &SweepResult{ID: uuid.NewString(), SeriesHash: hash}
	key := r.Keyer.SweepKey(hash, opts.SweepKeyOpts())

	var cached SweepResult
	if !opts.Refresh && r.lookup(ctx, key, keyTypeSweep, &cached) {
		res.Slices, res.SpecialPoints, res.Stats = cached.Slices, cached.SpecialPoints, cached.Stats
		res.CacheHit = true
		return res, nil
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnSweepStart(ctx, len(s.Samples))
	err = r.sweep(s, &opts, res)
	res.Stats.Duration = time.Since(start)
	hooks.OnSweepComplete(ctx, len(s.Samples), len(res.SpecialPoints), res.Stats.Duration, err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("swept temperature series",
		"slices", len(res.Slices),
		"special_points", len(res.SpecialPoints),
		"duration", res.Stats.Duration)
	r.store(ctx, key, keyTypeSweep, res, opts.ttl(cache.TTLSweep))
	return res, nil
}

func (r *Runner) sweep(s *phio.Series, opts *Options, res *SweepResult) error {
	series, err := thermo.NewSeries(s.Samples, opts.HullOptions()...)
	if err != nil {
		return err
	}
	got, err := series.Sweep(opts.Temperatures)
	if err != nil {
		return err
	}
	for _, sl := range got {
		doc, err := phio.NewDocument(s.Components, sl.Complex, sl.Diagram)
		if err != nil {
			return err
		}
		t := sl.Temperature
		doc.Temperature = &t
		res.Slices = append(res.Slices, doc)
		res.Stats.Facets += len(sl.Complex.Facets)
		res.Stats.Warnings += len(doc.Warnings)
	}
	if len(got) > 0 {
		res.SpecialPoints = got[0].Diagram.SpecialPoints
	}
	res.Stats.Entries = len(series.Labels())
	return nil
}

// SeriesDataset interpolates series s at temperature t.
func SeriesDataset(s *phio.Series, t float64) (*phio.Dataset, error) {
	series, err := thermo.NewSeries(s.Samples)
	if err != nil {
		return nil, err
	}
	entries, err := series.EntriesAt(t)
	if err != nil {
		return nil, err
	}
	return &phio.Dataset{Components: slices.Clone(s.Components), Entries: entries}, nil
}

// DatasetHash fingerprints a parsed dataset.
func DatasetHash(ds *phio.Dataset) (string, error) {
	h, err := cache.HashJSON(ds)
	if err != nil {
		return "", perr.Wrap(perr.ErrCodeInternal, err, "hash dataset")
	}
	return h, nil
}

// SeriesHash fingerprints a parsed series. Samples are hashed in
// temperature order because JSON cannot encode float map keys.
func SeriesHash(s *phio.Series) (string, error) {
	type sample struct {
		Temperature float64       `json:"temperature"`
		Entries     []phase.Entry `json:"entries"`
	}
	temps := make([]float64, 0, len(s.Samples))
	for t := range s.Samples {
		temps = append(temps, t)
	}
	slices.Sort(temps)
	ordered := make([]sample, len(temps))
	for i, t := range temps {
		ordered[i] = sample{Temperature: t, Entries: s.Samples[t]}
	}
	h, err := cache.HashJSON(struct {
		Components []string `json:"components"`
		Samples    []sample `json:"samples"`
	}{s.Components, ordered})
	if err != nil {
		return "", perr.Wrap(perr.ErrCodeInternal, err, "hash series")
	}
	return h, nil
}

// lookup decodes a cached value into v. Backend and decode failures count
// as misses.
func (r *Runner) lookup(ctx context.Context, key, keyType string, v any) bool {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit || json.Unmarshal(data, v) != nil {
		hooks.OnCacheMiss(ctx, keyType)
		return false
	}
	hooks.OnCacheHit(ctx, keyType)
	r.Logger.Debug("cache hit", "type", keyType, "key", key)
	return true
}

func (r *Runner) store(ctx context.Context, key, keyType string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) logComplex(logger *log.Logger, c *phase.StableComplex, s Stats) {
	for _, w := range c.Warnings {
		logger.Warn("precision warning", "err", w)
	}
	logger.Info("built stable complex",
		"entries", s.Entries,
		"stable", s.Stable,
		"facets", s.Facets,
		"duration", s.Duration)
}

func documentStats(doc *phio.Document) Stats {
	s := Stats{
		Entries:  len(doc.Stable) + len(doc.Unstable),
		Stable:   len(doc.Stable),
		Warnings: len(doc.Warnings),
	}
	if doc.Diagram != nil {
		s.Facets = len(doc.Diagram.Regions)
	}
	return s
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
