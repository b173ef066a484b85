// Package pipeline runs phase-stability analyses with result caching.
//
// The CLI and the HTTP server both go through a [Runner] so that validation,
// caching and observability hooks behave the same regardless of entry point.
//
// # Stages
//
//  1. Analyze: build the stable complex of a dataset and derive its diagram
//  2. Sweep: rebuild a temperature series at each requested temperature
//  3. ChemPot: project a dataset's complex into chemical-potential space
//
// Each stage is independent and keyed by a content hash of its input plus
// every option that affects the result. Results are cached as JSON.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	ds, err := io.ImportDataset("feo.json")
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Analyze(ctx, ds, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(res.Document.Stable), "stable phases")
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/phasehull/pkg/cache"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/geom"
	"github.com/matzehuels/phasehull/pkg/hull"
	phio "github.com/matzehuels/phasehull/pkg/io"
	"github.com/matzehuels/phasehull/pkg/phase"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultTolerance is the relative epsilon of the hull predicates.
	DefaultTolerance = geom.DefaultTolerance

	// DefaultWarnFactor widens the epsilon band that triggers precision warnings.
	DefaultWarnFactor = geom.DefaultWarnFactor
)

// DefaultAxes are the chemical-potential axes used when none are given.
var DefaultAxes = [3]int{0, 1, 2}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures every stage. It supports JSON for API requests.
type Options struct {
	Tolerance  float64 `json:"tolerance,omitempty"`
	WarnFactor float64 `json:"warn_factor,omitempty"`

	// Sweep options. Empty Temperatures sweeps every sample.
	Temperatures []float64 `json:"temperatures,omitempty"`

	// ChemPot options. Axes index the dataset components; a nil Axes
	// selects DefaultAxes.
	Axes *[3]int `json:"axes,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// TTL overrides the per-stage cache lifetime.
	TTL time.Duration `json:"-"`

	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result is the output of Analyze and ChemPot.
type Result struct {
	// ID identifies this computation in logs and API responses.
	ID string `json:"id"`

	// DatasetHash is the content hash of the input dataset.
	DatasetHash string `json:"dataset_hash"`

	Document *phio.Document `json:"document"`

	Stats    Stats `json:"stats"`
	CacheHit bool  `json:"cache_hit"`
}

// SweepResult is the output of Sweep: one document per temperature.
type SweepResult struct {
	ID            string               `json:"id"`
	SeriesHash    string               `json:"series_hash"`
	Slices        []*phio.Document     `json:"slices"`
	SpecialPoints []phase.SpecialPoint `json:"special_points"`
	Stats         Stats                `json:"stats"`
	CacheHit      bool                 `json:"cache_hit"`
}

// Stats contains stage execution statistics.
type Stats struct {
	Entries  int           `json:"entries"`
	Stable   int           `json:"stable"`
	Facets   int           `json:"facets"`
	Warnings int           `json:"warnings"`
	Duration time.Duration `json:"duration_ns"`
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the engine settings and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.WarnFactor == 0 {
		o.WarnFactor = DefaultWarnFactor
	}
	if math.IsNaN(o.Tolerance) || math.IsInf(o.Tolerance, 0) || o.Tolerance <= 0 {
		return perr.New(perr.ErrCodeInvalidInput, "tolerance must be finite and positive, got %v", o.Tolerance)
	}
	if math.IsNaN(o.WarnFactor) || math.IsInf(o.WarnFactor, 0) || o.WarnFactor < 1 {
		return perr.New(perr.ErrCodeInvalidInput, "warn_factor must be finite and >= 1, got %v", o.WarnFactor)
	}
	if err := perr.ValidateFinite("temperatures", o.Temperatures...); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateForChemPot additionally checks the axes against a system with
// the given number of components.
func (o *Options) ValidateForChemPot(components int) error {
	if err := o.ValidateAndSetDefaults(); err != nil {
		return err
	}
	return perr.ValidateAxes(o.axes(), components)
}

func (o *Options) axes() [3]int {
	if o.Axes == nil {
		return DefaultAxes
	}
	return *o.Axes
}

// HullOptions returns the hull builder options for these settings.
func (o *Options) HullOptions() []hull.Option {
	return []hull.Option{
		hull.WithTolerance(o.Tolerance),
		hull.WithWarnFactor(o.WarnFactor),
		hull.WithLogger(o.Logger),
	}
}

// DiagramKeyOpts returns cache key options for the analyze stage.
func (o *Options) DiagramKeyOpts() cache.DiagramKeyOpts {
	return cache.DiagramKeyOpts{Tolerance: o.Tolerance, WarnFactor: o.WarnFactor}
}

// SweepKeyOpts returns cache key options for the sweep stage.
func (o *Options) SweepKeyOpts() cache.SweepKeyOpts {
	return cache.SweepKeyOpts{DiagramKeyOpts: o.DiagramKeyOpts(), Temperatures: o.Temperatures}
}

// ChemPotKeyOpts returns cache key options for the chemical-potential stage.
func (o *Options) ChemPotKeyOpts() cache.ChemPotKeyOpts {
	return cache.ChemPotKeyOpts{DiagramKeyOpts: o.DiagramKeyOpts(), Axes: o.axes()}
}

func (o *Options) ttl(def time.Duration) time.Duration {
	if o.TTL != 0 {
		return o.TTL
	}
	return def
}
