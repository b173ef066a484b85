package hull

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/phasehull/pkg/geom"
)

const (
	panicToleranceInvalid  = "hull: WithTolerance: tolerance must be finite and positive"
	panicWarnFactorInvalid = "hull: WithWarnFactor: factor must be finite and >= 1"
)

// Option configures [Build].
type Option func(*options)

type options struct {
	tol        float64
	warnFactor float64
	logger     *log.Logger
}

func defaultOptions() options {
	return options{
		tol:        geom.DefaultTolerance,
		warnFactor: geom.DefaultWarnFactor,
	}
}

// WithTolerance sets the relative tolerance used by the visibility test.
// It panics on non-positive or non-finite values.
func WithTolerance(tol float64) Option {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol <= 0 {
		panic(panicToleranceInvalid)
	}
	return func(o *options) { o.tol = tol }
}

// WithWarnFactor sets the width of the warning band as a multiple of eps.
// A factor of 1 disables NUMERICAL_INSTABILITY warnings.
func WithWarnFactor(f float64) Option {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		panic(panicWarnFactorInvalid)
	}
	return func(o *options) { o.warnFactor = f }
}

// WithLogger routes numerical warnings to l in addition to [Hull.Warnings].
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
