package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys.
//
// Implementations must be safe for concurrent use. Get reports a miss with
// hit=false and a nil error; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default lifetimes for cached results. Results are pure functions of their
// inputs, so the TTLs only bound storage growth.
const (
	TTLDiagram = 7 * 24 * time.Hour
	TTLSweep   = 7 * 24 * time.Hour
	TTLChemPot = 7 * 24 * time.Hour
)

// DiagramKeyOpts are the engine settings that change a hull result.
type DiagramKeyOpts struct {
	Tolerance  float64 `json:"tolerance"`
	WarnFactor float64 `json:"warn_factor"`
}

// SweepKeyOpts identify a temperature sweep over a series.
type SweepKeyOpts struct {
	DiagramKeyOpts
	Temperatures []float64 `json:"temperatures,omitempty"`
}

// ChemPotKeyOpts identify a chemical-potential projection.
type ChemPotKeyOpts struct {
	DiagramKeyOpts
	Axes [3]int `json:"axes"`
}

// Keyer derives cache keys for each pipeline stage. Keys embed a hash of
// the input dataset and every option that affects the result.
type Keyer interface {
	DiagramKey(datasetHash string, opts DiagramKeyOpts) string
	SweepKey(seriesHash string, opts SweepKeyOpts) string
	ChemPotKey(datasetHash string, opts ChemPotKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DiagramKey keys a hull and phase-diagram result.
func (DefaultKeyer) DiagramKey(datasetHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", datasetHash, opts)
}

// SweepKey keys a temperature sweep.
func (DefaultKeyer) SweepKey(seriesHash string, opts SweepKeyOpts) string {
	return hashKey("sweep", seriesHash, opts)
}

// ChemPotKey keys a chemical-potential polytope.
func (DefaultKeyer) ChemPotKey(datasetHash string, opts ChemPotKeyOpts) string {
	return hashKey("chempot", datasetHash, opts)
}
