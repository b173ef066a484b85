package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments or
// tenants can share one backend without colliding.
//
// Example usage:
//
//	// Keys for a staging server sharing the production Redis
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DiagramKey generates a prefixed key for hull results.
func (k *ScopedKeyer) DiagramKey(datasetHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(datasetHash, opts)
}

// SweepKey generates a prefixed key for temperature sweeps.
func (k *ScopedKeyer) SweepKey(seriesHash string, opts SweepKeyOpts) string {
	return k.prefix + k.inner.SweepKey(seriesHash, opts)
}

// ChemPotKey generates a prefixed key for chemical-potential results.
func (k *ScopedKeyer) ChemPotKey(datasetHash string, opts ChemPotKeyOpts) string {
	return k.prefix + k.inner.ChemPotKey(datasetHash, opts)
}
