package metrics_collectors

import "sync"

// SourceDeps carries what a SourceFactory may need to build a MetricsSource.
type SourceDeps struct {
	Runner CommandRunner
}

// SourceFactory builds the MetricsSource for one OS family.
type SourceFactory func(deps SourceDeps) MetricsSource

// MetricsRegistry maps GOOS values to source factories.
type MetricsRegistry struct {
	mu        sync.RWMutex
	factories map[string]SourceFactory
}

// NewMetricsRegistry returns a registry with the linux, darwin and windows sources registered.
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{factories: make(map[string]SourceFactory)}
	r.Register("linux", func(SourceDeps) MetricsSource { return NewLinuxSource() })
	r.Register("darwin", func(d SourceDeps) MetricsSource { return NewDarwinSource(d.Runner) })
	r.Register("windows", func(d SourceDeps) MetricsSource { return NewWindowsSource(d.Runner) })
	return r
}

// Register adds or replaces the factory for goos.
func (r *MetricsRegistry) Register(goos string, factory SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[goos] = factory
}

// SourceFor builds the source for goos, falling back to an UnsupportedSource.
func (r *MetricsRegistry) SourceFor(goos string, deps SourceDeps) MetricsSource {
	r.mu.RLock()
	factory, ok := r.factories[goos]
	r.mu.RUnlock()
	if !ok {
		return NewUnsupportedSource(goos)
	}
	return factory(deps)
}

// NewMetricsSource selects the source for goos from the default registry.
func NewMetricsSource(goos string, deps SourceDeps) MetricsSource {
	return NewMetricsRegistry().SourceFor(goos, deps)
}
