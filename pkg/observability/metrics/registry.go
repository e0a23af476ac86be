package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ContentType is the media type of Export output.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Registry manages a collection of metrics.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// Register adds m to the registry. Names must be unique.
func (r *Registry) Register(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.metrics[m.Name()]; ok {
		return fmt.Errorf("metric %q already registered", m.Name())
	}
	r.metrics[m.Name()] = m
	return nil
}

// MustRegister registers all metrics and panics on a duplicate name.
func (r *Registry) MustRegister(ms ...Metric) {
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
}

// Unregister removes a metric from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.metrics, name)
}

// Export returns all metrics in Prometheus text format, sorted by name.
func (r *Registry) Export() string {
	r.mu.RLock()
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	ms := make([]Metric, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		ms = append(ms, r.metrics[name])
	}
	r.mu.RUnlock()

	var sb strings.Builder
	for _, m := range ms {
		sb.WriteString(m.Describe())
	}
	return sb.String()
}
