package shutdown

import (
	"context"
	"sort"
	"sync"
)

// CleanupFunc is one shutdown step. It receives a context carrying the
// remaining shutdown deadline.
type CleanupFunc func(ctx context.Context) error

type entry struct {
	name     string
	priority int // lower runs first
	fn       CleanupFunc
}

// Registry holds named cleanup functions and runs them in priority order.
// Registration after Run is a no-op.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a cleanup function. Lower priority values run earlier:
// connection drains before resource closes, log flushing last.
func (r *Registry) Register(name string, priority int, fn CleanupFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.entries = append(r.entries, entry{name: name, priority: priority, fn: fn})
}

// Run executes every registered function in priority order. All functions
// run even when earlier ones fail; the errors are collected per step name.
// After Run the registry is closed.
func (r *Registry) Run(ctx context.Context) map[string]error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	r.mu.Unlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	errs := make(map[string]error)
	for _, e := range sorted {
		if err := e.fn(ctx); err != nil {
			errs[e.name] = err
		}
	}
	return errs
}

// Names returns the registered step names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})
	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.name
	}
	return names
}

// Count returns the number of registered steps.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
