package backend

import (
	"sync"

	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/logging"
)

// Registry manages the set of capability adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.Backend]Adapter
	log      *logging.Logger
}

// NewRegistry creates an adapter registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		adapters: make(map[domain.Backend]Adapter),
		log:      log.Sub("backends"),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Backend()] = a
	r.log.Info().Str("backend", a.Backend().String()).Msg("backend registered")
}

// Get returns the adapter for a label.
func (r *Registry) Get(label domain.Backend) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[label]
	return a, ok
}

// List returns all registered labels in routing order.
func (r *Registry) List() []domain.Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := make([]domain.Backend, 0, len(r.adapters))
	for _, label := range domain.Backends() {
		if _, ok := r.adapters[label]; ok {
			labels = append(labels, label)
		}
	}
	return labels
}

// Count returns the number of registered adapters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
