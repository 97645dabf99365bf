package winhotkeys

import (
	"sync"

	"winhotkeys/wm"
)

// Registry is the process-wide directory from receiver-endpoint handle to
// owning Manager. Listeners insert themselves on entering Running and remove
// themselves before destroying their endpoint, so an inbound event can always
// be routed to a live owner or dropped. It is the only state shared between
// listener goroutines.
type Registry struct {
	mu         sync.Mutex
	byEndpoint map[wm.Handle]*Manager
}

func NewRegistry() *Registry {
	return &Registry{byEndpoint: make(map[wm.Handle]*Manager)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry Managers use unless constructed with
// WithRegistry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func (r *Registry) insert(h wm.Handle, m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEndpoint[h] = m
}

func (r *Registry) remove(h wm.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEndpoint, h)
}

func (r *Registry) lookup(h wm.Handle) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byEndpoint[h]
	return m, ok
}
