package state

import "sync"

// Registry maps session IDs to their auth state stores. It is owned by the
// composition root and injected into the service and HTTP layers; there is
// no package-level instance.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// Get returns the store for a session, if present.
func (r *Registry) Get(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[sessionID]
	return st, ok
}

// GetOrCreate returns the store for a session, creating it when absent.
func (r *Registry) GetOrCreate(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stores[sessionID]; ok {
		return st
	}
	st := NewStore()
	r.stores[sessionID] = st
	return st
}

// Remove clears a session's store and drops it from the registry.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	st, ok := r.stores[sessionID]
	if ok {
		delete(r.stores, sessionID)
	}
	r.mu.Unlock()
	if ok {
		st.Clear()
	}
}

// Shutdown closes every store's subscriptions and drops the stores, ending
// any attached event streams.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*Store)
	r.mu.Unlock()
	for _, st := range stores {
		st.CloseSubscribers()
	}
}

// Reset drops every store. For test isolation only.
func (r *Registry) Reset() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*Store)
	r.mu.Unlock()
	for _, st := range stores {
		st.Reset()
	}
}

// Len reports the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
