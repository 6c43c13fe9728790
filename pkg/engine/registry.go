package engine

import (
	"sort"
	"sync"
)

// Registry is a concurrent mapping from URI to Engine. It is an explicitly
// constructed object rather than package-level state, so tests and
// embedders can hold isolated instances.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]*Engine),
	}
}

// Register binds an engine to a URI. An existing binding for the same URI
// is silently replaced, never merged.
func (r *Registry) Register(uri string, eng *Engine) error {
	if uri == "" {
		return &ValidationError{Op: "register provider", Message: "uri cannot be empty"}
	}
	if eng == nil {
		return &ValidationError{Op: "register provider", Message: "engine cannot be nil"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[uri] = eng
	return nil
}

// Get returns the engine bound to uri, or false when none is registered.
func (r *Registry) Get(uri string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.engines[uri]
	return eng, ok
}

// Deregister removes a binding. Removing an absent URI is a no-op.
func (r *Registry) Deregister(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, uri)
}

// URIs returns a sorted snapshot of the registered URIs.
func (r *Registry) URIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uris := make([]string, 0, len(r.engines))
	for uri := range r.engines {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
