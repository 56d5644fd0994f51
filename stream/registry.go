package stream

import (
	"sort"

	"github.com/jacentio/judy/jhash"
)

// Registry holds the cleanup callback of every namespace a handler serves.
type Registry struct {
	byNamespace map[string]jhash.CleanupFunc
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byNamespace: make(map[string]jhash.CleanupFunc),
	}
}

// Register binds fn to namespace, replacing any earlier binding.
// This should be called during setup, before the handler runs.
func (r *Registry) Register(namespace string, fn jhash.CleanupFunc) {
	r.byNamespace[namespace] = fn
}

// CleanupFor returns the callback registered for namespace.
func (r *Registry) CleanupFor(namespace string) (jhash.CleanupFunc, bool) {
	fn, ok := r.byNamespace[namespace]
	return fn, ok && fn != nil
}

// Namespaces returns the registered namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	out := make([]string, 0, len(r.byNamespace))
	for ns := range r.byNamespace {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Has returns true if namespace has a registered callback.
func (r *Registry) Has(namespace string) bool {
	_, ok := r.CleanupFor(namespace)
	return ok
}
