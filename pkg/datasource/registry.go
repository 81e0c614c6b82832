package datasource

import (
	"sort"
	"strings"
	"sync"
)

// Constructor builds an adapter around an optional native client.
type Constructor func(client interface{}, opts ...Option) DataSource

// Registry maps type tokens to adapter constructors.
type Registry struct {
	constructors map[Type]Constructor
	mu           sync.RWMutex
}

// NewRegistry creates a new adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[Type]Constructor),
	}
}

// Register registers a constructor for typ, replacing any previous one.
func (r *Registry) Register(typ Type, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.constructors[typ] = ctor
}

// New builds a fresh adapter for the token. Unknown tokens return nil.
func (r *Registry) New(token string, client interface{}, opts ...Option) DataSource {
	r.mu.RLock()
	ctor, exists := r.constructors[Type(strings.ToLower(strings.TrimSpace(token)))]
	r.mu.RUnlock()

	if !exists {
		return nil
	}
	return ctor(client, opts...)
}

// IsRegistered checks if a constructor is registered for typ.
func (r *Registry) IsRegistered(typ Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.constructors[typ]
	return exists
}

// Types returns the registered tokens in sorted order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]Type, 0, len(r.constructors))
	for typ := range r.constructors {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Unregister removes a constructor from the registry.
func (r *Registry) Unregister(typ Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.constructors, typ)
}

// globalRegistry is populated by adapter packages from init.
var globalRegistry = NewRegistry()

// Register registers a constructor in the global registry.
func Register(typ Type, ctor Constructor) {
	globalRegistry.Register(typ, ctor)
}

// New builds an adapter from the global registry. Unknown tokens return nil.
func New(token string, client interface{}, opts ...Option) DataSource {
	return globalRegistry.New(token, client, opts...)
}

// Types returns the tokens registered in the global registry.
func Types() []Type {
	return globalRegistry.Types()
}

// GlobalRegistry returns the global adapter registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}
