package registry

import (
	"context"
	"sync"

	"stagehand/internal/containerizer"
)

// Key identifies a logical container. Built-in containers use fixed keys,
// user-declared containers use their network alias.
type Key string

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}

// Handle is a started container owned by the registry.
type Handle interface {
	// Key returns the logical key the handle is registered under
	Key() Key

	// Container returns the underlying runtime container
	Container() containerizer.Container

	// NetworkAliases returns the aliases on the platform network
	NetworkAliases() []string

	// Port returns the container-internal port the service listens on
	Port() int

	// MappedPort returns the host port mapped to Port
	MappedPort(ctx context.Context) (int, error)

	// Stop stops and removes the container
	Stop(ctx context.Context) error
}

// Registry is the single source of truth for what is running. It keeps
// handles in registration order so teardown can walk it in reverse.
type Registry struct {
	mu      sync.RWMutex
	handles map[Key]Handle
	order   []Key
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		handles: make(map[Key]Handle),
	}
}

// Add stores a handle, replacing any handle already registered under key.
// A replaced handle keeps its original position in the registration order.
func (r *Registry) Add(key Key, handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[key]; !exists {
		r.order = append(r.order, key)
	}
	r.handles[key] = handle
}

// Get returns the handle registered under key.
func (r *Registry) Get(key Key) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, exists := r.handles[key]
	return handle, exists
}

// GetAs returns the handle registered under key if it has type T.
func GetAs[T Handle](r *Registry, key Key) (T, bool) {
	var zero T
	handle, exists := r.Get(key)
	if !exists {
		return zero, false
	}
	typed, ok := handle.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Has reports whether a handle is registered under key.
func (r *Registry) Has(key Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.handles[key]
	return exists
}

// GetAll returns a copy of all registered handles. Callers may iterate the
// copy while the registry itself is being modified.
func (r *Registry) GetAll() map[Key]Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make(map[Key]Handle, len(r.handles))
	for key, handle := range r.handles {
		all[key] = handle
	}
	return all
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, len(r.order))
	copy(keys, r.order)
	return keys
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handles)
}

// Remove drops the handle registered under key. It does not stop it.
func (r *Registry) Remove(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[key]; !exists {
		return
	}
	delete(r.handles, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Clear drops every handle.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handles = make(map[Key]Handle)
	r.order = nil
}
