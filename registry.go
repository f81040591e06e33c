package serdx

import (
	"reflect"
	"sync"
)

// DefaultMaxDepth bounds recursive descent when a registry does not override
// it. Cyclic values hit the bound instead of overflowing the stack.
const DefaultMaxDepth = 1000

// Registry holds an ordered collection of type adapters, a type-name table
// and enum name tables. Lookups scan adapters in order; insertion order is the
// default priority, adjustable with Promote and Demote.
//
// A Registry is safe for concurrent use: lookups take a read lock,
// registration takes a write lock.
type Registry struct {
	mu       sync.RWMutex
	order    []any
	adapters map[any]*Adapter
	names    map[string]any
	enums    map[reflect.Type]*enumTable
	maxDepth int
}

type enumTable struct {
	byName map[string]reflect.Value
	toName map[any]string
}

// RegistryOption customizes a new registry.
type RegistryOption func(*Registry)

// WithMaxDepth sets the maximum nesting depth for serialization and
// deserialization. Values deeper than this (including cyclic values) fail
// with ErrDepthExceeded.
func WithMaxDepth(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		adapters: make(map[any]*Adapter),
		names:    make(map[string]any),
		enums:    make(map[reflect.Type]*enumTable),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the package-level
// functions. Tests that mutate it should work on a Clone or use isolated
// keys; there is no implicit reset.
func Default() *Registry { return defaultRegistry }

// Register inserts or updates the adapter for key. Keys are arbitrary
// comparable values, typically a reflect.Type.
//
// With replace=true an existing entry is replaced in place, keeping its
// position in the evaluation order. With replace=false only the sides
// (serializer/deserializer) missing from the existing entry are filled in.
// Registering an adapter with neither side is a no-op. Reports whether the
// registry changed.
func (r *Registry) Register(key any, a *Adapter, replace bool) bool {
	if a == nil || (a.Serialize == nil && a.Deserialize == nil) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.adapters[key]
	if !ok {
		r.order = append(r.order, key)
		r.adapters[key] = a
		return true
	}
	if replace {
		r.adapters[key] = a
		return true
	}

	changed := false
	merged := *existing
	if merged.Serialize == nil && a.Serialize != nil {
		merged.Serialize = a.Serialize
		changed = true
	}
	if merged.Deserialize == nil && a.Deserialize != nil {
		merged.Deserialize = a.Deserialize
		changed = true
	}
	if changed {
		r.adapters[key] = &merged
	}
	return changed
}

// Unregister removes the entry for key. Reports whether an entry was removed.
func (r *Registry) Unregister(key any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(key)
}

// UnregisterSerializer removes only the serialization side of the entry for
// key. The whole entry is removed when no side remains.
func (r *Registry) UnregisterSerializer(key any) bool {
	return r.unregisterSide(key, true, false)
}

// UnregisterDeserializer removes only the deserialization side of the entry
// for key. The whole entry is removed when no side remains.
func (r *Registry) UnregisterDeserializer(key any) bool {
	return r.unregisterSide(key, false, true)
}

func (r *Registry) unregisterSide(key any, serializer, deserializer bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.adapters[key]
	if !ok {
		return false
	}
	updated := *existing
	changed := false
	if serializer && updated.Serialize != nil {
		updated.Serialize = nil
		changed = true
	}
	if deserializer && updated.Deserialize != nil {
		updated.Deserialize = nil
		changed = true
	}
	if !changed {
		return false
	}
	if updated.Serialize == nil && updated.Deserialize == nil {
		return r.removeLocked(key)
	}
	r.adapters[key] = &updated
	return true
}

func (r *Registry) removeLocked(key any) bool {
	if _, ok := r.adapters[key]; !ok {
		return false
	}
	delete(r.adapters, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether an adapter is registered for key.
func (r *Registry) Has(key any) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[key]
	return ok
}

// Promote moves the entry for key to the front of the evaluation order.
// Unknown keys are ignored.
func (r *Registry) Promote(key any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, k := range r.order {
		if k == key {
			copy(r.order[1:i+1], r.order[:i])
			r.order[0] = key
			return
		}
	}
}

// Demote moves the entry for key to the back of the evaluation order.
// Unknown keys are ignored.
func (r *Registry) Demote(key any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, k := range r.order {
		if k == key {
			copy(r.order[i:], r.order[i+1:])
			r.order[len(r.order)-1] = key
			return
		}
	}
}

// RegisterName maps a name to a deserialization target (a reflect.Type or any
// descriptor accepted by Deserialize). Names given as targets are resolved
// through this table.
func (r *Registry) RegisterName(name string, target any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[name] = target
}

func (r *Registry) resolveName(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.names[name]
	return target, ok
}

// Clone returns a registry with the same adapters, names, enum tables and
// settings. Mutations on the clone do not affect the original, which makes
// clones convenient in tests.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRegistry(WithMaxDepth(r.maxDepth))
	c.order = append([]any(nil), r.order...)
	for k, a := range r.adapters {
		c.adapters[k] = a
	}
	for n, t := range r.names {
		c.names[n] = t
	}
	for t, e := range r.enums {
		c.enums[t] = e
	}
	return c
}

// snapshot returns the adapters in evaluation order. Matching runs outside
// the lock so adapters may touch the registry themselves.
func (r *Registry) snapshot() []*Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Adapter, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.adapters[k])
	}
	return out
}

// RegisterEnum declares the members of an enumeration type E on the registry.
// Members serialize to their name, never their underlying value, so
// renumbering members does not change serialized data.
func RegisterEnum[E comparable](r *Registry, members map[string]E) {
	t := reflect.TypeFor[E]()
	table := &enumTable{
		byName: make(map[string]reflect.Value, len(members)),
		toName: make(map[any]string, len(members)),
	}
	for name, member := range members {
		table.byName[name] = reflect.ValueOf(member)
		table.toName[member] = name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enums[t] = table
}

func (r *Registry) enumFor(t reflect.Type) (*enumTable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.enums[t]
	return table, ok
}

// Package-level registry operations, delegating to Default().

// Register inserts or updates an adapter on the default registry.
func Register(key any, a *Adapter, replace bool) bool {
	return defaultRegistry.Register(key, a, replace)
}

// Unregister removes an adapter from the default registry.
func Unregister(key any) bool { return defaultRegistry.Unregister(key) }

// Has reports whether the default registry has an adapter for key.
func Has(key any) bool { return defaultRegistry.Has(key) }

// Promote moves an entry to the front of the default registry's order.
func Promote(key any) { defaultRegistry.Promote(key) }

// Demote moves an entry to the back of the default registry's order.
func Demote(key any) { defaultRegistry.Demote(key) }

// RegisterName maps a name to a target on the default registry.
func RegisterName(name string, target any) { defaultRegistry.RegisterName(name, target) }
