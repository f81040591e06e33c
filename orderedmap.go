package serdx

import (
	"fmt"
	"reflect"
)

// OrderedMap is a mapping that remembers insertion order. It round-trips
// through primitive data via the custom hooks, using the default registry for
// its keys and values.
//
// Primitive mappings are ordered, but not every format preserves that order,
// so reconstructing an OrderedMap emits an InfoLossWarning: the order read
// back is whatever the format delivered.
type OrderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// NewOrderedMap returns an empty ordered map.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{values: make(map[K]V)}
}

// Set inserts or updates a key. New keys go to the back; existing keys keep
// their position.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if m.values == nil {
		m.values = make(map[K]V)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes a key if present.
func (m *OrderedMap[K, V]) Delete(key K) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. The slice is a copy.
func (m *OrderedMap[K, V]) Keys() []K {
	return append([]K(nil), m.keys...)
}

// MarshalData serializes the entries in insertion order through the default
// registry.
func (m OrderedMap[K, V]) MarshalData() (Data, error) {
	entries := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		kd, err := defaultRegistry.Serialize(k, nil)
		if err != nil {
			return Data{}, fmt.Errorf("ordered map key: %w", err)
		}
		vd, err := defaultRegistry.Serialize(m.values[k], nil)
		if err != nil {
			return Data{}, fmt.Errorf("ordered map value for %v: %w", k, err)
		}
		entries = append(entries, Entry{Key: kd, Value: vd})
	}
	return Mapping(entries...), nil
}

// UnmarshalData rebuilds the map from a primitive mapping through the default
// registry, emitting an InfoLossWarning because entry order may not have
// survived the format.
func (m *OrderedMap[K, V]) UnmarshalData(data Data) error {
	if data.Kind() != KindMapping {
		return newDeserializationError(data, reflect.TypeOf(m).Elem(), ErrNotMappingShaped,
			fmt.Sprintf("got %s data", data.Kind()))
	}
	warnInfoLoss("ordered map entry order may not be preserved through deserialization")

	m.keys = nil
	m.values = make(map[K]V, data.Len())
	for _, e := range data.Entries() {
		k, err := As[K](e.Key)
		if err != nil {
			return err
		}
		v, err := As[V](e.Value)
		if err != nil {
			return err
		}
		m.Set(k, v)
	}
	return nil
}
