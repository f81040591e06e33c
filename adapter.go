package serdx

import (
	"reflect"
)

// Marshaler is the serialization hook. A value implementing it bypasses the
// structural rules entirely: the returned Data is the final output and is not
// processed further.
type Marshaler interface {
	MarshalData() (Data, error)
}

// Unmarshaler is the deserialization hook. When a target type (or a pointer
// to it) implements Unmarshaler, a fresh value is allocated and populated by
// UnmarshalData instead of structural reconstruction.
type Unmarshaler interface {
	UnmarshalData(Data) error
}

// Adapter is a registry entry: a pair of match predicates and optional
// serialize/deserialize functions. Either function may be nil; an entry can
// cover only one direction.
type Adapter struct {
	// MatchValue decides whether Serialize applies to a value.
	MatchValue func(v any) bool
	// MatchType decides whether Deserialize applies to a target type.
	MatchType func(t reflect.Type) bool
	// Serialize converts a matched value to Data.
	Serialize func(v any) (Data, error)
	// Deserialize reconstructs a value from Data. The target type that
	// matched is passed along for adapters covering more than one type.
	Deserialize func(d Data, t reflect.Type) (any, error)
}

type adapterConfig struct {
	exactValue bool
	exactType  bool
	matchValue func(any) bool
	matchType  func(reflect.Type) bool
}

// AdapterOption customizes the matchers built by NewAdapter.
type AdapterOption func(*adapterConfig)

// WithExactValueMatch matches only values of exactly the adapter's type,
// instead of any assignable value (the default, which covers interface
// satisfaction).
func WithExactValueMatch() AdapterOption {
	return func(c *adapterConfig) { c.exactValue = true }
}

// WithExactTypeMatch matches only the exact target type during
// deserialization, instead of any assignable type.
func WithExactTypeMatch() AdapterOption {
	return func(c *adapterConfig) { c.exactType = true }
}

// WithValueMatchFunc replaces the value matcher entirely.
func WithValueMatchFunc(f func(any) bool) AdapterOption {
	return func(c *adapterConfig) { c.matchValue = f }
}

// WithTypeMatchFunc replaces the type matcher entirely.
func WithTypeMatchFunc(f func(reflect.Type) bool) AdapterOption {
	return func(c *adapterConfig) { c.matchType = f }
}

func buildMatchers(base reflect.Type, opts []AdapterOption) (func(any) bool, func(reflect.Type) bool) {
	cfg := adapterConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	matchValue := cfg.matchValue
	if matchValue == nil {
		if cfg.exactValue {
			matchValue = func(v any) bool { return reflect.TypeOf(v) == base }
		} else {
			matchValue = func(v any) bool {
				rt := reflect.TypeOf(v)
				return rt != nil && rt.AssignableTo(base)
			}
		}
	}

	matchType := cfg.matchType
	if matchType == nil {
		if cfg.exactType {
			matchType = func(t reflect.Type) bool { return t == base }
		} else {
			matchType = func(t reflect.Type) bool { return t != nil && t.AssignableTo(base) }
		}
	}

	return matchValue, matchType
}

// NewAdapter builds a standard adapter for T. Either function may be nil to
// register a single direction. The deserializer takes only the data; use
// NewAdapterT when it needs the resolved target type as well.
func NewAdapter[T any](ser func(T) (Data, error), de func(Data) (T, error), opts ...AdapterOption) *Adapter {
	var de2 func(Data, reflect.Type) (T, error)
	if de != nil {
		de2 = func(d Data, _ reflect.Type) (T, error) { return de(d) }
	}
	return NewAdapterT(ser, de2, opts...)
}

// NewAdapterT is NewAdapter with the two-argument deserializer convention:
// the function also receives the target type that matched.
func NewAdapterT[T any](ser func(T) (Data, error), de func(Data, reflect.Type) (T, error), opts ...AdapterOption) *Adapter {
	base := reflect.TypeFor[T]()
	matchValue, matchType := buildMatchers(base, opts)

	a := &Adapter{MatchValue: matchValue, MatchType: matchType}
	if ser != nil {
		a.Serialize = func(v any) (Data, error) {
			tv, ok := v.(T)
			if !ok {
				// Assignable but differently typed values (only possible
				// with a custom matcher) go through a conversion.
				tv = reflect.ValueOf(v).Convert(base).Interface().(T)
			}
			return ser(tv)
		}
	}
	if de != nil {
		a.Deserialize = func(d Data, t reflect.Type) (any, error) {
			v, err := de(d, t)
			if err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return a
}

// RegisterFor registers a standard adapter for T on the given registry, keyed
// by T's reflect.Type. It reports whether the registry changed.
func RegisterFor[T any](r *Registry, ser func(T) (Data, error), de func(Data) (T, error), opts ...AdapterOption) bool {
	return r.Register(reflect.TypeFor[T](), NewAdapter(ser, de, opts...), true)
}
