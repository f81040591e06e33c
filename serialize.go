package serdx

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/hengadev/serdx/internal/reflectx"
)

// FormatHints carries the format constraints the serializer honors. It is an
// opaque tag from the serializer's point of view: only the string-key rule
// reads it.
type FormatHints struct {
	// StringKeys requires mapping keys to be strings. Non-string keys are
	// coerced to their textual form after both key and value have been
	// fully serialized.
	StringKeys bool
}

// Serialize converts a value into format-neutral primitive data using the
// default registry.
//
// Dispatch order: nil, primitive scalars, the Marshaler hook, structs,
// sequences and sets, mappings, registered enums, registry adapters, and
// finally named types of a structural kind. Values nothing matches fail with
// ErrUnsupportedType; unknown types are never silently stringified, because
// stringified data cannot round-trip.
func Serialize(v any) (Data, error) {
	return defaultRegistry.Serialize(v, nil)
}

// SerializeFor is Serialize with format constraints applied, using the
// default registry.
func SerializeFor(v any, hints *FormatHints) (Data, error) {
	return defaultRegistry.Serialize(v, hints)
}

// Serialize converts a value into primitive data, consulting this registry's
// adapters and enum tables. hints may be nil.
func (r *Registry) Serialize(v any, hints *FormatHints) (Data, error) {
	return r.serialize(v, hints, 0)
}

func (r *Registry) serialize(v any, hints *FormatHints, depth int) (Data, error) {
	if depth > r.maxDepth {
		return Data{}, fmt.Errorf("%w (%d): value is cyclic or nested too deeply", ErrDepthExceeded, r.maxDepth)
	}

	if v == nil {
		return Null(), nil
	}

	switch tv := v.(type) {
	case Data:
		// Already primitive: pass through unchanged.
		return tv, nil
	case bool:
		// bool is matched before the numeric cases on purpose.
		return Bool(tv), nil
	case int:
		return Int(int64(tv)), nil
	case int8:
		return Int(int64(tv)), nil
	case int16:
		return Int(int64(tv)), nil
	case int32:
		return Int(int64(tv)), nil
	case int64:
		return Int(tv), nil
	case uint:
		return uintData(uint64(tv)), nil
	case uint8:
		return Int(int64(tv)), nil
	case uint16:
		return Int(int64(tv)), nil
	case uint32:
		return Int(int64(tv)), nil
	case uint64:
		return uintData(tv), nil
	case uintptr:
		return uintData(uint64(tv)), nil
	case float32:
		return Float(float64(tv)), nil
	case float64:
		// NaN and infinities pass through; whether a format supports
		// them is the format's concern.
		return Float(tv), nil
	case string:
		return String(tv), nil
	case []byte:
		return String(base64.StdEncoding.EncodeToString(tv)), nil
	case Marshaler:
		// Custom hook: the returned data is final output and is not
		// re-processed. A nil pointer is still null, even when the
		// pointee's value-receiver method promotes to the pointer type.
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null(), nil
		}
		return tv.MarshalData()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Null(), nil
		}
		return r.serialize(rv.Elem().Interface(), hints, depth+1)
	}

	named := rv.Type().Name() != ""

	// Structural stages for record, sequence and mapping shapes. Named
	// container and scalar kinds are deferred until after the enum tables
	// and the adapter registry have had their chance, so that registered
	// behavior wins over the structural fallback.
	switch rv.Kind() {
	case reflect.Struct:
		if fields := reflectx.StructFields(rv.Type()); len(fields) > 0 {
			return r.serializeStruct(rv, fields, hints, depth)
		}
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		if !named {
			return r.serializeSequence(rv, hints, depth)
		}
	case reflect.Map:
		if rv.IsNil() {
			return Null(), nil
		}
		if !named {
			return r.serializeMap(rv, hints, depth)
		}
	}

	// Registered enumeration members serialize to their name, never their
	// underlying value: renumbering an enum must not change its data.
	if table, ok := r.enumFor(rv.Type()); ok {
		if name, ok := table.toName[v]; ok {
			return String(name), nil
		}
		return Data{}, fmt.Errorf("%w: %v is not a registered member of %s", ErrUnsupportedType, v, rv.Type())
	}

	// Registry scan, in evaluation order.
	for _, adapter := range r.snapshot() {
		if adapter.Serialize != nil && adapter.MatchValue != nil && adapter.MatchValue(v) {
			return adapter.Serialize(v)
		}
	}

	// Named types fall back to their structural kind, so `type Role
	// string` or `type Matrix [][]float64` work without registration.
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintData(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		return r.serializeSequence(rv, hints, depth)
	case reflect.Map:
		return r.serializeMap(rv, hints, depth)
	case reflect.Struct:
		return Mapping(), nil
	}

	return Data{}, newUnsupportedTypeError(v)
}

func uintData(u uint64) Data {
	if u > math.MaxInt64 {
		warnInfoLoss("uint value %d exceeds int64 range, stored as float", u)
		return Float(float64(u))
	}
	return Int(int64(u))
}

func (r *Registry) serializeStruct(rv reflect.Value, fields []reflectx.Field, hints *FormatHints, depth int) (Data, error) {
	entries := make([]Entry, 0, len(fields))
	for _, f := range fields {
		fd, err := r.serialize(rv.FieldByIndex(f.Index).Interface(), hints, depth+1)
		if err != nil {
			return Data{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
		entries = append(entries, Field(f.Name, fd))
	}
	return Mapping(entries...), nil
}

func (r *Registry) serializeSequence(rv reflect.Value, hints *FormatHints, depth int) (Data, error) {
	items := make([]Data, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := r.serialize(rv.Index(i).Interface(), hints, depth+1)
		if err != nil {
			return Data{}, fmt.Errorf("index %d: %w", i, err)
		}
		items[i] = item
	}
	return Sequence(items...), nil
}

var emptyStructType = reflect.TypeOf(struct{}{})

func (r *Registry) serializeMap(rv reflect.Value, hints *FormatHints, depth int) (Data, error) {
	// A map with empty-struct elements is the set convention: it becomes
	// a sequence of its keys. Set iteration has no inherent order; the
	// output is sorted by textual form to keep it deterministic.
	if rv.Type().Elem() == emptyStructType {
		items := make([]Data, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			item, err := r.serialize(k.Interface(), hints, depth+1)
			if err != nil {
				return Data{}, fmt.Errorf("set element: %w", err)
			}
			items = append(items, item)
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].String() < items[j].String() })
		return Sequence(items...), nil
	}

	entries := make([]Entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		kd, err := r.serialize(iter.Key().Interface(), hints, depth+1)
		if err != nil {
			return Data{}, fmt.Errorf("map key: %w", err)
		}
		vd, err := r.serialize(iter.Value().Interface(), hints, depth+1)
		if err != nil {
			return Data{}, fmt.Errorf("map value for key %s: %w", kd.String(), err)
		}
		if hints != nil && hints.StringKeys && kd.Kind() != KindString {
			// Coerced after full recursive serialization of both
			// sides, per the only format-specific rule in this
			// layer.
			kd = String(kd.String())
		}
		entries = append(entries, Entry{Key: kd, Value: vd})
	}
	// Go map iteration is randomized; sort for deterministic output.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Key.String() < entries[j].Key.String()
	})
	return Mapping(entries...), nil
}
