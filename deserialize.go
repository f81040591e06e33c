package serdx

import (
	"fmt"
	"math"
	"reflect"

	"github.com/hengadev/errsx"
	"github.com/hengadev/serdx/internal/reflectx"
)

// ErrorMode selects what a failed deserialization stage does.
type ErrorMode int

const (
	// ErrorIgnore degrades every failure to returning the input data
	// unchanged. This is the default mode.
	ErrorIgnore ErrorMode = iota
	// ErrorRaise surfaces the innermost failure as a
	// *DeserializationError.
	ErrorRaise
)

// Deserialize reconstructs a typed value from primitive data using the
// default registry, in ignore mode: whatever cannot be matched comes back as
// the data itself.
//
// target describes the requested shape: a reflect.Type, a name registered
// with RegisterName, a descriptor (Union, Tuple, NullTarget), or nil to
// return the data unchanged. Pointer types act as optionals: null data yields
// a typed nil.
func Deserialize(data Data, target any) (any, error) {
	return defaultRegistry.Deserialize(data, target, ErrorIgnore)
}

// DeserializeStrict is Deserialize in raise mode: mismatches fail with a
// *DeserializationError carrying the innermost data and target.
func DeserializeStrict(data Data, target any) (any, error) {
	return defaultRegistry.Deserialize(data, target, ErrorRaise)
}

// As reconstructs a T from primitive data using the default registry, in
// raise mode.
func As[T any](data Data) (T, error) {
	var zero T
	v, err := defaultRegistry.Deserialize(data, reflect.TypeFor[T](), ErrorRaise)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, newDeserializationError(data, reflect.TypeFor[T](), ErrShapeMismatch,
			fmt.Sprintf("deserialized into %T", v))
	}
	return out, nil
}

// Deserialize reconstructs a typed value from primitive data, consulting this
// registry's adapters, enum tables and name table.
func (r *Registry) Deserialize(data Data, target any, mode ErrorMode) (any, error) {
	return r.deserialize(data, target, mode, 0)
}

func (r *Registry) deserialize(data Data, target any, mode ErrorMode, depth int) (any, error) {
	if target == nil {
		return data, nil
	}
	if depth > r.maxDepth {
		return nil, fmt.Errorf("%w (%d): data is nested too deeply", ErrDepthExceeded, r.maxDepth)
	}

	// Registered names resolve to their target first.
	if name, ok := target.(string); ok {
		resolved, ok := r.resolveName(name)
		if !ok {
			return r.fail(data, target, mode, ErrUnknownTypeName, fmt.Sprintf("no type registered under %q", name))
		}
		return r.deserialize(data, resolved, mode, depth+1)
	}

	// Null-only target: mismatches are an error in either mode.
	if _, ok := target.(nullDesc); ok {
		if data.IsNull() {
			return nil, nil
		}
		return nil, newDeserializationError(data, target, ErrShapeMismatch, "null target received non-null data")
	}

	// Optional: pointer targets accept null, otherwise unwrap.
	if t, ok := target.(reflect.Type); ok && t.Kind() == reflect.Pointer {
		return r.deserializeOptional(data, t, mode, depth)
	}

	// Union: first alternative that deserializes strictly wins.
	if u, ok := target.(unionDesc); ok {
		return r.deserializeUnion(data, u, mode, depth)
	}

	// Null data for a target that cannot hold it.
	if data.IsNull() {
		return r.fail(data, target, mode, ErrUnexpectedNull, "null data for non-nullable target")
	}

	if u, ok := target.(tupleDesc); ok {
		return r.deserializeTuple(data, u, mode, depth)
	}

	t, ok := target.(reflect.Type)
	if !ok {
		return nil, fmt.Errorf("serdx: unsupported target descriptor %T", target)
	}

	// A Data target asks for the primitive form itself.
	if t == dataType {
		return data, nil
	}

	// Registry lookup runs before the generic container rules, so a
	// registered adapter can take over any shape.
	for _, adapter := range r.snapshot() {
		if adapter.Deserialize != nil && adapter.MatchType != nil && adapter.MatchType(t) {
			return adapter.Deserialize(data, t)
		}
	}

	switch t.Kind() {
	case reflect.Slice:
		return r.deserializeSlice(data, t, mode, depth)
	case reflect.Array:
		return r.deserializeArray(data, t, mode, depth)
	case reflect.Map:
		if t.Elem() == emptyStructType {
			return r.deserializeSet(data, t, mode, depth)
		}
		return r.deserializeMap(data, t, mode, depth)
	}

	// Custom hook: a fresh value populated by the type itself.
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(Unmarshaler).UnmarshalData(data); err != nil {
			if mode == ErrorRaise {
				return nil, err
			}
			return data, nil
		}
		return p.Elem().Interface(), nil
	}

	// Enumerations: data must be a string naming a member.
	if table, ok := r.enumFor(t); ok {
		s, isString := data.AsString()
		if !isString {
			return r.fail(data, t, mode, ErrEnumNameExpected, fmt.Sprintf("got %s data", data.Kind()))
		}
		member, ok := table.byName[s]
		if !ok {
			return r.fail(data, t, mode, ErrEnumNameExpected, fmt.Sprintf("%s has no member named %q", t, s))
		}
		return member.Interface(), nil
	}

	if t.Kind() == reflect.Struct {
		return r.deserializeStruct(data, t, mode, depth)
	}

	return r.deserializeScalar(data, t, mode)
}

func (r *Registry) fail(data Data, target any, mode ErrorMode, sentinel error, reason string) (any, error) {
	if mode == ErrorRaise {
		return nil, newDeserializationError(data, target, sentinel, reason)
	}
	return data, nil
}

func (r *Registry) deserializeOptional(data Data, t reflect.Type, mode ErrorMode, depth int) (any, error) {
	if data.IsNull() {
		return reflect.Zero(t).Interface(), nil
	}
	inner, err := r.deserialize(data, t.Elem(), mode, depth+1)
	if err != nil {
		var de *DeserializationError
		if asDeserializationError(err, &de) {
			return nil, de.withContext("(optional unwrapped)")
		}
		return nil, err
	}
	p := reflect.New(t.Elem())
	if !assign(p.Elem(), inner) {
		return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("cannot box %T into %s", inner, t))
	}
	return p.Interface(), nil
}

func (r *Registry) deserializeUnion(data Data, u unionDesc, mode ErrorMode, depth int) (any, error) {
	var errs errsx.Map
	for i, alt := range u.alternatives {
		v, err := r.deserialize(data, alt, ErrorRaise, depth+1)
		if err != nil {
			errs.Set(fmt.Sprintf("alternative %d (%v)", i, alt), err)
			continue
		}
		return v, nil
	}
	if mode == ErrorRaise {
		reason := "no alternatives declared"
		if err := errs.AsError(); err != nil {
			reason = err.Error()
		}
		return nil, newDeserializationError(data, u, ErrAllAlternativesFailed, reason)
	}
	return data, nil
}

func (r *Registry) deserializeTuple(data Data, u tupleDesc, mode ErrorMode, depth int) (any, error) {
	items := data.Items()
	if data.Kind() != KindSequence {
		return r.fail(data, u, mode, ErrNotSequenceShaped, fmt.Sprintf("got %s data", data.Kind()))
	}
	if len(u.elements) == 0 {
		return r.fail(data, u, mode, ErrShapeMismatch, "tuple target declares no element types")
	}
	out := make([]any, len(items))
	for i, item := range items {
		// Surplus positions repeat the last declared target.
		el := u.elements[min(i, len(u.elements)-1)]
		v, err := r.deserialize(item, el, mode, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *Registry) deserializeSlice(data Data, t reflect.Type, mode ErrorMode, depth int) (any, error) {
	items := data.Items()
	if data.Kind() != KindSequence {
		return r.fail(data, t, mode, ErrNotSequenceShaped, fmt.Sprintf("got %s data", data.Kind()))
	}
	out := reflect.MakeSlice(t, len(items), len(items))
	for i, item := range items {
		v, err := r.deserialize(item, t.Elem(), mode, depth+1)
		if err != nil {
			return nil, err
		}
		if !assign(out.Index(i), v) {
			return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("element %d does not fit %s", i, t.Elem()))
		}
	}
	return out.Interface(), nil
}

func (r *Registry) deserializeArray(data Data, t reflect.Type, mode ErrorMode, depth int) (any, error) {
	items := data.Items()
	if data.Kind() != KindSequence {
		return r.fail(data, t, mode, ErrNotSequenceShaped, fmt.Sprintf("got %s data", data.Kind()))
	}
	if len(items) != t.Len() {
		return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("sequence of %d for array of %d", len(items), t.Len()))
	}
	out := reflect.New(t).Elem()
	for i, item := range items {
		v, err := r.deserialize(item, t.Elem(), mode, depth+1)
		if err != nil {
			return nil, err
		}
		if !assign(out.Index(i), v) {
			return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("element %d does not fit %s", i, t.Elem()))
		}
	}
	return out.Interface(), nil
}

func (r *Registry) deserializeSet(data Data, t reflect.Type, mode ErrorMode, depth int) (any, error) {
	items := data.Items()
	if data.Kind() != KindSequence {
		return r.fail(data, t, mode, ErrNotSequenceShaped, fmt.Sprintf("got %s data for set target", data.Kind()))
	}
	out := reflect.MakeMapWithSize(t, len(items))
	empty := reflect.ValueOf(struct{}{})
	for i, item := range items {
		v, err := r.deserialize(item, t.Key(), mode, depth+1)
		if err != nil {
			return nil, err
		}
		key := reflect.New(t.Key()).Elem()
		if !assign(key, v) {
			return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("element %d does not fit %s", i, t.Key()))
		}
		out.SetMapIndex(key, empty)
	}
	return out.Interface(), nil
}

func (r *Registry) deserializeMap(data Data, t reflect.Type, mode ErrorMode, depth int) (any, error) {
	entries := data.Entries()
	if data.Kind() != KindMapping {
		return r.fail(data, t, mode, ErrNotMappingShaped, fmt.Sprintf("got %s data", data.Kind()))
	}
	out := reflect.MakeMapWithSize(t, len(entries))
	for _, e := range entries {
		kv, err := r.deserialize(e.Key, t.Key(), mode, depth+1)
		if err != nil {
			return nil, err
		}
		vv, err := r.deserialize(e.Value, t.Elem(), mode, depth+1)
		if err != nil {
			return nil, err
		}
		key := reflect.New(t.Key()).Elem()
		val := reflect.New(t.Elem()).Elem()
		if !assign(key, kv) || !assign(val, vv) {
			return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("entry %s does not fit %s", e.Key.String(), t))
		}
		out.SetMapIndex(key, val)
	}
	return out.Interface(), nil
}

func (r *Registry) deserializeStruct(data Data, t reflect.Type, mode ErrorMode, depth int) (any, error) {
	if data.Kind() != KindMapping {
		return r.fail(data, t, mode, ErrNotMappingShaped, fmt.Sprintf("got %s data", data.Kind()))
	}
	out := reflect.New(t).Elem()
	for _, f := range reflectx.StructFields(t) {
		fd, ok := data.Get(f.Name)
		if !ok {
			// Absent fields keep their zero value.
			continue
		}
		v, err := r.deserialize(fd, f.Type, mode, depth+1)
		if err != nil {
			return nil, err
		}
		// Every present field is assigned directly, including derived
		// ones: the stored value wins over anything a constructor
		// would recompute.
		if !assign(out.FieldByIndex(f.Index), v) {
			return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("field %q does not fit %s", f.Name, f.Type))
		}
	}
	return out.Interface(), nil
}

func (r *Registry) deserializeScalar(data Data, t reflect.Type, mode ErrorMode) (any, error) {
	switch t.Kind() {
	case reflect.Bool:
		if b, ok := data.AsBool(); ok {
			return reflect.ValueOf(b).Convert(t).Interface(), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := data.AsInt(); ok {
			if reflect.Zero(t).OverflowInt(i) {
				return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("%d overflows %s", i, t))
			}
			return reflect.ValueOf(i).Convert(t).Interface(), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if i, ok := data.AsInt(); ok {
			if i < 0 || reflect.Zero(t).OverflowUint(uint64(i)) {
				return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("%d overflows %s", i, t))
			}
			return reflect.ValueOf(uint64(i)).Convert(t).Interface(), nil
		}
	case reflect.Float32, reflect.Float64:
		// Whole-number data satisfies a floating-point target.
		if f, ok := data.AsFloat(); ok {
			if t.Kind() == reflect.Float32 && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
				return r.fail(data, t, mode, ErrShapeMismatch, fmt.Sprintf("%g overflows %s", f, t))
			}
			return reflect.ValueOf(f).Convert(t).Interface(), nil
		}
	case reflect.String:
		if s, ok := data.AsString(); ok {
			return reflect.ValueOf(s).Convert(t).Interface(), nil
		}
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return data.Interface(), nil
		}
		v := reflect.ValueOf(data.Interface())
		if v.IsValid() && v.Type().Implements(t) {
			return v.Interface(), nil
		}
	}
	return r.fail(data, t, mode, ErrShapeMismatch,
		fmt.Sprintf("cannot match %s data with target %s", data.Kind(), t))
}

// assign stores v into dst when the types allow it. A nil v sets the zero
// value (typed nil pointers stay typed).
func assign(dst reflect.Value, v any) bool {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return true
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(dst.Type()) {
		return false
	}
	dst.Set(rv)
	return true
}

func asDeserializationError(err error, out **DeserializationError) bool {
	de, ok := err.(*DeserializationError)
	if ok {
		*out = de
	}
	return ok
}

var (
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
	dataType        = reflect.TypeFor[Data]()
)
