package serdx

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Data value.
type Kind uint8

const (
	// KindInvalid is the kind of the zero Data value. It never appears in
	// serializer output.
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// Entry is a single key/value pair of a mapping. Keys are Data values; formats
// that only accept string keys get them coerced during serialization.
type Entry struct {
	Key   Data
	Value Data
}

// Field builds a mapping entry with a string key. It is the common case when
// assembling mappings by hand.
func Field(key string, value Data) Entry {
	return Entry{Key: String(key), Value: value}
}

// Data is the format-neutral value produced by serialization and consumed by
// deserialization. It is a sum type over null, bool, int, float, string,
// sequence and mapping. Mappings preserve entry order. Data values form trees;
// they contain no cycles by construction.
//
// The zero Data has KindInvalid.
type Data struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	s       string
	seq     []Data
	entries []Entry
}

// Null returns the null Data value.
func Null() Data { return Data{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Data { return Data{kind: KindBool, b: b} }

// Int wraps a whole number.
func Int(i int64) Data { return Data{kind: KindInt, i: i} }

// Float wraps a floating-point number. NaN and infinities are carried
// unchanged; whether a format can encode them is the format's concern.
func Float(f float64) Data { return Data{kind: KindFloat, f: f} }

// String wraps a text value.
func String(s string) Data { return Data{kind: KindString, s: s} }

// Sequence builds an ordered sequence from the given items.
func Sequence(items ...Data) Data {
	return Data{kind: KindSequence, seq: items}
}

// Mapping builds an ordered mapping from the given entries.
func Mapping(entries ...Entry) Data {
	return Data{kind: KindMapping, entries: entries}
}

// Kind reports the variant held by d.
func (d Data) Kind() Kind { return d.kind }

// IsNull reports whether d is the null value.
func (d Data) IsNull() bool { return d.kind == KindNull }

// AsBool returns the boolean payload. The second result is false when d is not
// a bool.
func (d Data) AsBool() (bool, bool) {
	return d.b, d.kind == KindBool
}

// AsInt returns the whole-number payload. The second result is false when d is
// not an int.
func (d Data) AsInt() (int64, bool) {
	return d.i, d.kind == KindInt
}

// AsFloat returns the numeric payload as a float64. Whole-number data
// satisfies a float request, mirroring the deserializer's numeric rule.
func (d Data) AsFloat() (float64, bool) {
	switch d.kind {
	case KindFloat:
		return d.f, true
	case KindInt:
		return float64(d.i), true
	default:
		return 0, false
	}
}

// AsString returns the text payload. The second result is false when d is not
// a string.
func (d Data) AsString() (string, bool) {
	return d.s, d.kind == KindString
}

// Items returns the elements of a sequence, or nil for any other kind. The
// returned slice is shared, not copied.
func (d Data) Items() []Data {
	if d.kind != KindSequence {
		return nil
	}
	return d.seq
}

// Entries returns the entries of a mapping, or nil for any other kind. The
// returned slice is shared, not copied.
func (d Data) Entries() []Entry {
	if d.kind != KindMapping {
		return nil
	}
	return d.entries
}

// Len returns the number of elements of a sequence or entries of a mapping,
// and 0 for scalar kinds.
func (d Data) Len() int {
	switch d.kind {
	case KindSequence:
		return len(d.seq)
	case KindMapping:
		return len(d.entries)
	default:
		return 0
	}
}

// Get looks up a mapping entry by string key. It reports false when d is not
// a mapping or no entry has the given string key.
func (d Data) Get(key string) (Data, bool) {
	for _, e := range d.entries {
		if s, ok := e.Key.AsString(); ok && s == key {
			return e.Value, true
		}
	}
	return Data{}, false
}

// Equal reports whether two Data values are deeply equal. Mapping comparison
// is order-sensitive, since mappings are ordered collections.
func (d Data) Equal(other Data) bool {
	if d.kind != other.kind {
		return false
	}
	switch d.kind {
	case KindBool:
		return d.b == other.b
	case KindInt:
		return d.i == other.i
	case KindFloat:
		return d.f == other.f
	case KindString:
		return d.s == other.s
	case KindSequence:
		if len(d.seq) != len(other.seq) {
			return false
		}
		for i := range d.seq {
			if !d.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(d.entries) != len(other.entries) {
			return false
		}
		for i := range d.entries {
			if !d.entries[i].Key.Equal(other.entries[i].Key) {
				return false
			}
			if !d.entries[i].Value.Equal(other.entries[i].Value) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Interface returns the plain Go rendition of d: nil, bool, int64, float64,
// string, []any for sequences, and map[string]any for mappings whose keys are
// all strings (entry order is lost there; use Entries when order matters).
// Mappings with non-string keys come back as []Entry.
func (d Data) Interface() any {
	switch d.kind {
	case KindBool:
		return d.b
	case KindInt:
		return d.i
	case KindFloat:
		return d.f
	case KindString:
		return d.s
	case KindSequence:
		out := make([]any, len(d.seq))
		for i, item := range d.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		for _, e := range d.entries {
			if e.Key.kind != KindString {
				out := make([]Entry, len(d.entries))
				copy(out, d.entries)
				return out
			}
		}
		out := make(map[string]any, len(d.entries))
		for _, e := range d.entries {
			out[e.Key.s] = e.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface is the inverse of Interface: it lifts a plain Go rendition
// back into Data. It accepts nil, bool, the int and uint widths, float32 and
// float64, string, []any, []Entry, and map[string]any (whose keys are sorted
// so the result is deterministic). Anything else reports ErrUnsupportedType.
func FromInterface(v any) (Data, error) {
	switch tv := v.(type) {
	case nil:
		return Null(), nil
	case Data:
		return tv, nil
	case bool:
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
		return Int(int64(tv)), nil
	case uint8:
		return Int(int64(tv)), nil
	case uint16:
		return Int(int64(tv)), nil
	case uint32:
		return Int(int64(tv)), nil
	case uint64:
		if tv > math.MaxInt64 {
			return Float(float64(tv)), nil
		}
		return Int(int64(tv)), nil
	case float32:
		return Float(float64(tv)), nil
	case float64:
		return Float(tv), nil
	case string:
		return String(tv), nil
	case []any:
		items := make([]Data, len(tv))
		for i, item := range tv {
			d, err := FromInterface(item)
			if err != nil {
				return Data{}, err
			}
			items[i] = d
		}
		return Sequence(items...), nil
	case []Entry:
		return Mapping(tv...), nil
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			d, err := FromInterface(tv[k])
			if err != nil {
				return Data{}, err
			}
			entries = append(entries, Field(k, d))
		}
		return Mapping(entries...), nil
	}
	return Data{}, fmt.Errorf("%w: %T has no primitive rendition", ErrUnsupportedType, v)
}

// String returns a compact textual rendering of d. It is used for debugging
// and as the coercion of non-string mapping keys for string-keyed formats.
func (d Data) String() string {
	switch d.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(d.b)
	case KindInt:
		return strconv.FormatInt(d.i, 10)
	case KindFloat:
		return strconv.FormatFloat(d.f, 'g', -1, 64)
	case KindString:
		return d.s
	case KindSequence:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range d.seq {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(item.String())
		}
		sb.WriteByte(']')
		return sb.String()
	case KindMapping:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, e := range d.entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", e.Key.String(), e.Value.String())
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return "<invalid>"
	}
}
