package serdx

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"net"
	"reflect"
	"time"
)

// Adapters for common library types are registered on the default registry at
// startup, the way the original registrations cover third-party value types.
// Optional adapters with their own dependency live in adapters/ subpackages
// and register themselves on blank import.
func init() {
	RegisterFor[time.Time](defaultRegistry,
		func(t time.Time) (Data, error) {
			return String(t.Format(time.RFC3339Nano)), nil
		},
		func(d Data) (time.Time, error) {
			s, ok := d.AsString()
			if !ok {
				return time.Time{}, newDeserializationError(d, reflect.TypeFor[time.Time](), ErrShapeMismatch, "time data must be an RFC 3339 string")
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return time.Time{}, fmt.Errorf("parse time: %w", err)
			}
			return t, nil
		},
		WithExactValueMatch(), WithExactTypeMatch())

	RegisterFor[time.Duration](defaultRegistry,
		func(d time.Duration) (Data, error) {
			return String(d.String()), nil
		},
		func(d Data) (time.Duration, error) {
			if s, ok := d.AsString(); ok {
				dur, err := time.ParseDuration(s)
				if err != nil {
					return 0, fmt.Errorf("parse duration: %w", err)
				}
				return dur, nil
			}
			if i, ok := d.AsInt(); ok {
				// Durations stored as raw nanoseconds.
				return time.Duration(i), nil
			}
			return 0, newDeserializationError(d, reflect.TypeFor[time.Duration](), ErrShapeMismatch, "duration data must be a string or nanosecond count")
		},
		WithExactValueMatch(), WithExactTypeMatch())

	RegisterFor[big.Int](defaultRegistry,
		func(x big.Int) (Data, error) {
			return String(x.String()), nil
		},
		func(d Data) (big.Int, error) {
			s, ok := d.AsString()
			if !ok {
				return big.Int{}, newDeserializationError(d, reflect.TypeFor[big.Int](), ErrShapeMismatch, "big integer data must be a decimal string")
			}
			var x big.Int
			if _, ok := x.SetString(s, 10); !ok {
				return big.Int{}, fmt.Errorf("parse big integer: invalid decimal %q", s)
			}
			return x, nil
		},
		WithExactValueMatch(), WithExactTypeMatch())

	RegisterFor[net.IP](defaultRegistry,
		func(ip net.IP) (Data, error) {
			return String(ip.String()), nil
		},
		func(d Data) (net.IP, error) {
			s, ok := d.AsString()
			if !ok {
				return nil, newDeserializationError(d, reflect.TypeFor[net.IP](), ErrShapeMismatch, "IP data must be a string")
			}
			ip := net.ParseIP(s)
			if ip == nil {
				return nil, fmt.Errorf("parse IP: invalid address %q", s)
			}
			return ip, nil
		},
		WithExactValueMatch(), WithExactTypeMatch())

	// The serializer itself encodes []byte as base64; only the reverse
	// direction needs an adapter. Sequences of numbers are accepted too,
	// for data produced without the base64 convention.
	RegisterFor[[]byte](defaultRegistry, nil,
		func(d Data) ([]byte, error) {
			if s, ok := d.AsString(); ok {
				out, err := base64.StdEncoding.DecodeString(s)
				if err != nil {
					return nil, fmt.Errorf("decode base64: %w", err)
				}
				return out, nil
			}
			if d.Kind() == KindSequence {
				out := make([]byte, 0, d.Len())
				for _, item := range d.Items() {
					i, ok := item.AsInt()
					if !ok || i < 0 || i > 255 {
						return nil, newDeserializationError(d, reflect.TypeFor[[]byte](), ErrShapeMismatch, "byte sequence element out of range")
					}
					out = append(out, byte(i))
				}
				return out, nil
			}
			return nil, newDeserializationError(d, reflect.TypeFor[[]byte](), ErrShapeMismatch, "byte data must be a base64 string or a sequence")
		},
		WithExactValueMatch(), WithExactTypeMatch())

	for name, target := range map[string]reflect.Type{
		"bool":          reflect.TypeFor[bool](),
		"int":           reflect.TypeFor[int](),
		"int64":         reflect.TypeFor[int64](),
		"float64":       reflect.TypeFor[float64](),
		"string":        reflect.TypeFor[string](),
		"time.Time":     reflect.TypeFor[time.Time](),
		"time.Duration": reflect.TypeFor[time.Duration](),
	} {
		defaultRegistry.RegisterName(name, target)
	}
}
