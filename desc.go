package serdx

import (
	"fmt"
	"strings"
)

// TargetDesc is a deserialization target that cannot be expressed as a plain
// reflect.Type: unions, fixed tuples and the null-only target. Descriptors
// describe a shape; they hold no data.
type TargetDesc interface {
	fmt.Stringer
	isTargetDesc()
}

type unionDesc struct {
	alternatives []any
}

// Union describes a target that accepts any of the given alternatives. Each
// alternative is itself a target (reflect.Type, registered name, descriptor).
// Alternatives are tried in order; the first one that deserializes strictly
// wins.
func Union(alternatives ...any) TargetDesc {
	return unionDesc{alternatives: alternatives}
}

func (unionDesc) isTargetDesc() {}

func (u unionDesc) String() string {
	parts := make([]string, len(u.alternatives))
	for i, alt := range u.alternatives {
		parts[i] = fmt.Sprint(alt)
	}
	return "union[" + strings.Join(parts, " | ") + "]"
}

type tupleDesc struct {
	elements []any
}

// Tuple describes a fixed sequence whose positions have individual targets.
// Sequences longer than the declared arity repeat the last declared target
// for the surplus positions. The result is a []any.
func Tuple(elements ...any) TargetDesc {
	return tupleDesc{elements: elements}
}

func (tupleDesc) isTargetDesc() {}

func (t tupleDesc) String() string {
	parts := make([]string, len(t.elements))
	for i, el := range t.elements {
		parts[i] = fmt.Sprint(el)
	}
	return "tuple[" + strings.Join(parts, ", ") + "]"
}

type nullDesc struct{}

// NullTarget describes a target that accepts only null data. It is mostly
// useful as a union alternative.
var NullTarget TargetDesc = nullDesc{}

func (nullDesc) isTargetDesc() {}

func (nullDesc) String() string { return "null" }
