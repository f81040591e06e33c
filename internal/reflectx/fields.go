// Package reflectx provides the struct introspection used by the serializer
// and deserializer: exported fields in declaration order, tag handling and
// flattening of embedded structs.
package reflectx

import (
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag consulted for field renaming and skipping.
const TagName = "serdx"

// Field describes one serializable struct field.
type Field struct {
	// Name is the mapping key: the tag name when present, the Go field
	// name otherwise.
	Name string
	// Index is the reflect index path to the field, through embedded
	// structs.
	Index []int
	// Type is the declared field type.
	Type reflect.Type

	depth int
}

var fieldCache sync.Map // reflect.Type -> []Field

// StructFields returns the serializable fields of a struct type in
// declaration order. Unexported fields are skipped (they cannot be read or
// set from another package), fields tagged `serdx:"-"` are skipped, and
// anonymous embedded structs are flattened with shallower fields winning name
// conflicts.
func StructFields(t reflect.Type) []Field {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field)
	}

	fields := collect(t, nil, 0)
	fields = resolveConflicts(fields)

	fieldCache.Store(t, fields)
	return fields
}

func collect(t reflect.Type, index []int, depth int) []Field {
	var out []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		path := make([]int, len(index)+1)
		copy(path, index)
		path[len(index)] = i

		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct {
			out = append(out, collect(sf.Type, path, depth+1)...)
			continue
		}
		if sf.PkgPath != "" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		out = append(out, Field{Name: name, Index: path, Type: sf.Type, depth: depth})
	}
	return out
}

// resolveConflicts drops fields whose name is claimed by a shallower field.
// Among fields of equal depth the first declared wins.
func resolveConflicts(fields []Field) []Field {
	best := make(map[string]int, len(fields))
	for i, f := range fields {
		if j, ok := best[f.Name]; !ok || f.depth < fields[j].depth {
			best[f.Name] = i
		}
	}
	out := fields[:0]
	for i, f := range fields {
		if best[f.Name] == i {
			out = append(out, f)
		}
	}
	return out
}
