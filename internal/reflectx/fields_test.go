package reflectx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plain struct {
	Name   string
	Age    int    `serdx:"age"`
	Skip   string `serdx:"-"`
	hidden string
}

func TestStructFields(t *testing.T) {
	fields := StructFields(reflect.TypeFor[plain]())
	require.Len(t, fields, 2)

	assert.Equal(t, "Name", fields[0].Name, "untagged fields keep their Go name")
	assert.Equal(t, "age", fields[1].Name, "tags rename")
	assert.Equal(t, reflect.TypeFor[int](), fields[1].Type)
}

type timestamps struct {
	Created string `serdx:"created"`
	Updated string `serdx:"updated"`
}

type record struct {
	timestamps
	ID string `serdx:"id"`
}

func TestStructFieldsFlattenEmbedded(t *testing.T) {
	fields := StructFields(reflect.TypeFor[record]())
	require.Len(t, fields, 3)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"created", "updated", "id"}, names)

	// Embedded fields carry the full index path.
	assert.Equal(t, []int{0, 0}, fields[0].Index)
	assert.Equal(t, []int{1}, fields[2].Index)
}

type override struct {
	timestamps
	Created string `serdx:"created"`
}

func TestStructFieldsShallowerWinsConflicts(t *testing.T) {
	fields := StructFields(reflect.TypeFor[override]())
	require.Len(t, fields, 2)

	var created Field
	for _, f := range fields {
		if f.Name == "created" {
			created = f
		}
	}
	assert.Equal(t, []int{1}, created.Index, "the outer field shadows the embedded one")
}

type taggedEmbed struct {
	timestamps `serdx:"ts"`
}

func TestStructFieldsTaggedEmbeddedStaysNested(t *testing.T) {
	fields := StructFields(reflect.TypeFor[taggedEmbed]())
	require.Len(t, fields, 1)
	assert.Equal(t, "ts", fields[0].Name)
	assert.Equal(t, reflect.TypeFor[timestamps](), fields[0].Type)
}

func TestStructFieldsCaching(t *testing.T) {
	a := StructFields(reflect.TypeFor[plain]())
	b := StructFields(reflect.TypeFor[plain]())
	assert.Equal(t, a, b)
}
