package serdx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapOperations(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("b", 2)
	m.Set("a", 1)
	m.Set("c", 3)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// Updating keeps the position.
	m.Set("a", 10)
	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
	v, _ = m.Get("a")
	assert.Equal(t, 10, v)

	m.Delete("b")
	assert.Equal(t, []string{"a", "c"}, m.Keys())
	_, ok = m.Get("b")
	assert.False(t, ok)

	// Deleting a missing key is a no-op.
	m.Delete("missing")
	assert.Equal(t, 2, m.Len())
}

func TestOrderedMapSerialization(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("zulu", 26)
	m.Set("alpha", 1)

	d, err := Serialize(m)
	require.NoError(t, err)

	// Insertion order survives, unlike plain maps which are sorted.
	want := Mapping(Field("zulu", Int(26)), Field("alpha", Int(1)))
	assert.True(t, want.Equal(d), "got %s", d)
}

func TestOrderedMapDeserialization(t *testing.T) {
	old := WarnHandler
	defer func() { WarnHandler = old }()
	var warned int
	WarnHandler = func(*InfoLossWarning) { warned++ }

	t.Run("rebuilds from a mapping and warns", func(t *testing.T) {
		warned = 0
		d := Mapping(Field("x", Int(1)), Field("y", Int(2)))
		v, err := DeserializeStrict(d, reflect.TypeFor[OrderedMap[string, int]]())
		require.NoError(t, err)

		m := v.(OrderedMap[string, int])
		assert.Equal(t, []string{"x", "y"}, m.Keys())
		assert.Equal(t, 1, warned, "reconstruction is a potential info loss")
	})
	t.Run("non-mapping data fails strictly", func(t *testing.T) {
		_, err := DeserializeStrict(Int(1), reflect.TypeFor[OrderedMap[string, int]]())
		assert.ErrorIs(t, err, ErrNotMappingShaped)
	})
}

func TestSet(t *testing.T) {
	s := NewSet("a", "b")
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("z"))
	assert.Equal(t, 2, s.Len())

	s.Add("c")
	assert.True(t, s.Contains("c"))
	s.Remove("a")
	assert.False(t, s.Contains("a"))
	assert.ElementsMatch(t, []string{"b", "c"}, s.Elements())
}

func TestSetRoundTrip(t *testing.T) {
	s := NewSet(3, 1, 2)
	d, err := Serialize(s)
	require.NoError(t, err)
	assert.True(t, Sequence(Int(1), Int(2), Int(3)).Equal(d), "serialized sets are sorted, got %s", d)

	out, err := As[Set[int]](d)
	require.NoError(t, err)
	assert.Equal(t, s, out)
}
