package serdx

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tempKelvin float64

func kelvinAdapter() *Adapter {
	return NewAdapter(
		func(k tempKelvin) (Data, error) { return Float(float64(k)), nil },
		func(d Data) (tempKelvin, error) {
			f, ok := d.AsFloat()
			if !ok {
				return 0, errors.New("kelvin wants a number")
			}
			return tempKelvin(f), nil
		},
		WithExactValueMatch(), WithExactTypeMatch(),
	)
}

func TestRegisterAndUnregister(t *testing.T) {
	key := reflect.TypeFor[tempKelvin]()

	t.Run("register and has", func(t *testing.T) {
		r := NewRegistry()
		assert.False(t, r.Has(key))
		assert.True(t, r.Register(key, kelvinAdapter(), true))
		assert.True(t, r.Has(key))
	})
	t.Run("empty adapter is a no-op", func(t *testing.T) {
		r := NewRegistry()
		assert.False(t, r.Register(key, &Adapter{}, true))
		assert.False(t, r.Register(key, nil, true))
		assert.False(t, r.Has(key))
	})
	t.Run("unregister", func(t *testing.T) {
		r := NewRegistry()
		r.Register(key, kelvinAdapter(), true)
		assert.True(t, r.Unregister(key))
		assert.False(t, r.Has(key))
		assert.False(t, r.Unregister(key))
	})
	t.Run("unregister one side keeps the other", func(t *testing.T) {
		r := NewRegistry()
		r.Register(key, kelvinAdapter(), true)
		assert.True(t, r.UnregisterSerializer(key))
		assert.True(t, r.Has(key))

		// The serializer side is gone, so values no longer match.
		_, err := r.Serialize(tempKelvin(300), nil)
		assert.ErrorIs(t, err, ErrUnsupportedType)

		// The deserializer side still works.
		v, err := r.Deserialize(Float(300), key, ErrorRaise)
		require.NoError(t, err)
		assert.Equal(t, tempKelvin(300), v)

		// Removing the last side removes the entry.
		assert.True(t, r.UnregisterDeserializer(key))
		assert.False(t, r.Has(key))
	})
}

func TestRegisterMerge(t *testing.T) {
	key := reflect.TypeFor[tempKelvin]()

	t.Run("replace false fills missing sides only", func(t *testing.T) {
		r := NewRegistry()
		serOnly := NewAdapter[tempKelvin](
			func(k tempKelvin) (Data, error) { return String("frozen"), nil },
			nil,
			WithExactValueMatch(), WithExactTypeMatch(),
		)
		require.True(t, r.Register(key, serOnly, true))

		// Merging a full adapter only contributes the deserializer.
		assert.True(t, r.Register(key, kelvinAdapter(), false))

		d, err := r.Serialize(tempKelvin(300), nil)
		require.NoError(t, err)
		s, _ := d.AsString()
		assert.Equal(t, "frozen", s)

		v, err := r.Deserialize(Float(300), key, ErrorRaise)
		require.NoError(t, err)
		assert.Equal(t, tempKelvin(300), v)

		// Nothing missing anymore: merge reports no change.
		assert.False(t, r.Register(key, kelvinAdapter(), false))
	})
	t.Run("replace true swaps the whole entry", func(t *testing.T) {
		r := NewRegistry()
		r.Register(key, kelvinAdapter(), true)
		replacement := NewAdapter[tempKelvin](
			func(k tempKelvin) (Data, error) { return String("other"), nil },
			nil,
			WithExactValueMatch(), WithExactTypeMatch(),
		)
		require.True(t, r.Register(key, replacement, true))

		d, err := r.Serialize(tempKelvin(1), nil)
		require.NoError(t, err)
		s, _ := d.AsString()
		assert.Equal(t, "other", s)

		// The old deserializer side is gone with the replaced entry.
		_, err = r.Deserialize(Float(1), key, ErrorRaise)
		assert.Error(t, err)
	})
}

func TestPromoteAndDemote(t *testing.T) {
	// Two adapters claim every tempKelvin value; evaluation order decides.
	r := NewRegistry()
	first := NewAdapter[tempKelvin](
		func(tempKelvin) (Data, error) { return String("first"), nil }, nil,
		WithExactValueMatch(), WithExactTypeMatch(),
	)
	second := NewAdapter[tempKelvin](
		func(tempKelvin) (Data, error) { return String("second"), nil }, nil,
		WithExactValueMatch(), WithExactTypeMatch(),
	)
	r.Register("first", first, true)
	r.Register("second", second, true)

	serializedBy := func() string {
		d, err := r.Serialize(tempKelvin(0), nil)
		require.NoError(t, err)
		s, _ := d.AsString()
		return s
	}

	assert.Equal(t, "first", serializedBy(), "insertion order is the default priority")

	r.Promote("second")
	assert.Equal(t, "second", serializedBy())

	r.Demote("second")
	assert.Equal(t, "first", serializedBy())

	// Unknown keys leave the order untouched.
	r.Promote("missing")
	assert.Equal(t, "first", serializedBy())
}

func TestRegisterName(t *testing.T) {
	r := NewRegistry()
	r.RegisterName("kelvin", reflect.TypeFor[tempKelvin]())
	r.Register(reflect.TypeFor[tempKelvin](), kelvinAdapter(), true)

	t.Run("resolves through deserialize", func(t *testing.T) {
		v, err := r.Deserialize(Float(273.15), "kelvin", ErrorRaise)
		require.NoError(t, err)
		assert.Equal(t, tempKelvin(273.15), v)
	})
	t.Run("unknown name fails strictly", func(t *testing.T) {
		_, err := r.Deserialize(Float(1), "fahrenheit", ErrorRaise)
		assert.ErrorIs(t, err, ErrUnknownTypeName)
	})
	t.Run("unknown name degrades to the data in ignore mode", func(t *testing.T) {
		v, err := r.Deserialize(Float(1), "fahrenheit", ErrorIgnore)
		require.NoError(t, err)
		assert.Equal(t, Float(1), v)
	})
}

func TestClone(t *testing.T) {
	key := reflect.TypeFor[tempKelvin]()
	r := NewRegistry()
	r.Register(key, kelvinAdapter(), true)
	r.RegisterName("kelvin", key)

	c := r.Clone()
	assert.True(t, c.Has(key))

	c.Unregister(key)
	assert.False(t, c.Has(key))
	assert.True(t, r.Has(key), "mutating the clone leaves the original alone")
}

type weekday int

const (
	monday weekday = iota
	tuesday
	wednesday
)

func TestRegisterEnum(t *testing.T) {
	r := NewRegistry()
	RegisterEnum(r, map[string]weekday{
		"monday":    monday,
		"tuesday":   tuesday,
		"wednesday": wednesday,
	})

	t.Run("members serialize to their name", func(t *testing.T) {
		d, err := r.Serialize(tuesday, nil)
		require.NoError(t, err)
		s, _ := d.AsString()
		assert.Equal(t, "tuesday", s)
	})
	t.Run("names deserialize to the member", func(t *testing.T) {
		v, err := r.Deserialize(String("wednesday"), reflect.TypeFor[weekday](), ErrorRaise)
		require.NoError(t, err)
		assert.Equal(t, wednesday, v)
	})
	t.Run("unregistered member fails to serialize", func(t *testing.T) {
		_, err := r.Serialize(weekday(9), nil)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})
	t.Run("unknown name fails strictly", func(t *testing.T) {
		_, err := r.Deserialize(String("caturday"), reflect.TypeFor[weekday](), ErrorRaise)
		assert.ErrorIs(t, err, ErrEnumNameExpected)
	})
	t.Run("non-string data fails strictly", func(t *testing.T) {
		_, err := r.Deserialize(Int(1), reflect.TypeFor[weekday](), ErrorRaise)
		assert.ErrorIs(t, err, ErrEnumNameExpected)
	})
}

func TestWithMaxDepth(t *testing.T) {
	r := NewRegistry(WithMaxDepth(2))

	_, err := r.Serialize([][][]int{{{1}}}, nil)
	assert.ErrorIs(t, err, ErrDepthExceeded)

	_, err = r.Serialize([]int{1}, nil)
	assert.NoError(t, err)
}
