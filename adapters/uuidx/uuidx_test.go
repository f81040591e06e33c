package uuidx

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/serdx"
)

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.MustParse("a2aa1a6c-4538-42b7-9943-678b34fa2f75")

	d, err := serdx.Serialize(id)
	require.NoError(t, err)
	s, ok := d.AsString()
	require.True(t, ok)
	assert.Equal(t, "a2aa1a6c-4538-42b7-9943-678b34fa2f75", s)

	back, err := serdx.As[uuid.UUID](d)
	require.NoError(t, err)
	assert.Equal(t, id, back)
}

func TestUUIDInsideStruct(t *testing.T) {
	type session struct {
		ID   uuid.UUID `serdx:"id"`
		User string    `serdx:"user"`
	}
	in := session{ID: uuid.MustParse("146a1a6c-4538-42b7-9943-678b34fa2f75"), User: "ada"}

	d, err := serdx.Serialize(in)
	require.NoError(t, err)
	out, err := serdx.As[session](d)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUUIDBadData(t *testing.T) {
	_, err := serdx.As[uuid.UUID](serdx.String("definitely-not-a-uuid"))
	assert.Error(t, err)

	_, err = serdx.As[uuid.UUID](serdx.Int(1))
	assert.Error(t, err)
}

func TestRegisterOnIsolatedRegistry(t *testing.T) {
	r := serdx.NewRegistry()
	Register(r)

	id := uuid.MustParse("deadbeef-4538-42b7-9943-678b34fa2f75")
	d, err := r.Serialize(id, nil)
	require.NoError(t, err)
	v, err := r.Deserialize(d, reflect.TypeFor[uuid.UUID](), serdx.ErrorRaise)
	require.NoError(t, err)
	assert.Equal(t, id, v)
}
