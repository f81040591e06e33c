// Package uuidx registers a serdx adapter for github.com/google/uuid values.
// Import it for its side effect:
//
//	import _ "github.com/hengadev/serdx/adapters/uuidx"
package uuidx

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hengadev/serdx"
)

func init() {
	Register(serdx.Default())
}

// Register installs the uuid.UUID adapter on the given registry. The default
// registry is covered by importing the package.
func Register(r *serdx.Registry) {
	serdx.RegisterFor(r,
		func(id uuid.UUID) (serdx.Data, error) {
			return serdx.String(id.String()), nil
		},
		func(d serdx.Data) (uuid.UUID, error) {
			s, ok := d.AsString()
			if !ok {
				return uuid.UUID{}, fmt.Errorf("uuid data must be a string, got %s", d.Kind())
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return uuid.UUID{}, fmt.Errorf("parse uuid: %w", err)
			}
			return id, nil
		},
		serdx.WithExactValueMatch(), serdx.WithExactTypeMatch())
}
