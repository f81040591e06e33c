// Package serdx converts arbitrary Go values into a small, format-neutral
// primitive data model (null, bool, number, string, sequence, mapping) and
// reconstructs typed values from it, guided by an extensible registry of type
// adapters.
//
// The primitive Data tree is what format writers consume and format readers
// produce; the fileio subpackage ships a catalog of such formats (JSON, YAML,
// JSON Lines, CSV, gob) together with Dump and Load helpers.
//
// # Serialization
//
//	type Server struct {
//	    Host  string        `serdx:"host"`
//	    Port  int           `serdx:"port"`
//	    Grace time.Duration `serdx:"grace"`
//	}
//
//	data, err := serdx.Serialize(Server{Host: "db1", Port: 5432, Grace: time.Minute})
//	// data is a mapping: {host: db1, port: 5432, grace: 1m0s}
//
// Structs become mappings in field declaration order, slices and arrays
// become sequences, maps become mappings, maps with empty-struct elements
// become sequences (the set convention), and registered enumeration members
// become their name. A value may take over its own serialization by
// implementing Marshaler. Values no rule covers fail with
// ErrUnsupportedType, never a silent stringification, which would produce
// data that cannot round-trip.
//
// # Deserialization
//
//	srv, err := serdx.As[Server](data)
//
// Deserialization is driven by a target: a reflect.Type, a registered name,
// or a descriptor such as Union or Tuple. Pointer targets act as optionals.
// By default mismatches degrade to returning the data unchanged; the strict
// variants surface a *DeserializationError instead.
//
// # Adapters
//
// Types outside the structural rules register adapters:
//
//	serdx.RegisterFor(serdx.Default(),
//	    func(c Celsius) (serdx.Data, error) { return serdx.Float(float64(c)), nil },
//	    func(d serdx.Data) (Celsius, error) { f, _ := d.AsFloat(); return Celsius(f), nil })
//
// Adapters are consulted in registration order; Promote and Demote adjust
// priority. Adapters for time.Time, time.Duration, big.Int, net.IP and
// []byte are registered at startup; optional third-party adapters live under
// adapters/ and register themselves on blank import.
package serdx
