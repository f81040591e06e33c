package serdx

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// Serialization errors.
	ErrUnsupportedType = errors.New("unsupported type")
	ErrDepthExceeded   = errors.New("maximum nesting depth exceeded")

	// Deserialization errors.
	ErrUnexpectedNull        = errors.New("null data for non-nullable target")
	ErrNotSequenceShaped     = errors.New("data does not have sequence structure")
	ErrNotMappingShaped      = errors.New("data does not have mapping structure")
	ErrEnumNameExpected      = errors.New("enum data must be a string naming a member")
	ErrAllAlternativesFailed = errors.New("all union alternatives are incompatible")
	ErrUnknownTypeName       = errors.New("unknown type name")
	ErrShapeMismatch         = errors.New("data shape does not match target")
)

// DeserializationError reports a failed deserialization. It carries the
// innermost data and target that could not be matched; intermediate recursion
// levels add context only when unwrapping an optional.
type DeserializationError struct {
	Data   Data
	Target any
	Reason string

	err error // taxonomy sentinel, matched via errors.Is
}

func newDeserializationError(data Data, target any, sentinel error, reason string) *DeserializationError {
	return &DeserializationError{Data: data, Target: target, Reason: reason, err: sentinel}
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("cannot deserialize %s data to %v: %s", e.Data.Kind(), e.Target, e.Reason)
}

func (e *DeserializationError) Unwrap() error { return e.err }

// withContext prefixes the reason, preserving the original data, target and
// sentinel. Used at optional-unwrap boundaries only.
func (e *DeserializationError) withContext(context string) *DeserializationError {
	return &DeserializationError{
		Data:   e.Data,
		Target: e.Target,
		Reason: context + " " + e.Reason,
		err:    e.err,
	}
}

func newUnsupportedTypeError(v any) error {
	return fmt.Errorf("%w: cannot serialize value of type %T, consider implementing Marshaler or registering an adapter", ErrUnsupportedType, v)
}

// InfoLossWarning signals that an operation may not preserve all information
// through a round trip (for example, mapping entry order). It is advisory and
// never stops an operation.
type InfoLossWarning struct {
	Msg string
}

func (w *InfoLossWarning) Error() string { return "info loss: " + w.Msg }

// WarnHandler receives InfoLossWarning values. The default logs through slog
// at warn level; replace it to collect or silence warnings.
var WarnHandler = func(w *InfoLossWarning) {
	slog.Warn("serdx: " + w.Msg)
}

func warnInfoLoss(format string, args ...any) {
	if WarnHandler != nil {
		WarnHandler(&InfoLossWarning{Msg: fmt.Sprintf(format, args...)})
	}
}
