package field

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates the buffer is shorter than the field requires.
	ErrTruncated = errors.New("truncated input")
	// ErrOverflow indicates a value doesn't fit the declared width.
	ErrOverflow = errors.New("value overflow")
)

// TruncatedError describes which field ran out of input.
type TruncatedError struct {
	Kind Kind
	Need int
	Have int
}

// Error implements error.
func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated %s: need %d bytes, have %d", e.Kind, e.Need, e.Have)
}

// Unwrap makes errors.Is(err, ErrTruncated) work.
func (e *TruncatedError) Unwrap() error {
	return ErrTruncated
}

// UnknownKindError indicates Decode was asked for an unsupported kind.
type UnknownKindError struct {
	Kind Kind
}

// Error implements error.
func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown field kind %d", int(e.Kind))
}
