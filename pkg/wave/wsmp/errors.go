package wsmp

import (
	"errors"

	"github.com/robotalks/v2x.go/pkg/wave/field"
)

var (
	// ErrTruncated indicates the buffer is shorter than the message requires.
	ErrTruncated = field.ErrTruncated
	// ErrPayloadTooLong indicates the payload doesn't fit data_len.
	ErrPayloadTooLong = errors.New("payload too long")
)
