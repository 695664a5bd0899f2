package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport classifies every channel connect/send/receive failure.
	ErrTransport = errors.New("transport failure")
	// ErrClosed indicates the channel is already closed.
	ErrClosed = errors.New("channel closed")
)

// TransportError wraps a transport failure with the operation and endpoint.
type TransportError struct {
	Op       string
	Endpoint string
	Err      error
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

// Unwrap makes both ErrTransport and the cause visible to errors.Is.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// WrapTransport wraps err as a TransportError, nil stays nil.
func WrapTransport(op, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Endpoint: endpoint, Err: err}
}
