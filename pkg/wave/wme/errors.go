package wme

import (
	"errors"
	"fmt"

	"github.com/robotalks/v2x.go/pkg/comm"
)

var (
	// ErrTransport is the transport failure surfaced by SubscribeError.
	ErrTransport = comm.ErrTransport
	// ErrInvalidAction indicates an action outside Add and Delete.
	ErrInvalidAction = errors.New("invalid action")
	// ErrFailed is returned by a subscriber after a failed handshake.
	ErrFailed = errors.New("subscriber failed")
)

// SubscribeError is the failure of a subscription handshake.
type SubscribeError struct {
	Action  Action
	PSID    uint32
	AppName string
	Err     error
}

// Error implements error.
func (e *SubscribeError) Error() string {
	return fmt.Sprintf("wme %s psid %d app %q: %v", e.Action, e.PSID, e.AppName, e.Err)
}

// Unwrap exposes the cause. Transport failures carry ErrTransport.
func (e *SubscribeError) Unwrap() error {
	return e.Err
}
