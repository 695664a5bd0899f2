// Package wme implements the WAVE Management Entity subscription
// handshake which registers a PSID before any WSMP data flows.
package wme

import (
	"fmt"
	"strings"

	"github.com/robotalks/v2x.go/pkg/wave/field"
)

// Action is the subscription operation.
type Action uint8

// Actions with their wire values.
const (
	ActionAdd    Action = 1
	ActionDelete Action = 2
)

// IsValid tells whether a is a known action.
func (a Action) IsValid() bool {
	return a == ActionAdd || a == ActionDelete
}

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionDelete:
		return "delete"
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// ParseAction parses "add"/"subscribe" or "delete"/"unsubscribe".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(s) {
	case "add", "subscribe":
		return ActionAdd, nil
	case "delete", "del", "unsubscribe":
		return ActionDelete, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// Request registers or removes interest in a PSID for an application.
type Request struct {
	Action  Action
	PSID    uint32
	AppName string
}

// Encode serializes the request: action(1) psid(4) app name to the end.
func (r *Request) Encode() ([]byte, error) {
	if !r.Action.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, uint8(r.Action))
	}
	return field.EncodeAll(
		field.U8(r.Action),
		field.U32(r.PSID),
		field.Opaque(r.AppName),
	), nil
}

// DecodeRequest parses an encoded request.
func DecodeRequest(buf []byte) (*Request, error) {
	action, rest, err := field.DecodeU8(buf)
	if err != nil {
		return nil, err
	}
	if !Action(action).IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, uint8(action))
	}
	psid, rest, err := field.DecodeU32(rest)
	if err != nil {
		return nil, err
	}
	name, _ := field.DecodeOpaque(rest)
	return &Request{Action: Action(action), PSID: uint32(psid), AppName: string(name)}, nil
}
