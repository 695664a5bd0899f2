package wme

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/v2x.go/pkg/comm"
)

// State of a Subscriber.
type State int

// States.
const (
	StateIdle State = iota
	StateAwaitingReply
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting-reply"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Subscriber performs the handshake over a request/reply channel.
// Each call sends exactly one request and waits for exactly one reply,
// the content of which is not interpreted. There is no retry.
type Subscriber struct {
	Requester comm.Requester

	lock  sync.Mutex
	state State
}

// NewSubscriber creates a Subscriber.
func NewSubscriber(r comm.Requester) *Subscriber {
	return &Subscriber{Requester: r}
}

// State returns the current state.
func (s *Subscriber) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

func (s *Subscriber) setState(st State) {
	s.lock.Lock()
	s.state = st
	s.lock.Unlock()
}

// Subscribe sends the request and blocks for the reply.
func (s *Subscriber) Subscribe(ctx context.Context, psid uint32, appName string, action Action) error {
	req := &Request{Action: action, PSID: psid, AppName: appName}
	pkt, err := req.Encode()
	if err != nil {
		return err
	}

	s.lock.Lock()
	if s.state != StateIdle {
		st := s.state
		s.lock.Unlock()
		if st == StateFailed {
			return &SubscribeError{Action: action, PSID: psid, AppName: appName, Err: ErrFailed}
		}
		return fmt.Errorf("wme subscribe: %s", st)
	}
	s.state = StateAwaitingReply
	s.lock.Unlock()

	reply, err := s.Requester.Request(ctx, pkt)
	if err != nil {
		s.setState(StateFailed)
		return &SubscribeError{Action: action, PSID: psid, AppName: appName,
			Err: comm.WrapTransport("request", "", err)}
	}
	s.setState(StateIdle)
	glog.Infof("psid %d %s for %s (reply %d bytes)", psid, pastTense(action), appName, len(reply))
	return nil
}

func pastTense(a Action) string {
	if a == ActionDelete {
		return "unsubscribed"
	}
	return "subscribed"
}
