// Package nats carries the control and data planes over NATS subjects.
// Topics map to subjects with "/" replaced by ".".
package nats

import (
	"context"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/robotalks/v2x.go/pkg/comm"
)

// Conn wraps a NATS connection.
type Conn struct {
	URL  string
	Conn *nats.Conn
}

// Dial connects to a NATS server, e.g. nats://localhost:4222.
func Dial(url, name string) (*Conn, error) {
	opts := []nats.Option{nats.MaxReconnects(-1)}
	if name != "" {
		opts = append(opts, nats.Name(name))
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, comm.WrapTransport("connect", url, err)
	}
	return &Conn{URL: url, Conn: nc}, nil
}

// Subject converts a topic to a NATS subject.
func Subject(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

// Publish implements comm.Publisher.
func (c *Conn) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return comm.WrapTransport("publish", c.URL, err)
	}
	return comm.WrapTransport("publish", c.URL, c.Conn.Publish(Subject(topic), payload))
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	c.Conn.Close()
	return nil
}

// Requester implements comm.Requester with NATS request/reply.
type Requester struct {
	*Conn
	Subject string
}

// NewRequester sends requests on the subject of topic.
func (c *Conn) NewRequester(topic string) *Requester {
	return &Requester{Conn: c, Subject: Subject(topic)}
}

// Request implements comm.Requester.
func (r *Requester) Request(ctx context.Context, req []byte) ([]byte, error) {
	msg, err := r.Conn.Conn.RequestWithContext(ctx, r.Subject, req)
	if err != nil {
		return nil, comm.WrapTransport("request", r.Subject, err)
	}
	return msg.Data, nil
}

// Subscription implements comm.Subscription.
type Subscription struct {
	owner *Conn
	sub   *nats.Subscription
}

// Subscribe subscribes the subject of topic, NATS wildcards allowed.
func (c *Conn) Subscribe(topic string) (*Subscription, error) {
	sub, err := c.Conn.SubscribeSync(Subject(topic))
	if err != nil {
		return nil, comm.WrapTransport("subscribe", c.URL, err)
	}
	return &Subscription{sub: sub}, nil
}

// Receive implements comm.Subscription.
func (s *Subscription) Receive(ctx context.Context) (comm.Message, error) {
	msg, err := s.sub.NextMsgWithContext(ctx)
	if err != nil {
		if err == nats.ErrBadSubscription || err == nats.ErrConnectionClosed {
			err = comm.ErrClosed
		}
		return comm.Message{}, comm.WrapTransport("receive", s.sub.Subject, err)
	}
	return comm.Message{
		Topic:   strings.ReplaceAll(msg.Subject, ".", "/"),
		Payload: msg.Data,
	}, nil
}

// Close implements io.Closer. A subscription owning its connection
// closes it too.
func (s *Subscription) Close() error {
	err := s.sub.Unsubscribe()
	if s.owner != nil {
		s.owner.Close()
	}
	return err
}

// Owned marks the connection to be closed with the subscription.
func (s *Subscription) Owned(c *Conn) *Subscription {
	s.owner = c
	return s
}
