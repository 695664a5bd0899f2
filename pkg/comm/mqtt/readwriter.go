package mqtt

import (
	"context"
	"sync"

	"github.com/robotalks/v2x.go/pkg/comm"
)

// DefaultBacklog is the number of undelivered messages buffered per
// subscription before the dispatcher blocks.
const DefaultBacklog = 64

// Subscription implements comm.Subscription over a Queue topic.
type Subscription struct {
	Topic string

	sub     *Sub
	msgCh   chan comm.Message
	closeCh chan struct{}
	once    sync.Once
}

// Subscribe subscribes topic (wildcards allowed) and waits for the
// broker to acknowledge.
func (q *Queue) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	s := &Subscription{
		Topic:   topic,
		msgCh:   make(chan comm.Message, DefaultBacklog),
		closeCh: make(chan struct{}),
	}
	s.sub = q.Sub(topic, Handler(s.handleMsg))
	if err := WaitToken(ctx, s.sub.Token); err != nil {
		s.sub.Close()
		return nil, comm.WrapTransport("subscribe", topic, err)
	}
	return s, nil
}

// Receive implements comm.Subscription.
func (s *Subscription) Receive(ctx context.Context) (comm.Message, error) {
	select {
	case msg := <-s.msgCh:
		return msg, nil
	case <-s.closeCh:
		return comm.Message{}, comm.WrapTransport("receive", s.Topic, comm.ErrClosed)
	case <-ctx.Done():
		return comm.Message{}, comm.WrapTransport("receive", s.Topic, ctx.Err())
	}
}

// Close implements io.Closer.
func (s *Subscription) Close() (err error) {
	s.once.Do(func() {
		close(s.closeCh)
		err = s.sub.Close()
	})
	return
}

func (s *Subscription) handleMsg(topic string, payload []byte) {
	select {
	case s.msgCh <- comm.Message{Topic: topic, Payload: payload}:
	case <-s.closeCh:
	}
}

// Requester implements comm.Requester by publishing on <Topic>/req and
// taking the next message on <Topic>/rep as the reply.
type Requester struct {
	Queue *Queue
	Topic string

	lock sync.Mutex
	rep  *Subscription
}

// NewRequester subscribes the reply topic.
func NewRequester(ctx context.Context, q *Queue, topic string) (*Requester, error) {
	rep, err := q.Subscribe(ctx, topic+"/rep")
	if err != nil {
		return nil, err
	}
	return &Requester{Queue: q, Topic: topic, rep: rep}, nil
}

// Request implements comm.Requester.
func (r *Requester) Request(ctx context.Context, req []byte) ([]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if err := WaitToken(ctx, r.Queue.Pub(r.Topic+"/req", req)); err != nil {
		return nil, comm.WrapTransport("request", r.Topic, err)
	}
	msg, err := r.rep.Receive(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Payload, nil
}

// Close implements io.Closer.
func (r *Requester) Close() error {
	r.rep.Close()
	return r.Queue.Close()
}
