// Package zmq speaks to the WAVE stack daemons over ZeroMQ sockets:
// REQ for the WME and WSMP transmit services, SUB for received WSMP
// frames, and PUB for a self-hosted data plane.
//
// The ctx passed to Dial and Listen functions only bounds the setup.
// Sockets live until Close.
package zmq

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/golang/glog"

	"github.com/robotalks/v2x.go/pkg/comm"
)

// ReadWriter implements comm.PacketReadWriter over a ZeroMQ socket.
// A multipart message reads as its last frame.
type ReadWriter struct {
	Socket zmq4.Socket
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	msg, err := p.Socket.Recv()
	if err != nil {
		return nil, err
	}
	if len(msg.Frames) == 0 {
		return nil, nil
	}
	return msg.Frames[len(msg.Frames)-1], nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return p.Socket.Send(zmq4.NewMsg(pkt))
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.Socket.Close()
}

// DialRequester connects a REQ socket to endpoint, e.g. tcp://localhost:9999.
func DialRequester(ctx context.Context, endpoint string) (*comm.PacketRequester, error) {
	sock := zmq4.NewReq(context.Background())
	if err := setup(ctx, func() error { return sock.Dial(endpoint) }); err != nil {
		sock.Close()
		return nil, comm.WrapTransport("dial", endpoint, err)
	}
	return comm.NewPacketRequester(&ReadWriter{Socket: sock}, endpoint), nil
}

// Subscription implements comm.Subscription with a SUB socket.
type Subscription struct {
	Endpoint string
	Topic    string

	sock    zmq4.Socket
	msgCh   chan comm.Message
	doneCh  chan struct{}
	err     error
	closeCh chan struct{}
	once    sync.Once
}

// DialSubscription connects a SUB socket to endpoint filtering on topic.
func DialSubscription(ctx context.Context, endpoint, topic string) (*Subscription, error) {
	sock := zmq4.NewSub(context.Background())
	if err := setup(ctx, func() error { return sock.Dial(endpoint) }); err != nil {
		sock.Close()
		return nil, comm.WrapTransport("dial", endpoint, err)
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, topic); err != nil {
		sock.Close()
		return nil, comm.WrapTransport("subscribe", endpoint, err)
	}
	s := &Subscription{
		Endpoint: endpoint,
		Topic:    topic,
		sock:     sock,
		msgCh:    make(chan comm.Message),
		doneCh:   make(chan struct{}),
		closeCh:  make(chan struct{}),
	}
	go s.recvLoop()
	return s, nil
}

// setup runs fn, a Dial or Listen which may retry, until ctx is done.
// On timeout the caller closes the socket, which ends fn.
func setup(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- fn() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive implements comm.Subscription. Once the socket stopped
// receiving, the subscription is closed.
func (s *Subscription) Receive(ctx context.Context) (comm.Message, error) {
	select {
	case msg := <-s.msgCh:
		return msg, nil
	case <-s.doneCh:
		err := comm.ErrClosed
		select {
		case <-s.closeCh:
		default:
			if s.err != nil {
				err = fmt.Errorf("%w: %v", comm.ErrClosed, s.err)
			}
		}
		return comm.Message{}, comm.WrapTransport("receive", s.Endpoint, err)
	case <-s.closeCh:
		return comm.Message{}, comm.WrapTransport("receive", s.Endpoint, comm.ErrClosed)
	case <-ctx.Done():
		return comm.Message{}, comm.WrapTransport("receive", s.Endpoint, ctx.Err())
	}
}

// Close implements io.Closer.
func (s *Subscription) Close() (err error) {
	s.once.Do(func() {
		close(s.closeCh)
		err = s.sock.Close()
	})
	return
}

func (s *Subscription) recvLoop() {
	defer close(s.doneCh)
	for {
		msg, err := s.sock.Recv()
		if err != nil {
			s.err = err
			return
		}
		m, ok := messageOf(msg.Frames)
		if !ok {
			continue
		}
		select {
		case s.msgCh <- m:
		case <-s.closeCh:
			return
		}
	}
}

// messageOf maps frames to a Message: a multipart message carries the
// topic first and the payload last, a single frame is the payload only.
func messageOf(frames [][]byte) (comm.Message, bool) {
	switch len(frames) {
	case 0:
		return comm.Message{}, false
	case 1:
		return comm.Message{Payload: frames[0]}, true
	default:
		return comm.Message{Topic: string(frames[0]), Payload: frames[len(frames)-1]}, true
	}
}

// Publisher implements comm.Publisher with a bound PUB socket.
type Publisher struct {
	Endpoint string

	lock sync.Mutex
	sock zmq4.Socket
}

// ListenPublisher binds a PUB socket to endpoint, e.g. tcp://*:4444.
func ListenPublisher(ctx context.Context, endpoint string) (*Publisher, error) {
	sock := zmq4.NewPub(context.Background())
	if err := setup(ctx, func() error { return sock.Listen(endpoint) }); err != nil {
		sock.Close()
		return nil, comm.WrapTransport("listen", endpoint, err)
	}
	glog.Infof("publishing on %s", endpoint)
	return &Publisher{Endpoint: endpoint, sock: sock}, nil
}

// Publish implements comm.Publisher. The message is sent as two frames,
// the topic and the payload, so SUB sockets filter on the topic.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return comm.WrapTransport("publish", p.Endpoint, err)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	return comm.WrapTransport("publish", p.Endpoint,
		p.sock.Send(zmq4.NewMsgFrom([]byte(topic), payload)))
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	return p.sock.Close()
}
