package comm

import (
	"context"
	"io"
	"sync"

	fx "github.com/robotalks/v2x.go/pkg/framework"
)

// PacketRequester implements Requester over a PacketReadWriter by writing
// the request and reading the next packet as the reply.
type PacketRequester struct {
	ReadWriter PacketReadWriter
	Endpoint   string

	lock   sync.Mutex
	broken bool
}

// NewPacketRequester creates a PacketRequester.
func NewPacketRequester(rw PacketReadWriter, endpoint string) *PacketRequester {
	return &PacketRequester{ReadWriter: rw, Endpoint: endpoint}
}

// Request implements Requester. When ctx is done before the reply,
// the underlying channel is closed because the reply ordering is lost.
func (r *PacketRequester) Request(ctx context.Context, req []byte) (reply []byte, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.broken {
		return nil, WrapTransport("request", r.Endpoint, ErrClosed)
	}
	err = fx.RunWithContextCancel(ctx, func() {
		r.broken = true
		closeIfCloser(r.ReadWriter)
	}, func() error {
		if err := r.ReadWriter.WritePacket(req); err != nil {
			return err
		}
		var err error
		reply, err = r.ReadWriter.ReadPacket()
		return err
	})
	if err != nil {
		return nil, WrapTransport("request", r.Endpoint, err)
	}
	return reply, nil
}

// Close implements io.Closer.
func (r *PacketRequester) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.broken = true
	if closer, ok := r.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
