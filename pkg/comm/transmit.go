package comm

import (
	"context"
	"io"
	"strconv"

	"github.com/golang/glog"
)

// RequestTransmitter sends each message as a request and waits for the
// reply, which is how the WAVE stack's WSMP service acknowledges a frame.
type RequestTransmitter struct {
	Requester Requester
}

// Transmit implements Transmitter.
func (t *RequestTransmitter) Transmit(ctx context.Context, pkt []byte) error {
	reply, err := t.Requester.Request(ctx, pkt)
	if err != nil {
		return WrapTransport("transmit", "", err)
	}
	glog.V(2).Infof("transmit reply: %q", reply)
	return nil
}

// Close implements io.Closer.
func (t *RequestTransmitter) Close() error {
	return closeIfCloser(t.Requester)
}

// PublishTransmitter publishes each message on the topic of its PSID.
type PublishTransmitter struct {
	Publisher Publisher
	Topic     string
}

// NewPublishTransmitter uses the decimal PSID as topic.
func NewPublishTransmitter(pub Publisher, psid uint32) *PublishTransmitter {
	return &PublishTransmitter{Publisher: pub, Topic: TopicOf(psid)}
}

// Transmit implements Transmitter.
func (t *PublishTransmitter) Transmit(ctx context.Context, pkt []byte) error {
	return WrapTransport("publish", t.Topic, t.Publisher.Publish(ctx, t.Topic, pkt))
}

// Close implements io.Closer.
func (t *PublishTransmitter) Close() error {
	return closeIfCloser(t.Publisher)
}

// TopicOf returns the topic filter for a PSID, e.g. "32".
func TopicOf(psid uint32) string {
	return strconv.FormatUint(uint64(psid), 10)
}

func closeIfCloser(v interface{}) error {
	if closer, ok := v.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
