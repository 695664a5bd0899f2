package comm

import (
	"bytes"
	"context"
	"io"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Requester is the control plane channel: one request, one reply.
type Requester interface {
	Request(ctx context.Context, req []byte) ([]byte, error)
}

// Publisher sends payloads to a topic on the data plane.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Message is received from a Subscription.
// Topic is empty when the transport doesn't carry it separately.
type Message struct {
	Topic   string
	Payload []byte
}

// Subscription receives messages already filtered by topic.
type Subscription interface {
	io.Closer
	// Receive blocks until a message arrives or ctx is done.
	Receive(ctx context.Context) (Message, error)
}

// Transmitter sends encoded WSMP messages from the RSU.
type Transmitter interface {
	Transmit(ctx context.Context, pkt []byte) error
}

// IsTopicAck tells whether msg is only the topic echoed back by the
// transport rather than a protocol message.
func IsTopicAck(msg Message, topic string) bool {
	return topic != "" && bytes.Equal(msg.Payload, []byte(topic))
}
