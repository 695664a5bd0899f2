// Package transport selects a comm implementation by endpoint URL scheme.
//
//	tcp:// ipc:// inproc://   ZeroMQ REQ (requests, transmit) or SUB (subscriptions)
//	pub+tcp:// pub+ipc://     bound ZeroMQ PUB
//	mqtt:// mqtts://          MQTT broker, path is the topic prefix
//	nats://                   NATS server, path is the request subject
//	ws:// wss://              WebSocket request/reply
//	stream://                 length-prefixed TCP request/reply
//
// The ctx of the factories bounds connection setup. The returned
// channels stay usable after it is done, until closed.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/robotalks/v2x.go/pkg/comm"
	"github.com/robotalks/v2x.go/pkg/comm/mqtt"
	"github.com/robotalks/v2x.go/pkg/comm/nats"
	"github.com/robotalks/v2x.go/pkg/comm/stream"
	"github.com/robotalks/v2x.go/pkg/comm/websocket"
	"github.com/robotalks/v2x.go/pkg/comm/zmq"
)

// DefaultDialTimeout applies to stream connections.
const DefaultDialTimeout = 5 * time.Second

// DefaultRequestTopic is used by broker based requesters without a topic.
const DefaultRequestTopic = "wme"

// ErrUnsupportedScheme is returned for an unknown URL scheme.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// Scheme returns the lower-cased scheme of endpoint.
func Scheme(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	return strings.ToLower(u.Scheme), nil
}

func unsupported(endpoint, scheme string) error {
	return fmt.Errorf("%w %q in %s", ErrUnsupportedScheme, scheme, endpoint)
}

func isZMQ(scheme string) bool {
	switch scheme {
	case "tcp", "ipc", "inproc":
		return true
	}
	return false
}

// NewRequester creates the control plane channel for endpoint.
func NewRequester(ctx context.Context, endpoint, clientID string) (comm.Requester, error) {
	scheme, err := Scheme(endpoint)
	if err != nil {
		return nil, err
	}
	switch {
	case isZMQ(scheme):
		r, err := zmq.DialRequester(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return r, nil
	case scheme == "mqtt" || scheme == "mqtts":
		q, err := mqtt.DialQueue(ctx, endpoint, clientID)
		if err != nil {
			return nil, err
		}
		r, err := mqtt.NewRequester(ctx, q, topicParam(endpoint, DefaultRequestTopic))
		if err != nil {
			q.Close()
			return nil, err
		}
		return r, nil
	case scheme == "nats":
		server, subject, err := splitNATS(endpoint)
		if err != nil {
			return nil, err
		}
		if subject == "" {
			subject = DefaultRequestTopic
		}
		conn, err := nats.Dial(server, clientID)
		if err != nil {
			return nil, err
		}
		return conn.NewRequester(subject), nil
	case scheme == "ws" || scheme == "wss":
		r, err := websocket.DialRequester(endpoint, "")
		if err != nil {
			return nil, err
		}
		return r, nil
	case scheme == "stream":
		u, _ := url.Parse(endpoint)
		r, err := stream.DialRequester(u.Host, DefaultDialTimeout)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, unsupported(endpoint, scheme)
}

// NewTransmitter creates the RSU data plane for endpoint. Request
// based endpoints expect a reply per message, the others publish on
// the topic of psid.
func NewTransmitter(ctx context.Context, endpoint string, psid uint32, clientID string) (comm.Transmitter, error) {
	scheme, err := Scheme(endpoint)
	if err != nil {
		return nil, err
	}
	switch {
	case isZMQ(scheme), scheme == "ws", scheme == "wss", scheme == "stream":
		r, err := NewRequester(ctx, endpoint, clientID)
		if err != nil {
			return nil, err
		}
		return &comm.RequestTransmitter{Requester: r}, nil
	}
	pub, err := NewPublisher(ctx, endpoint, clientID)
	if err != nil {
		return nil, err
	}
	return comm.NewPublishTransmitter(pub, psid), nil
}

// NewPublisher creates a publisher for endpoint.
func NewPublisher(ctx context.Context, endpoint, clientID string) (comm.Publisher, error) {
	scheme, err := Scheme(endpoint)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(scheme, "pub+") && isZMQ(scheme[4:]):
		pub, err := zmq.ListenPublisher(ctx, endpoint[4:])
		if err != nil {
			return nil, err
		}
		return pub, nil
	case scheme == "mqtt" || scheme == "mqtts":
		q, err := mqtt.DialQueue(ctx, endpoint, clientID)
		if err != nil {
			return nil, err
		}
		return q, nil
	case scheme == "nats":
		server, _, err := splitNATS(endpoint)
		if err != nil {
			return nil, err
		}
		conn, err := nats.Dial(server, clientID)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return nil, unsupported(endpoint, scheme)
}

// NewSubscription creates the OBU data plane for endpoint filtered on topic.
func NewSubscription(ctx context.Context, endpoint, topic, clientID string) (comm.Subscription, error) {
	scheme, err := Scheme(endpoint)
	if err != nil {
		return nil, err
	}
	switch {
	case isZMQ(scheme):
		sub, err := zmq.DialSubscription(ctx, endpoint, topic)
		if err != nil {
			return nil, err
		}
		return sub, nil
	case scheme == "mqtt" || scheme == "mqtts":
		q, err := mqtt.DialQueue(ctx, endpoint, clientID)
		if err != nil {
			return nil, err
		}
		sub, err := q.Subscribe(ctx, topic)
		if err != nil {
			q.Close()
			return nil, err
		}
		return &ownedSubscription{Subscription: sub, owner: q}, nil
	case scheme == "nats":
		server, _, err := splitNATS(endpoint)
		if err != nil {
			return nil, err
		}
		conn, err := nats.Dial(server, clientID)
		if err != nil {
			return nil, err
		}
		sub, err := conn.Subscribe(topic)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return sub.Owned(conn), nil
	}
	return nil, unsupported(endpoint, scheme)
}

type ownedSubscription struct {
	comm.Subscription
	owner io.Closer
}

func (s *ownedSubscription) Close() error {
	err := s.Subscription.Close()
	s.owner.Close()
	return err
}

func topicParam(endpoint, defaultTopic string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return defaultTopic
	}
	if topic := u.Query().Get("topic"); topic != "" {
		return topic
	}
	return defaultTopic
}

// splitNATS separates the server URL from the subject carried as path.
func splitNATS(endpoint string) (server, subject string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", err
	}
	subject = strings.Trim(u.Path, "/")
	u.Path, u.RawQuery, u.Fragment = "", "", ""
	return u.String(), subject, nil
}
