package wme

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/v2x.go/pkg/comm"
	"github.com/robotalks/v2x.go/pkg/wave/field"
)

type fakeRequester struct {
	reqs  [][]byte
	reply []byte
	err   error
}

func (r *fakeRequester) Request(ctx context.Context, req []byte) ([]byte, error) {
	r.reqs = append(r.reqs, req)
	return r.reply, r.err
}

func TestActionWireValues(t *testing.T) {
	require.Equal(t, uint8(1), uint8(ActionAdd))
	require.Equal(t, uint8(2), uint8(ActionDelete))
	require.False(t, Action(0).IsValid())
	require.False(t, Action(3).IsValid())
	require.Equal(t, "action(7)", Action(7).String())

	testCases := []struct {
		in     string
		action Action
		ok     bool
	}{
		{"add", ActionAdd, true},
		{"Subscribe", ActionAdd, true},
		{"delete", ActionDelete, true},
		{"unsubscribe", ActionDelete, true},
		{"update", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			a, err := ParseAction(tc.in)
			if !tc.ok {
				require.True(t, errors.Is(err, ErrInvalidAction))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.action, a)
		})
	}
}

func TestRequestEncode(t *testing.T) {
	req := &Request{Action: ActionAdd, PSID: 32, AppName: "RX_APPLICATION"}
	b, err := req.Encode()
	require.NoError(t, err)
	require.Equal(t, append([]byte{1, 32, 0, 0, 0}, "RX_APPLICATION"...), b)

	decoded, err := DecodeRequest(b)
	require.NoError(t, err)
	require.Equal(t, req, decoded)

	_, err = (&Request{Action: 9, PSID: 32}).Encode()
	require.True(t, errors.Is(err, ErrInvalidAction))
}

func TestDecodeRequestRejects(t *testing.T) {
	_, err := DecodeRequest([]byte{3, 32, 0, 0, 0})
	require.True(t, errors.Is(err, ErrInvalidAction))
	_, err = DecodeRequest([]byte{1, 32})
	require.True(t, errors.Is(err, field.ErrTruncated))
	_, err = DecodeRequest(nil)
	require.True(t, errors.Is(err, field.ErrTruncated))

	req, err := DecodeRequest([]byte{2, 0xff, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	require.Equal(t, &Request{Action: ActionDelete, PSID: 0xffffffff}, req)
}

func TestSubscriber(t *testing.T) {
	r := &fakeRequester{reply: []byte("whatever")}
	s := NewSubscriber(r)
	require.Equal(t, StateIdle, s.State())
	require.NoError(t, s.Subscribe(context.Background(), 32, "TX_APPLICATION", ActionAdd))
	require.Equal(t, StateIdle, s.State())
	require.Len(t, r.reqs, 1)
	require.Equal(t, append([]byte{1, 32, 0, 0, 0}, "TX_APPLICATION"...), r.reqs[0])

	require.NoError(t, s.Subscribe(context.Background(), 32, "TX_APPLICATION", ActionDelete))
	require.Len(t, r.reqs, 2)
	require.Equal(t, byte(2), r.reqs[1][0])
}

func TestSubscriberTransportFailure(t *testing.T) {
	cause := comm.WrapTransport("request", "tcp://localhost:9999", context.DeadlineExceeded)
	r := &fakeRequester{err: cause}
	s := NewSubscriber(r)
	err := s.Subscribe(context.Background(), 32, "RX_APPLICATION", ActionAdd)
	require.Error(t, err)
	var se *SubscribeError
	require.True(t, errors.As(err, &se))
	require.Equal(t, uint32(32), se.PSID)
	require.True(t, errors.Is(err, ErrTransport))
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Equal(t, StateFailed, s.State())
	require.Len(t, r.reqs, 1)

	// no retry and no further requests once failed.
	err = s.Subscribe(context.Background(), 32, "RX_APPLICATION", ActionAdd)
	require.True(t, errors.Is(err, ErrFailed))
	require.False(t, errors.Is(err, ErrTransport))
	require.Len(t, r.reqs, 1)
}

func TestSubscriberPlainRequestError(t *testing.T) {
	s := NewSubscriber(&fakeRequester{err: errors.New("no route")})
	err := s.Subscribe(context.Background(), 32, "TX_APPLICATION", ActionAdd)
	require.True(t, errors.Is(err, ErrTransport))
	require.Equal(t, StateFailed, s.State())
}

func TestSubscriberInvalidAction(t *testing.T) {
	r := &fakeRequester{}
	s := NewSubscriber(r)
	err := s.Subscribe(context.Background(), 32, "app", Action(0))
	require.True(t, errors.Is(err, ErrInvalidAction))
	require.Empty(t, r.reqs)
	require.Equal(t, StateIdle, s.State())
}
