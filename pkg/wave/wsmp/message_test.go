package wsmp

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/v2x.go/pkg/wave/field"
)

func TestBuildLayout(t *testing.T) {
	b, err := Build("Detected:1,Count:3", DefaultProfile())
	require.NoError(t, err)
	require.Len(t, b, MinHeaderLen+18)
	require.Equal(t, []byte{
		1, 172, 0, 12, 0x9e, 0, 0, 0, 0,
		0x0f, 0x0f, 0x0f, 0x0f, 0x0f, 0x0f,
		32, 0, 0, 0,
		18, 0,
	}, b[:MinHeaderLen])
	require.Equal(t, "Detected:1,Count:3", string(b[MinHeaderLen:]))
}

func TestBuildParse(t *testing.T) {
	profile := TransmitProfile{
		Mode:         ModeAdhoc,
		ChannelID:    178,
		TimeSlot:     1,
		DataRate:     6,
		TxPower:      -128,
		ChannelLoad:  255,
		Info:         7,
		UserPriority: 3,
		ExpiryTime:   9,
		PeerMAC:      0x010203040506,
		PSID:         0xfffffffe,
	}
	b, err := Build("héllo", profile)
	require.NoError(t, err)

	msg, err := Parse(b)
	require.NoError(t, err)
	expected := &Message{
		Mode:         ModeAdhoc,
		ChannelID:    178,
		TimeSlot:     1,
		DataRate:     6,
		TxPower:      -128,
		ChannelLoad:  255,
		Info:         7,
		UserPriority: 3,
		ExpiryTime:   9,
		// the address decodes as the hex of its little-endian bytes,
		// not back into the integer it was built from.
		PeerMAC: "060504030201",
		PSID:    0xfffffffe,
		DataLen: 6,
		Data:    []byte("héllo"),
	}
	if diff := cmp.Diff(expected, msg); diff != "" {
		t.Errorf("parsed message mismatch (-want +got):\n%s", diff)
	}
	require.NotEqual(t, field.MacHex("010203040506"), msg.PeerMAC)
	require.Equal(t, field.Mac48(profile.PeerMAC).Hex(), msg.PeerMAC)
}

func TestParseDefaultProfile(t *testing.T) {
	b, err := Build("Detected:1,Count:3", DefaultProfile())
	require.NoError(t, err)
	msg, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, ModeSPS, msg.Mode)
	require.Equal(t, uint8(172), msg.ChannelID)
	require.Equal(t, int8(-98), msg.TxPower)
	require.Equal(t, uint32(32), msg.PSID)
	require.Equal(t, field.MacHex("0f0f0f0f0f0f"), msg.PeerMAC)
	require.Equal(t, uint16(18), msg.DataLen)
	require.Equal(t, "Detected:1,Count:3", msg.Text())
}

func TestParseTruncated(t *testing.T) {
	full, err := Build("abc", DefaultProfile())
	require.NoError(t, err)

	testCases := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"three bytes", []byte{1, 2, 3}},
		{"topic ack", []byte("32")},
		{"header minus one", full[:MinHeaderLen-1]},
		{"short payload", full[:len(full)-1]},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Parse(tc.buf)
			require.Nil(t, msg)
			require.True(t, errors.Is(err, ErrTruncated))
		})
	}

	_, err = Parse([]byte("32"))
	require.EqualError(t, err, "wsmp header: need 21 bytes, have 2: truncated input")
}

func TestParseIgnoresTrailingBytes(t *testing.T) {
	b, err := Build("abc", DefaultProfile())
	require.NoError(t, err)
	msg, err := Parse(append(b, 'x', 'y'))
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), msg.Data)
}

func TestParseEmptyPayload(t *testing.T) {
	b, err := Build("", DefaultProfile())
	require.NoError(t, err)
	require.Len(t, b, MinHeaderLen)
	msg, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, uint16(0), msg.DataLen)
	require.Empty(t, msg.Data)
}

func TestParseInvalidUTF8(t *testing.T) {
	b, err := Build("ok", DefaultProfile())
	require.NoError(t, err)
	b[MinHeaderLen-2] = 4
	b = append(b, 0xff, 0xfe)
	msg, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, "ok", msg.Text())
}

func TestBuildRejects(t *testing.T) {
	_, err := Build(strings.Repeat("a", MaxPayloadLen+1), DefaultProfile())
	require.True(t, errors.Is(err, ErrPayloadTooLong))

	b, err := Build(strings.Repeat("a", MaxPayloadLen), DefaultProfile())
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xff}, b[MinHeaderLen-2:MinHeaderLen])

	profile := DefaultProfile()
	profile.PeerMAC = 1 << 48
	_, err = Build("a", profile)
	require.True(t, errors.Is(err, field.ErrOverflow))
}

func TestModeString(t *testing.T) {
	require.Equal(t, "sps", ModeSPS.String())
	require.Equal(t, "adhoc", ModeAdhoc.String())
	require.Equal(t, "mode(0)", Mode(0).String())
}
