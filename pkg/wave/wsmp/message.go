// Package wsmp builds and parses WAVE Short Messages: a fixed 21-byte
// header followed by data_len bytes of application payload.
//
//	mode u8 | channel_id u8 | time_slot u8 | data_rate u8 | tx_power s8 |
//	channel_load u8 | info u8 | user_priority u8 | expiry_time u8 |
//	peer_mac mac48 | psid u32 | data_len u16 | data[data_len]
package wsmp

import (
	"fmt"
	"strings"

	"github.com/robotalks/v2x.go/pkg/wave/field"
)

// Mode is the transmit mode.
type Mode uint8

// Modes.
const (
	ModeSPS   Mode = 1
	ModeAdhoc Mode = 2
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeSPS:
		return "sps"
	case ModeAdhoc:
		return "adhoc"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// MinHeaderLen is the size of the header before the payload.
const MinHeaderLen = 21

// MaxPayloadLen is the largest payload data_len can describe.
const MaxPayloadLen = 1<<16 - 1

// TransmitProfile bundles the constant radio and session parameters.
type TransmitProfile struct {
	Mode         Mode
	ChannelID    uint8
	TimeSlot     uint8
	DataRate     uint8
	TxPower      int8
	ChannelLoad  uint8
	Info         uint8
	UserPriority uint8
	ExpiryTime   uint8
	PeerMAC      uint64
	PSID         uint32
}

// DefaultProfile returns the profile used by the RSU: SPS on channel 172.
func DefaultProfile() TransmitProfile {
	return TransmitProfile{
		Mode:      ModeSPS,
		ChannelID: 172,
		DataRate:  12,
		TxPower:   -98,
		PeerMAC:   16557351571215,
		PSID:      32,
	}
}

// Build encodes appText with profile into a message.
func Build(appText string, profile TransmitProfile) ([]byte, error) {
	if len(appText) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(appText))
	}
	mac, err := field.NewMac48(profile.PeerMAC)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 0, MinHeaderLen+len(appText))
	for _, f := range []field.Encoder{
		field.U8(profile.Mode),
		field.U8(profile.ChannelID),
		field.U8(profile.TimeSlot),
		field.U8(profile.DataRate),
		field.S8(profile.TxPower),
		field.U8(profile.ChannelLoad),
		field.U8(profile.Info),
		field.U8(profile.UserPriority),
		field.U8(profile.ExpiryTime),
		mac,
		field.U32(profile.PSID),
		field.U16(len(appText)),
		field.Opaque(appText),
	} {
		b = f.AppendTo(b)
	}
	return b, nil
}

// Message is a parsed WSM.
type Message struct {
	Mode         Mode
	ChannelID    uint8
	TimeSlot     uint8
	DataRate     uint8
	TxPower      int8
	ChannelLoad  uint8
	Info         uint8
	UserPriority uint8
	ExpiryTime   uint8
	PeerMAC      field.MacHex
	PSID         uint32
	DataLen      uint16
	Data         []byte
}

// Text returns the payload with invalid UTF-8 dropped.
func (m *Message) Text() string {
	return strings.ToValidUTF8(string(m.Data), "")
}

// String renders the header for diagnostics.
func (m *Message) String() string {
	return fmt.Sprintf("mode=%s ch=%d slot=%d rate=%d txpow=%d load=%d info=%d prio=%d expiry=%d mac=%s psid=%d len=%d",
		m.Mode, m.ChannelID, m.TimeSlot, m.DataRate, m.TxPower, m.ChannelLoad,
		m.Info, m.UserPriority, m.ExpiryTime, m.PeerMAC, m.PSID, m.DataLen)
}

type cursor struct {
	buf []byte
	err error
}

func (c *cursor) u8() uint8 {
	if c.err != nil {
		return 0
	}
	var v field.U8
	v, c.buf, c.err = field.DecodeU8(c.buf)
	return uint8(v)
}

func (c *cursor) s8() int8 {
	if c.err != nil {
		return 0
	}
	var v field.S8
	v, c.buf, c.err = field.DecodeS8(c.buf)
	return int8(v)
}

func (c *cursor) u16() uint16 {
	if c.err != nil {
		return 0
	}
	var v field.U16
	v, c.buf, c.err = field.DecodeU16(c.buf)
	return uint16(v)
}

func (c *cursor) u32() uint32 {
	if c.err != nil {
		return 0
	}
	var v field.U32
	v, c.buf, c.err = field.DecodeU32(c.buf)
	return uint32(v)
}

func (c *cursor) mac48() field.MacHex {
	if c.err != nil {
		return ""
	}
	var v field.MacHex
	v, c.buf, c.err = field.DecodeMac48(c.buf)
	return v
}

// Parse decodes buf. Inputs shorter than MinHeaderLen, including a
// bare topic acknowledgement, fail with ErrTruncated. Bytes beyond
// data_len are ignored. The payload is copied out of buf.
func Parse(buf []byte) (*Message, error) {
	if len(buf) < MinHeaderLen {
		return nil, fmt.Errorf("wsmp header: need %d bytes, have %d: %w", MinHeaderLen, len(buf), ErrTruncated)
	}
	c := &cursor{buf: buf}
	m := &Message{
		Mode:         Mode(c.u8()),
		ChannelID:    c.u8(),
		TimeSlot:     c.u8(),
		DataRate:     c.u8(),
		TxPower:      c.s8(),
		ChannelLoad:  c.u8(),
		Info:         c.u8(),
		UserPriority: c.u8(),
		ExpiryTime:   c.u8(),
		PeerMAC:      c.mac48(),
		PSID:         c.u32(),
		DataLen:      c.u16(),
	}
	if c.err != nil {
		return nil, c.err
	}
	data, _, err := field.DecodeOpaqueN(c.buf, int(m.DataLen))
	if err != nil {
		return nil, err
	}
	m.Data = []byte(data)
	return m, nil
}
