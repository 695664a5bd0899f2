package field

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Kind identifies the type of a field.
type Kind int

// Field kinds.
const (
	KindU8 Kind = iota + 1
	KindU16
	KindU32
	KindS8
	KindMac48
	KindOpaque
)

// MaxMac48 is the largest value a Mac48 can carry.
const MaxMac48 uint64 = 1<<48 - 1

// Size returns the encoded width in bytes, 0 for Opaque.
func (k Kind) Size() int {
	switch k {
	case KindU8, KindS8:
		return 1
	case KindU16:
		return 2
	case KindU32:
		return 4
	case KindMac48:
		return 6
	}
	return 0
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindS8:
		return "s8"
	case KindMac48:
		return "mac48"
	case KindOpaque:
		return "opaque"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a decoded field.
type Value interface {
	Kind() Kind
}

// Encoder is a field which can be encoded.
type Encoder interface {
	Value
	// AppendTo appends the encoded bytes to b.
	AppendTo(b []byte) []byte
}

// Field types.
type (
	U8     uint8
	U16    uint16
	U32    uint32
	S8     int8
	Mac48  uint64
	MacHex string
	Opaque string
)

// Kind implements Value.
func (U8) Kind() Kind { return KindU8 }

// Kind implements Value.
func (U16) Kind() Kind { return KindU16 }

// Kind implements Value.
func (U32) Kind() Kind { return KindU32 }

// Kind implements Value.
func (S8) Kind() Kind { return KindS8 }

// Kind implements Value.
func (Mac48) Kind() Kind { return KindMac48 }

// Kind implements Value.
func (MacHex) Kind() Kind { return KindMac48 }

// Kind implements Value.
func (Opaque) Kind() Kind { return KindOpaque }

// AppendTo implements Encoder.
func (v U8) AppendTo(b []byte) []byte { return append(b, byte(v)) }

// AppendTo implements Encoder.
func (v U16) AppendTo(b []byte) []byte { return binary.LittleEndian.AppendUint16(b, uint16(v)) }

// AppendTo implements Encoder.
func (v U32) AppendTo(b []byte) []byte { return binary.LittleEndian.AppendUint32(b, uint32(v)) }

// AppendTo implements Encoder.
func (v S8) AppendTo(b []byte) []byte { return append(b, byte(v)) }

// AppendTo implements Encoder. Only the low 48 bits are written.
func (v Mac48) AppendTo(b []byte) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40))
}

// AppendTo implements Encoder.
func (v Opaque) AppendTo(b []byte) []byte { return append(b, v...) }

// NewMac48 validates v fits in 48 bits.
func NewMac48(v uint64) (Mac48, error) {
	if v > MaxMac48 {
		return 0, fmt.Errorf("mac48 %d: %w", v, ErrOverflow)
	}
	return Mac48(v), nil
}

// Hex renders the address the way it decodes off the wire.
func (v Mac48) Hex() MacHex {
	return MacHex(hex.EncodeToString(v.AppendTo(make([]byte, 0, 6))))
}

// Encode encodes a single field.
func Encode(v Encoder) []byte {
	return v.AppendTo(nil)
}

// EncodeAll concatenates the encodings of fields in order.
func EncodeAll(fields ...Encoder) []byte {
	var b []byte
	for _, f := range fields {
		b = f.AppendTo(b)
	}
	return b
}

func take(buf []byte, kind Kind) ([]byte, []byte, error) {
	n := kind.Size()
	if len(buf) < n {
		return nil, buf, &TruncatedError{Kind: kind, Need: n, Have: len(buf)}
	}
	return buf[:n], buf[n:], nil
}

// DecodeU8 decodes an U8.
func DecodeU8(buf []byte) (U8, []byte, error) {
	b, rest, err := take(buf, KindU8)
	if err != nil {
		return 0, rest, err
	}
	return U8(b[0]), rest, nil
}

// DecodeU16 decodes an U16.
func DecodeU16(buf []byte) (U16, []byte, error) {
	b, rest, err := take(buf, KindU16)
	if err != nil {
		return 0, rest, err
	}
	return U16(binary.LittleEndian.Uint16(b)), rest, nil
}

// DecodeU32 decodes an U32.
func DecodeU32(buf []byte) (U32, []byte, error) {
	b, rest, err := take(buf, KindU32)
	if err != nil {
		return 0, rest, err
	}
	return U32(binary.LittleEndian.Uint32(b)), rest, nil
}

// DecodeS8 decodes a S8.
func DecodeS8(buf []byte) (S8, []byte, error) {
	b, rest, err := take(buf, KindS8)
	if err != nil {
		return 0, rest, err
	}
	return S8(int8(b[0])), rest, nil
}

// DecodeMac48 decodes 6 bytes into their hex rendering in buffer order.
func DecodeMac48(buf []byte) (MacHex, []byte, error) {
	b, rest, err := take(buf, KindMac48)
	if err != nil {
		return "", rest, err
	}
	return MacHex(hex.EncodeToString(b)), rest, nil
}

// DecodeOpaque consumes the remainder of buf.
func DecodeOpaque(buf []byte) (Opaque, []byte) {
	return Opaque(buf), buf[len(buf):]
}

// DecodeOpaqueN consumes exactly n bytes.
func DecodeOpaqueN(buf []byte, n int) (Opaque, []byte, error) {
	if n < 0 || len(buf) < n {
		return "", buf, &TruncatedError{Kind: KindOpaque, Need: n, Have: len(buf)}
	}
	return Opaque(buf[:n]), buf[n:], nil
}

// Decode decodes one field of the specified kind.
func Decode(buf []byte, kind Kind) (v Value, rest []byte, err error) {
	switch kind {
	case KindU8:
		return DecodeU8(buf)
	case KindU16:
		return DecodeU16(buf)
	case KindU32:
		return DecodeU32(buf)
	case KindS8:
		return DecodeS8(buf)
	case KindMac48:
		return DecodeMac48(buf)
	case KindOpaque:
		v, rest = DecodeOpaque(buf)
		return v, rest, nil
	}
	return nil, buf, &UnknownKindError{Kind: kind}
}
