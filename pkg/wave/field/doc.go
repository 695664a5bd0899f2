// Package field provides the fixed-width binary field codec shared by
// the WME and WSMP messages.
package field

// All integer fields are little-endian regardless of host byte order,
// signed fields use two's-complement. Decoding is a pure function of the
// input buffer: each Decode returns the value and the remaining suffix,
// so a header is parsed by chaining decodes left to right.
//
// Mac48 is intentionally asymmetric: it is encoded from an integer and
// decoded into MacHex, the lowercase hex rendering of the 6 bytes in
// buffer order. The two forms do not round-trip into each other.
