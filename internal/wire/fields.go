package wire

import (
	"encoding/binary"
	"math"
)

// Field-value encoding helpers (sender side). The codec never interprets
// types on receive — fields are opaque bytes at the transport layer and
// higher-level code assigns meaning positionally, exactly as spec.md
// §4.1 specifies. These helpers exist so callers encode consistently.

// EncodeString returns the UTF-8 bytes of s.
func EncodeString(s string) []byte {
	return []byte(s)
}

// EncodeInt32 returns a 4-byte big-endian two's-complement encoding of v.
func EncodeInt32(v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}

// DecodeInt32 decodes a 4-byte big-endian two's-complement integer.
func DecodeInt32(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b))
}

// EncodeUint32 returns a 4-byte big-endian encoding of v (used for the
// worker's declared core count in the HELLO message).
func EncodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// DecodeUint32 decodes a 4-byte big-endian unsigned integer.
func DecodeUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// EncodeFloat32 returns a 4-byte big-endian IEEE-754 encoding of v.
func EncodeFloat32(v float32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
	return b
}

// DecodeFloat32 decodes a 4-byte big-endian IEEE-754 float.
func DecodeFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

// EncodeBool returns the UTF-8 of "True"/"False", matching the original
// protocol's string(bool) convention.
func EncodeBool(v bool) []byte {
	if v {
		return []byte("True")
	}
	return []byte("False")
}

// DecodeBool parses the UTF-8 "True"/"False" convention.
func DecodeBool(b []byte) bool {
	return string(b) == "True"
}
