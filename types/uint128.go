package types

import "encoding/binary"

// Uint128 is a 128-bit unsigned integer stored as its 16-byte little-endian
// serialization, the form SSZ writes it in.
type Uint128 [16]byte

// Uint128FromParts builds a Uint128 from its low and high 64-bit halves.
func Uint128FromParts(lo, hi uint64) Uint128 {
	var u Uint128
	binary.LittleEndian.PutUint64(u[:8], lo)
	binary.LittleEndian.PutUint64(u[8:], hi)
	return u
}

// Parts returns the low and high 64-bit halves.
func (u Uint128) Parts() (lo, hi uint64) {
	return binary.LittleEndian.Uint64(u[:8]), binary.LittleEndian.Uint64(u[8:])
}
