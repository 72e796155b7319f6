// Package bytesutil defines helper methods for converting byte slices to
// the fixed-width forms SSZ works with.
package bytesutil

import "encoding/binary"

// ToBytes32 is a convenience method for converting a byte slice to a fix
// sized 32 byte array. This method will truncate the input if it is larger
// than 32 bytes.
func ToBytes32(x []byte) [32]byte {
	var y [32]byte
	copy(y[:], x)
	return y
}

// ToBytes4 is a convenience method for converting a byte slice to a fix
// sized 4 byte array. This method will truncate the input if it is larger
// than 4 bytes.
func ToBytes4(x []byte) [4]byte {
	var y [4]byte
	copy(y[:], x)
	return y
}

// Uint64ToBytesLittleEndian conversion.
func Uint64ToBytesLittleEndian(i uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, i)
	return buf
}

// Uint32ToBytes4 returns a 4 byte array with the little-endian
// representation of i.
func Uint32ToBytes4(i uint32) [4]byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], i)
	return buf
}

// FromBytes4 returns an integer which is decoded from a little-endian
// 4 byte slice.
func FromBytes4(x []byte) uint64 {
	empty4bytes := make([]byte, 4)
	return binary.LittleEndian.Uint64(append(x[:4], empty4bytes...))
}

// SafeCopyBytes returns a safe copy of input bytes.
func SafeCopyBytes(cp []byte) []byte {
	if cp != nil {
		copied := make([]byte, len(cp))
		copy(copied, cp)
		return copied
	}
	return nil
}
