package bytesutil

import (
	"testing"

	"github.com/prysmaticlabs/go-ssz/testutil/assert"
)

func TestToBytes32(t *testing.T) {
	assert.Equal(t, [32]byte{1, 2, 3}, ToBytes32([]byte{1, 2, 3}))
	long := make([]byte, 40)
	long[0] = 0xFF
	long[39] = 0xEE
	truncated := ToBytes32(long)
	assert.Equal(t, byte(0xFF), truncated[0])
	assert.Equal(t, byte(0), truncated[31])
}

func TestToBytes4(t *testing.T) {
	assert.Equal(t, [4]byte{0x9C, 0xE2, 0x5D, 0x26}, ToBytes4([]byte{0x9C, 0xE2, 0x5D, 0x26, 0xAA}))
}

func TestUint64ToBytesLittleEndian(t *testing.T) {
	assert.DeepEqual(t, []byte{0x88, 0x77, 0x66, 0x55, 0, 0, 0, 0}, Uint64ToBytesLittleEndian(0x55667788))
}

func TestUint32ToBytes4(t *testing.T) {
	assert.Equal(t, [4]byte{0x0E, 0, 0, 0}, Uint32ToBytes4(14))
}

func TestFromBytes4(t *testing.T) {
	assert.Equal(t, uint64(0x55667788), FromBytes4([]byte{0x88, 0x77, 0x66, 0x55}))
}

func TestSafeCopyBytes(t *testing.T) {
	if SafeCopyBytes(nil) != nil {
		t.Fatal("expected nil copy of nil input")
	}
	input := []byte{1, 2, 3}
	copied := SafeCopyBytes(input)
	assert.DeepEqual(t, input, copied)
	input[0] = 0xFF
	assert.Equal(t, byte(1), copied[0])
}
