package types

import (
	"testing"

	"github.com/prysmaticlabs/go-ssz/testutil/assert"
)

func TestOptional_SomeAndNone(t *testing.T) {
	some := Some[uint64](42)
	value, ok := some.Get()
	assert.Equal(t, true, ok)
	assert.Equal(t, uint64(42), value)

	none := None[uint64]()
	value, ok = none.Get()
	assert.Equal(t, false, ok)
	assert.Equal(t, uint64(0), value)
}

func TestUint128_PartsRoundTrip(t *testing.T) {
	u := Uint128FromParts(0x0102030405060708, 0x1112131415161718)
	lo, hi := u.Parts()
	assert.Equal(t, uint64(0x0102030405060708), lo)
	assert.Equal(t, uint64(0x1112131415161718), hi)
	assert.Equal(t, byte(0x08), u[0])
	assert.Equal(t, byte(0x11), u[15])
}
