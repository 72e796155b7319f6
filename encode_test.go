package ssz

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/go-ssz/testutil/assert"
	"github.com/prysmaticlabs/go-ssz/testutil/require"
	"github.com/prysmaticlabs/go-ssz/types"
)

type encodeTest struct {
	val    interface{}
	output string
}

// Notice: spaces in the output string will be ignored.
var encodeTests = []encodeTest{
	// boolean
	{val: true, output: "01"},
	{val: false, output: "00"},

	// uint8
	{val: uint8(0), output: "00"},
	{val: uint8(16), output: "10"},
	{val: uint8(255), output: "FF"},

	// uint16
	{val: uint16(256), output: "0001"},
	{val: uint16(65535), output: "FFFF"},

	// uint32
	{val: uint32(0x55667788), output: "88 77 66 55"},

	// uint64
	{val: uint64(1), output: "0100000000000000"},
	{val: uint64(18446744073709551615), output: "FFFFFFFFFFFFFFFF"},

	// uint128
	{val: types.Uint128FromParts(0x0102030405060708, 0), output: "08070605040302010000000000000000"},

	// uint256
	{val: uint256.NewInt(1), output: "01000000000000000000000000000000 00000000000000000000000000000000"},

	// bytes
	{val: []byte{}, output: ""},
	{val: []byte{1, 2, 3}, output: "010203"},

	// string
	{val: "James", output: "4A616D6573"},

	// basic type sequences pack back to back, no offsets
	{val: []uint16{}, output: ""},
	{val: []uint16{1, 2}, output: "0100 0200"},
	{val: [2]uint16{1, 2}, output: "0100 0200"},
	{val: []uint64{1, 2}, output: "0100000000000000 0200000000000000"},

	// variable element sequences carry an offset table
	{val: [][]uint16{{1, 2}, {3, 4}}, output: "08000000 0C000000 01000200 03000400"},
	{val: [][]uint16{{}, {}}, output: "08000000 08000000"},

	// fixed containers
	{val: simpleStruct{B: 2, A: 1}, output: "0200 01"},
	{val: outerStruct{V: 3, SubV: innerStruct{V: 6}}, output: "03 0600"},
	{val: bitvecStruct{Bits: bitfield.Bitvector8{0x0D}}, output: "0D"},
	{val: doubleByteVector{Bits: []byte{0x8D, 0x0A}}, output: "8D0A"},

	// mixed fixed/variable containers interleave offsets with inline data
	{val: person{Name: "James", Age: 32, Company: "DEV Inc."}, output: "09000000 20 0E000000 4A616D6573 44455620496E632E"},
	{val: bytesStruct{Data: []byte{1, 2, 3}}, output: "04000000 010203"},
	{val: bytesStruct{}, output: "04000000"},
	{val: arrayStruct{V: []simpleStruct{{B: 2, A: 1}, {B: 4, A: 3}}}, output: "04000000 020001 040003"},

	// pointers are transparent
	{val: &simpleStruct{B: 2, A: 1}, output: "0200 01"},
	{val: pointerStruct{P: &simpleStruct{B: 2, A: 1}, V: 3}, output: "0200 01 03"},

	// unions carry a one-byte selector
	{val: payment{Amount: u64ptr(1234)}, output: "00 D204000000000000"},
	{val: payment{Waived: boolptr(true)}, output: "01 01"},

	// optionals carry a presence byte
	{val: types.None[uint64](), output: "00"},
	{val: types.Some[uint64](66), output: "01 4200000000000000"},
	{val: optionalHolder{Epoch: types.Some[uint64](3)}, output: "04000000 01 0300000000000000"},
	{val: optionalHolder{}, output: "04000000 00"},

	// bitlists keep their sentinel on the wire
	{val: bitsStruct{Bits: bitfield.Bitlist{0x0D}}, output: "04000000 0D"},
	{val: bitsStruct{Bits: bitfield.Bitlist{0x01}}, output: "04000000 01"},

	// stable containers lead with the presence bitvector
	{val: shape{Side: types.Some[uint16](0x16), Color: types.Some[uint8](1)}, output: "03 1600 01"},
	{val: shape{Color: types.Some[uint8](1)}, output: "02 01"},
	{val: shape{}, output: "00"},
	{val: profile{Alias: types.Some([]byte("abc")), Score: types.Some[uint64](9)}, output: "03 0C000000 0900000000000000 616263"},
}

func u64ptr(v uint64) *uint64 { return &v }
func boolptr(v bool) *bool    { return &v }

func TestMarshal(t *testing.T) {
	for i, test := range encodeTests {
		output, err := Marshal(test.val)
		if err != nil {
			t.Errorf("test %d: unexpected error: %v\nvalue %#v\ntype %T", i, err, test.val, test.val)
			continue
		}
		if !bytes.Equal(output, unhex(test.output)) {
			t.Errorf("test %d: output mismatch:\ngot   %X\nwant  %s\nvalue %#v\ntype  %T",
				i, output, stripSpace(test.output), test.val, test.val)
		}
	}
}

func TestEncode_WritesToWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Encode(buf, simpleStruct{B: 2, A: 1}))
	assert.DeepEqual(t, unhex("020001"), buf.Bytes())
}

func TestMarshal_NilBitlistGetsSentinel(t *testing.T) {
	serialized, err := Marshal(bitsStruct{})
	require.NoError(t, err)
	assert.DeepEqual(t, unhex("04000000 01"), serialized)
}

func TestMarshal_Deterministic(t *testing.T) {
	val := person{Name: "James", Age: 32, Company: "DEV Inc."}
	first, err := Marshal(val)
	require.NoError(t, err)
	second, err := Marshal(val)
	require.NoError(t, err)
	assert.DeepEqual(t, first, second)
}

func TestMarshal_DetermineSizeAgrees(t *testing.T) {
	for i, test := range encodeTests {
		output, err := Marshal(test.val)
		require.NoError(t, err, "test %d", i)
		size, err := DetermineSize(test.val)
		require.NoError(t, err, "test %d", i)
		assert.Equal(t, uint64(len(output)), size, "test %d: sizer disagrees with marshaler", i)
	}
}

func TestMarshal_Errors(t *testing.T) {
	tests := []struct {
		name string
		val  interface{}
		want error
	}{
		{name: "untyped nil", val: nil, want: ErrUnsupportedPointer},
		{name: "nil pointer field", val: pointerStruct{V: 3}, want: ErrUnsupportedPointer},
		{name: "unsupported type", val: map[string]uint64{"a": 1}, want: ErrNotSerializable},
		{name: "untagged union", val: payment{}, want: ErrUntaggedUnion},
		{name: "over capacity list", val: boundedListStruct{V: []uint16{1, 2, 3}}, want: ErrMaxCapacityExceeded},
		{name: "bitlist without sentinel", val: bitsStruct{Bits: bitfield.Bitlist{0x00}}, want: ErrInvalidEncoding},
		{name: "byte vector length mismatch", val: doubleByteVector{Bits: []byte{1, 2, 3}}, want: ErrSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.val)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
