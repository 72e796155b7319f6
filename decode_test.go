package ssz

import (
	"reflect"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/go-ssz/testutil/assert"
	"github.com/prysmaticlabs/go-ssz/testutil/require"
	"github.com/prysmaticlabs/go-ssz/types"
)

func TestUnmarshal_RoundTrip(t *testing.T) {
	for i, test := range encodeTests {
		serialized, err := Marshal(test.val)
		require.NoError(t, err, "test %d", i)
		if len(serialized) == 0 {
			// Top-level empty serializations are rejected by Unmarshal.
			continue
		}
		typ := reflect.TypeOf(test.val)
		target := reflect.New(typ)
		require.NoError(t, Unmarshal(serialized, target.Interface()), "test %d (%T)", i, test.val)
		assert.DeepEqual(t, test.val, target.Elem().Interface(), "test %d", i)

		// Idempotence: re-encoding a decoded value reproduces the input.
		reserialized, err := Marshal(target.Elem().Interface())
		require.NoError(t, err, "test %d", i)
		assert.DeepEqual(t, serialized, reserialized, "test %d", i)
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		dst   interface{}
		want  error
	}{
		{name: "empty input", input: "", dst: new(uint64), want: ErrTruncated},
		{name: "truncated uint64", input: "01020304", dst: new(uint64), want: ErrTruncated},
		{name: "oversized uint32", input: "0102030405", dst: new(uint32), want: ErrSizeMismatch},
		{name: "boolean byte out of range", input: "02", dst: new(bool), want: ErrInvalidEncoding},
		{name: "trailing bytes on fixed container", input: "02000100", dst: new(simpleStruct), want: ErrSizeMismatch},
		{name: "short fixed container", input: "0200", dst: new(simpleStruct), want: ErrTruncated},
		{name: "first offset below header", input: "03000000 010203", dst: new(bytesStruct), want: ErrInvalidOffset},
		{name: "first offset above header", input: "05000000 010203", dst: new(bytesStruct), want: ErrInvalidOffset},
		{name: "misaligned sequence offset table", input: "06000000 0102", dst: new([][]uint16), want: ErrInvalidOffset},
		{name: "zero first offset in sequence", input: "00000000", dst: new([][]uint16), want: ErrInvalidOffset},
		{name: "non monotonic sequence offsets", input: "08000000 04000000", dst: new([][]uint16), want: ErrInvalidOffset},
		{name: "sequence offset beyond input", input: "08000000 FF000000", dst: new([][]uint16), want: ErrOutOfBounds},
		{name: "first sequence offset beyond input", input: "10000000", dst: new([][]uint16), want: ErrOutOfBounds},
		{name: "union selector out of range", input: "05 01", dst: new(payment), want: ErrUnknownSelector},
		{name: "union with no payload", input: "", dst: new(payment), want: ErrTruncated},
		{name: "optional bad lead byte", input: "02", dst: new(types.Optional[uint64]), want: ErrInvalidEncoding},
		{name: "optional trailing bytes after none", input: "0000", dst: new(types.Optional[uint64]), want: ErrInvalidEncoding},
		{name: "bitlist zero terminal byte", input: "04000000 00", dst: new(bitsStruct), want: ErrInvalidEncoding},
		{name: "bitlist over capacity", input: "04000000 FF03", dst: new(bitsStruct), want: ErrMaxCapacityExceeded},
		{name: "list over capacity", input: "04000000 010002000300", dst: new(boundedListStruct), want: ErrMaxCapacityExceeded},
		{name: "ragged fixed element list", input: "010203", dst: new([]uint16), want: ErrSizeMismatch},
		{name: "stable container presence bit beyond fields", input: "08 00", dst: new(shape), want: ErrInvalidEncoding},
		{name: "stable container short bitmap", input: "", dst: new(shape), want: ErrTruncated},
		{name: "byte vector length mismatch", input: "8D", dst: new(doubleByteVector), want: ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal(unhex(tt.input), tt.dst)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnmarshal_TargetMustBePointer(t *testing.T) {
	var out uint64
	require.ErrorIs(t, Unmarshal(unhex("0100000000000000"), out), ErrUnsupportedPointer)
	require.ErrorIs(t, Unmarshal(unhex("0100000000000000"), nil), ErrUnsupportedPointer)
	require.ErrorIs(t, Unmarshal(unhex("0100000000000000"), (*uint64)(nil)), ErrUnsupportedPointer)
}

func TestUnmarshal_CopiesByteSequences(t *testing.T) {
	input := unhex("04000000 010203")
	var out bytesStruct
	require.NoError(t, Unmarshal(input, &out))
	input[4] = 0xFF
	assert.DeepEqual(t, []byte{1, 2, 3}, out.Data)
}

func TestUnmarshalNoCopy_AliasesByteSequences(t *testing.T) {
	input := unhex("04000000 010203")
	var out bytesStruct
	require.NoError(t, UnmarshalNoCopy(input, &out))
	input[4] = 0xFF
	assert.DeepEqual(t, []byte{0xFF, 2, 3}, out.Data)
}

func TestUnmarshal_StableContainerBitmapRoundTrip(t *testing.T) {
	vals := []shape{
		{},
		{Side: types.Some[uint16](22)},
		{Color: types.Some[uint8](1), Radius: types.Some[uint16](9)},
		{Side: types.Some[uint16](22), Color: types.Some[uint8](1), Radius: types.Some[uint16](9)},
	}
	for i, val := range vals {
		serialized, err := Marshal(val)
		require.NoError(t, err, "case %d", i)
		var out shape
		require.NoError(t, Unmarshal(serialized, &out), "case %d", i)
		assert.DeepEqual(t, val, out, "case %d", i)
	}
}

func TestUnmarshal_BitlistRoundTrip(t *testing.T) {
	bl := bitfield.NewBitlist(6)
	bl.SetBitAt(0, true)
	bl.SetBitAt(5, true)
	serialized, err := Marshal(bitsStruct{Bits: bl})
	require.NoError(t, err)
	var out bitsStruct
	require.NoError(t, Unmarshal(serialized, &out))
	assert.DeepEqual(t, bl, out.Bits)
	assert.Equal(t, uint64(6), out.Bits.Len())
}

func TestUnmarshal_VectorOfRoots(t *testing.T) {
	val := rootsVector{Roots: [][]byte{
		unhex("0101010101010101010101010101010101010101010101010101010101010101"),
		unhex("0202020202020202020202020202020202020202020202020202020202020202"),
		unhex("0303030303030303030303030303030303030303030303030303030303030303"),
		unhex("0404040404040404040404040404040404040404040404040404040404040404"),
	}}
	serialized, err := Marshal(val)
	require.NoError(t, err)
	assert.Equal(t, 128, len(serialized))
	var out rootsVector
	require.NoError(t, Unmarshal(serialized, &out))
	assert.DeepEqual(t, val, out)
}
