package ssz

import (
	"testing"

	fuzz "github.com/google/gofuzz"

	"github.com/prysmaticlabs/go-ssz/testutil/assert"
	"github.com/prysmaticlabs/go-ssz/testutil/require"
)

// The fuzz driven properties: decode(encode(v)) == v for slice-free
// schemas, and encode(decode(encode(v))) == encode(v) plus root equality
// everywhere byte slices make nil and empty indistinguishable on the wire.

func TestFuzzRoundTrip_FixedContainers(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 500; i++ {
		var val outerStruct
		f.Fuzz(&val)
		serialized, err := Marshal(val)
		require.NoError(t, err)
		var out outerStruct
		require.NoError(t, Unmarshal(serialized, &out))
		assert.DeepEqual(t, val, out)
	}
}

func TestFuzzRoundTrip_MixedContainers(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(0, 8)
	for i := 0; i < 500; i++ {
		var val person
		f.Fuzz(&val)
		serialized, err := Marshal(val)
		require.NoError(t, err)
		var out person
		require.NoError(t, Unmarshal(serialized, &out))
		assert.DeepEqual(t, val, out)
	}
}

func TestFuzzRoundTrip_CompositeLists(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(0, 8)
	for i := 0; i < 500; i++ {
		var val arrayStruct
		f.Fuzz(&val)
		serialized, err := Marshal(val)
		require.NoError(t, err)
		var out arrayStruct
		require.NoError(t, Unmarshal(serialized, &out))
		reserialized, err := Marshal(out)
		require.NoError(t, err)
		assert.DeepEqual(t, serialized, reserialized)
	}
}

func TestFuzzRoundTrip_ValidatorRecords(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(0, 8)
	for i := 0; i < 300; i++ {
		var val validatorRecord
		f.Fuzz(&val)
		// Sized byte vectors keep their declared width.
		val.Pubkey = make([]byte, 48)
		for j := range val.Pubkey {
			val.Pubkey[j] = byte(i + j)
		}

		serialized, err := Marshal(val)
		require.NoError(t, err)
		var out validatorRecord
		require.NoError(t, Unmarshal(serialized, &out))

		// Idempotence holds even where nil and empty byte lists collapse
		// to the same wire form.
		reserialized, err := Marshal(out)
		require.NoError(t, err)
		assert.DeepEqual(t, serialized, reserialized)

		valRoot, err := HashTreeRoot(val)
		require.NoError(t, err)
		outRoot, err := HashTreeRoot(out)
		require.NoError(t, err)
		assert.Equal(t, valRoot, outRoot)
	}
}
