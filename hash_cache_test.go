package ssz

import (
	"testing"

	"github.com/prysmaticlabs/go-ssz/testutil/assert"
	"github.com/prysmaticlabs/go-ssz/testutil/require"
)

func TestHashTreeRoot_CachedRootsMatchUncached(t *testing.T) {
	vals := []interface{}{
		simpleStruct{B: 2, A: 1},
		person{Name: "James", Age: 32, Company: "DEV Inc."},
		arrayStruct{V: []simpleStruct{{B: 2, A: 1}, {B: 4, A: 3}}},
		[]uint64{1, 2, 3},
	}
	for i, val := range vals {
		uncached, err := HashTreeRoot(val)
		require.NoError(t, err, "case %d", i)

		ToggleCache(true)
		miss, err := HashTreeRoot(val)
		require.NoError(t, err, "case %d", i)
		hit, err := HashTreeRoot(val)
		require.NoError(t, err, "case %d", i)
		ToggleCache(false)

		assert.Equal(t, uncached, miss, "case %d", i)
		assert.Equal(t, uncached, hit, "case %d", i)
	}
}

func TestHashTreeRoot_CacheKeysSeparateCapacities(t *testing.T) {
	ToggleCache(true)
	defer ToggleCache(false)

	val := []uint64{1, 2, 3}
	small, err := HashTreeRootWithCapacity(val, 8)
	require.NoError(t, err)
	large, err := HashTreeRootWithCapacity(val, 1024)
	require.NoError(t, err)
	assert.NotEqual(t, small, large)
}
