package htrutils

import "github.com/prysmaticlabs/go-ssz/hashutil"

// MaxDepth is the maximum depth the zero-hash table is precomputed for,
// enough to cover any merkle trie addressable with a 256-bit generalized
// index.
const MaxDepth = 255

var zeroHashes [MaxDepth + 1][32]byte

func init() {
	for depth := 1; depth <= MaxDepth; depth++ {
		zeroHashes[depth] = hashutil.Hash(append(zeroHashes[depth-1][:], zeroHashes[depth-1][:]...))
	}
}

// ZeroHash returns the root of a merkle subtrie of the given depth whose
// leaves are all the zero chunk. Depth 0 is the zero chunk itself.
func ZeroHash(depth uint64) [32]byte {
	if depth > MaxDepth {
		panic("requested zero hash beyond the precomputed table")
	}
	return zeroHashes[depth]
}
