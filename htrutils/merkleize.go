package htrutils

import (
	"github.com/pkg/errors"

	"github.com/prysmaticlabs/go-ssz/hashutil"
)

// ErrChunksExceedLimit is returned when merkleizing more chunks than the
// trie's declared limit allows.
var ErrChunksExceedLimit = errors.New("number of chunks exceeds the declared limit")

// GetDepth retrieves the merkle trie depth for a given number of chunks:
// the depth of the smallest power-of-two trie that holds them, i.e. the
// bit length of (chunks - 1), e.g.
//
//	(chunks - 1).bit_length() : 0 -> 0, 1 -> 0, 5 -> 3, 8 -> 3, 9 -> 4
func GetDepth(ulength uint64) (out uint8) {
	if ulength <= 1 {
		return 0
	}
	for i := ulength - 1; i > 0; i >>= 1 {
		out++
	}
	return
}

// BitwiseMerkleize computes the root of a merkle trie with the given chunks
// as leaves, padded with zero-subtrie roots up to the next power of two of
// limit. The trie is built level by level, hashing sibling pairs with the
// vectorized sha256 routines and substituting the precomputed zero hash of
// the current depth whenever a right sibling is missing.
//
// count is the number of chunks present, limit the maximum the trie shape
// allows. A count above limit fails with ErrChunksExceedLimit.
func BitwiseMerkleize(chunks [][]byte, count, limit uint64) ([32]byte, error) {
	if count > limit {
		return [32]byte{}, ErrChunksExceedLimit
	}
	depth := GetDepth(limit)
	if count == 0 {
		return ZeroHash(uint64(depth)), nil
	}
	layer := make([][32]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		var chunk [32]byte
		copy(chunk[:], chunks[i])
		layer = append(layer, chunk)
	}
	for d := uint8(0); d < depth; d++ {
		if len(layer)%2 == 1 {
			layer = append(layer, ZeroHash(uint64(d)))
		}
		layer = hashutil.VectorizedSha256(layer)
	}
	return layer[0], nil
}

// MerkleizeWithMixin merkleizes the chunks against the limit and mixes the
// element count into the resulting root.
func MerkleizeWithMixin(chunks [][]byte, count, limit, length uint64) ([32]byte, error) {
	root, err := BitwiseMerkleize(chunks, count, limit)
	if err != nil {
		return [32]byte{}, err
	}
	return MixInLength(root, Uint64ToLengthChunk(length)), nil
}
