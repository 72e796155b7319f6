package hashutil

import "github.com/prysmaticlabs/gohashtree"

// VectorizedSha256 hashes a list of 32-byte chunks pairwise, returning
// len(inputList)/2 digests. It delegates to gohashtree's platform
// specific sha256 routines which hash several pairs per instruction
// where the CPU allows it.
//
// The input list must have an even number of chunks.
func VectorizedSha256(inputList [][32]byte) [][32]byte {
	outputList := make([][32]byte, len(inputList)/2)
	if err := gohashtree.Hash(outputList, inputList); err != nil {
		// gohashtree only errors on odd-length input, a programmer error here.
		panic(err)
	}
	return outputList
}

// PairSha256 hashes the 64-byte concatenation of two 32-byte chunks.
func PairSha256(first, second [32]byte) [32]byte {
	output := make([][32]byte, 1)
	if err := gohashtree.Hash(output, [][32]byte{first, second}); err != nil {
		panic(err)
	}
	return output[0]
}
