// Package htrutils defines HashTreeRoot utility functions.
package htrutils

import (
	"encoding/binary"

	"github.com/prysmaticlabs/go-ssz/bytesutil"
	"github.com/prysmaticlabs/go-ssz/hashutil"
)

const bytesPerChunk = 32

// Uint64Root computes the HashTreeRoot Merkleization of
// a simple uint64 value according to the Ethereum
// Simple Serialize specification.
func Uint64Root(val uint64) [32]byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, val)
	root := bytesutil.ToBytes32(buf)
	return root
}

// Pack a given byte array's final chunk with zeroes if needed.
func Pack(serializedItems [][]byte) ([][]byte, error) {
	areAllEmpty := true
	for _, item := range serializedItems {
		if len(item) != 0 {
			areAllEmpty = false
			break
		}
	}
	// If there are no items, we return an empty chunk.
	if len(serializedItems) == 0 || areAllEmpty {
		emptyChunk := make([]byte, bytesPerChunk)
		return [][]byte{emptyChunk}, nil
	} else if len(serializedItems[0]) == bytesPerChunk {
		// If the first item has exactly BYTES_PER_CHUNK length, the items are
		// taken to be chunks already and returned as they are; the lengths of
		// the other items are not checked.
		return serializedItems, nil
	}
	// We flatten the list in order to pad the serialized items into chunks of 32 bytes.
	orderedItems := []byte{}
	for _, item := range serializedItems {
		orderedItems = append(orderedItems, item...)
	}
	numItems := len(orderedItems)
	var chunks [][]byte
	for i := 0; i < numItems; i += bytesPerChunk {
		j := i + bytesPerChunk
		// We create our upper bound index of the chunk, if it is greater than numItems,
		// we set it as numItems itself.
		if j > numItems {
			j = numItems
		}
		// We create chunks from the list of items based on the
		// indices determined above.
		chunks = append(chunks, orderedItems[i:j])
	}
	// Right-pad the last chunk with zero bytes if it does not
	// have length bytesPerChunk from the helper.
	lastChunk := chunks[len(chunks)-1]
	for len(lastChunk) < bytesPerChunk {
		lastChunk = append(lastChunk, 0)
	}
	chunks[len(chunks)-1] = lastChunk
	return chunks, nil
}

// MixInLength appends hash length to root.
func MixInLength(root [32]byte, length []byte) [32]byte {
	var hash [32]byte
	copy(hash[:], root[:])
	return hashutil.Hash(append(hash[:], length...))
}

// MixInSelector mixes a union or optional selector value into a root,
// encoded as a 256-bit little-endian integer.
func MixInSelector(root [32]byte, selector uint64) [32]byte {
	return MixInLength(root, Uint64ToLengthChunk(selector))
}

// MixInAux mixes an auxiliary 32-byte root, such as a stable container's
// presence bitvector root, into a root.
func MixInAux(root, aux [32]byte) [32]byte {
	return MixInLength(root, aux[:])
}

// Uint64ToLengthChunk expands a length or selector value to the 32-byte
// little-endian chunk the mix-in step hashes against.
func Uint64ToLengthChunk(length uint64) []byte {
	chunk := make([]byte, bytesPerChunk)
	binary.LittleEndian.PutUint64(chunk, length)
	return chunk
}
