/*
Package ssz implements the Simple Serialize algorithm specified at
https://github.com/ethereum/consensus-specs/blob/master/ssz/simple-serialize.md
along with the companion hash-tree-root merkleization scheme.

Currently directly supported types:

  bool
  uint8
  uint16
  uint32
  uint64
  types.Uint128
  uint256.Int (github.com/holiman/uint256)
  bytes
  string
  slice
  array
  struct
  ptr
  bitfield.Bitlist / bitfield.BitvectorN (github.com/prysmaticlabs/go-bitfield)
  types.Optional
  union structs (types.Union)
  stable containers (types.StableContainer, EIP-7495)

Struct fields carry SSZ refinements via tags:

  Roots [][]byte `ssz-size:"8192,32"` // a fixed-length vector
  Votes []uint64 `ssz-max:"1024"`     // a bounded list
  Bits  bitfield.Bitlist `ssz-max:"2048"`

Types implementing their own codec (the fastssz Marshaler/Unmarshaler
interfaces or HashRooter) are delegated to unchanged.
*/
package ssz
