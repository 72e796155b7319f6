package ssz

// HashRooter lets a type supply its own hash-tree-root. Values implementing
// it are delegated to instead of running the generic merkleization, the
// hashing half of the custom-codec escape hatch; the serialization half is
// covered by the fastssz Marshaler and Unmarshaler interfaces.
type HashRooter interface {
	HashTreeRoot() ([32]byte, error)
}
