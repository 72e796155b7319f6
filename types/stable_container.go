package types

// StableContainer marks a struct as an EIP-7495 stable container with the
// returned field capacity. Every field of the struct must be an Optional;
// the serialization prepends a bitvector of ceil(N/8) bytes flagging which
// fields are present, and the merkle shape is pinned to N slots so fields
// appended in later versions do not disturb earlier roots.
//
//	type Shape struct {
//		Side   types.Optional[uint16]
//		Color  types.Optional[uint8]
//		Radius types.Optional[uint16]
//	}
//
//	func (Shape) SSZMaxFields() uint64 { return 4 }
type StableContainer interface {
	SSZMaxFields() uint64
}
