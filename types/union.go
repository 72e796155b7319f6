package types

// Union marks a struct as an SSZ tagged union. The struct's exported
// pointer fields are the union's arms in declaration order; exactly one of
// them must be non-nil, and its index is the one-byte selector on the wire.
//
//	type Payment struct {
//		Amount *uint64
//		Waived *bool
//	}
//
//	func (Payment) IsSSZUnion() {}
//
// Encoding Payment{Amount: &amt} writes selector 0 followed by the uint64
// encoding of amt.
type Union interface {
	IsSSZUnion()
}
