package ssz

import (
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/go-ssz/types"
)

type simpleStruct struct {
	B uint16
	A uint8
}

type innerStruct struct {
	V uint16
}

type outerStruct struct {
	V    uint8
	SubV innerStruct
}

type arrayStruct struct {
	V []simpleStruct `ssz-max:"32"`
}

type pointerStruct struct {
	P *simpleStruct
	V uint8
}

// person matches the mixed fixed/variable container layout: two variable
// fields around an inline byte.
type person struct {
	Name    string
	Age     uint8
	Company string
}

type fork struct {
	PreviousVersion []byte `ssz-size:"4"`
	CurrentVersion  []byte `ssz-size:"4"`
	Epoch           uint64
}

type bytesStruct struct {
	Data []byte `ssz-max:"128"`
}

type boundedListStruct struct {
	V []uint16 `ssz-max:"2"`
}

type bitsStruct struct {
	Bits bitfield.Bitlist `ssz-max:"8"`
}

type bitvecStruct struct {
	Bits bitfield.Bitvector8
}

type doubleByteVector struct {
	Bits []byte `ssz-size:"2"`
}

type rootsVector struct {
	Roots [][]byte `ssz-size:"4,32"`
}

type payment struct {
	Amount *uint64
	Waived *bool
}

func (payment) IsSSZUnion() {}

type shape struct {
	Side   types.Optional[uint16]
	Color  types.Optional[uint8]
	Radius types.Optional[uint16]
}

func (shape) SSZMaxFields() uint64 { return 4 }

type profile struct {
	Alias  types.Optional[[]byte] `ssz-max:"32"`
	Score  types.Optional[uint64]
	Badges types.Optional[[]uint16] `ssz-max:"16"`
}

func (profile) SSZMaxFields() uint64 { return 8 }

type optionalHolder struct {
	Epoch types.Optional[uint64]
}

// validatorRecord exercises most schema shapes at once for the fuzz driven
// round trips.
type validatorRecord struct {
	Pubkey          []byte `ssz-size:"48"`
	WithdrawalCreds [32]byte
	EffectiveWei    uint64
	Slashed         bool
	History         []uint64 `ssz-max:"64"`
	Graffiti        []byte   `ssz-max:"32"`
	Checkpoints     []innerStruct `ssz-max:"16"`
}
