package ssz

import (
	"reflect"
	"strings"

	fastssz "github.com/ferranbt/fastssz"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/go-ssz/types"
)

const (
	// BytesPerChunk is the merkle leaf width.
	BytesPerChunk = 32
	// BytesPerLengthOffset is the width of the offsets a variable-size
	// container interleaves with its fixed part.
	BytesPerLengthOffset = 4
)

var (
	uint256Type = reflect.TypeOf(uint256.Int{})
	uint128Type = reflect.TypeOf(types.Uint128{})
	bitlistType = reflect.TypeOf(bitfield.Bitlist{})

	bitvectorSizes = map[reflect.Type]uint64{
		reflect.TypeOf(bitfield.Bitvector4{}):   1,
		reflect.TypeOf(bitfield.Bitvector8{}):   1,
		reflect.TypeOf(bitfield.Bitvector32{}):  4,
		reflect.TypeOf(bitfield.Bitvector64{}):  8,
		reflect.TypeOf(bitfield.Bitvector128{}): 16,
		reflect.TypeOf(bitfield.Bitvector256{}): 32,
		reflect.TypeOf(bitfield.Bitvector512{}): 64,
	}

	optionalMarkerType = reflect.TypeOf((*types.OptionalMarker)(nil)).Elem()
	unionMarkerType    = reflect.TypeOf((*types.Union)(nil)).Elem()
	stableMarkerType   = reflect.TypeOf((*types.StableContainer)(nil)).Elem()

	fastsszMarshalerType   = reflect.TypeOf((*fastssz.Marshaler)(nil)).Elem()
	fastsszUnmarshalerType = reflect.TypeOf((*fastssz.Unmarshaler)(nil)).Elem()
	hashRooterType         = reflect.TypeOf((*HashRooter)(nil)).Elem()
)

func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isOptionalType(typ reflect.Type) bool {
	return typ.Implements(optionalMarkerType)
}

func isUnionType(typ reflect.Type) bool {
	return typ.Implements(unionMarkerType)
}

func isStableContainerType(typ reflect.Type) bool {
	return typ.Implements(stableMarkerType)
}

func isBitlistType(typ reflect.Type, tag sszTag) bool {
	return typ == bitlistType || tag.kind == "bitlist"
}

func isByteKindElem(typ reflect.Type) bool {
	return typ.Elem().Kind() == reflect.Uint8
}

func hasCustomMarshaler(typ reflect.Type) bool {
	return typ.Implements(fastsszMarshalerType) || reflect.PtrTo(typ).Implements(fastsszMarshalerType)
}

func hasCustomUnmarshaler(typ reflect.Type) bool {
	return reflect.PtrTo(typ).Implements(fastsszUnmarshalerType)
}

func hasCustomHasher(typ reflect.Type) bool {
	return typ.Implements(hashRooterType) || reflect.PtrTo(typ).Implements(hashRooterType)
}

// isVariableSizeType reports whether the serialization of typ has a length
// only its value determines, meaning enclosing containers refer to it
// through an offset rather than laying it out inline.
func isVariableSizeType(typ reflect.Type, tag sszTag) bool {
	if typ == uint256Type || typ == uint128Type {
		return false
	}
	if _, ok := bitvectorSizes[typ]; ok {
		return false
	}
	if isBitlistType(typ, tag) {
		return true
	}
	if hasCustomMarshaler(typ) {
		// Nothing about a delegated codec reveals a static width, so
		// custom types always travel in the variable region.
		return true
	}
	kind := typ.Kind()
	switch {
	case isBasicKind(kind):
		return false
	case kind == reflect.String:
		return true
	case kind == reflect.Ptr:
		return isVariableSizeType(typ.Elem(), tag)
	case kind == reflect.Array:
		return isVariableSizeType(typ.Elem(), tag.elem())
	case kind == reflect.Slice:
		if tag.size() > 0 {
			return isVariableSizeType(typ.Elem(), tag.elem())
		}
		return true
	case kind == reflect.Struct:
		if isOptionalType(typ) || isUnionType(typ) || isStableContainerType(typ) {
			return true
		}
		for _, f := range rawStructFields(typ) {
			if isVariableSizeType(f.typ, f.tag) {
				return true
			}
		}
		return false
	}
	return false
}

// determineFixedSize returns the serialized width of a fixed-size type.
// Only meaningful when isVariableSizeType reports false.
func determineFixedSize(typ reflect.Type, tag sszTag) uint64 {
	if typ == uint256Type {
		return 32
	}
	if typ == uint128Type {
		return 16
	}
	if size, ok := bitvectorSizes[typ]; ok {
		return size
	}
	kind := typ.Kind()
	switch {
	case kind == reflect.Bool || kind == reflect.Uint8:
		return 1
	case kind == reflect.Uint16:
		return 2
	case kind == reflect.Uint32:
		return 4
	case kind == reflect.Uint64:
		return 8
	case kind == reflect.Ptr:
		return determineFixedSize(typ.Elem(), tag)
	case kind == reflect.Array:
		return uint64(typ.Len()) * determineFixedSize(typ.Elem(), tag.elem())
	case kind == reflect.Slice:
		return tag.size() * determineFixedSize(typ.Elem(), tag.elem())
	case kind == reflect.Struct:
		total := uint64(0)
		for _, f := range rawStructFields(typ) {
			total += determineFixedSize(f.typ, f.tag)
		}
		return total
	}
	return 0
}

// rawField is a struct field the codec considers part of the schema, with
// its parsed tag. Unexported fields and generated XXX_ fields are skipped.
type rawField struct {
	index int
	name  string
	typ   reflect.Type
	tag   sszTag
}

func rawStructFields(typ reflect.Type) []rawField {
	fields := make([]rawField, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.PkgPath != "" || strings.HasPrefix(f.Name, "XXX_") {
			continue
		}
		tag, err := parseSSZTag(f.Tag)
		if err != nil {
			// Tag errors surface with full context from the codec
			// generators; introspection treats the field as untagged.
			tag = sszTag{}
		}
		fields = append(fields, rawField{index: i, name: f.Name, typ: f.Type, tag: tag})
	}
	return fields
}

// DetermineSize returns the number of bytes Marshal would produce for val.
func DetermineSize(val interface{}) (uint64, error) {
	if val == nil {
		return 0, errors.Wrap(ErrUnsupportedPointer, "untyped nil is not supported")
	}
	rval := reflect.ValueOf(val)
	utils, err := cachedSSZUtils(rval.Type(), sszTag{})
	if err != nil {
		return 0, err
	}
	return utils.encodeSizer(rval)
}
