package ssz

import (
	"encoding/binary"
	"reflect"

	fastssz "github.com/ferranbt/fastssz"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/go-ssz/bytesutil"
	"github.com/prysmaticlabs/go-ssz/types"
)

func makeUnmarshaler(typ reflect.Type, tag sszTag) (unmarshaler, error) {
	kind := typ.Kind()
	switch {
	case typ == uint256Type:
		return unmarshalUint256, nil
	case typ == uint128Type:
		return unmarshalUint128, nil
	case hasCustomUnmarshaler(typ):
		return makeCustomUnmarshaler(typ)
	case kind == reflect.Bool:
		return unmarshalBool, nil
	case kind == reflect.Uint8:
		return unmarshalUint8, nil
	case kind == reflect.Uint16:
		return unmarshalUint16, nil
	case kind == reflect.Uint32:
		return unmarshalUint32, nil
	case kind == reflect.Uint64:
		return unmarshalUint64, nil
	case kind == reflect.String:
		return unmarshalString, nil
	case kind == reflect.Slice && isByteKindElem(typ):
		return makeByteSliceUnmarshaler(typ, tag)
	case kind == reflect.Array && isByteKindElem(typ):
		return makeByteArrayUnmarshaler(typ)
	case kind == reflect.Slice:
		return makeSequenceUnmarshaler(typ, tag, 0)
	case kind == reflect.Array:
		return makeSequenceUnmarshaler(typ, tag, uint64(typ.Len()))
	case kind == reflect.Struct:
		switch {
		case isOptionalType(typ):
			return makeOptionalUnmarshaler(typ, tag)
		case isUnionType(typ):
			return makeUnionUnmarshaler(typ)
		case isStableContainerType(typ):
			return makeStableContainerUnmarshaler(typ)
		default:
			return makeStructUnmarshaler(typ)
		}
	case kind == reflect.Ptr:
		return makePtrUnmarshaler(typ, tag)
	default:
		return nil, errors.Wrapf(ErrNotSerializable, "type %v", typ)
	}
}

// expectWidth validates that input carries exactly the bytes a fixed-size
// value needs.
func expectWidth(input []byte, width uint64) error {
	if uint64(len(input)) < width {
		return errors.Wrapf(ErrTruncated, "have %d bytes, want %d", len(input), width)
	}
	if uint64(len(input)) > width {
		return errors.Wrapf(ErrSizeMismatch, "have %d bytes, want %d", len(input), width)
	}
	return nil
}

func unmarshalBool(input []byte, val reflect.Value, _ *decodeOpts) error {
	if err := expectWidth(input, 1); err != nil {
		return err
	}
	switch input[0] {
	case 0:
		val.SetBool(false)
	case 1:
		val.SetBool(true)
	default:
		return errors.Wrapf(ErrInvalidEncoding, "boolean byte 0x%02x", input[0])
	}
	return nil
}

func unmarshalUint8(input []byte, val reflect.Value, _ *decodeOpts) error {
	if err := expectWidth(input, 1); err != nil {
		return err
	}
	val.SetUint(uint64(input[0]))
	return nil
}

func unmarshalUint16(input []byte, val reflect.Value, _ *decodeOpts) error {
	if err := expectWidth(input, 2); err != nil {
		return err
	}
	val.SetUint(uint64(binary.LittleEndian.Uint16(input)))
	return nil
}

func unmarshalUint32(input []byte, val reflect.Value, _ *decodeOpts) error {
	if err := expectWidth(input, 4); err != nil {
		return err
	}
	val.SetUint(uint64(binary.LittleEndian.Uint32(input)))
	return nil
}

func unmarshalUint64(input []byte, val reflect.Value, _ *decodeOpts) error {
	if err := expectWidth(input, 8); err != nil {
		return err
	}
	val.SetUint(binary.LittleEndian.Uint64(input))
	return nil
}

func unmarshalUint128(input []byte, val reflect.Value, _ *decodeOpts) error {
	if err := expectWidth(input, 16); err != nil {
		return err
	}
	var u types.Uint128
	copy(u[:], input)
	val.Set(reflect.ValueOf(u))
	return nil
}

func unmarshalUint256(input []byte, val reflect.Value, _ *decodeOpts) error {
	if err := expectWidth(input, 32); err != nil {
		return err
	}
	var u uint256.Int
	for i := 0; i < 4; i++ {
		u[i] = binary.LittleEndian.Uint64(input[i*8:])
	}
	val.Set(reflect.ValueOf(u))
	return nil
}

func unmarshalString(input []byte, val reflect.Value, _ *decodeOpts) error {
	val.SetString(string(input))
	return nil
}

func makeByteSliceUnmarshaler(typ reflect.Type, tag sszTag) (unmarshaler, error) {
	fixedLen := tag.size()
	if bvSize, ok := bitvectorSizes[typ]; ok {
		fixedLen = bvSize
	}
	maxLen := tag.maxCap()
	bitlist := isBitlistType(typ, tag)

	return func(input []byte, val reflect.Value, opts *decodeOpts) error {
		switch {
		case bitlist:
			if len(input) == 0 {
				return errors.Wrap(ErrTruncated, "bitlist needs at least its sentinel byte")
			}
			if input[len(input)-1] == 0 {
				return errors.Wrap(ErrInvalidEncoding, "bitlist has no length sentinel")
			}
			if maxLen > 0 && bitfield.Bitlist(input).Len() > maxLen {
				return errors.Wrapf(ErrMaxCapacityExceeded, "bitlist has %d bits, max %d", bitfield.Bitlist(input).Len(), maxLen)
			}
		case fixedLen > 0:
			if err := expectWidth(input, fixedLen); err != nil {
				return err
			}
		default:
			if maxLen > 0 && uint64(len(input)) > maxLen {
				return errors.Wrapf(ErrMaxCapacityExceeded, "byte list has %d bytes, max %d", len(input), maxLen)
			}
			if len(input) == 0 {
				val.SetBytes(nil)
				return nil
			}
		}
		if opts.noCopy {
			val.SetBytes(input)
		} else {
			val.SetBytes(bytesutil.SafeCopyBytes(input))
		}
		return nil
	}, nil
}

func makeByteArrayUnmarshaler(typ reflect.Type) (unmarshaler, error) {
	size := uint64(typ.Len())
	return func(input []byte, val reflect.Value, _ *decodeOpts) error {
		if err := expectWidth(input, size); err != nil {
			return err
		}
		reflect.Copy(val, reflect.ValueOf(input))
		return nil
	}, nil
}

// readOffsets parses and validates the offset table opening a variable
// element sequence: the first offset doubles as the table width, every
// offset is monotone non-decreasing, and none may escape the buffer.
func readOffsets(input []byte) ([]uint64, error) {
	if len(input) < BytesPerLengthOffset {
		return nil, errors.Wrapf(ErrTruncated, "have %d bytes, want an offset table", len(input))
	}
	first := uint64(binary.LittleEndian.Uint32(input))
	if first%BytesPerLengthOffset != 0 {
		return nil, errors.Wrapf(ErrInvalidOffset, "first offset %d does not align to an offset table", first)
	}
	if first > uint64(len(input)) {
		return nil, errors.Wrapf(ErrOutOfBounds, "first offset %d beyond %d input bytes", first, len(input))
	}
	n := first / BytesPerLengthOffset
	if n == 0 {
		return nil, errors.Wrap(ErrInvalidOffset, "first offset is zero")
	}
	offsets := make([]uint64, 0, n+1)
	offsets = append(offsets, first)
	for i := uint64(1); i < n; i++ {
		offset := uint64(binary.LittleEndian.Uint32(input[i*BytesPerLengthOffset:]))
		if offset < offsets[i-1] {
			return nil, errors.Wrapf(ErrInvalidOffset, "offset %d decreases from %d to %d", i, offsets[i-1], offset)
		}
		if offset > uint64(len(input)) {
			return nil, errors.Wrapf(ErrOutOfBounds, "offset %d is %d, beyond %d input bytes", i, offset, len(input))
		}
		offsets = append(offsets, offset)
	}
	offsets = append(offsets, uint64(len(input)))
	return offsets, nil
}

func makeSequenceUnmarshaler(typ reflect.Type, tag sszTag, arrayLen uint64) (unmarshaler, error) {
	elemTag := tag.elem()
	elemUtils, err := cachedSSZUtilsNoAcquireLock(typ.Elem(), elemTag)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ssz utils")
	}
	elemFixed := !isVariableSizeType(typ.Elem(), elemTag)
	elemFixedSize := uint64(0)
	if elemFixed {
		elemFixedSize = determineFixedSize(typ.Elem(), elemTag)
		if elemFixedSize == 0 {
			return nil, errors.Wrapf(ErrNotSerializable, "type %v has zero-size elements", typ)
		}
	}
	isArray := typ.Kind() == reflect.Array
	vectorLen := arrayLen
	if vectorLen == 0 {
		vectorLen = tag.size()
	}
	maxLen := tag.maxCap()

	return func(input []byte, val reflect.Value, opts *decodeOpts) error {
		var n uint64
		var slices [][]byte
		if elemFixed {
			if uint64(len(input))%elemFixedSize != 0 {
				return errors.Wrapf(ErrSizeMismatch, "%d input bytes do not divide into %d-byte elements", len(input), elemFixedSize)
			}
			n = uint64(len(input)) / elemFixedSize
			slices = make([][]byte, 0, n)
			for i := uint64(0); i < n; i++ {
				slices = append(slices, input[i*elemFixedSize:(i+1)*elemFixedSize])
			}
		} else if len(input) == 0 {
			n = 0
		} else {
			offsets, err := readOffsets(input)
			if err != nil {
				return err
			}
			n = uint64(len(offsets)) - 1
			slices = make([][]byte, 0, n)
			for i := uint64(0); i < n; i++ {
				slices = append(slices, input[offsets[i]:offsets[i+1]])
			}
		}
		if vectorLen > 0 && n != vectorLen {
			return errors.Wrapf(ErrSizeMismatch, "vector has %d elements, want %d", n, vectorLen)
		}
		if vectorLen == 0 && maxLen > 0 && n > maxLen {
			return errors.Wrapf(ErrMaxCapacityExceeded, "list has %d elements, max %d", n, maxLen)
		}
		if !isArray {
			val.Set(reflect.MakeSlice(typ, int(n), int(n)))
		}
		for i := uint64(0); i < n; i++ {
			if err := elemUtils.unmarshaler(slices[i], val.Index(int(i)), opts); err != nil {
				return errors.Wrapf(err, "failed to unmarshal element %d", i)
			}
		}
		return nil
	}, nil
}

func makeStructUnmarshaler(typ reflect.Type) (unmarshaler, error) {
	fields, err := structFields(typ)
	if err != nil {
		return nil, err
	}
	fixedLen := uint64(0)
	numVariable := 0
	for _, f := range fields {
		if f.fixed {
			fixedLen += determineFixedSize(f.typ, f.tag)
		} else {
			fixedLen += BytesPerLengthOffset
			numVariable++
		}
	}
	return func(input []byte, val reflect.Value, opts *decodeOpts) error {
		if uint64(len(input)) < fixedLen {
			return errors.Wrapf(ErrTruncated, "have %d bytes, want a %d-byte fixed header", len(input), fixedLen)
		}
		if numVariable == 0 && uint64(len(input)) != fixedLen {
			return errors.Wrapf(ErrSizeMismatch, "have %d bytes, fixed container wants %d", len(input), fixedLen)
		}
		cursor := uint64(0)
		offsets := make([]uint64, 0, numVariable+1)
		for _, f := range fields {
			if f.fixed {
				size := determineFixedSize(f.typ, f.tag)
				if err := f.sszUtils.unmarshaler(input[cursor:cursor+size], val.Field(f.index), opts); err != nil {
					return errors.Wrapf(err, "failed to unmarshal field %s", f.name)
				}
				cursor += size
				continue
			}
			offset := uint64(binary.LittleEndian.Uint32(input[cursor:]))
			if len(offsets) == 0 {
				if offset != fixedLen {
					return errors.Wrapf(ErrInvalidOffset, "first offset %d does not match the %d-byte fixed header", offset, fixedLen)
				}
			} else if offset < offsets[len(offsets)-1] {
				return errors.Wrapf(ErrInvalidOffset, "offset of field %s decreases from %d to %d", f.name, offsets[len(offsets)-1], offset)
			}
			if offset > uint64(len(input)) {
				return errors.Wrapf(ErrOutOfBounds, "offset of field %s is %d, beyond %d input bytes", f.name, offset, len(input))
			}
			offsets = append(offsets, offset)
			cursor += BytesPerLengthOffset
		}
		offsets = append(offsets, uint64(len(input)))
		variableIdx := 0
		for _, f := range fields {
			if f.fixed {
				continue
			}
			chunk := input[offsets[variableIdx]:offsets[variableIdx+1]]
			if err := f.sszUtils.unmarshaler(chunk, val.Field(f.index), opts); err != nil {
				return errors.Wrapf(err, "failed to unmarshal field %s", f.name)
			}
			variableIdx++
		}
		return nil
	}, nil
}

func makePtrUnmarshaler(typ reflect.Type, tag sszTag) (unmarshaler, error) {
	elemUtils, err := cachedSSZUtilsNoAcquireLock(typ.Elem(), tag)
	if err != nil {
		return nil, err
	}
	return func(input []byte, val reflect.Value, opts *decodeOpts) error {
		val.Set(reflect.New(typ.Elem()))
		return elemUtils.unmarshaler(input, val.Elem(), opts)
	}, nil
}

func makeOptionalUnmarshaler(typ reflect.Type, tag sszTag) (unmarshaler, error) {
	valueIdx, presentIdx, innerUtils, err := optionalLayout(typ, tag)
	if err != nil {
		return nil, err
	}
	return func(input []byte, val reflect.Value, opts *decodeOpts) error {
		if len(input) == 0 {
			return errors.Wrap(ErrTruncated, "optional needs its lead byte")
		}
		val.Set(reflect.Zero(typ))
		switch input[0] {
		case 0x00:
			if len(input) > 1 {
				return errors.Wrapf(ErrInvalidEncoding, "%d trailing bytes after an absent optional", len(input)-1)
			}
			return nil
		case 0x01:
			val.Field(presentIdx).SetBool(true)
			return innerUtils.unmarshaler(input[1:], val.Field(valueIdx), opts)
		default:
			return errors.Wrapf(ErrInvalidEncoding, "optional lead byte 0x%02x", input[0])
		}
	}, nil
}

func makeUnionUnmarshaler(typ reflect.Type) (unmarshaler, error) {
	arms, err := unionArms(typ)
	if err != nil {
		return nil, err
	}
	return func(input []byte, val reflect.Value, opts *decodeOpts) error {
		if len(input) == 0 {
			return errors.Wrap(ErrTruncated, "union needs its selector byte")
		}
		selector := int(input[0])
		if selector >= len(arms) {
			return errors.Wrapf(ErrUnknownSelector, "selector %d with %d variants", selector, len(arms))
		}
		val.Set(reflect.Zero(typ))
		arm := arms[selector]
		return arm.sszUtils.unmarshaler(input[1:], val.Field(arm.index), opts)
	}, nil
}

func makeStableContainerUnmarshaler(typ reflect.Type) (unmarshaler, error) {
	sc, err := stableContainerLayout(typ)
	if err != nil {
		return nil, err
	}
	return func(input []byte, val reflect.Value, opts *decodeOpts) error {
		if uint64(len(input)) < sc.bitmapLen {
			return errors.Wrapf(ErrTruncated, "have %d bytes, want a %d-byte presence bitmap", len(input), sc.bitmapLen)
		}
		bitmap := input[:sc.bitmapLen]
		for bit := uint64(len(sc.fields)); bit < sc.bitmapLen*8; bit++ {
			if bitmap[bit/8]&(1<<(bit%8)) != 0 {
				return errors.Wrapf(ErrInvalidEncoding, "presence bit %d beyond the %d declared fields", bit, len(sc.fields))
			}
		}
		present := make([]bool, len(sc.fields))
		fixedLen := uint64(0)
		numVariable := 0
		for i, f := range sc.fields {
			if bitmap[i/8]&(1<<(uint(i)%8)) == 0 {
				continue
			}
			present[i] = true
			if f.fixed {
				fixedLen += f.fixedSize
			} else {
				fixedLen += BytesPerLengthOffset
				numVariable++
			}
		}
		body := input[sc.bitmapLen:]
		if uint64(len(body)) < fixedLen {
			return errors.Wrapf(ErrTruncated, "have %d bytes, want a %d-byte fixed header", len(body), fixedLen)
		}
		if numVariable == 0 && uint64(len(body)) != fixedLen {
			return errors.Wrapf(ErrSizeMismatch, "have %d bytes, fixed field section wants %d", len(body), fixedLen)
		}
		cursor := uint64(0)
		offsets := make([]uint64, 0, numVariable+1)
		for i, f := range sc.fields {
			val.Field(f.index).Set(reflect.Zero(typ.Field(f.index).Type))
			if !present[i] {
				continue
			}
			if f.fixed {
				val.Field(f.index).Field(f.presentIdx).SetBool(true)
				chunk := body[cursor : cursor+f.fixedSize]
				if err := f.sszUtils.unmarshaler(chunk, val.Field(f.index).Field(f.valueIdx), opts); err != nil {
					return errors.Wrapf(err, "failed to unmarshal field %s", f.name)
				}
				cursor += f.fixedSize
				continue
			}
			offset := uint64(binary.LittleEndian.Uint32(body[cursor:]))
			if len(offsets) == 0 {
				if offset != fixedLen {
					return errors.Wrapf(ErrInvalidOffset, "first offset %d does not match the %d-byte fixed header", offset, fixedLen)
				}
			} else if offset < offsets[len(offsets)-1] {
				return errors.Wrapf(ErrInvalidOffset, "offset of field %s decreases from %d to %d", f.name, offsets[len(offsets)-1], offset)
			}
			if offset > uint64(len(body)) {
				return errors.Wrapf(ErrOutOfBounds, "offset of field %s is %d, beyond %d input bytes", f.name, offset, len(body))
			}
			offsets = append(offsets, offset)
			cursor += BytesPerLengthOffset
		}
		offsets = append(offsets, uint64(len(body)))
		variableIdx := 0
		for i, f := range sc.fields {
			if !present[i] || f.fixed {
				continue
			}
			val.Field(f.index).Field(f.presentIdx).SetBool(true)
			chunk := body[offsets[variableIdx]:offsets[variableIdx+1]]
			if err := f.sszUtils.unmarshaler(chunk, val.Field(f.index).Field(f.valueIdx), opts); err != nil {
				return errors.Wrapf(err, "failed to unmarshal field %s", f.name)
			}
			variableIdx++
		}
		return nil
	}, nil
}

func makeCustomUnmarshaler(typ reflect.Type) (unmarshaler, error) {
	return func(input []byte, val reflect.Value, _ *decodeOpts) error {
		if !val.CanAddr() {
			return errors.Wrapf(ErrUnsupportedPointer, "custom unmarshal target %v is not addressable", typ)
		}
		codec, ok := val.Addr().Interface().(fastssz.Unmarshaler)
		if !ok {
			return errors.Wrapf(ErrNotSerializable, "type %v lost its custom unmarshaler", typ)
		}
		if err := codec.UnmarshalSSZ(input); err != nil {
			return errors.Wrap(err, "custom unmarshaler failed")
		}
		return nil
	}, nil
}
