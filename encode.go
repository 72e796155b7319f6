package ssz

import (
	"encoding/binary"
	"io"
	"math"
	"reflect"

	fastssz "github.com/ferranbt/fastssz"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/go-ssz/types"
)

type encbuf struct {
	str []byte
}

func (w *encbuf) encode(val interface{}) error {
	if val == nil {
		return errors.Wrap(ErrUnsupportedPointer, "untyped nil is not supported")
	}
	rval := reflect.ValueOf(val)
	utils, err := cachedSSZUtils(rval.Type(), sszTag{})
	if err != nil {
		return err
	}
	return utils.marshaler(rval, w)
}

func (w *encbuf) toWriter(out io.Writer) error {
	if _, err := out.Write(w.str); err != nil {
		return err
	}
	return nil
}

func makeMarshaler(typ reflect.Type, tag sszTag) (marshaler, encodeSizer, error) {
	kind := typ.Kind()
	switch {
	case typ == uint256Type:
		return marshalUint256, fixedSizer(32), nil
	case typ == uint128Type:
		return marshalUint128, fixedSizer(16), nil
	case hasCustomMarshaler(typ):
		return makeCustomMarshaler(typ)
	case kind == reflect.Bool:
		return marshalBool, fixedSizer(1), nil
	case kind == reflect.Uint8:
		return marshalUint8, fixedSizer(1), nil
	case kind == reflect.Uint16:
		return marshalUint16, fixedSizer(2), nil
	case kind == reflect.Uint32:
		return marshalUint32, fixedSizer(4), nil
	case kind == reflect.Uint64:
		return marshalUint64, fixedSizer(8), nil
	case kind == reflect.String:
		return marshalString, func(val reflect.Value) (uint64, error) {
			return uint64(val.Len()), nil
		}, nil
	case kind == reflect.Slice && isByteKindElem(typ):
		return makeByteSliceMarshaler(typ, tag)
	case kind == reflect.Array && isByteKindElem(typ):
		return makeByteArrayMarshaler(typ)
	case kind == reflect.Slice:
		return makeSequenceMarshaler(typ, tag, 0)
	case kind == reflect.Array:
		return makeSequenceMarshaler(typ, tag, uint64(typ.Len()))
	case kind == reflect.Struct:
		switch {
		case isOptionalType(typ):
			return makeOptionalMarshaler(typ, tag)
		case isUnionType(typ):
			return makeUnionMarshaler(typ)
		case isStableContainerType(typ):
			return makeStableContainerMarshaler(typ)
		default:
			return makeStructMarshaler(typ)
		}
	case kind == reflect.Ptr:
		return makePtrMarshaler(typ, tag)
	default:
		return nil, nil, errors.Wrapf(ErrNotSerializable, "type %v", typ)
	}
}

func fixedSizer(size uint64) encodeSizer {
	return func(_ reflect.Value) (uint64, error) {
		return size, nil
	}
}

func marshalBool(val reflect.Value, w *encbuf) error {
	if val.Bool() {
		w.str = append(w.str, 1)
	} else {
		w.str = append(w.str, 0)
	}
	return nil
}

func marshalUint8(val reflect.Value, w *encbuf) error {
	w.str = append(w.str, uint8(val.Uint()))
	return nil
}

func marshalUint16(val reflect.Value, w *encbuf) error {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(val.Uint()))
	w.str = append(w.str, b...)
	return nil
}

func marshalUint32(val reflect.Value, w *encbuf) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(val.Uint()))
	w.str = append(w.str, b...)
	return nil
}

func marshalUint64(val reflect.Value, w *encbuf) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, val.Uint())
	w.str = append(w.str, b...)
	return nil
}

func marshalUint128(val reflect.Value, w *encbuf) error {
	u, ok := val.Interface().(types.Uint128)
	if !ok {
		return errors.Wrapf(ErrNotSerializable, "type %v is not a uint128", val.Type())
	}
	w.str = append(w.str, u[:]...)
	return nil
}

func marshalUint256(val reflect.Value, w *encbuf) error {
	u, ok := val.Interface().(uint256.Int)
	if !ok {
		return errors.Wrapf(ErrNotSerializable, "type %v is not a uint256", val.Type())
	}
	b := make([]byte, 32)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(b[i*8:], u[i])
	}
	w.str = append(w.str, b...)
	return nil
}

func marshalString(val reflect.Value, w *encbuf) error {
	w.str = append(w.str, val.String()...)
	return nil
}

func makeByteSliceMarshaler(typ reflect.Type, tag sszTag) (marshaler, encodeSizer, error) {
	fixedLen := tag.size()
	if bvSize, ok := bitvectorSizes[typ]; ok {
		fixedLen = bvSize
	}
	maxLen := tag.maxCap()
	bitlist := isBitlistType(typ, tag)

	m := func(val reflect.Value, w *encbuf) error {
		b := val.Bytes()
		switch {
		case bitlist:
			if len(b) == 0 {
				// The canonical empty bitlist still carries its sentinel.
				w.str = append(w.str, 0x01)
				return nil
			}
			if b[len(b)-1] == 0 {
				return errors.Wrap(ErrInvalidEncoding, "bitlist has no length sentinel")
			}
			if maxLen > 0 && bitfield.Bitlist(b).Len() > maxLen {
				return errors.Wrapf(ErrMaxCapacityExceeded, "bitlist has %d bits, max %d", bitfield.Bitlist(b).Len(), maxLen)
			}
			w.str = append(w.str, b...)
			return nil
		case fixedLen > 0:
			if len(b) == 0 {
				w.str = append(w.str, make([]byte, fixedLen)...)
				return nil
			}
			if uint64(len(b)) != fixedLen {
				return errors.Wrapf(ErrSizeMismatch, "byte vector has %d bytes, want %d", len(b), fixedLen)
			}
			w.str = append(w.str, b...)
			return nil
		default:
			if maxLen > 0 && uint64(len(b)) > maxLen {
				return errors.Wrapf(ErrMaxCapacityExceeded, "byte list has %d bytes, max %d", len(b), maxLen)
			}
			w.str = append(w.str, b...)
			return nil
		}
	}
	sizer := func(val reflect.Value) (uint64, error) {
		n := uint64(val.Len())
		if bitlist && n == 0 {
			return 1, nil
		}
		if fixedLen > 0 {
			return fixedLen, nil
		}
		return n, nil
	}
	return m, sizer, nil
}

func makeByteArrayMarshaler(typ reflect.Type) (marshaler, encodeSizer, error) {
	size := uint64(typ.Len())
	m := func(val reflect.Value, w *encbuf) error {
		b := make([]byte, size)
		reflect.Copy(reflect.ValueOf(b), val)
		w.str = append(w.str, b...)
		return nil
	}
	return m, fixedSizer(size), nil
}

// makeSequenceMarshaler serializes lists and vectors of non-byte elements.
// arrayLen is nonzero for Go arrays; slices derive vector semantics from an
// ssz-size tag instead.
func makeSequenceMarshaler(typ reflect.Type, tag sszTag, arrayLen uint64) (marshaler, encodeSizer, error) {
	elemTag := tag.elem()
	elemUtils, err := cachedSSZUtilsNoAcquireLock(typ.Elem(), elemTag)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get ssz utils")
	}
	elemFixed := !isVariableSizeType(typ.Elem(), elemTag)
	elemFixedSize := uint64(0)
	if elemFixed {
		elemFixedSize = determineFixedSize(typ.Elem(), elemTag)
	}
	vectorLen := arrayLen
	if vectorLen == 0 {
		vectorLen = tag.size()
	}
	maxLen := tag.maxCap()

	m := func(val reflect.Value, w *encbuf) error {
		n := val.Len()
		if vectorLen > 0 && uint64(n) != vectorLen {
			if n != 0 {
				return errors.Wrapf(ErrSizeMismatch, "vector has %d elements, want %d", n, vectorLen)
			}
			// A zero-value vector serializes as its element count of zero
			// values.
			val = reflect.MakeSlice(typ, int(vectorLen), int(vectorLen))
			n = int(vectorLen)
		}
		if vectorLen == 0 && maxLen > 0 && uint64(n) > maxLen {
			return errors.Wrapf(ErrMaxCapacityExceeded, "list has %d elements, max %d", n, maxLen)
		}
		if elemFixed {
			for i := 0; i < n; i++ {
				if err := elemUtils.marshaler(val.Index(i), w); err != nil {
					return errors.Wrapf(err, "failed to marshal element %d", i)
				}
			}
			return nil
		}
		// Variable-size elements: a table of offsets first, the element
		// payloads behind it, each offset patched to the payload position
		// just before the payload is written.
		start := len(w.str)
		w.str = append(w.str, make([]byte, BytesPerLengthOffset*n)...)
		for i := 0; i < n; i++ {
			position := uint64(len(w.str) - start)
			if position > math.MaxUint32 {
				return errors.Wrapf(ErrOverflow, "element %d begins at %d", i, position)
			}
			binary.LittleEndian.PutUint32(w.str[start+BytesPerLengthOffset*i:], uint32(position))
			if err := elemUtils.marshaler(val.Index(i), w); err != nil {
				return errors.Wrapf(err, "failed to marshal element %d", i)
			}
		}
		return nil
	}
	sizer := func(val reflect.Value) (uint64, error) {
		n := uint64(val.Len())
		if elemFixed {
			if vectorLen > 0 {
				return vectorLen * elemFixedSize, nil
			}
			return n * elemFixedSize, nil
		}
		if vectorLen > 0 && n == 0 {
			val = reflect.MakeSlice(typ, int(vectorLen), int(vectorLen))
			n = vectorLen
		}
		total := BytesPerLengthOffset * n
		for i := uint64(0); i < n; i++ {
			size, err := elemUtils.encodeSizer(val.Index(int(i)))
			if err != nil {
				return 0, err
			}
			total += size
		}
		return total, nil
	}
	return m, sizer, nil
}

func makeStructMarshaler(typ reflect.Type) (marshaler, encodeSizer, error) {
	fields, err := structFields(typ)
	if err != nil {
		return nil, nil, err
	}
	fixedLen := uint64(0)
	for _, f := range fields {
		if f.fixed {
			fixedLen += determineFixedSize(f.typ, f.tag)
		} else {
			fixedLen += BytesPerLengthOffset
		}
	}
	m := func(val reflect.Value, w *encbuf) error {
		varAcc := fixedLen
		for _, f := range fields {
			if f.fixed {
				if err := f.sszUtils.marshaler(val.Field(f.index), w); err != nil {
					return errors.Wrapf(err, "failed to marshal field %s", f.name)
				}
				continue
			}
			if varAcc > math.MaxUint32 {
				return errors.Wrapf(ErrOverflow, "field %s begins at %d", f.name, varAcc)
			}
			offset := make([]byte, BytesPerLengthOffset)
			binary.LittleEndian.PutUint32(offset, uint32(varAcc))
			w.str = append(w.str, offset...)
			size, err := f.sszUtils.encodeSizer(val.Field(f.index))
			if err != nil {
				return errors.Wrapf(err, "failed to size field %s", f.name)
			}
			varAcc += size
		}
		for _, f := range fields {
			if f.fixed {
				continue
			}
			if err := f.sszUtils.marshaler(val.Field(f.index), w); err != nil {
				return errors.Wrapf(err, "failed to marshal field %s", f.name)
			}
		}
		return nil
	}
	sizer := func(val reflect.Value) (uint64, error) {
		total := fixedLen
		for _, f := range fields {
			if f.fixed {
				continue
			}
			size, err := f.sszUtils.encodeSizer(val.Field(f.index))
			if err != nil {
				return 0, err
			}
			total += size
		}
		return total, nil
	}
	return m, sizer, nil
}

func makePtrMarshaler(typ reflect.Type, tag sszTag) (marshaler, encodeSizer, error) {
	elemUtils, err := cachedSSZUtilsNoAcquireLock(typ.Elem(), tag)
	if err != nil {
		return nil, nil, err
	}
	m := func(val reflect.Value, w *encbuf) error {
		if val.IsNil() {
			return errors.Wrapf(ErrUnsupportedPointer, "nil pointer of type %v", typ)
		}
		return elemUtils.marshaler(val.Elem(), w)
	}
	sizer := func(val reflect.Value) (uint64, error) {
		if val.IsNil() {
			return 0, errors.Wrapf(ErrUnsupportedPointer, "nil pointer of type %v", typ)
		}
		return elemUtils.encodeSizer(val.Elem())
	}
	return m, sizer, nil
}

func makeOptionalMarshaler(typ reflect.Type, tag sszTag) (marshaler, encodeSizer, error) {
	valueIdx, presentIdx, innerUtils, err := optionalLayout(typ, tag)
	if err != nil {
		return nil, nil, err
	}
	m := func(val reflect.Value, w *encbuf) error {
		if !val.Field(presentIdx).Bool() {
			w.str = append(w.str, 0x00)
			return nil
		}
		w.str = append(w.str, 0x01)
		return innerUtils.marshaler(val.Field(valueIdx), w)
	}
	sizer := func(val reflect.Value) (uint64, error) {
		if !val.Field(presentIdx).Bool() {
			return 1, nil
		}
		size, err := innerUtils.encodeSizer(val.Field(valueIdx))
		if err != nil {
			return 0, err
		}
		return 1 + size, nil
	}
	return m, sizer, nil
}

func makeUnionMarshaler(typ reflect.Type) (marshaler, encodeSizer, error) {
	arms, err := unionArms(typ)
	if err != nil {
		return nil, nil, err
	}
	m := func(val reflect.Value, w *encbuf) error {
		active := -1
		for i, arm := range arms {
			if val.Field(arm.index).IsNil() {
				continue
			}
			if active >= 0 {
				return errors.Wrapf(ErrInvalidEncoding, "union %v has multiple active variants", typ)
			}
			active = i
		}
		if active < 0 {
			return errors.Wrapf(ErrUntaggedUnion, "union %v", typ)
		}
		w.str = append(w.str, byte(active))
		return arms[active].sszUtils.marshaler(val.Field(arms[active].index), w)
	}
	sizer := func(val reflect.Value) (uint64, error) {
		for _, arm := range arms {
			if val.Field(arm.index).IsNil() {
				continue
			}
			size, err := arm.sszUtils.encodeSizer(val.Field(arm.index))
			if err != nil {
				return 0, err
			}
			return 1 + size, nil
		}
		return 0, errors.Wrapf(ErrUntaggedUnion, "union %v", typ)
	}
	return m, sizer, nil
}

func makeStableContainerMarshaler(typ reflect.Type) (marshaler, encodeSizer, error) {
	sc, err := stableContainerLayout(typ)
	if err != nil {
		return nil, nil, err
	}
	m := func(val reflect.Value, w *encbuf) error {
		bitmap := make([]byte, sc.bitmapLen)
		present := make([]bool, len(sc.fields))
		fixedLen := uint64(0)
		for i, f := range sc.fields {
			if !val.Field(f.index).Field(f.presentIdx).Bool() {
				continue
			}
			present[i] = true
			bitmap[i/8] |= 1 << (uint(i) % 8)
			if f.fixed {
				fixedLen += f.fixedSize
			} else {
				fixedLen += BytesPerLengthOffset
			}
		}
		w.str = append(w.str, bitmap...)
		// Offsets in the field section are relative to the section itself,
		// not the bitmap.
		varAcc := fixedLen
		for i, f := range sc.fields {
			if !present[i] {
				continue
			}
			inner := val.Field(f.index).Field(f.valueIdx)
			if f.fixed {
				if err := f.sszUtils.marshaler(inner, w); err != nil {
					return errors.Wrapf(err, "failed to marshal field %s", f.name)
				}
				continue
			}
			if varAcc > math.MaxUint32 {
				return errors.Wrapf(ErrOverflow, "field %s begins at %d", f.name, varAcc)
			}
			offset := make([]byte, BytesPerLengthOffset)
			binary.LittleEndian.PutUint32(offset, uint32(varAcc))
			w.str = append(w.str, offset...)
			size, err := f.sszUtils.encodeSizer(inner)
			if err != nil {
				return errors.Wrapf(err, "failed to size field %s", f.name)
			}
			varAcc += size
		}
		for i, f := range sc.fields {
			if !present[i] || f.fixed {
				continue
			}
			if err := f.sszUtils.marshaler(val.Field(f.index).Field(f.valueIdx), w); err != nil {
				return errors.Wrapf(err, "failed to marshal field %s", f.name)
			}
		}
		return nil
	}
	sizer := func(val reflect.Value) (uint64, error) {
		total := sc.bitmapLen
		for _, f := range sc.fields {
			if !val.Field(f.index).Field(f.presentIdx).Bool() {
				continue
			}
			if f.fixed {
				total += f.fixedSize
				continue
			}
			size, err := f.sszUtils.encodeSizer(val.Field(f.index).Field(f.valueIdx))
			if err != nil {
				return 0, err
			}
			total += BytesPerLengthOffset + size
		}
		return total, nil
	}
	return m, sizer, nil
}

func makeCustomMarshaler(typ reflect.Type) (marshaler, encodeSizer, error) {
	m := func(val reflect.Value, w *encbuf) error {
		codec, ok := asCustomCodec(val).(fastssz.Marshaler)
		if !ok {
			return errors.Wrapf(ErrNotSerializable, "type %v lost its custom marshaler", typ)
		}
		b, err := codec.MarshalSSZ()
		if err != nil {
			return errors.Wrap(err, "custom marshaler failed")
		}
		w.str = append(w.str, b...)
		return nil
	}
	sizer := func(val reflect.Value) (uint64, error) {
		codec, ok := asCustomCodec(val).(fastssz.Marshaler)
		if !ok {
			return 0, errors.Wrapf(ErrNotSerializable, "type %v lost its custom marshaler", typ)
		}
		return uint64(codec.SizeSSZ()), nil
	}
	return m, sizer, nil
}

// asCustomCodec returns val as an interface value whose method set includes
// pointer-receiver methods, copying to a fresh addressable value when
// needed.
func asCustomCodec(val reflect.Value) interface{} {
	if val.Kind() == reflect.Ptr || val.CanAddr() {
		if val.CanAddr() {
			return val.Addr().Interface()
		}
		return val.Interface()
	}
	pv := reflect.New(val.Type())
	pv.Elem().Set(val)
	return pv.Interface()
}
