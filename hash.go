package ssz

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/go-ssz/bytesutil"
	"github.com/prysmaticlabs/go-ssz/htrutils"
)

func makeHasher(typ reflect.Type, tag sszTag) (hasher, error) {
	kind := typ.Kind()
	switch {
	case hasCustomHasher(typ):
		return makeCustomHasherFn(typ), nil
	case typ == uint256Type || typ == uint128Type || isBasicKind(kind):
		return makeBasicHasher(typ, tag)
	case kind == reflect.String:
		return makeByteSequenceHasher(typ, tag, 0, false), nil
	case kind == reflect.Slice && isByteKindElem(typ):
		if isBitlistType(typ, tag) {
			return makeBitlistHasher(tag), nil
		}
		fixedLen := tag.size()
		if bvSize, ok := bitvectorSizes[typ]; ok {
			fixedLen = bvSize
		}
		return makeByteSequenceHasher(typ, tag, fixedLen, fixedLen > 0), nil
	case kind == reflect.Array && isByteKindElem(typ):
		return makeByteSequenceHasher(typ, tag, uint64(typ.Len()), true), nil
	case kind == reflect.Slice:
		return makeSequenceHasher(typ, tag, 0)
	case kind == reflect.Array:
		return makeSequenceHasher(typ, tag, uint64(typ.Len()))
	case kind == reflect.Struct:
		switch {
		case isOptionalType(typ):
			return makeOptionalHasher(typ, tag)
		case isUnionType(typ):
			return makeUnionHasher(typ)
		case isStableContainerType(typ):
			return makeStableContainerHasher(typ)
		default:
			return makeStructHasher(typ)
		}
	case kind == reflect.Ptr:
		return makePtrHasher(typ, tag)
	default:
		return nil, errors.Wrapf(ErrNotSerializable, "type %v", typ)
	}
}

// isBasicElem reports whether a sequence of typ merkleizes by packing the
// flat serialization rather than by per-element roots.
func isBasicElem(typ reflect.Type) bool {
	return isBasicKind(typ.Kind()) || typ == uint256Type || typ == uint128Type
}

func makeBasicHasher(typ reflect.Type, tag sszTag) (hasher, error) {
	m, _, err := makeMarshaler(typ, tag)
	if err != nil {
		return nil, err
	}
	return func(val reflect.Value, _ uint64) ([32]byte, error) {
		w := &encbuf{}
		if err := m(val, w); err != nil {
			return [32]byte{}, err
		}
		return bytesutil.ToBytes32(w.str), nil
	}, nil
}

// makeByteSequenceHasher covers byte vectors, bitvectors, byte lists and
// strings: the serialization is packed into chunks and merkleized, with the
// byte count mixed in for the list shapes.
func makeByteSequenceHasher(typ reflect.Type, tag sszTag, fixedLen uint64, isVector bool) hasher {
	maxLen := tag.maxCap()
	return func(val reflect.Value, maxCapacity uint64) ([32]byte, error) {
		var b []byte
		if typ.Kind() == reflect.String {
			b = []byte(val.String())
		} else if typ.Kind() == reflect.Array {
			b = make([]byte, typ.Len())
			reflect.Copy(reflect.ValueOf(b), val)
		} else {
			b = val.Bytes()
		}
		if isVector {
			if uint64(len(b)) < fixedLen {
				padded := make([]byte, fixedLen)
				copy(padded, b)
				b = padded
			}
			chunks, err := htrutils.Pack([][]byte{b})
			if err != nil {
				return [32]byte{}, errors.Wrap(err, "could not pack byte vector into chunks")
			}
			return htrutils.BitwiseMerkleize(chunks, uint64(len(chunks)), uint64(len(chunks)))
		}
		chunks, err := htrutils.Pack([][]byte{b})
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "could not pack byte list into chunks")
		}
		capacity := maxCapacity
		if capacity == 0 {
			capacity = maxLen
		}
		limit := uint64(len(chunks))
		if capacity > 0 {
			limit = (capacity + 31) / 32
		}
		return htrutils.MerkleizeWithMixin(chunks, uint64(len(chunks)), limit, uint64(len(b)))
	}
}

func makeBitlistHasher(tag sszTag) hasher {
	maxLen := tag.maxCap()
	return func(val reflect.Value, maxCapacity uint64) ([32]byte, error) {
		bl := bitfield.Bitlist(val.Bytes())
		length := bl.Len()
		chunks, err := htrutils.Pack([][]byte{bl.Bytes()})
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "could not pack bitlist into chunks")
		}
		capacity := maxCapacity
		if capacity == 0 {
			capacity = maxLen
		}
		limit := uint64(len(chunks))
		if capacity > 0 {
			limit = (capacity + 255) / 256
		}
		return htrutils.MerkleizeWithMixin(chunks, uint64(len(chunks)), limit, length)
	}
}

func makeSequenceHasher(typ reflect.Type, tag sszTag, arrayLen uint64) (hasher, error) {
	elemTag := tag.elem()
	elemUtils, err := cachedSSZUtilsNoAcquireLock(typ.Elem(), elemTag)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ssz utils")
	}
	basic := isBasicElem(typ.Elem())
	elemFixedSize := uint64(0)
	if basic {
		elemFixedSize = determineFixedSize(typ.Elem(), elemTag)
	}
	vectorLen := arrayLen
	if vectorLen == 0 {
		vectorLen = tag.size()
	}
	maxLen := tag.maxCap()
	isVector := vectorLen > 0

	return func(val reflect.Value, maxCapacity uint64) ([32]byte, error) {
		n := val.Len()
		capacity := maxCapacity
		if capacity == 0 {
			capacity = maxLen
		}
		if basic {
			serialized := make([][]byte, 0, n)
			for i := 0; i < n; i++ {
				w := &encbuf{}
				if err := elemUtils.marshaler(val.Index(i), w); err != nil {
					return [32]byte{}, errors.Wrapf(err, "failed to serialize element %d", i)
				}
				serialized = append(serialized, w.str)
			}
			chunks, err := htrutils.Pack(serialized)
			if err != nil {
				return [32]byte{}, errors.Wrap(err, "could not pack elements into chunks")
			}
			if isVector {
				return htrutils.BitwiseMerkleize(chunks, uint64(len(chunks)), uint64(len(chunks)))
			}
			limit := uint64(len(chunks))
			if capacity > 0 {
				limit = (capacity*elemFixedSize + 31) / 32
			}
			return htrutils.MerkleizeWithMixin(chunks, uint64(len(chunks)), limit, uint64(n))
		}
		roots := make([][]byte, 0, n)
		for i := 0; i < n; i++ {
			root, err := elemUtils.hasher(val.Index(i), elemTag.maxCap())
			if err != nil {
				return [32]byte{}, errors.Wrapf(err, "failed to hash element %d", i)
			}
			roots = append(roots, root[:])
		}
		if isVector {
			return htrutils.BitwiseMerkleize(roots, uint64(n), vectorLen)
		}
		limit := uint64(n)
		if capacity > 0 {
			limit = capacity
		}
		return htrutils.MerkleizeWithMixin(roots, uint64(n), limit, uint64(n))
	}, nil
}

func makeStructHasher(typ reflect.Type) (hasher, error) {
	fields, err := structFields(typ)
	if err != nil {
		return nil, err
	}
	return func(val reflect.Value, _ uint64) ([32]byte, error) {
		fieldRoots := make([][]byte, 0, len(fields))
		for _, f := range fields {
			root, err := f.sszUtils.hasher(val.Field(f.index), f.tag.maxCap())
			if err != nil {
				return [32]byte{}, errors.Wrapf(err, "failed to hash field %s", f.name)
			}
			fieldRoots = append(fieldRoots, root[:])
		}
		return htrutils.BitwiseMerkleize(fieldRoots, uint64(len(fieldRoots)), uint64(len(fieldRoots)))
	}, nil
}

func makePtrHasher(typ reflect.Type, tag sszTag) (hasher, error) {
	elemUtils, err := cachedSSZUtilsNoAcquireLock(typ.Elem(), tag)
	if err != nil {
		return nil, err
	}
	return func(val reflect.Value, maxCapacity uint64) ([32]byte, error) {
		if val.IsNil() {
			return [32]byte{}, errors.Wrapf(ErrUnsupportedPointer, "nil pointer of type %v", typ)
		}
		return elemUtils.hasher(val.Elem(), maxCapacity)
	}, nil
}

func makeOptionalHasher(typ reflect.Type, tag sszTag) (hasher, error) {
	valueIdx, presentIdx, innerUtils, err := optionalLayout(typ, tag)
	if err != nil {
		return nil, err
	}
	return func(val reflect.Value, maxCapacity uint64) ([32]byte, error) {
		if !val.Field(presentIdx).Bool() {
			return htrutils.MixInSelector([32]byte{}, 0), nil
		}
		root, err := innerUtils.hasher(val.Field(valueIdx), maxCapacity)
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "failed to hash optional payload")
		}
		return htrutils.MixInSelector(root, 1), nil
	}, nil
}

func makeUnionHasher(typ reflect.Type) (hasher, error) {
	arms, err := unionArms(typ)
	if err != nil {
		return nil, err
	}
	return func(val reflect.Value, _ uint64) ([32]byte, error) {
		for i, arm := range arms {
			if val.Field(arm.index).IsNil() {
				continue
			}
			root, err := arm.sszUtils.hasher(val.Field(arm.index), arm.capacity)
			if err != nil {
				return [32]byte{}, errors.Wrapf(err, "failed to hash union arm %s", arm.name)
			}
			return htrutils.MixInSelector(root, uint64(i)), nil
		}
		return [32]byte{}, errors.Wrapf(ErrUntaggedUnion, "union %v", typ)
	}, nil
}

func makeStableContainerHasher(typ reflect.Type) (hasher, error) {
	sc, err := stableContainerLayout(typ)
	if err != nil {
		return nil, err
	}
	bitvChunkLimit := (sc.maxFields + 255) / 256
	return func(val reflect.Value, _ uint64) ([32]byte, error) {
		fieldRoots := make([][]byte, len(sc.fields))
		bitmap := make([]byte, sc.bitmapLen)
		for i, f := range sc.fields {
			if !val.Field(f.index).Field(f.presentIdx).Bool() {
				zero := [32]byte{}
				fieldRoots[i] = zero[:]
				continue
			}
			bitmap[i/8] |= 1 << (uint(i) % 8)
			root, err := f.sszUtils.hasher(val.Field(f.index).Field(f.valueIdx), f.capacity)
			if err != nil {
				return [32]byte{}, errors.Wrapf(err, "failed to hash field %s", f.name)
			}
			fieldRoots[i] = root[:]
		}
		fieldsRoot, err := htrutils.BitwiseMerkleize(fieldRoots, uint64(len(fieldRoots)), sc.maxFields)
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "could not merkleize stable container fields")
		}
		bitvChunks, err := htrutils.Pack([][]byte{bitmap})
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "could not pack presence bitvector")
		}
		bitvRoot, err := htrutils.BitwiseMerkleize(bitvChunks, uint64(len(bitvChunks)), bitvChunkLimit)
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "could not merkleize presence bitvector")
		}
		return htrutils.MixInAux(fieldsRoot, bitvRoot), nil
	}, nil
}

func makeCustomHasherFn(typ reflect.Type) hasher {
	return func(val reflect.Value, _ uint64) ([32]byte, error) {
		rooter, ok := asCustomCodec(val).(HashRooter)
		if !ok {
			return [32]byte{}, errors.Wrapf(ErrNotSerializable, "type %v lost its custom hasher", typ)
		}
		root, err := rooter.HashTreeRoot()
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "custom hasher failed")
		}
		return root, nil
	}
}
