package ssz

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/prysmaticlabs/go-ssz/types"
)

// optionalLayout resolves the Value/Present field indices of an Optional
// instantiation and the codec of the wrapped type. The enclosing field's
// tag travels through to the wrapped type, so an optional list keeps its
// declared capacity.
func optionalLayout(typ reflect.Type, tag sszTag) (valueIdx, presentIdx int, innerUtils *sszUtils, err error) {
	valueField, ok := typ.FieldByName("Value")
	if !ok {
		return 0, 0, nil, errors.Wrapf(ErrNotSerializable, "optional type %v has no Value field", typ)
	}
	presentField, ok := typ.FieldByName("Present")
	if !ok {
		return 0, 0, nil, errors.Wrapf(ErrNotSerializable, "optional type %v has no Present field", typ)
	}
	innerUtils, err = cachedSSZUtilsNoAcquireLock(valueField.Type, tag)
	if err != nil {
		return 0, 0, nil, errors.Wrapf(err, "failed to get ssz utils for optional payload %v", valueField.Type)
	}
	return valueField.Index[0], presentField.Index[0], innerUtils, nil
}

type unionArm struct {
	index    int
	name     string
	typ      reflect.Type
	capacity uint64 // ssz-max of the arm, for merkleization
	sszUtils *sszUtils
}

// unionArms resolves a union struct's arms: its schema fields, each of
// which must be a pointer, in declaration order.
func unionArms(typ reflect.Type) ([]unionArm, error) {
	raw := rawStructFields(typ)
	arms := make([]unionArm, 0, len(raw))
	for _, f := range raw {
		if f.typ.Kind() != reflect.Ptr {
			return nil, errors.Wrapf(ErrNotSerializable, "union arm %s.%s must be a pointer", typ, f.name)
		}
		utils, err := cachedSSZUtilsNoAcquireLock(f.typ, f.tag)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get ssz utils for union arm %s", f.name)
		}
		arms = append(arms, unionArm{index: f.index, name: f.name, typ: f.typ, capacity: f.tag.maxCap(), sszUtils: utils})
	}
	if len(arms) == 0 {
		return nil, errors.Wrapf(ErrNotSerializable, "union %v has no arms", typ)
	}
	if len(arms) > 256 {
		return nil, errors.Wrapf(ErrNotSerializable, "union %v has more arms than a one-byte selector can address", typ)
	}
	return arms, nil
}

type stableField struct {
	index      int
	name       string
	valueIdx   int
	presentIdx int
	typ        reflect.Type // the wrapped payload type
	fixed      bool
	fixedSize  uint64
	capacity   uint64 // ssz-max of the field, for merkleization
	sszUtils   *sszUtils
}

type stableContainerInfo struct {
	maxFields uint64
	bitmapLen uint64
	fields    []stableField
}

// stableContainerLayout resolves an EIP-7495 stable container: its declared
// capacity, presence bitmap width and per-field payload codecs. Every
// schema field must be an Optional.
func stableContainerLayout(typ reflect.Type) (*stableContainerInfo, error) {
	container, ok := reflect.New(typ).Elem().Interface().(types.StableContainer)
	if !ok {
		return nil, errors.Wrapf(ErrNotSerializable, "type %v is not a stable container", typ)
	}
	maxFields := container.SSZMaxFields()
	if maxFields == 0 {
		return nil, errors.Wrapf(ErrNotSerializable, "stable container %v declares zero capacity", typ)
	}
	raw := rawStructFields(typ)
	if uint64(len(raw)) > maxFields {
		return nil, errors.Wrapf(ErrNotSerializable, "stable container %v has %d fields, capacity %d", typ, len(raw), maxFields)
	}
	fields := make([]stableField, 0, len(raw))
	for _, f := range raw {
		if !isOptionalType(f.typ) {
			return nil, errors.Wrapf(ErrNotSerializable, "stable container field %s.%s must be an Optional", typ, f.name)
		}
		valueField, _ := f.typ.FieldByName("Value")
		presentField, _ := f.typ.FieldByName("Present")
		utils, err := cachedSSZUtilsNoAcquireLock(valueField.Type, f.tag)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get ssz utils for field %s", f.name)
		}
		fixed := !isVariableSizeType(valueField.Type, f.tag)
		size := uint64(0)
		if fixed {
			size = determineFixedSize(valueField.Type, f.tag)
		}
		fields = append(fields, stableField{
			index:      f.index,
			name:       f.name,
			valueIdx:   valueField.Index[0],
			presentIdx: presentField.Index[0],
			typ:        valueField.Type,
			fixed:      fixed,
			fixedSize:  size,
			capacity:   f.tag.maxCap(),
			sszUtils:   utils,
		})
	}
	return &stableContainerInfo{
		maxFields: maxFields,
		bitmapLen: (maxFields + 7) / 8,
		fields:    fields,
	}, nil
}
