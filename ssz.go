package ssz

import (
	"io"
	"reflect"

	"github.com/pkg/errors"
)

// Marshal a value into its SSZ serialization.
func Marshal(val interface{}) ([]byte, error) {
	eb := &encbuf{}
	if err := eb.encode(val); err != nil {
		return nil, err
	}
	return eb.str, nil
}

// Encode marshals a value and writes the serialization to w.
func Encode(w io.Writer, val interface{}) error {
	eb := &encbuf{}
	if err := eb.encode(val); err != nil {
		return err
	}
	return eb.toWriter(w)
}

// Unmarshal an SSZ serialization into a value, copying every byte out of
// the input buffer. The target must be a non-nil pointer.
func Unmarshal(input []byte, dst interface{}) error {
	return unmarshal(input, dst, &decodeOpts{})
}

// UnmarshalNoCopy behaves like Unmarshal except that byte-sequence values
// alias the input buffer instead of copying out of it. The caller must not
// mutate the input for as long as the decoded value lives.
func UnmarshalNoCopy(input []byte, dst interface{}) error {
	return unmarshal(input, dst, &decodeOpts{noCopy: true})
}

// Decode reads all bytes from r and unmarshals them into dst.
func Decode(r io.Reader, dst interface{}) error {
	input, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "could not read input")
	}
	return Unmarshal(input, dst)
}

func unmarshal(input []byte, dst interface{}, opts *decodeOpts) error {
	if dst == nil {
		return errors.Wrap(ErrUnsupportedPointer, "untyped nil is not supported")
	}
	rval := reflect.ValueOf(dst)
	if rval.Kind() != reflect.Ptr || rval.IsNil() {
		return errors.Wrapf(ErrUnsupportedPointer, "can only unmarshal into a non-nil pointer target, got %v", rval.Type())
	}
	if len(input) == 0 {
		return errors.Wrap(ErrTruncated, "no data to unmarshal from, input is empty")
	}
	utils, err := cachedSSZUtils(rval.Type().Elem(), sszTag{})
	if err != nil {
		return err
	}
	return utils.unmarshaler(input, rval.Elem(), opts)
}

// HashTreeRoot computes the SSZ merkleization of the value.
func HashTreeRoot(val interface{}) ([32]byte, error) {
	return hashTreeRoot(val, 0)
}

// HashTreeRootWithCapacity computes the merkleization of a top-level list
// with the given declared capacity, which bounds the trie shape the same
// way an ssz-max tag on a struct field does. The list's element count, not
// the capacity, is mixed into the length chunk.
func HashTreeRootWithCapacity(val interface{}, maxCapacity uint64) ([32]byte, error) {
	if val == nil {
		return [32]byte{}, errors.Wrap(ErrUnsupportedPointer, "untyped nil is not supported")
	}
	rval := reflect.ValueOf(val)
	typ := rval.Type()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Slice && typ.Kind() != reflect.String {
		return [32]byte{}, errors.Wrapf(ErrNotSerializable, "capacity only applies to lists, got %v", typ)
	}
	return hashTreeRoot(val, maxCapacity)
}

func hashTreeRoot(val interface{}, maxCapacity uint64) ([32]byte, error) {
	if val == nil {
		return [32]byte{}, errors.Wrap(ErrUnsupportedPointer, "untyped nil is not supported")
	}
	rval := reflect.ValueOf(val)
	utils, err := cachedSSZUtils(rval.Type(), sszTag{})
	if err != nil {
		return [32]byte{}, err
	}
	if !cacheEnabled() {
		return utils.hasher(rval, maxCapacity)
	}
	return hashCache.rootWithCache(rval, utils, maxCapacity)
}
