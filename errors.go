package ssz

import (
	"github.com/pkg/errors"

	"github.com/prysmaticlabs/go-ssz/htrutils"
)

// Sentinel errors for every failure class the codec can report. Call sites
// wrap these with positional context, so callers should match with
// errors.Is rather than equality.
var (
	// ErrUnsupportedWidth is returned when a tag requests an integer width
	// outside {8, 16, 32, 64, 128, 256}.
	ErrUnsupportedWidth = errors.New("unsupported integer width")
	// ErrOverflow is returned when a serialized length no longer fits the
	// 4-byte offset encoding.
	ErrOverflow = errors.New("serialized length overflows the offset width")
	// ErrOutOfBounds is returned when an offset or index points outside the
	// input buffer.
	ErrOutOfBounds = errors.New("offset or index out of bounds")
	// ErrInvalidOffset is returned for offsets that are non-monotonic or
	// smaller than the fixed-size header they follow.
	ErrInvalidOffset = errors.New("invalid offset")
	// ErrTruncated is returned when too few bytes remain for a fixed-size
	// value.
	ErrTruncated = errors.New("insufficient bytes for a fixed-size value")
	// ErrSizeMismatch is returned when a fixed-size value's input length is
	// wrong in either direction.
	ErrSizeMismatch = errors.New("input length does not match the fixed size")
	// ErrUnknownSelector is returned when a union selector is not smaller
	// than the union's arity.
	ErrUnknownSelector = errors.New("union selector exceeds the variant count")
	// ErrUntaggedUnion is returned when a union value has no active variant.
	ErrUntaggedUnion = errors.New("union has no active variant")
	// ErrInvalidEncoding is returned for malformed payloads: boolean bytes
	// beyond 0x00/0x01, bitlists without a sentinel, bad optional lead
	// bytes, presence bits beyond a stable container's declared fields.
	ErrInvalidEncoding = errors.New("invalid encoding")
	// ErrNotSerializable is returned when a Go type falls outside the
	// supported schema algebra.
	ErrNotSerializable = errors.New("type is not serializable")
	// ErrUnsupportedPointer is returned for nil pointers and pointer shapes
	// the codec does not take.
	ErrUnsupportedPointer = errors.New("nil or unsupported pointer")
	// ErrNotImplemented names the not-implemented failure class so callers
	// can match it; no codec path in this package returns it.
	ErrNotImplemented = errors.New("not implemented")
	// ErrMaxCapacityExceeded is returned when a list or bitlist holds more
	// elements than its declared maximum.
	ErrMaxCapacityExceeded = errors.New("list length exceeds its declared maximum")
	// ErrChunkLimitExceeded is returned when merkleization is handed more
	// chunks than the trie's declared limit.
	ErrChunkLimitExceeded = htrutils.ErrChunksExceedLimit
)
