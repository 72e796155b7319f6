package ssz

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// sszTag carries the SSZ refinements a struct field declares:
//
//	`ssz-size:"32"` or `ssz-size:"?,32"` - vector lengths per dimension,
//	                                       "?" marking a dynamic dimension
//	`ssz-max:"1024"`                     - list capacity per dimension
//	`ssz-type:"bitlist"`                 - type refinement
//
// The tag travels with the field's type through codec generation; nested
// dimensions are peeled off with elem() as generation descends.
type sszTag struct {
	sizes []uint64 // 0 marks a "?" dynamic dimension
	maxes []uint64
	kind  string
}

func parseSSZTag(structTag reflect.StructTag) (sszTag, error) {
	var tag sszTag
	if sizeStr, ok := structTag.Lookup("ssz-size"); ok {
		dims, err := parseTagDims(sizeStr, true)
		if err != nil {
			return tag, errors.Wrap(err, "could not parse ssz-size tag")
		}
		tag.sizes = dims
	}
	if maxStr, ok := structTag.Lookup("ssz-max"); ok {
		dims, err := parseTagDims(maxStr, false)
		if err != nil {
			return tag, errors.Wrap(err, "could not parse ssz-max tag")
		}
		tag.maxes = dims
	}
	tag.kind = structTag.Get("ssz-type")
	if strings.HasPrefix(tag.kind, "uint") {
		width, err := strconv.ParseUint(strings.TrimPrefix(tag.kind, "uint"), 10, 64)
		if err != nil || !isSupportedWidth(width) {
			return tag, errors.Wrapf(ErrUnsupportedWidth, "ssz-type %q", tag.kind)
		}
	}
	return tag, nil
}

func parseTagDims(value string, allowDynamic bool) ([]uint64, error) {
	parts := strings.Split(value, ",")
	dims := make([]uint64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "?" && allowDynamic {
			dims = append(dims, 0)
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "dimension %q", part)
		}
		dims = append(dims, n)
	}
	return dims, nil
}

func isSupportedWidth(width uint64) bool {
	switch width {
	case 8, 16, 32, 64, 128, 256:
		return true
	}
	return false
}

func (t sszTag) empty() bool {
	return len(t.sizes) == 0 && len(t.maxes) == 0 && t.kind == ""
}

// size reports the declared vector length of the outermost dimension, or 0
// when the dimension is dynamic or undeclared.
func (t sszTag) size() uint64 {
	if len(t.sizes) == 0 {
		return 0
	}
	return t.sizes[0]
}

// maxCap reports the declared list capacity of the outermost dimension, or
// 0 when unbounded.
func (t sszTag) maxCap() uint64 {
	if len(t.maxes) == 0 {
		return 0
	}
	return t.maxes[0]
}

// elem peels the outermost dimension off, producing the tag that applies to
// the element type. The ssz-type refinement names the outermost type only
// and does not travel down.
func (t sszTag) elem() sszTag {
	out := sszTag{}
	if len(t.sizes) > 1 {
		out.sizes = t.sizes[1:]
	}
	if len(t.maxes) > 1 {
		out.maxes = t.maxes[1:]
	}
	return out
}

// canon renders the tag in a canonical form usable as part of a cache key.
func (t sszTag) canon() string {
	if t.empty() {
		return ""
	}
	var sb strings.Builder
	for i, s := range t.sizes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(s, 10))
	}
	sb.WriteByte('/')
	for i, m := range t.maxes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(m, 10))
	}
	sb.WriteByte('/')
	sb.WriteString(t.kind)
	return sb.String()
}
