package ssz

import (
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type marshaler func(val reflect.Value, w *encbuf) error

type encodeSizer func(val reflect.Value) (uint64, error)

// Unlike a reader-based decoder, every unmarshaler consumes exactly the
// byte slice handed to it: enclosing containers carve the input along
// validated offsets before recursing.
type unmarshaler func(input []byte, val reflect.Value, opts *decodeOpts) error

type hasher func(val reflect.Value, maxCapacity uint64) ([32]byte, error)

type sszUtils struct {
	marshaler
	encodeSizer
	unmarshaler
	hasher
}

type decodeOpts struct {
	// noCopy makes byte-sequence values alias the input buffer instead of
	// copying out of it.
	noCopy bool
}

type utilsCacheKey struct {
	typ reflect.Type
	tag string
}

var (
	sszUtilsCacheMutex sync.RWMutex
	sszUtilsCache      = make(map[utilsCacheKey]*sszUtils)
)

// Get cached encoder, encodeSizer, decoder and hasher implementations for a
// specified type and tag refinement. With a cache we can achieve O(1)
// amortized time overhead for creating them.
func cachedSSZUtils(typ reflect.Type, tag sszTag) (*sszUtils, error) {
	key := utilsCacheKey{typ: typ, tag: tag.canon()}
	sszUtilsCacheMutex.RLock()
	utils := sszUtilsCache[key]
	sszUtilsCacheMutex.RUnlock()
	if utils != nil {
		return utils, nil
	}

	// If not found in cache, will get a new one and put it into the cache.
	sszUtilsCacheMutex.Lock()
	defer sszUtilsCacheMutex.Unlock()
	return cachedSSZUtilsNoAcquireLock(typ, tag)
}

// This version is used when the caller is already holding the rw lock for
// sszUtilsCache. It doesn't acquire a new rw lock so it's free to
// recursively call itself without getting into a deadlock situation.
func cachedSSZUtilsNoAcquireLock(typ reflect.Type, tag sszTag) (*sszUtils, error) {
	// Check again in case other goroutine has just acquired the lock
	// and already updated the cache.
	key := utilsCacheKey{typ: typ, tag: tag.canon()}
	utils := sszUtilsCache[key]
	if utils != nil {
		return utils, nil
	}
	// Put a dummy value into the cache before generating. If the generator
	// tries to look up the type of itself, it will get the dummy value and
	// won't call recursively forever.
	sszUtilsCache[key] = new(sszUtils)
	utils, err := generateSSZUtilsForType(typ, tag)
	if err != nil {
		// Don't forget to remove the dummy key when fail.
		delete(sszUtilsCache, key)
		return nil, err
	}
	// Overwrite the dummy value with the real value. Closures that captured
	// the dummy pointer observe the filled-in implementations through it.
	*sszUtilsCache[key] = *utils
	return sszUtilsCache[key], nil
}

func generateSSZUtilsForType(typ reflect.Type, tag sszTag) (utils *sszUtils, err error) {
	utils = new(sszUtils)
	if utils.marshaler, utils.encodeSizer, err = makeMarshaler(typ, tag); err != nil {
		return nil, err
	}
	if utils.unmarshaler, err = makeUnmarshaler(typ, tag); err != nil {
		return nil, err
	}
	if utils.hasher, err = makeHasher(typ, tag); err != nil {
		return nil, err
	}
	return utils, nil
}

type field struct {
	index    int
	name     string
	typ      reflect.Type
	tag      sszTag
	fixed    bool
	sszUtils *sszUtils
}

func structFields(typ reflect.Type) (fields []field, err error) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.PkgPath != "" || strings.HasPrefix(f.Name, "XXX_") {
			continue
		}
		tag, err := parseSSZTag(f.Tag)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		utils, err := cachedSSZUtilsNoAcquireLock(f.Type, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get ssz utils for field %s", f.Name)
		}
		fields = append(fields, field{
			index:    i,
			name:     f.Name,
			typ:      f.Type,
			tag:      tag,
			fixed:    !isVariableSizeType(f.Type, tag),
			sszUtils: utils,
		})
	}
	return fields, nil
}
