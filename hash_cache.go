package ssz

import (
	"reflect"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/minio/highwayhash"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "ssz")

// maxCachedRoots bounds the LRU holding computed hash tree roots.
const maxCachedRoots = 100000

var (
	hashCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ssz_hash_cache_hit",
		Help: "The number of hash tree root requests that are present in the cache.",
	})
	hashCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ssz_hash_cache_miss",
		Help: "The number of hash tree root requests that aren't present in the cache.",
	})
	hashCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ssz_hash_cache_size",
		Help: "The number of roots in the hash cache",
	})
)

// The keyed highwayhash seed the cache derives its lookup keys with. The
// value is arbitrary but must stay fixed for the process lifetime.
var hashKey = [32]byte{
	0x4b, 0xe7, 0x43, 0x21, 0x9f, 0x5d, 0x71, 0x6e,
	0x0d, 0x2c, 0xa8, 0x33, 0x57, 0x9a, 0x14, 0xc2,
	0x6b, 0x01, 0xee, 0x7f, 0x88, 0x30, 0x46, 0xd5,
	0x12, 0xfa, 0x2e, 0x64, 0xbb, 0x09, 0xc8, 0x5a,
}

var (
	cacheToggle int32
	hashCache   = newHashCacheS(maxCachedRoots)
)

// ToggleCache flips the process-wide hash tree root cache. The cache is off
// by default; with it on, repeated merkleization of equal values costs one
// serialization plus a lookup.
func ToggleCache(enable bool) {
	var v int32
	if enable {
		v = 1
	}
	atomic.StoreInt32(&cacheToggle, v)
	log.WithField("enabled", enable).Debug("Toggled hash tree root cache")
}

func cacheEnabled() bool {
	return atomic.LoadInt32(&cacheToggle) == 1
}

// hashCacheS caches computed hash tree roots keyed by a fast keyed hash of
// the value's serialization.
type hashCacheS struct {
	rootCache *lru.Cache
}

func newHashCacheS(size int) *hashCacheS {
	cache, err := lru.New(size)
	if err != nil {
		// lru.New only fails on a non-positive size, a programmer error.
		panic(err)
	}
	return &hashCacheS{rootCache: cache}
}

// rootWithCache looks a value's root up by the keyed hash of its
// serialization, computing and storing it on a miss.
func (c *hashCacheS) rootWithCache(val reflect.Value, utils *sszUtils, maxCapacity uint64) ([32]byte, error) {
	eb := &encbuf{}
	if err := utils.marshaler(val, eb); err != nil {
		return [32]byte{}, err
	}
	keyInput := make([]byte, 0, len(eb.str)+len(val.Type().String())+8)
	keyInput = append(keyInput, val.Type().String()...)
	keyInput = append(keyInput, byte(maxCapacity), byte(maxCapacity>>8), byte(maxCapacity>>16), byte(maxCapacity>>24),
		byte(maxCapacity>>32), byte(maxCapacity>>40), byte(maxCapacity>>48), byte(maxCapacity>>56))
	keyInput = append(keyInput, eb.str...)
	key := highwayhash.Sum64(keyInput, hashKey[:])

	if cached, ok := c.rootCache.Get(key); ok {
		hashCacheHit.Inc()
		root, ok := cached.([32]byte)
		if ok {
			return root, nil
		}
	}
	hashCacheMiss.Inc()
	root, err := utils.hasher(val, maxCapacity)
	if err != nil {
		return [32]byte{}, err
	}
	c.rootCache.Add(key, root)
	hashCacheSize.Set(float64(c.rootCache.Len()))
	return root, nil
}
