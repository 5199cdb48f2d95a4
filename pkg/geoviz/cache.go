package geoviz

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
)

// SimplifyCache keeps simplified geometries across frames with LRU eviction.
//
// Panning at a fixed zoom asks for the same tolerance again and again; the
// cache turns those repeats into lookups. Entries are keyed by collection,
// feature position and tolerance, so a hit is always identical to a fresh
// simplification. Cached geometries are shared and must not be modified.
//
// Example:
//
//	cache, _ := geoviz.NewSimplifyCache(4096)
//	r := geoviz.NewRenderer(geoviz.RenderOptions{Cache: cache})
type SimplifyCache struct {
	entries *lru.Cache[uint64, orb.Geometry]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewSimplifyCache creates a cache holding at most size geometries.
func NewSimplifyCache(size int) (*SimplifyCache, error) {
	if size <= 0 {
		return nil, errors.Newf("simplify cache size must be positive, got %d", size)
	}
	entries, err := lru.New[uint64, orb.Geometry](size)
	if err != nil {
		return nil, errors.Wrap(err, "create simplify cache")
	}
	return &SimplifyCache{entries: entries}, nil
}

// Get returns the cached geometry for key or computes it with loader and
// stores it. hit reports whether the loader was skipped.
func (c *SimplifyCache) Get(key uint64, loader func() orb.Geometry) (g orb.Geometry, hit bool) {
	if g, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return g, true
	}
	c.misses.Add(1)
	g = loader()
	c.entries.Add(key, g)
	return g, false
}

// Len returns the number of cached geometries.
func (c *SimplifyCache) Len() int { return c.entries.Len() }

// Purge removes every entry and resets the counters.
func (c *SimplifyCache) Purge() {
	c.entries.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns cache counters.
func (c *SimplifyCache) Stats() CacheStats {
	return CacheStats{
		Entries: c.entries.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// CacheStats holds cache performance counters.
type CacheStats struct {
	Entries int    // Geometries currently cached
	Hits    uint64 // Lookups served from the cache
	Misses  uint64 // Lookups that ran the simplifier
}

// simplifyKey hashes the inputs that determine a simplified geometry.
func simplifyKey(collection uint64, pos int, tolerance float64) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], collection)
	binary.LittleEndian.PutUint64(buf[8:], uint64(pos))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(tolerance))
	return xxhash.Sum64(buf[:])
}
