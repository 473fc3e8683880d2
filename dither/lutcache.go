package dither

import (
	"encoding/binary"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

const (
	// lutLengthMax bounds bands*maskHeight*maskWidth*256 for the byte LUT.
	lutLengthMax = 16 * 16 * 4 * 256

	DefaultLUTCacheSize = 4
)

// orderedLUT is the flattened ordered dither table for byte sources, indexed
// as [band][maskRow][maskCol][gray]. Each entry is the band's contribution to
// the colour cube index.
type orderedLUT struct {
	bandStride int
	rowStride  int
	data       []int32
}

const lutColStride = 256

// lutCache keeps the most recently used tables. Tables are read only once
// stored, so callers share them without further locking. A capacity of zero
// bypasses the cache.
type lutCache struct {
	mu       sync.RWMutex
	capacity int
	lru      *lru.Cache[string, *orderedLUT]
}

var sharedLUTs = newLUTCache(DefaultLUTCacheSize)

func newLUTCache(capacity int) *lutCache {
	l, err := lru.NewWithEvict[string, *orderedLUT](max(capacity, 1), func(_ string, _ *orderedLUT) {
		log.Debugf("ordered dither LUT evicted")
	})
	if err != nil {
		// only fails for non-positive sizes
		panic(err)
	}
	return &lutCache{capacity: max(capacity, 0), lru: l}
}

// get returns the cached table for key, building it outside the lock when
// missing. When two callers build the same table the first one stored wins
// and the other copy is dropped.
func (c *lutCache) get(key string, build func() *orderedLUT) *orderedLUT {
	c.mu.RLock()
	if c.capacity > 0 {
		if lut, ok := c.lru.Get(key); ok {
			c.mu.RUnlock()
			log.Debugf("ordered dither LUT cache hit")
			return lut
		}
	}
	c.mu.RUnlock()

	lut := build()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.capacity <= 0 {
		return lut
	}
	if prev, ok, _ := c.lru.PeekOrAdd(key, lut); ok {
		return prev
	}
	return lut
}

func (c *lutCache) setCapacity(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = max(n, 0)
	if c.capacity == 0 {
		c.lru.Purge()
		return
	}
	if evicted := c.lru.Resize(c.capacity); evicted > 0 {
		log.Debugf("ordered dither LUT cache resized to %d, %d evicted", c.capacity, evicted)
	}
}

func (c *lutCache) clear() {
	c.lru.Purge()
}

func (c *lutCache) len() int {
	return c.lru.Len()
}

// SetLUTCacheSize changes how many ordered dither tables are kept. Zero
// disables caching.
func SetLUTCacheSize(n int) {
	sharedLUTs.setCapacity(n)
}

func ClearLUTCache() {
	sharedLUTs.clear()
}

func LUTCacheLen() int {
	return sharedLUTs.len()
}

// lutKey identifies a table by the cube levels, multipliers and byte mask
// thresholds it was built from.
func lutKey(dims []int, mults []int, thresholds [][]int64, maskW int, maskH int) string {
	buf := make([]byte, 0, 8*(2*len(dims)+2)+len(thresholds)*maskW*maskH)
	buf = binary.AppendVarint(buf, int64(maskW))
	buf = binary.AppendVarint(buf, int64(maskH))
	for i := range dims {
		buf = binary.AppendVarint(buf, int64(dims[i]))
		buf = binary.AppendVarint(buf, int64(mults[i]))
	}
	for _, band := range thresholds {
		for _, t := range band {
			buf = append(buf, byte(t))
		}
	}
	return string(buf)
}
