package util

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// LinePool pools scratch line buffers ([lines][width]T) so that streaming
// operators such as error diffusion do not allocate their rolling rows on
// every call. Buffers handed out are always zeroed.
type LinePool[T any] struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex

	hits   atomic.Int64
	misses atomic.Int64
}

var (
	float32Lines = NewLinePool[float32]()
	int32Lines   = NewLinePool[int32]()
	float64Lines = NewLinePool[float64]()
)

func NewLinePool[T any]() *LinePool[T] {
	return &LinePool[T]{pools: make(map[string]*sync.Pool)}
}

func getPoolKey(lines int, width int) string {
	return fmt.Sprintf("%d_%d", lines, width)
}

// Get retrieves a set of lines from the pool or creates a new one.
func (p *LinePool[T]) Get(lines int, width int) [][]T {
	if lines == 0 || width == 0 {
		return MakeMatrix2D[T](lines, width)
	}

	key := getPoolKey(lines, width)

	// Fast path: read lock
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		if m := pool.Get(); m != nil {
			p.hits.Add(1)
			return m.([][]T)
		}
	} else {
		p.mu.Lock()
		// Double-check after acquiring write lock
		if _, exists = p.pools[key]; !exists {
			p.pools[key] = &sync.Pool{}
		}
		p.mu.Unlock()
	}

	p.misses.Add(1)
	return MakeMatrix2D[T](lines, width)
}

// Put clears the lines and returns them to the pool.
func (p *LinePool[T]) Put(m [][]T) {
	if len(m) == 0 || len(m[0]) == 0 {
		return
	}
	key := getPoolKey(len(m), len(m[0]))

	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		var zero T
		for i := range m {
			for j := range m[i] {
				m[i][j] = zero
			}
		}
		pool.Put(m)
	}
}

// GetMetrics returns pool usage statistics.
func (p *LinePool[T]) GetMetrics() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}

// GetLines retrieves zeroed lines from the shared pool for T. Types without a
// shared pool are simply allocated.
func GetLines[T any](lines int, width int) [][]T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32Lines.Get(lines, width)).([][]T)
	case int32:
		return any(int32Lines.Get(lines, width)).([][]T)
	case float64:
		return any(float64Lines.Get(lines, width)).([][]T)
	default:
		return MakeMatrix2D[T](lines, width)
	}
}

// ReturnLines hands lines obtained from GetLines back to the shared pool.
func ReturnLines[T any](m [][]T) {
	switch v := any(m).(type) {
	case [][]float32:
		float32Lines.Put(v)
	case [][]int32:
		int32Lines.Put(v)
	case [][]float64:
		float64Lines.Put(v)
	}
}

// GetPoolMetrics returns metrics for all shared pools.
func GetPoolMetrics() map[string]map[string]int64 {
	metrics := map[string]map[string]int64{}
	for name, p := range map[string]interface{ GetMetrics() (int64, int64) }{
		"float32": float32Lines,
		"int32":   int32Lines,
		"float64": float64Lines,
	} {
		hits, misses := p.GetMetrics()
		metrics[name] = map[string]int64{"hits": hits, "misses": misses}
	}
	return metrics
}
