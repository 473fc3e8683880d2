package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinePoolClearsOnReturn(t *testing.T) {
	lines := GetLines[float32](3, 64)
	assert.Len(t, lines, 3)
	assert.Len(t, lines[0], 64)

	lines[2][63] = 42
	ReturnLines(lines)

	again := GetLines[float32](3, 64)
	assert.Equal(t, float32(0), again[2][63])
	ReturnLines(again)
}

func TestLinePoolMetrics(t *testing.T) {
	p := NewLinePool[int32]()
	for i := 0; i < 5; i++ {
		m := p.Get(2, 8)
		p.Put(m)
	}
	hits, misses := p.GetMetrics()
	assert.Equal(t, int64(5), hits+misses)
	assert.GreaterOrEqual(t, misses, int64(1))

	metrics := GetPoolMetrics()
	assert.Contains(t, metrics, "float32")
	assert.Contains(t, metrics, "int32")
}

func TestLinePoolZeroShapes(t *testing.T) {
	p := NewLinePool[float64]()
	m := p.Get(0, 10)
	assert.Len(t, m, 0)
	p.Put(m)

	other := GetLines[uint8](2, 2)
	assert.Len(t, other, 2)
	ReturnLines(other)
}

func TestLinePoolConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m := GetLines[float32](2, 16)
				m[0][0] = 1
				ReturnLines(m)
			}
		}()
	}
	wg.Wait()
}
