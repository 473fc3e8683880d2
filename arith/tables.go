package arith

import (
	"sync"

	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

// byteTable is a process wide 256x256 table indexed by a<<8 | b. It is built
// on first use and read only afterwards.
type byteTable struct {
	name  string
	build func(a int, b int) uint8

	mu   sync.RWMutex
	data []uint8
}

func (t *byteTable) get() []uint8 {
	// Fast path: read lock
	t.mu.RLock()
	data := t.data
	t.mu.RUnlock()
	if data != nil {
		return data
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double-check after acquiring write lock
	if t.data == nil {
		log.Debugf("building %s byte table", t.name)
		data := make([]uint8, 256*256)
		for a := 0; a < 256; a++ {
			for b := 0; b < 256; b++ {
				data[a<<8|b] = t.build(a, b)
			}
		}
		t.data = data
	}
	return t.data
}

var (
	minTable = &byteTable{name: "min", build: func(a, b int) uint8 {
		return uint8(min(a, b))
	}}

	divideTable = &byteTable{name: "divide", build: func(a, b int) uint8 {
		return divideByte(uint8(a), uint8(b))
	}}

	multiplyTable = &byteTable{name: "multiply", build: func(a, b int) uint8 {
		return raster.ClampInt64[uint8](int64(a * b))
	}}
)

// MinTable returns the byte min table, indexed by a<<8 | b. Callers must not
// modify it.
func MinTable() []uint8 {
	return minTable.get()
}

// DivideTable returns the byte quotient table a/b, indexed by a<<8 | b.
func DivideTable() []uint8 {
	return divideTable.get()
}

// MultiplyTable returns the clamped byte product table, indexed by a<<8 | b.
func MultiplyTable() []uint8 {
	return multiplyTable.get()
}
