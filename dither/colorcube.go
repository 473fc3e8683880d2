package dither

import (
	"fmt"
	"math"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/util"
	log "github.com/sirupsen/logrus"
)

// ColorCube is a lookup table laid out as a regular grid of quantisation
// levels. Band b has |Dims[b]| levels; a negative dimension runs that band's
// ramp from the top of the range down. Entry indices are
//
//	AdjustedOffset + sum(level[b] * Multipliers[b])
//
// which lets the nearest entry be found per band without a search.
type ColorCube struct {
	LookupTable
	Dims           []int
	DimsLessOne    []int
	Multipliers    []int
	AdjustedOffset int
}

var _ ColorMap = (*ColorCube)(nil)

var (
	// ColorCubeByte496 is the 4x9x6 byte cube starting at index 38.
	ColorCubeByte496 = mustColorCube(raster.TypeByte, 38, []int{4, 9, 6})

	// ColorCubeByte855 is the 8x5x5 byte cube starting at index 54.
	ColorCubeByte855 = mustColorCube(raster.TypeByte, 54, []int{8, 5, 5})
)

func mustColorCube(t raster.ElementType, offset int, dims []int) *ColorCube {
	c, err := NewColorCube(t, offset, dims)
	if err != nil {
		panic(err)
	}
	return c
}

// NewColorCube builds a cube of element type t with the given signed
// dimensions. Integer ramps span the whole type range; floating point ramps
// span [0, 1].
func NewColorCube(t raster.ElementType, offset int, dims []int) (*ColorCube, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("no dimensions: %w", ErrBadColorCube)
	}
	size := 1.0
	for b, d := range dims {
		if d == 0 {
			return nil, fmt.Errorf("dimension %d is zero: %w", b, ErrBadColorCube)
		}
		size *= math.Abs(float64(d))
	}
	if size > math.MaxInt32 {
		return nil, fmt.Errorf("%v entries: %w", size, ErrBadColorCube)
	}
	if size+float64(offset) > t.MaxValue() || float64(offset) < t.MinValue() {
		log.Errorf("colour cube of %v entries at offset %d does not fit %v", size, offset, t)
		return nil, fmt.Errorf("%v entries at offset %d for %v: %w", size, offset, t, ErrBadColorCube)
	}

	c := &ColorCube{
		Dims:        append([]int(nil), dims...),
		DimsLessOne: make([]int, len(dims)),
		Multipliers: make([]int, len(dims)),
	}
	c.Multipliers[0] = 1
	for b := 1; b < len(dims); b++ {
		c.Multipliers[b] = c.Multipliers[b-1] * util.Abs(dims[b-1])
	}
	data := make([][]float64, len(dims))
	for b, d := range dims {
		data[b] = cubeBand(t, d, c.Multipliers[b], int(size))
	}
	for b, d := range dims {
		c.DimsLessOne[b] = util.Abs(d) - 1
		if d < 0 {
			c.Multipliers[b] = -c.Multipliers[b]
		}
	}
	c.AdjustedOffset = offset
	for b, d := range dims {
		if d < -1 {
			c.AdjustedOffset += -c.Multipliers[b] * c.DimsLessOne[b]
		}
	}

	c.LookupTable = LookupTable{Type: t, Data: data, Offsets: make([]int, len(dims))}
	for b := range c.Offsets {
		c.Offsets[b] = offset
	}
	return c, nil
}

// cubeBand fills one band: level i repeats repeat times and the pattern
// repeats until size entries are written.
func cubeBand(t raster.ElementType, dim int, repeat int, size int) []float64 {
	n := util.Abs(dim)
	lo, hi := t.MinValue(), t.MaxValue()
	if t.IsFloat() {
		lo, hi = 0, 1
	}
	delta := 0.0
	if n > 1 {
		delta = (hi - lo) / float64(n-1)
	}
	start := lo
	if dim < 0 {
		start, delta = hi, -delta
	}

	levels := make([]float64, n)
	val := start
	for i := range levels {
		if t.IsFloat() {
			levels[i] = val
		} else {
			levels[i] = math.Floor(val + 0.5)
		}
		val += delta
	}
	if t == raster.TypeFloat {
		for i := range levels {
			levels[i] = float64(float32(levels[i]))
		}
	}

	out := make([]float64, size)
	for i := range out {
		out[i] = levels[(i/repeat)%n]
	}
	return out
}

// Validate checks the cube's table and that every band starts at the same
// offset.
func (c *ColorCube) Validate() error {
	for b, o := range c.Offsets {
		if o != c.Offsets[0] {
			log.Errorf("colour cube band %d offset %d differs from %d", b, o, c.Offsets[0])
			return fmt.Errorf("band %d offset %d differs from %d: %w", b, o, c.Offsets[0], ErrBadColorCube)
		}
	}
	if err := c.LookupTable.Validate(); err != nil {
		return err
	}
	if len(c.Dims) != len(c.Data) || len(c.Multipliers) != len(c.Dims) || len(c.DimsLessOne) != len(c.Dims) {
		return fmt.Errorf("%d dimensions for %d bands: %w", len(c.Dims), len(c.Data), ErrBadColorCube)
	}
	return nil
}

// FindNearestEntry bins every band independently. Integer types work in fixed
// point with the element width as the fraction, floating point types round
// the scaled value half up.
func (c *ColorCube) FindNearestEntry(pixel []float32) int {
	index := c.AdjustedOffset
	for b := range c.Dims {
		index += c.level(b, pixel[b]) * c.Multipliers[b]
	}
	return index
}

func (c *ColorCube) level(b int, v float32) int {
	d := c.DimsLessOne[b]
	switch c.Type {
	case raster.TypeByte:
		tmp := int(v * float32(d))
		if tmp&0xff > 127 {
			tmp += 0x100
		}
		return tmp >> 8
	case raster.TypeShort:
		tmp := int(v-math.MinInt16) * d
		if tmp&0xffff > math.MaxInt16 {
			tmp += 0x10000
		}
		return tmp >> 16
	case raster.TypeUShort:
		tmp := int(v * float32(d))
		if tmp&0xffff > math.MaxInt16 {
			tmp += 0x10000
		}
		return tmp >> 16
	case raster.TypeInt:
		tmp := int64((float64(v) - math.MinInt32) * float64(d))
		if tmp&0xffffffff > math.MaxInt32 {
			tmp += 1 << 32
		}
		return int(tmp >> 32)
	default:
		f := v * float32(d)
		i := int(f)
		if f-float32(i) >= 0.5 {
			i++
		}
		return i
	}
}
