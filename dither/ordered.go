package dither

import (
	"errors"
	"fmt"
	"image"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/util"
	log "github.com/sirupsen/logrus"
)

var ErrNilArgument = errors.New("nil argument")

// Ordered dithers rect of src into colour cube indices written to band 0 of
// dst. Byte sources with a small enough mask use a cached lookup table; every
// other case quantises each sample directly. Both give identical results.
func Ordered[S raster.Sample, D raster.Sample](src *raster.Buffer[S], dst *raster.Buffer[D], rect image.Rectangle, cube *ColorCube, mask *DitherMask) error {
	if err := checkOrdered(src, dst, rect, cube, mask); err != nil {
		return err
	}
	if rect.Empty() {
		return nil
	}

	plan := newOrderedPlan(cube, mask, raster.TypeOf[S]())
	if bytes, ok := any(src).(*raster.Buffer[uint8]); ok && plan.lutAllowed() {
		log.Debugf("ordered dither %v with LUT", rect)
		orderedWithLUT(bytes, dst, rect, plan, sharedLUTs)
		return nil
	}
	log.Debugf("ordered dither %v on %v samples", rect, raster.TypeOf[S]())
	orderedDirect(src, dst, rect, plan)
	return nil
}

func checkOrdered[S raster.Sample, D raster.Sample](src *raster.Buffer[S], dst *raster.Buffer[D], rect image.Rectangle, cube *ColorCube, mask *DitherMask) error {
	if src == nil || dst == nil || cube == nil || mask == nil {
		return ErrNilArgument
	}
	if err := cube.Validate(); err != nil {
		return err
	}
	if err := mask.Validate(); err != nil {
		return err
	}
	if cube.Type != raster.TypeOf[S]() {
		log.Errorf("colour cube of %v for %v source", cube.Type, raster.TypeOf[S]())
		return fmt.Errorf("cube %v, source %v: %w", cube.Type, raster.TypeOf[S](), ErrTypeMismatch)
	}
	if cube.NumBands() != src.NumBands() || dst.NumBands() != 1 {
		log.Errorf("ordered dither of %d bands with a %d band cube into %d bands", src.NumBands(), cube.NumBands(), dst.NumBands())
		return fmt.Errorf("source %d, cube %d, destination %d bands: %w", src.NumBands(), cube.NumBands(), dst.NumBands(), raster.ErrBandMismatch)
	}
	if err := mask.CheckBands(src.NumBands()); err != nil {
		return err
	}
	if err := src.CheckRegion(rect); err != nil {
		return err
	}
	if err := dst.CheckRegion(rect); err != nil {
		return err
	}
	return checkIndexRange(cube, raster.TypeOf[D]())
}

// orderedPlan holds the per call quantisation parameters. Integer samples v
// map to (v+bias)*dims[b] in fixed point with shift fractional bits; the
// level is bumped when the fraction exceeds the mask threshold.
type orderedPlan struct {
	numBands int
	dims     []int
	mults    []int
	offset   int
	maskW    int
	maskH    int

	isFloat bool
	bias    int64
	shift   uint
	fixed   [][]int64
	float   [][]float64
}

func newOrderedPlan(cube *ColorCube, mask *DitherMask, t raster.ElementType) *orderedPlan {
	p := &orderedPlan{
		numBands: cube.NumBands(),
		dims:     cube.DimsLessOne,
		mults:    cube.Multipliers,
		offset:   cube.AdjustedOffset,
		maskW:    mask.Width,
		maskH:    mask.Height,
	}
	switch t {
	case raster.TypeByte:
		p.shift = 8
	case raster.TypeShort:
		p.shift, p.bias = 16, 1<<15
	case raster.TypeUShort:
		p.shift = 16
	case raster.TypeInt:
		p.shift, p.bias = 32, 1<<31
	default:
		p.isFloat = true
	}
	if p.isFloat {
		p.float = make([][]float64, p.numBands)
		for b := range p.float {
			p.float[b] = mask.band(b)
		}
	} else {
		p.fixed = mask.FixedThresholds(t, p.numBands)
	}
	return p
}

func (p *orderedPlan) lutAllowed() bool {
	return p.shift == 8 && p.numBands*p.maskH*p.maskW*256 <= lutLengthMax
}

func (p *orderedPlan) fixedLevel(b int, v int64, maskIndex int) int64 {
	tmp := (v + p.bias) * int64(p.dims[b])
	level := tmp >> p.shift
	if tmp&(1<<p.shift-1) > p.fixed[b][maskIndex] {
		level++
	}
	return level
}

func (p *orderedPlan) floatLevel(b int, v float64, maskIndex int) int64 {
	tmp := v * float64(p.dims[b])
	level := int64(tmp)
	if tmp-float64(level) > p.float[b][maskIndex] {
		level++
	}
	return level
}

func orderedDirect[S raster.Sample, D raster.Sample](src *raster.Buffer[S], dst *raster.Buffer[D], rect image.Rectangle, p *orderedPlan) {
	toDst := raster.ClampInt64[D]
	srcIdx := make([]int, p.numBands)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		maskRow := util.FloorMod(y, p.maskH) * p.maskW
		maskCol := util.FloorMod(rect.Min.X, p.maskW)
		for b := range srcIdx {
			srcIdx[b] = src.Index(rect.Min.X, y, b)
		}
		di := dst.Index(rect.Min.X, y, 0)
		d := dst.Bands[0]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			mi := maskRow + maskCol
			index := int64(p.offset)
			for b := 0; b < p.numBands; b++ {
				s := src.Bands[b][srcIdx[b]]
				var level int64
				if p.isFloat {
					level = p.floatLevel(b, float64(s), mi)
				} else {
					level = p.fixedLevel(b, int64(s), mi)
				}
				index += level * int64(p.mults[b])
				srcIdx[b] += src.PixelStride
			}
			d[di] = toDst(index)
			di += dst.PixelStride
			if maskCol++; maskCol == p.maskW {
				maskCol = 0
			}
		}
	}
}

func buildOrderedLUT(p *orderedPlan) *orderedLUT {
	lut := &orderedLUT{rowStride: p.maskW * lutColStride}
	lut.bandStride = p.maskH * lut.rowStride
	lut.data = make([]int32, p.numBands*lut.bandStride)
	maskSize := p.maskW * p.maskH

	for b := 0; b < p.numBands; b++ {
		base := b * lut.bandStride
		step, delta := p.dims[b], p.mults[b]
		sum := 0
		for gray := 0; gray < 256; gray++ {
			frac := int64(sum & 0xff)
			low := int32((sum >> 8) * delta)
			high := low + int32(delta)
			at := base + gray
			for mi := 0; mi < maskSize; mi++ {
				if frac > p.fixed[b][mi] {
					lut.data[at] = high
				} else {
					lut.data[at] = low
				}
				at += lutColStride
			}
			sum += step
		}
	}
	log.Debugf("built ordered dither LUT of %d entries", len(lut.data))
	return lut
}

func orderedWithLUT[D raster.Sample](src *raster.Buffer[uint8], dst *raster.Buffer[D], rect image.Rectangle, p *orderedPlan, cache *lutCache) {
	key := lutKey(p.dims, p.mults, p.fixed, p.maskW, p.maskH)
	lut := cache.get(key, func() *orderedLUT { return buildOrderedLUT(p) })

	toDst := raster.ClampInt64[D]
	srcIdx := make([]int, p.numBands)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		rowBase := util.FloorMod(y, p.maskH) * lut.rowStride
		rowLimit := rowBase + lut.rowStride
		col := rowBase + util.FloorMod(rect.Min.X, p.maskW)*lutColStride
		for b := range srcIdx {
			srcIdx[b] = src.Index(rect.Min.X, y, b)
		}
		di := dst.Index(rect.Min.X, y, 0)
		d := dst.Bands[0]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			index := int64(p.offset)
			at := col
			for b := 0; b < p.numBands; b++ {
				index += int64(lut.data[at+int(src.Bands[b][srcIdx[b]])])
				at += lut.bandStride
				srcIdx[b] += src.PixelStride
			}
			d[di] = toDst(index)
			di += dst.PixelStride
			if col += lutColStride; col >= rowLimit {
				col = rowBase
			}
		}
	}
}
