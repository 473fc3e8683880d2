package raster

import (
	"image"
)

// Raster is the type erased view of a Buffer. It is used where operators have
// to dispatch over element types at run time, for example when checking that
// two sources agree before any pixel work starts.
type Raster interface {
	ElementType() ElementType
	NumBands() int
	Bounds() image.Rectangle
	Sample(x int, y int, band int) float64
	SetSample(x int, y int, band int, v float64)
}

var (
	_ Raster = (*Buffer[uint8])(nil)
	_ Raster = (*Buffer[uint16])(nil)
	_ Raster = (*Buffer[int16])(nil)
	_ Raster = (*Buffer[int32])(nil)
	_ Raster = (*Buffer[float32])(nil)
	_ Raster = (*Buffer[float64])(nil)
)

// NewOfType allocates an interleaved buffer of the given element type.
func NewOfType(t ElementType, rect image.Rectangle, numBands int) Raster {
	switch t {
	case TypeByte:
		return NewInterleaved[uint8](rect, numBands)
	case TypeUShort:
		return NewInterleaved[uint16](rect, numBands)
	case TypeShort:
		return NewInterleaved[int16](rect, numBands)
	case TypeInt:
		return NewInterleaved[int32](rect, numBands)
	case TypeFloat:
		return NewInterleaved[float32](rect, numBands)
	default:
		return NewInterleaved[float64](rect, numBands)
	}
}

// SameType reports whether all rasters share one element type.
func SameType(rasters ...Raster) bool {
	if len(rasters) == 0 {
		return true
	}
	for _, r := range rasters[1:] {
		if r.ElementType() != rasters[0].ElementType() {
			return false
		}
	}
	return true
}
