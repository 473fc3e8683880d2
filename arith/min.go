package arith

import (
	"image"
	"math"

	"github.com/kpfaulkner/rasterkern/raster"
)

// Min writes the smaller of src1 and src2 into rect of dst.
func Min[T raster.Sample](src1 *raster.Buffer[T], src2 *raster.Buffer[T], dst *raster.Buffer[T], rect image.Rectangle) error {
	return binary(src1, src2, dst, rect, minFunc[T]())
}

func MinSample[T raster.Sample](a T, b T) T {
	return minFunc[T]()(a, b)
}

// MinFloat64 returns NaN if either argument is NaN and treats -0 as smaller
// than +0.
func MinFloat64(a float64, b float64) float64 {
	if a != a {
		return a
	}
	if a == 0 && b == 0 && math.Signbit(b) {
		return b
	}
	if a <= b {
		return a
	}
	return b
}

func MinFloat32(a float32, b float32) float32 {
	return float32(MinFloat64(float64(a), float64(b)))
}

func minFunc[T raster.Sample]() func(a T, b T) T {
	var zero T
	var f any
	switch any(zero).(type) {
	case uint8:
		table := MinTable()
		f = func(a, b uint8) uint8 {
			return table[int(a)<<8|int(b)]
		}
	case float32:
		f = MinFloat32
	case float64:
		f = MinFloat64
	default:
		f = func(a, b T) T {
			if a <= b {
				return a
			}
			return b
		}
	}
	return f.(func(a T, b T) T)
}
