package arith

import (
	"image"
	"math"

	"github.com/kpfaulkner/rasterkern/raster"
)

// Divide writes src1 / src2 into rect of dst.
//
// Integer quotients never fail: 0/x is 0, x/0 is the type maximum, or the
// minimum for a negative signed numerator. Floats follow IEEE 754.
func Divide[T raster.Sample](src1 *raster.Buffer[T], src2 *raster.Buffer[T], dst *raster.Buffer[T], rect image.Rectangle) error {
	return binary(src1, src2, dst, rect, divideFunc[T]())
}

// DivideSample divides a single pair with the same rules as Divide.
func DivideSample[T raster.Sample](a T, b T) T {
	return divideFunc[T]()(a, b)
}

func divideByte(a uint8, b uint8) uint8 {
	if a == 0 {
		return 0
	}
	if b == 0 {
		return math.MaxUint8
	}
	return raster.ClampRound[uint8](float64(float32(a) / float32(b)))
}

func divideFunc[T raster.Sample]() func(a T, b T) T {
	var zero T
	var f any
	switch any(zero).(type) {
	case uint8:
		table := DivideTable()
		f = func(a, b uint8) uint8 {
			return table[int(a)<<8|int(b)]
		}
	case uint16:
		round := raster.NewConverter[uint16]().Round
		f = func(a, b uint16) uint16 {
			if a == 0 {
				return 0
			}
			if b == 0 {
				return math.MaxUint16
			}
			return round(float64(float32(a) / float32(b)))
		}
	case int16:
		round := raster.NewConverter[int16]().Round
		f = func(a, b int16) int16 {
			if a == 0 {
				return 0
			}
			if b == 0 {
				if a < 0 {
					return math.MinInt16
				}
				return math.MaxInt16
			}
			return round(float64(float32(a) / float32(b)))
		}
	case int32:
		round := raster.NewConverter[int32]().Round
		f = func(a, b int32) int32 {
			if a == 0 {
				return 0
			}
			if b == 0 {
				if a < 0 {
					return math.MinInt32
				}
				return math.MaxInt32
			}
			return round(float64(a) / float64(b))
		}
	case float32:
		f = func(a, b float32) float32 {
			return a / b
		}
	default:
		f = func(a, b float64) float64 {
			return a / b
		}
	}
	return f.(func(a T, b T) T)
}
