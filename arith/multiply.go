package arith

import (
	"image"

	"github.com/kpfaulkner/rasterkern/raster"
)

// Multiply writes src1 * src2 into rect of dst, clamping integer
// products to the element range.
func Multiply[T raster.Sample](src1 *raster.Buffer[T], src2 *raster.Buffer[T], dst *raster.Buffer[T], rect image.Rectangle) error {
	return binary(src1, src2, dst, rect, multiplyFunc[T]())
}

func MultiplySample[T raster.Sample](a T, b T) T {
	return multiplyFunc[T]()(a, b)
}

func multiplyFunc[T raster.Sample]() func(a T, b T) T {
	var zero T
	var f any
	switch any(zero).(type) {
	case uint8:
		table := MultiplyTable()
		f = func(a, b uint8) uint8 {
			return table[int(a)<<8|int(b)]
		}
	case float32:
		f = func(a, b float32) float32 {
			return a * b
		}
	case float64:
		f = func(a, b float64) float64 {
			return a * b
		}
	default:
		// u16, i16 and i32 products all fit in int64
		f = func(a, b T) T {
			return raster.ClampInt64[T](int64(a) * int64(b))
		}
	}
	return f.(func(a T, b T) T)
}
