package testcommon

import (
	"image"

	"github.com/kpfaulkner/rasterkern/raster"
)

// Ramp returns a banded buffer where sample (x, y, b) is fn(x, y, b).
func Ramp[T raster.Sample](rect image.Rectangle, numBands int, fn func(x int, y int, band int) float64) *raster.Buffer[T] {
	b := raster.NewBanded[T](rect, numBands)
	for band := 0; band < numBands; band++ {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				b.Set(x, y, band, T(fn(x, y, band)))
			}
		}
	}
	return b
}

// InterleavedRamp is Ramp laid out pixel interleaved.
func InterleavedRamp[T raster.Sample](rect image.Rectangle, numBands int, fn func(x int, y int, band int) float64) *raster.Buffer[T] {
	b := raster.NewInterleaved[T](rect, numBands)
	if err := b.CopyFrom(Ramp[T](rect, numBands, fn), rect); err != nil {
		panic(err)
	}
	return b
}

// Constant returns a buffer with every sample set to v.
func Constant[T raster.Sample](rect image.Rectangle, numBands int, v T) *raster.Buffer[T] {
	b := raster.NewInterleaved[T](rect, numBands)
	for band := 0; band < numBands; band++ {
		b.Fill(rect, band, v)
	}
	return b
}

// Sentinel fills every band of b with v so tests can tell untouched samples
// apart from written ones.
func Sentinel[T raster.Sample](b *raster.Buffer[T], v T) *raster.Buffer[T] {
	for band := 0; band < b.NumBands(); band++ {
		b.Fill(b.Rect, band, v)
	}
	return b
}

// Rows reads band of b back as row slices.
func Rows[T raster.Sample](b *raster.Buffer[T], band int) [][]T {
	rows := make([][]T, b.Rect.Dy())
	for y := range rows {
		rows[y] = make([]T, b.Rect.Dx())
		for x := range rows[y] {
			rows[y][x] = b.At(b.Rect.Min.X+x, b.Rect.Min.Y+y, band)
		}
	}
	return rows
}
