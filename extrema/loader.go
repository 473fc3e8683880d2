package extrema

import (
	"github.com/kpfaulkner/rasterkern/raster"
)

// rowLoader appends n samples of band, taken every step pixels from (x, y),
// to row.
type rowLoader func(row []float64, x int, y int, band int, n int, step int) []float64

func bufferLoader[T raster.Sample](b *raster.Buffer[T]) rowLoader {
	return func(row []float64, x int, y int, band int, n int, step int) []float64 {
		data := b.Bands[band]
		i := b.Index(x, y, band)
		inc := b.PixelStride * step
		for ; n > 0; n-- {
			row = append(row, float64(data[i]))
			i += inc
		}
		return row
	}
}

func sampleLoader(r raster.Raster) rowLoader {
	return func(row []float64, x int, y int, band int, n int, step int) []float64 {
		for ; n > 0; n-- {
			row = append(row, r.Sample(x, y, band))
			x += step
		}
		return row
	}
}
