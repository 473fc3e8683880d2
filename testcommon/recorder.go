package testcommon

import (
	"image"
	"sync"

	"github.com/kpfaulkner/rasterkern/raster"
)

// RasterRecorder wraps a raster and records every pixel read or written
// through it.
type RasterRecorder struct {
	raster.Raster

	mu     sync.Mutex
	Reads  map[image.Point]int
	Writes map[image.Point]int
}

func NewRasterRecorder(r raster.Raster) *RasterRecorder {
	return &RasterRecorder{
		Raster: r,
		Reads:  map[image.Point]int{},
		Writes: map[image.Point]int{},
	}
}

func (r *RasterRecorder) Sample(x int, y int, band int) float64 {
	r.mu.Lock()
	r.Reads[image.Pt(x, y)]++
	r.mu.Unlock()
	return r.Raster.Sample(x, y, band)
}

func (r *RasterRecorder) SetSample(x int, y int, band int, v float64) {
	r.mu.Lock()
	r.Writes[image.Pt(x, y)]++
	r.mu.Unlock()
	r.Raster.SetSample(x, y, band, v)
}

// ReadOutside returns the points read that do not lie in any of rects.
func (r *RasterRecorder) ReadOutside(rects ...image.Rectangle) []image.Point {
	var out []image.Point
	for p := range r.Reads {
		inside := false
		for _, rect := range rects {
			if p.In(rect) {
				inside = true
				break
			}
		}
		if !inside {
			out = append(out, p)
		}
	}
	return out
}
