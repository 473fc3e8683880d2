package raster

import (
	"errors"
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
)

var (
	ErrBadLayout     = errors.New("buffer layout does not fit its storage")
	ErrBandMismatch  = errors.New("band count mismatch")
	ErrOutsideBounds = errors.New("rectangle outside buffer bounds")
	ErrEmptyRect     = errors.New("empty rectangle")
)

// Buffer is a strided view over multi-band pixel storage. Sample (x, y, b) is
// stored at
//
//	Bands[b][BandOffsets[b] + (x-Rect.Min.X)*PixelStride + (y-Rect.Min.Y)*ScanlineStride]
//
// Interleaved buffers share one slice between all bands and separate the bands
// through BandOffsets. Banded buffers have one slice per band. The buffer does
// not own its storage; operators only read and write through the strides.
type Buffer[T Sample] struct {
	Bands          [][]T
	BandOffsets    []int
	PixelStride    int
	ScanlineStride int
	Rect           image.Rectangle
}

// NewInterleaved allocates a pixel interleaved buffer covering rect.
func NewInterleaved[T Sample](rect image.Rectangle, numBands int) *Buffer[T] {
	w, h := rect.Dx(), rect.Dy()
	data := make([]T, w*h*numBands)
	b := &Buffer[T]{
		Bands:          make([][]T, numBands),
		BandOffsets:    make([]int, numBands),
		PixelStride:    numBands,
		ScanlineStride: w * numBands,
		Rect:           rect,
	}
	for i := range b.Bands {
		b.Bands[i] = data
		b.BandOffsets[i] = i
	}
	return b
}

// NewBanded allocates a buffer with a separate plane per band.
func NewBanded[T Sample](rect image.Rectangle, numBands int) *Buffer[T] {
	w, h := rect.Dx(), rect.Dy()
	b := &Buffer[T]{
		Bands:          make([][]T, numBands),
		BandOffsets:    make([]int, numBands),
		PixelStride:    1,
		ScanlineStride: w,
		Rect:           rect,
	}
	for i := range b.Bands {
		b.Bands[i] = make([]T, w*h)
	}
	return b
}

// Wrap builds an interleaved view over existing storage and checks that every
// addressable sample lies inside data.
func Wrap[T Sample](data []T, rect image.Rectangle, pixelStride int, scanlineStride int, bandOffsets []int) (*Buffer[T], error) {
	b := &Buffer[T]{
		Bands:          make([][]T, len(bandOffsets)),
		BandOffsets:    append([]int(nil), bandOffsets...),
		PixelStride:    pixelStride,
		ScanlineStride: scanlineStride,
		Rect:           rect,
	}
	for i := range b.Bands {
		b.Bands[i] = data
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// FromRows builds a single band banded buffer from row data. Handy for small
// fixtures.
func FromRows[T Sample](rows [][]T) *Buffer[T] {
	h := len(rows)
	w := 0
	if h > 0 {
		w = len(rows[0])
	}
	b := NewBanded[T](image.Rect(0, 0, w, h), 1)
	for y, row := range rows {
		copy(b.Bands[0][y*w:], row)
	}
	return b
}

// Validate checks the layout against the storage.
func (b *Buffer[T]) Validate() error {
	if len(b.Bands) == 0 || len(b.Bands) != len(b.BandOffsets) {
		log.Errorf("buffer has %d band slices and %d band offsets", len(b.Bands), len(b.BandOffsets))
		return ErrBadLayout
	}
	if b.Rect.Empty() {
		return nil
	}
	w, h := b.Rect.Dx(), b.Rect.Dy()
	for i, data := range b.Bands {
		lo, hi := b.BandOffsets[i], b.BandOffsets[i]
		for _, d := range []int{(w - 1) * b.PixelStride, (h - 1) * b.ScanlineStride} {
			if d < 0 {
				lo += d
			} else {
				hi += d
			}
		}
		if lo < 0 || hi >= len(data) {
			return fmt.Errorf("band %d addresses [%d,%d] of %d elements: %w", i, lo, hi, len(data), ErrBadLayout)
		}
	}
	return nil
}

func (b *Buffer[T]) NumBands() int {
	return len(b.Bands)
}

func (b *Buffer[T]) Bounds() image.Rectangle {
	return b.Rect
}

func (b *Buffer[T]) ElementType() ElementType {
	return TypeOf[T]()
}

// Index returns the storage index of sample (x, y, band) within Bands[band].
func (b *Buffer[T]) Index(x int, y int, band int) int {
	return b.BandOffsets[band] + (x-b.Rect.Min.X)*b.PixelStride + (y-b.Rect.Min.Y)*b.ScanlineStride
}

// At fetches sample (x, y, band). The caller guarantees (x, y) is inside Rect.
func (b *Buffer[T]) At(x int, y int, band int) T {
	return b.Bands[band][b.Index(x, y, band)]
}

func (b *Buffer[T]) Set(x int, y int, band int, v T) {
	b.Bands[band][b.Index(x, y, band)] = v
}

// Sample fetches sample (x, y, band) widened to float64. Unsigned types keep
// their unsigned value.
func (b *Buffer[T]) Sample(x int, y int, band int) float64 {
	return float64(b.At(x, y, band))
}

// SetSample stores v using the general round-and-clamp rule of T.
func (b *Buffer[T]) SetSample(x int, y int, band int, v float64) {
	b.Set(x, y, band, ClampRound[T](v))
}

// Fill sets every sample of band inside rect to v.
func (b *Buffer[T]) Fill(rect image.Rectangle, band int, v T) {
	rect = rect.Intersect(b.Rect)
	data := b.Bands[band]
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		idx := b.Index(rect.Min.X, y, band)
		for x := rect.Min.X; x < rect.Max.X; x++ {
			data[idx] = v
			idx += b.PixelStride
		}
	}
}

// Sub returns a view of the part of b inside rect sharing b's storage.
func (b *Buffer[T]) Sub(rect image.Rectangle) (*Buffer[T], error) {
	if !rect.In(b.Rect) {
		return nil, fmt.Errorf("sub %v of %v: %w", rect, b.Rect, ErrOutsideBounds)
	}
	s := &Buffer[T]{
		Bands:          b.Bands,
		BandOffsets:    make([]int, len(b.BandOffsets)),
		PixelStride:    b.PixelStride,
		ScanlineStride: b.ScanlineStride,
		Rect:           rect,
	}
	for i := range s.BandOffsets {
		s.BandOffsets[i] = b.Index(rect.Min.X, rect.Min.Y, i)
	}
	return s, nil
}

// CopyFrom copies the samples of src that overlap rect into b.
func (b *Buffer[T]) CopyFrom(src *Buffer[T], rect image.Rectangle) error {
	if src.NumBands() != b.NumBands() {
		return fmt.Errorf("copy %d bands into %d: %w", src.NumBands(), b.NumBands(), ErrBandMismatch)
	}
	rect = rect.Intersect(b.Rect).Intersect(src.Rect)
	for band := range b.Bands {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			si := src.Index(rect.Min.X, y, band)
			di := b.Index(rect.Min.X, y, band)
			for x := rect.Min.X; x < rect.Max.X; x++ {
				b.Bands[band][di] = src.Bands[band][si]
				si += src.PixelStride
				di += b.PixelStride
			}
		}
	}
	return nil
}

// Equal reports whether a and b hold the same samples over the same bounds.
func (b *Buffer[T]) Equal(other *Buffer[T]) bool {
	if other == nil || b.Rect != other.Rect || b.NumBands() != other.NumBands() {
		return false
	}
	for band := range b.Bands {
		for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
			for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
				av, bv := b.At(x, y, band), other.At(x, y, band)
				if av != bv && !(av != av && bv != bv) {
					return false
				}
			}
		}
	}
	return true
}

// Clone returns a banded deep copy of b.
func (b *Buffer[T]) Clone() *Buffer[T] {
	c := NewBanded[T](b.Rect, b.NumBands())
	_ = c.CopyFrom(b, b.Rect)
	return c
}

// CheckRegion verifies rect is non-empty and inside b.
func (b *Buffer[T]) CheckRegion(rect image.Rectangle) error {
	if rect.Empty() {
		return ErrEmptyRect
	}
	if !rect.In(b.Rect) {
		log.Errorf("region %v outside buffer %v", rect, b.Rect)
		return fmt.Errorf("region %v of %v: %w", rect, b.Rect, ErrOutsideBounds)
	}
	return nil
}
