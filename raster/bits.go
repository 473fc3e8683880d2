package raster

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
)

// Bits is a single band view of packed binary pixels, eight to a byte with the
// leftmost pixel in the most significant bit. Pixel (x, y) is bit
//
//	(y-Rect.Min.Y)*ScanlineStride*8 + BitOffset + (x-Rect.Min.X)
//
// of Data, counting from the top bit of Data[0]. ScanlineStride is in bytes.
type Bits struct {
	Data           []byte
	BitOffset      int
	ScanlineStride int
	Rect           image.Rectangle
}

// NewBits allocates a zeroed packed buffer with byte aligned rows.
func NewBits(rect image.Rectangle) *Bits {
	stride := (rect.Dx() + 7) >> 3
	return &Bits{
		Data:           make([]byte, stride*rect.Dy()),
		ScanlineStride: stride,
		Rect:           rect,
	}
}

// WrapBits builds a view over existing packed storage.
func WrapBits(data []byte, rect image.Rectangle, bitOffset int, scanlineStride int) (*Bits, error) {
	b := &Bits{Data: data, BitOffset: bitOffset, ScanlineStride: scanlineStride, Rect: rect}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// BitsFromRows packs rows of 0/1 values into a buffer at the origin. Any non
// zero value is a set pixel.
func BitsFromRows(rows [][]uint8) *Bits {
	h := len(rows)
	w := 0
	if h > 0 {
		w = len(rows[0])
	}
	b := NewBits(image.Rect(0, 0, w, h))
	for y, row := range rows {
		for x, v := range row {
			b.Set(x, y, v)
		}
	}
	return b
}

// PackBits thresholds one band of src: samples above zero become set pixels.
func PackBits[T Sample](src *Buffer[T], band int) *Bits {
	b := NewBits(src.Rect)
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		for x := src.Rect.Min.X; x < src.Rect.Max.X; x++ {
			if src.At(x, y, band) > 0 {
				b.Set(x, y, 1)
			}
		}
	}
	return b
}

func (b *Bits) Validate() error {
	if b.Rect.Empty() {
		return nil
	}
	if b.BitOffset < 0 || b.ScanlineStride <= 0 {
		log.Errorf("packed buffer bit offset %d, stride %d", b.BitOffset, b.ScanlineStride)
		return fmt.Errorf("bit offset %d, stride %d: %w", b.BitOffset, b.ScanlineStride, ErrBadLayout)
	}
	rowBytes := (b.BitOffset + b.Rect.Dx() + 7) >> 3
	if rowBytes > b.ScanlineStride {
		return fmt.Errorf("row of %d bytes in stride %d: %w", rowBytes, b.ScanlineStride, ErrBadLayout)
	}
	if need := (b.Rect.Dy()-1)*b.ScanlineStride + rowBytes; need > len(b.Data) {
		return fmt.Errorf("needs %d bytes, have %d: %w", need, len(b.Data), ErrBadLayout)
	}
	return nil
}

func (b *Bits) Bounds() image.Rectangle {
	return b.Rect
}

// BitIndex is the position of pixel (x, y) counted in bits from the top of
// Data[0].
func (b *Bits) BitIndex(x int, y int) int {
	return (y-b.Rect.Min.Y)*b.ScanlineStride*8 + b.BitOffset + x - b.Rect.Min.X
}

// Bit reads the pixel at bit index i.
func (b *Bits) Bit(i int) uint8 {
	return (b.Data[i>>3] >> (7 - uint(i&7))) & 1
}

// SetBit writes the pixel at bit index i. Any non zero v sets it.
func (b *Bits) SetBit(i int, v uint8) {
	mask := byte(0x80) >> uint(i&7)
	if v != 0 {
		b.Data[i>>3] |= mask
	} else {
		b.Data[i>>3] &^= mask
	}
}

func (b *Bits) At(x int, y int) uint8 {
	return b.Bit(b.BitIndex(x, y))
}

func (b *Bits) Set(x int, y int, v uint8) {
	b.SetBit(b.BitIndex(x, y), v)
}

// Sub returns a view of rect sharing storage with b.
func (b *Bits) Sub(rect image.Rectangle) (*Bits, error) {
	if !rect.In(b.Rect) {
		return nil, fmt.Errorf("sub %v of %v: %w", rect, b.Rect, ErrOutsideBounds)
	}
	if rect.Empty() {
		return &Bits{Rect: rect, ScanlineStride: b.ScanlineStride}, nil
	}
	first := b.BitIndex(rect.Min.X, rect.Min.Y)
	return &Bits{
		Data:           b.Data[first>>3:],
		BitOffset:      first & 7,
		ScanlineStride: b.ScanlineStride,
		Rect:           rect,
	}, nil
}

func (b *Bits) CheckRegion(rect image.Rectangle) error {
	if rect.Empty() {
		return ErrEmptyRect
	}
	if !rect.In(b.Rect) {
		log.Errorf("region %v outside packed buffer %v", rect, b.Rect)
		return fmt.Errorf("region %v of %v: %w", rect, b.Rect, ErrOutsideBounds)
	}
	return nil
}

// Equal compares bounds and pixels, ignoring layout and padding bits.
func (b *Bits) Equal(other *Bits) bool {
	if b.Rect != other.Rect {
		return false
	}
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			if b.At(x, y) != other.At(x, y) {
				return false
			}
		}
	}
	return true
}

// Unpack expands the pixels to a one band byte buffer of 0 and 1 samples.
func (b *Bits) Unpack() *Buffer[uint8] {
	out := NewBanded[uint8](b.Rect, 1)
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			out.Set(x, y, 0, b.At(x, y))
		}
	}
	return out
}
