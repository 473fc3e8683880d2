package transpose

import (
	"errors"
	"fmt"
	"image"

	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

// TransposeBits allocates a packed buffer for the whole transposed image of
// src.
func TransposeBits(src *raster.Bits, t Type) (*raster.Bits, error) {
	dst := raster.NewBits(DestBounds(src.Rect, t))
	if err := ComputeBits(src, dst, dst.Rect, t, src.Rect); err != nil {
		return nil, err
	}
	return dst, nil
}

// ComputeBits is ComputeIn for packed binary images. Whole destination bytes
// are assembled before they are stored.
func ComputeBits(src *raster.Bits, dst *raster.Bits, destRect image.Rectangle, t Type, bounds image.Rectangle) error {
	if src == nil || dst == nil {
		return errors.New("nil buffer")
	}
	if t < FlipVertical || t > Rotate270 {
		return fmt.Errorf("%d: %w", int(t), ErrUnknownType)
	}
	destRect = destRect.Intersect(DestBounds(bounds, t))
	if destRect.Empty() {
		return nil
	}
	if err := dst.CheckRegion(destRect); err != nil {
		return err
	}
	need := SourceRect(destRect, bounds, t)
	if !need.In(src.Rect) {
		log.Errorf("binary transpose %v needs source %v, have %v", destRect, need, src.Rect)
		return fmt.Errorf("source %v of %v: %w", need, src.Rect, raster.ErrOutsideBounds)
	}

	origin := MapPoint(destRect.Min, bounds, t, false)
	along := MapPoint(destRect.Min.Add(image.Pt(1, 0)), bounds, t, false).Sub(origin)
	down := MapPoint(destRect.Min.Add(image.Pt(0, 1)), bounds, t, false).Sub(origin)
	srcLineBits := src.ScanlineStride * 8
	colStep := along.X + along.Y*srcLineBits
	rowStep := down.X + down.Y*srcLineBits

	width := destRect.Dx()
	rowStart := src.BitIndex(origin.X, origin.Y)
	for y := destRect.Min.Y; y < destRect.Max.Y; y++ {
		si := rowStart
		di := dst.BitIndex(destRect.Min.X, y)
		i := 0

		// leading bits up to a byte boundary
		for ; i < width && di&7 != 0; i++ {
			dst.SetBit(di, src.Bit(si))
			si += colStep
			di++
		}
		for ; i+8 <= width; i += 8 {
			var acc byte
			for k := 7; k >= 0; k-- {
				acc |= src.Bit(si) << uint(k)
				si += colStep
			}
			dst.Data[di>>3] = acc
			di += 8
		}
		for ; i < width; i++ {
			dst.SetBit(di, src.Bit(si))
			si += colStep
			di++
		}
		rowStart += rowStep
	}
	return nil
}
