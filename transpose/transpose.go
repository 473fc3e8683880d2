package transpose

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

var ErrUnknownType = errors.New("unknown transpose type")

// Type is a flip about one of the image axes or a rotation by a multiple of
// 90 degrees. Rotations are clockwise.
type Type int

const (
	FlipVertical Type = iota
	FlipHorizontal
	FlipDiagonal
	FlipAntidiagonal
	Rotate90
	Rotate180
	Rotate270
)

var typeNames = []string{"flipv", "fliph", "flipd", "flipa", "rot90", "rot180", "rot270"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType accepts the names printed by String, case insensitively.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if strings.EqualFold(s, n) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownType)
}

// SwapsAxes reports whether t exchanges width and height.
func (t Type) SwapsAxes() bool {
	return t == FlipDiagonal || t == FlipAntidiagonal || t == Rotate90 || t == Rotate270
}

// MapPoint maps pixel p of an image with bounds to its transposed position,
// or back from the transposed position when forward is false. The
// destination image keeps the source origin.
func MapPoint(p image.Point, bounds image.Rectangle, t Type, forward bool) image.Point {
	minX, minY := bounds.Min.X, bounds.Min.Y
	maxX, maxY := bounds.Max.X-1, bounds.Max.Y-1
	sx, sy := p.X, p.Y

	switch t {
	case FlipVertical:
		return image.Pt(sx, minY+maxY-sy)
	case FlipHorizontal:
		return image.Pt(minX+maxX-sx, sy)
	case FlipDiagonal:
		return image.Pt(minX-minY+sy, minY-minX+sx)
	case FlipAntidiagonal:
		if forward {
			return image.Pt(minX+maxY-sy, minY+maxX-sx)
		}
		return image.Pt(minY+maxX-sy, minX+maxY-sx)
	case Rotate90:
		if forward {
			return image.Pt(minX+maxY-sy, minY-minX+sx)
		}
		return image.Pt(minX-minY+sy, minX+maxY-sx)
	case Rotate180:
		return image.Pt(minX+maxX-sx, minY+maxY-sy)
	case Rotate270:
		if forward {
			return image.Pt(minX-minY+sy, maxX+minY-sx)
		}
		return image.Pt(maxX+minY-sy, minY-minX+sx)
	}
	return p
}

// MapRect maps rect through MapPoint and returns the bounding rectangle of
// its corner pixels.
func MapRect(rect image.Rectangle, bounds image.Rectangle, t Type, forward bool) image.Rectangle {
	if rect.Empty() {
		return image.Rectangle{}
	}
	corners := [4]image.Point{
		rect.Min,
		image.Pt(rect.Max.X-1, rect.Min.Y),
		image.Pt(rect.Min.X, rect.Max.Y-1),
		image.Pt(rect.Max.X-1, rect.Max.Y-1),
	}
	first := MapPoint(corners[0], bounds, t, forward)
	out := image.Rectangle{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := MapPoint(c, bounds, t, forward)
		out.Min.X = min(out.Min.X, p.X)
		out.Min.Y = min(out.Min.Y, p.Y)
		out.Max.X = max(out.Max.X, p.X)
		out.Max.Y = max(out.Max.Y, p.Y)
	}
	out.Max = out.Max.Add(image.Pt(1, 1))
	return out
}

// DestBounds is the bounds of the transposed image.
func DestBounds(srcBounds image.Rectangle, t Type) image.Rectangle {
	return MapRect(srcBounds, srcBounds, t, true)
}

// SourceRect is the part of an image with bounds that destRect of the
// transposed image reads.
func SourceRect(destRect image.Rectangle, bounds image.Rectangle, t Type) image.Rectangle {
	return MapRect(destRect, bounds, t, false)
}

// Transpose allocates a banded buffer for the whole transposed image of src.
func Transpose[T raster.Sample](src *raster.Buffer[T], t Type) (*raster.Buffer[T], error) {
	dst := raster.NewBanded[T](DestBounds(src.Rect, t), src.NumBands())
	if err := Compute(src, dst, dst.Rect, t); err != nil {
		return nil, err
	}
	return dst, nil
}

// Compute writes destRect of the transposed image of src into dst. src covers
// the whole source image.
func Compute[T raster.Sample](src *raster.Buffer[T], dst *raster.Buffer[T], destRect image.Rectangle, t Type) error {
	return ComputeIn(src, dst, destRect, t, src.Rect)
}

// ComputeIn is Compute for a source image with the given bounds of which src
// holds at least SourceRect(destRect, bounds, t).
func ComputeIn[T raster.Sample](src *raster.Buffer[T], dst *raster.Buffer[T], destRect image.Rectangle, t Type, bounds image.Rectangle) error {
	if src == nil || dst == nil {
		return errors.New("nil buffer")
	}
	if t < FlipVertical || t > Rotate270 {
		return fmt.Errorf("%d: %w", int(t), ErrUnknownType)
	}
	if src.NumBands() != dst.NumBands() {
		log.Errorf("transpose of %d bands into %d", src.NumBands(), dst.NumBands())
		return fmt.Errorf("source %d, destination %d bands: %w", src.NumBands(), dst.NumBands(), raster.ErrBandMismatch)
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
		log.Errorf("transpose %v needs source %v, have %v", destRect, need, src.Rect)
		return fmt.Errorf("source %v of %v: %w", need, src.Rect, raster.ErrOutsideBounds)
	}

	// Moving one pixel along a destination row moves a fixed distance in
	// the source.
	origin := MapPoint(destRect.Min, bounds, t, false)
	along := MapPoint(destRect.Min.Add(image.Pt(1, 0)), bounds, t, false).Sub(origin)
	down := MapPoint(destRect.Min.Add(image.Pt(0, 1)), bounds, t, false).Sub(origin)
	colStep := along.X*src.PixelStride + along.Y*src.ScanlineStride
	rowStep := down.X*src.PixelStride + down.Y*src.ScanlineStride

	for b := 0; b < dst.NumBands(); b++ {
		s, d := src.Bands[b], dst.Bands[b]
		rowStart := src.Index(origin.X, origin.Y, b)
		for y := destRect.Min.Y; y < destRect.Max.Y; y++ {
			si := rowStart
			di := dst.Index(destRect.Min.X, y, b)
			for x := destRect.Min.X; x < destRect.Max.X; x++ {
				d[di] = s[si]
				si += colStep
				di += dst.PixelStride
			}
			rowStart += rowStep
		}
	}
	return nil
}
