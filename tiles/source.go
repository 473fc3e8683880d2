package tiles

import (
	"errors"
	"fmt"
	"image"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/util"
	log "github.com/sirupsen/logrus"
)

var ErrBadTileSize = errors.New("tile size must be positive")

// Source supplies an image in tiles. Tile (tx, ty) covers
//
//	[Bounds().Min + (tx, ty)*TileSize(), + TileSize()) clipped to Bounds()
//
// Tiles may be views shared with the source and must not be modified.
type Source[T raster.Sample] interface {
	Bounds() image.Rectangle
	TileSize() image.Point
	Tile(tx int, ty int) (*raster.Buffer[T], error)
}

// MemorySource serves tiles as views into one buffer.
type MemorySource[T raster.Sample] struct {
	buf  *raster.Buffer[T]
	size image.Point
}

func NewMemorySource[T raster.Sample](buf *raster.Buffer[T], tileW int, tileH int) (*MemorySource[T], error) {
	if tileW <= 0 || tileH <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", tileW, tileH, ErrBadTileSize)
	}
	return &MemorySource[T]{buf: buf, size: image.Pt(tileW, tileH)}, nil
}

func (m *MemorySource[T]) Bounds() image.Rectangle {
	return m.buf.Rect
}

func (m *MemorySource[T]) TileSize() image.Point {
	return m.size
}

func (m *MemorySource[T]) Tile(tx int, ty int) (*raster.Buffer[T], error) {
	return m.buf.Sub(TileRect(m.buf.Rect, m.size, tx, ty))
}

// TileRect is the area of tile (tx, ty) in a grid of size anchored at
// bounds.Min, clipped to bounds.
func TileRect(bounds image.Rectangle, size image.Point, tx int, ty int) image.Rectangle {
	origin := bounds.Min.Add(image.Pt(tx*size.X, ty*size.Y))
	return image.Rectangle{Min: origin, Max: origin.Add(size)}.Intersect(bounds)
}

// TileRange returns the tile indices [t0, t1) whose tiles overlap rect.
func TileRange(bounds image.Rectangle, size image.Point, rect image.Rectangle) (t0 image.Point, t1 image.Point) {
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return image.Point{}, image.Point{}
	}
	o := bounds.Min
	t0 = image.Pt(util.FloorDiv(rect.Min.X-o.X, size.X), util.FloorDiv(rect.Min.Y-o.Y, size.Y))
	t1 = image.Pt(util.FloorDiv(rect.Max.X-1-o.X, size.X)+1, util.FloorDiv(rect.Max.Y-1-o.Y, size.Y)+1)
	return t0, t1
}

// Cobble returns a buffer holding rect of src, clipped to the source bounds.
// When one tile covers the region its view is returned directly; otherwise
// the overlapping tiles are copied into a new interleaved buffer.
func Cobble[T raster.Sample](src Source[T], rect image.Rectangle) (*raster.Buffer[T], error) {
	size := src.TileSize()
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%v: %w", size, ErrBadTileSize)
	}
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("cobble %v of %v: %w", rect, src.Bounds(), raster.ErrEmptyRect)
	}

	t0, t1 := TileRange(src.Bounds(), size, rect)
	if t1.Sub(t0) == image.Pt(1, 1) {
		tile, err := src.Tile(t0.X, t0.Y)
		if err != nil {
			return nil, fmt.Errorf("tile %v: %w", t0, err)
		}
		return tile.Sub(rect)
	}

	var out *raster.Buffer[T]
	for ty := t0.Y; ty < t1.Y; ty++ {
		for tx := t0.X; tx < t1.X; tx++ {
			tile, err := src.Tile(tx, ty)
			if err != nil {
				log.Errorf("cobble %v: tile %d,%d: %v", rect, tx, ty, err)
				return nil, fmt.Errorf("tile %d,%d: %w", tx, ty, err)
			}
			if out == nil {
				out = raster.NewInterleaved[T](rect, tile.NumBands())
			}
			if err := out.CopyFrom(tile, rect.Intersect(tile.Rect)); err != nil {
				return nil, err
			}
		}
	}
	log.Debugf("cobbled %v from %d tiles", rect, (t1.X-t0.X)*(t1.Y-t0.Y))
	return out, nil
}
