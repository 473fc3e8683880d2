package testcommon

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/kpfaulkner/rasterkern/raster"
)

// FakeTileSource serves tiles of a fixed size cut out of a backing buffer and
// counts requests. Tiles listed in Fail return an error.
type FakeTileSource[T raster.Sample] struct {
	Backing *raster.Buffer[T]
	Size    image.Point
	Fail    map[image.Point]bool

	requests atomic.Int64
}

func NewFakeTileSource[T raster.Sample](backing *raster.Buffer[T], tileW int, tileH int) *FakeTileSource[T] {
	return &FakeTileSource[T]{Backing: backing, Size: image.Pt(tileW, tileH), Fail: map[image.Point]bool{}}
}

func (f *FakeTileSource[T]) Bounds() image.Rectangle {
	return f.Backing.Rect
}

func (f *FakeTileSource[T]) TileSize() image.Point {
	return f.Size
}

func (f *FakeTileSource[T]) Tile(tx int, ty int) (*raster.Buffer[T], error) {
	f.requests.Add(1)
	if f.Fail[image.Pt(tx, ty)] {
		return nil, fmt.Errorf("tile %d,%d unavailable", tx, ty)
	}
	origin := f.Backing.Rect.Min
	rect := image.Rect(tx*f.Size.X, ty*f.Size.Y, (tx+1)*f.Size.X, (ty+1)*f.Size.Y).Add(origin).Intersect(f.Backing.Rect)
	t, err := f.Backing.Sub(rect)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

func (f *FakeTileSource[T]) Requests() int64 {
	return f.requests.Load()
}
