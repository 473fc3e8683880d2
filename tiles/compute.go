package tiles

import (
	"context"
	"fmt"
	"image"

	"github.com/kpfaulkner/rasterkern/options"
	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/resample"
	"github.com/kpfaulkner/rasterkern/transpose"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RegionFunc computes one destination tile. Calls for different tiles run
// concurrently and never overlap.
type RegionFunc func(ctx context.Context, rect image.Rectangle) error

// ComputeTiled splits bounds into tiles of tileSize and runs fn on each with
// at most parallelism calls in flight. The first error cancels the tiles not
// yet started and is returned.
func ComputeTiled(ctx context.Context, bounds image.Rectangle, tileSize int, parallelism int, fn RegionFunc) error {
	if tileSize <= 0 {
		return fmt.Errorf("%d: %w", tileSize, ErrBadTileSize)
	}
	if bounds.Empty() {
		return nil
	}
	parallelism = max(parallelism, 1)
	size := image.Pt(tileSize, tileSize)
	_, t1 := TileRange(bounds, size, bounds)

	work := make(chan image.Rectangle, t1.X*t1.Y)
	for ty := 0; ty < t1.Y; ty++ {
		for tx := 0; tx < t1.X; tx++ {
			work <- TileRect(bounds, size, tx, ty)
		}
	}
	close(work)

	log.Debugf("computing %v as %d tiles on %d workers", bounds, t1.X*t1.Y, parallelism)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < parallelism; i++ {
		g.Go(func() error {
			for rect := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(ctx, rect); err != nil {
					return fmt.Errorf("tile %v: %w", rect, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Resample fills dst.Rect from a tiled source, cobbling for each destination
// tile only the source area its kernel reads.
func Resample[T raster.Sample](ctx context.Context, r *resample.Resampler, src Source[T], dst *raster.Buffer[T], opts *options.RasterOptions) error {
	opts = options.NewRasterOptions(opts)
	return ComputeTiled(ctx, dst.Rect, opts.TileSize, opts.Parallelism, func(_ context.Context, rect image.Rectangle) error {
		need := resample.BackwardMapRect(r.Mapper, rect, r.Kernel).Intersect(src.Bounds())
		if need.Empty() {
			// the whole tile falls outside the source
			return resample.ComputeRegion(r, raster.NewBanded[T](image.Rectangle{}, dst.NumBands()), dst, rect)
		}
		part, err := Cobble(src, need)
		if err != nil {
			return err
		}
		return resample.ComputeRegion(r, part, dst, rect)
	})
}

// Transpose fills dst.Rect with the transposed image of a tiled source.
func Transpose[T raster.Sample](ctx context.Context, src Source[T], dst *raster.Buffer[T], t transpose.Type, opts *options.RasterOptions) error {
	opts = options.NewRasterOptions(opts)
	bounds := src.Bounds()
	return ComputeTiled(ctx, dst.Rect.Intersect(transpose.DestBounds(bounds, t)), opts.TileSize, opts.Parallelism, func(_ context.Context, rect image.Rectangle) error {
		part, err := Cobble(src, transpose.SourceRect(rect, bounds, t))
		if err != nil {
			return err
		}
		return transpose.ComputeIn(part, dst, rect, t, bounds)
	})
}
