package transpose

import (
	"image"
	"testing"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patternBits(bounds image.Rectangle) *raster.Bits {
	b := raster.NewBits(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if (x*3+y*5+x*y)%7 < 3 {
				b.Set(x, y, 1)
			}
		}
	}
	return b
}

func TestTransposeBitsMatchesBytes(t *testing.T) {
	bounds := image.Rect(3, -2, 24, 11)
	src := patternBits(bounds)
	bytes := src.Unpack()

	for _, tt := range allTypes {
		t.Run(tt.String(), func(t *testing.T) {
			want, err := Transpose(bytes, tt)
			require.NoError(t, err)

			got, err := TransposeBits(src, tt)
			require.NoError(t, err)
			assert.Equal(t, want.Rect, got.Rect)
			assert.True(t, raster.PackBits(want, 0).Equal(got))
		})
	}
}

func TestComputeBitsInTiles(t *testing.T) {
	bounds := image.Rect(0, 0, 19, 13)
	src := patternBits(bounds)

	for _, tt := range allTypes {
		t.Run(tt.String(), func(t *testing.T) {
			whole, err := TransposeBits(src, tt)
			require.NoError(t, err)

			dest := DestBounds(bounds, tt)
			tiled := raster.NewBits(dest)
			// 5 wide tiles start and end inside destination bytes
			for ty := dest.Min.Y; ty < dest.Max.Y; ty += 4 {
				for tx := dest.Min.X; tx < dest.Max.X; tx += 5 {
					tile := image.Rect(tx, ty, tx+5, ty+4).Intersect(dest)
					part, err := src.Sub(SourceRect(tile, bounds, tt))
					require.NoError(t, err)
					require.NoError(t, ComputeBits(part, tiled, tile, tt, bounds))
				}
			}
			assert.True(t, whole.Equal(tiled))
		})
	}
}

func TestComputeBitsPreconditions(t *testing.T) {
	src := patternBits(image.Rect(0, 0, 4, 3))
	dst := raster.NewBits(image.Rect(0, 0, 3, 4))

	assert.ErrorIs(t, ComputeBits(src, dst, dst.Rect, Type(-1), src.Rect), ErrUnknownType)

	part, err := src.Sub(image.Rect(0, 0, 2, 2))
	require.NoError(t, err)
	assert.ErrorIs(t, ComputeBits(part, dst, dst.Rect, Rotate90, src.Rect), raster.ErrOutsideBounds)

	small := raster.NewBits(image.Rect(0, 0, 2, 2))
	assert.ErrorIs(t, ComputeBits(src, small, image.Rect(0, 0, 3, 4), Rotate90, src.Rect), raster.ErrOutsideBounds)

	assert.NoError(t, ComputeBits(src, dst, image.Rect(9, 9, 12, 12), Rotate90, src.Rect))
	assert.Error(t, ComputeBits(nil, dst, dst.Rect, Rotate90, src.Rect))
}
