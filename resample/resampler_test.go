package resample

import (
	"image"
	"math"
	"testing"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/testcommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"
)

func TestBilinearHalfScale(t *testing.T) {
	src := raster.FromRows([][]uint8{
		{10, 20, 30, 40},
		{50, 60, 70, 80},
		{90, 100, 110, 120},
		{130, 140, 150, 160},
	})
	dst := raster.NewInterleaved[uint8](image.Rect(0, 0, 2, 2), 1)

	r, err := Scale(NewRational(1, 2), NewRational(1, 2), Int(0), Int(0), Bilinear(8), NoFill())
	require.NoError(t, err)
	require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))

	assert.Equal(t, [][]uint8{{35, 55}, {115, 135}}, testcommon.Rows(dst, 0))
}

func TestBilinearHalfScaleAffine(t *testing.T) {
	src := raster.FromRows([][]uint8{
		{10, 20, 30, 40},
		{50, 60, 70, 80},
		{90, 100, 110, 120},
		{130, 140, 150, 160},
	})
	dst := raster.NewInterleaved[uint8](image.Rect(0, 0, 2, 2), 1)

	r, err := Affine(f64.Aff3{0.5, 0, 0, 0, 0.5, 0}, Bilinear(8), NoFill())
	require.NoError(t, err)
	require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))

	assert.Equal(t, [][]uint8{{35, 55}, {115, 135}}, testcommon.Rows(dst, 0))
}

func identityCheck[T raster.Sample](t *testing.T, kernel Kernel) {
	rect := image.Rect(0, 0, 9, 7)
	src := testcommon.InterleavedRamp[T](rect, 3, func(x, y, b int) float64 {
		return float64(x*7 + y*3 + b)
	})
	interior := image.Rect(kernel.LeftPadding(), kernel.TopPadding(), rect.Max.X-kernel.RightPadding(), rect.Max.Y-kernel.BottomPadding())

	for _, mapper := range []Mapper{
		&ScaleMapper{ScaleX: Int(1), ScaleY: Int(1), TransX: Int(0), TransY: Int(0)},
		NewInverseAffineMapper(f64.Aff3{1, 0, 0, 0, 1, 0}),
	} {
		dst := raster.NewBanded[T](rect, 3)
		r, err := New(mapper, kernel, NoFill())
		require.NoError(t, err)
		require.NoError(t, ComputeRegion(r, src, dst, interior))

		for b := 0; b < 3; b++ {
			for y := interior.Min.Y; y < interior.Max.Y; y++ {
				for x := interior.Min.X; x < interior.Max.X; x++ {
					assert.Equal(t, src.At(x, y, b), dst.At(x, y, b), "%T (%d,%d,%d)", mapper, x, y, b)
				}
			}
		}
	}
}

func TestIdentity(t *testing.T) {
	table, err := NewBicubicTable(8, 8)
	require.NoError(t, err)

	for _, kernel := range []Kernel{Nearest(), Bilinear(8), Bicubic(table), TableKernel(table)} {
		t.Run(kernel.Kind.String(), func(t *testing.T) {
			identityCheck[uint8](t, kernel)
			identityCheck[uint16](t, kernel)
			identityCheck[int16](t, kernel)
			identityCheck[int32](t, kernel)
			identityCheck[float32](t, kernel)
			identityCheck[float64](t, kernel)
		})
	}
}

// halfway samples the midpoint between the two pixels of a 2x2 source.
func halfway[T raster.Sample](t *testing.T, a T, b T) T {
	src := raster.FromRows([][]T{{a, b}, {a, b}})
	dst := raster.NewBanded[T](image.Rect(0, 0, 1, 1), 1)
	r, err := Warp(func(dstX int, dstY int, width int, coords []float64) {
		for i := 0; i < width; i++ {
			coords[2*i], coords[2*i+1] = 1.0, 0.5
		}
	}, Bilinear(8), NoFill())
	require.NoError(t, err)
	require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))
	return dst.At(0, 0, 0)
}

func TestBilinearRounding(t *testing.T) {
	assert.Equal(t, uint8(2), halfway[uint8](t, 1, 2))
	assert.Equal(t, uint8(3), halfway[uint8](t, 2, 3))
	assert.Equal(t, uint16(65535), halfway[uint16](t, 65534, 65535))
	assert.Equal(t, int16(2), halfway[int16](t, 1, 2))
	assert.Equal(t, int16(-2), halfway[int16](t, -1, -2))
	assert.Equal(t, int16(-3), halfway[int16](t, -2, -3))
	assert.Equal(t, int32(-2), halfway[int32](t, -1, -2))
	assert.Equal(t, int32(2), halfway[int32](t, 1, 2))
	assert.Equal(t, float32(1.5), halfway[float32](t, 1, 2))
	assert.Equal(t, -1.5, halfway[float64](t, -1, -2))
}

func TestNearestUpscale(t *testing.T) {
	src := raster.FromRows([][]int16{
		{1, 2},
		{3, 4},
	})
	dst := raster.NewBanded[int16](image.Rect(0, 0, 4, 4), 1)
	r, err := Scale(Int(2), Int(2), Int(0), Int(0), Nearest(), FillWith(-1))
	require.NoError(t, err)
	require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))

	assert.Equal(t, [][]int16{
		{1, 1, 2, 2},
		{1, 1, 2, 2},
		{3, 3, 4, 4},
		{3, 3, 4, 4},
	}, testcommon.Rows(dst, 0))
}

func TestAffineTranslateNearest(t *testing.T) {
	src := testcommon.Ramp[uint8](image.Rect(0, 0, 5, 5), 1, func(x, y, _ int) float64 {
		return float64(10*y + x)
	})
	dst := raster.NewBanded[uint8](image.Rect(0, 0, 5, 5), 1)
	r, err := Affine(f64.Aff3{1, 0, 1, 0, 1, 2}, Nearest(), FillWith(255))
	require.NoError(t, err)
	require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if x < 1 || y < 2 {
				assert.Equal(t, uint8(255), dst.At(x, y, 0))
				continue
			}
			assert.Equal(t, src.At(x-1, y-2, 0), dst.At(x, y, 0), "(%d,%d)", x, y)
		}
	}
}

func TestBicubicRamp(t *testing.T) {
	table, err := NewBicubicTable(8, 8)
	require.NoError(t, err)

	src := testcommon.Ramp[uint8](image.Rect(0, 0, 8, 6), 1, func(x, _, _ int) float64 {
		return float64(10 * x)
	})
	dst := testcommon.Sentinel(raster.NewBanded[uint8](image.Rect(0, 0, 8, 6), 1), 7)

	// sample half way between x and x+1
	r, err := Scale(Int(1), Int(1), NewRational(-1, 2), Int(0), Bicubic(table), NoFill())
	require.NoError(t, err)
	require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))

	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			if x >= 1 && x <= 5 && y >= 1 && y <= 3 {
				assert.Equal(t, uint8(10*x+5), dst.At(x, y, 0), "(%d,%d)", x, y)
			} else {
				assert.Equal(t, uint8(7), dst.At(x, y, 0), "(%d,%d) should be untouched", x, y)
			}
		}
	}
}

func TestTableKernelMatchesBicubicFloat(t *testing.T) {
	table, err := NewBicubic2Table(6, 12)
	require.NoError(t, err)

	src := testcommon.Ramp[float64](image.Rect(0, 0, 12, 12), 2, func(x, y, b int) float64 {
		return math.Sin(float64(x)*0.7) + math.Cos(float64(y)*0.3) + float64(b)
	})
	a := raster.NewBanded[float64](image.Rect(0, 0, 9, 9), 2)
	b := raster.NewBanded[float64](image.Rect(0, 0, 9, 9), 2)

	ra, err := Scale(NewRational(3, 4), NewRational(4, 5), NewRational(1, 3), Int(0), Bicubic(table), FillWith(0))
	require.NoError(t, err)
	rb, err := Scale(NewRational(3, 4), NewRational(4, 5), NewRational(1, 3), Int(0), TableKernel(table), FillWith(0))
	require.NoError(t, err)

	require.NoError(t, ComputeRegion(ra, src, a, a.Rect))
	require.NoError(t, ComputeRegion(rb, src, b, b.Rect))
	assert.True(t, a.Equal(b))
}

func TestGeneralKernelMatchesBilinearFloat(t *testing.T) {
	lerp := General(2, 2, 0, 0, 0, func(s []float64, _ int, _ int, xf float64, yf float64) float64 {
		s0 := s[0] + (s[1]-s[0])*xf
		s1 := s[2] + (s[3]-s[2])*xf
		return s0 + (s1-s0)*yf
	})
	src := testcommon.Ramp[float32](image.Rect(0, 0, 10, 10), 1, func(x, y, _ int) float64 {
		return float64(x*x + 3*y)
	})
	a := raster.NewBanded[float32](image.Rect(0, 0, 7, 7), 1)
	b := raster.NewBanded[float32](image.Rect(0, 0, 7, 7), 1)

	fwd := f64.Aff3{0.6, 0.1, 0.2, -0.05, 0.7, 0.4}
	ra, err := Affine(fwd, lerp, FillWith(-1))
	require.NoError(t, err)
	rb, err := Affine(fwd, Bilinear(8), FillWith(-1))
	require.NoError(t, err)

	require.NoError(t, ComputeRegion(ra, src, a, a.Rect))
	require.NoError(t, ComputeRegion(rb, src, b, b.Rect))
	assert.True(t, a.Equal(b))
}

func TestOutOfSource(t *testing.T) {
	src := testcommon.Constant[uint16](image.Rect(0, 0, 4, 4), 2, 9)

	t.Run("fill", func(t *testing.T) {
		dst := raster.NewInterleaved[uint16](image.Rect(100, 100, 103, 103), 2)
		r, err := Scale(Int(1), Int(1), Int(0), Int(0), Bilinear(8), FillWith(1, 70000))
		require.NoError(t, err)
		require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))
		for y := 100; y < 103; y++ {
			for x := 100; x < 103; x++ {
				assert.Equal(t, uint16(1), dst.At(x, y, 0))
				assert.Equal(t, uint16(65535), dst.At(x, y, 1))
			}
		}
	})

	t.Run("no fill", func(t *testing.T) {
		dst := testcommon.Sentinel(raster.NewInterleaved[uint16](image.Rect(100, 100, 103, 103), 2), 5)
		r, err := Scale(Int(1), Int(1), Int(0), Int(0), Bilinear(8), NoFill())
		require.NoError(t, err)
		require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))
		assert.True(t, testcommon.Constant[uint16](dst.Rect, 2, 5).Equal(dst))
	})
}

func TestNonFiniteWarp(t *testing.T) {
	src := testcommon.Constant[float32](image.Rect(0, 0, 4, 4), 1, 3)
	dst := raster.NewBanded[float32](image.Rect(0, 0, 4, 1), 1)

	r, err := Warp(func(dstX int, dstY int, width int, coords []float64) {
		bad := []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300}
		for i := 0; i < width; i++ {
			coords[2*i], coords[2*i+1] = bad[dstX+i], 1
		}
	}, Nearest(), FillWith(-2))
	require.NoError(t, err)
	require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))
	assert.Equal(t, [][]float32{{-2, -2, -2, -2}}, testcommon.Rows(dst, 0))

	aff := NewInverseAffineMapper(f64.Aff3{math.NaN(), 0, 0, 0, 1, 0})
	r, err = New(aff, Bilinear(8), FillWith(-3))
	require.NoError(t, err)
	require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))
	assert.Equal(t, [][]float32{{-3, -3, -3, -3}}, testcommon.Rows(dst, 0))
}

func TestWarpIdentities(t *testing.T) {
	poly, err := NewPolynomialWarp([]float64{0, 1, 0}, []float64{0, 0, 1}, 1, 1, 1, 1)
	require.NoError(t, err)
	grid, err := NewGridWarp(GridWarp{
		XStart: 0, XStep: 4, XNumCells: 2,
		YStart: 0, YStep: 3, YNumCells: 2,
		Positions: []float64{
			0.5, 0.5, 4.5, 0.5, 8.5, 0.5,
			0.5, 3.5, 4.5, 3.5, 8.5, 3.5,
			0.5, 6.5, 4.5, 6.5, 8.5, 6.5,
		},
	})
	require.NoError(t, err)

	src := testcommon.Ramp[int16](image.Rect(0, 0, 10, 8), 1, func(x, y, _ int) float64 {
		return float64(x*100 - y*50)
	})
	for name, m := range map[string]*WarpMapper{"polynomial": poly, "grid": grid} {
		t.Run(name, func(t *testing.T) {
			dst := raster.NewBanded[int16](image.Rect(0, 0, 9, 7), 1)
			r, err := New(m, Bilinear(8), FillWith(0))
			require.NoError(t, err)
			require.NoError(t, ComputeRegion(r, src, dst, dst.Rect))
			sub, err := src.Sub(dst.Rect)
			require.NoError(t, err)
			assert.True(t, sub.Clone().Equal(dst))
		})
	}

	_, err = NewPolynomialWarp([]float64{0, 1}, []float64{0, 1}, 1, 1, 1, 1)
	assert.ErrorIs(t, err, ErrBadWarp)
	_, err = NewGridWarp(GridWarp{XStep: 1, XNumCells: 1, YStep: 1, YNumCells: 1, Positions: []float64{1}})
	assert.ErrorIs(t, err, ErrBadWarp)
}

func TestPolynomialWarpQuadratic(t *testing.T) {
	// sx = 2 + x*y, sy = y^2
	m, err := NewPolynomialWarp([]float64{2, 0, 0, 0, 1, 0}, []float64{0, 0, 0, 0, 0, 1}, 1, 1, 1, 1)
	require.NoError(t, err)
	sx, sy := m.Map(1.5, 2.5)
	assert.InDelta(t, 2+1.5*2.5, sx, 1e-12)
	assert.InDelta(t, 6.25, sy, 1e-12)
}

func TestPreconditions(t *testing.T) {
	src := testcommon.Constant[uint8](image.Rect(0, 0, 4, 4), 3, 1)
	r, err := Scale(Int(1), Int(1), Int(0), Int(0), Nearest(), FillWith(0, 0))
	require.NoError(t, err)

	dst := testcommon.Sentinel(raster.NewInterleaved[uint8](image.Rect(0, 0, 4, 4), 3), 42)
	assert.ErrorIs(t, ComputeRegion(r, src, dst, dst.Rect), ErrBackgroundBands)
	assert.True(t, testcommon.Constant[uint8](dst.Rect, 3, 42).Equal(dst))

	r.Background = NoFill()
	assert.ErrorIs(t, ComputeRegion(r, src, dst, image.Rect(2, 2, 6, 6)), raster.ErrOutsideBounds)
	assert.ErrorIs(t, ComputeRegion(r, src, raster.NewInterleaved[uint8](dst.Rect, 1), dst.Rect), raster.ErrBandMismatch)

	_, err = Scale(Int(0), Int(1), Int(0), Int(0), Nearest(), NoFill())
	assert.ErrorIs(t, err, ErrZeroScale)
	_, err = Affine(f64.Aff3{1, 2, 0, 2, 4, 0}, Nearest(), NoFill())
	assert.ErrorIs(t, err, ErrSingular)
	_, err = New(nil, Nearest(), NoFill())
	assert.ErrorIs(t, err, ErrNilMapper)
	_, err = New(NewInverseAffineMapper(f64.Aff3{1, 0, 0, 0, 1, 0}), Bilinear(0), NoFill())
	assert.ErrorIs(t, err, ErrBadKernel)
	_, err = New(NewInverseAffineMapper(f64.Aff3{1, 0, 0, 0, 1, 0}), Bicubic(nil), NoFill())
	assert.ErrorIs(t, err, ErrBadKernel)
}

func TestBounds(t *testing.T) {
	m, err := NewScaleMapper(NewRational(1, 2), NewRational(1, 2), Int(0), Int(0))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), DestBounds(m, image.Rect(0, 0, 4, 4)))
	assert.Equal(t, image.Rect(0, 0, 4, 4), BackwardMapRect(m, image.Rect(0, 0, 2, 2), Bilinear(8)))

	table, err := NewBicubicTable(4, 8)
	require.NoError(t, err)
	id := NewInverseAffineMapper(f64.Aff3{1, 0, 0, 0, 1, 0})
	assert.Equal(t, image.Rect(9, 19, 13, 23), BackwardMapRect(id, image.Rect(10, 20, 11, 21), Bicubic(table)))

	fwd, err := ForwardMapRect(NewInverseAffineMapper(f64.Aff3{1, 0, -3, 0, 1, -4}), image.Rect(0, 0, 5, 5))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(3, 4, 8, 9), fwd)
}

func TestBicubicTableSums(t *testing.T) {
	for _, build := range []func(int, int) (*Table, error){NewBicubicTable, NewBicubic2Table} {
		table, err := build(5, 10)
		require.NoError(t, err)
		for phase := 0; phase < 1<<5; phase++ {
			sum := 0.0
			for i := 0; i < 4; i++ {
				sum += table.DataH[phase*4+i]
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		}
	}

	_, err := NewTable(0, 0, 2, 2, 1, 1, 8, []float64{1, 0, 0.5}, nil)
	assert.ErrorIs(t, err, ErrBadTable)
}

func BenchmarkBilinearByte(b *testing.B) {
	src := testcommon.InterleavedRamp[uint8](image.Rect(0, 0, 512, 512), 3, func(x, y, band int) float64 {
		return float64((x + y*band) & 0xff)
	})
	dst := raster.NewInterleaved[uint8](image.Rect(0, 0, 384, 384), 3)
	r, err := Scale(NewRational(3, 4), NewRational(3, 4), Int(0), Int(0), Bilinear(8), FillWith(0))
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ComputeRegion(r, src, dst, dst.Rect)
	}
}
