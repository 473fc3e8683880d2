package arith

import (
	"image"
	"math"
	"sync"
	"testing"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/testcommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivideSample(t *testing.T) {
	assert.Equal(t, uint8(0), DivideSample[uint8](0, 0))
	assert.Equal(t, uint8(255), DivideSample[uint8](5, 0))
	assert.Equal(t, uint8(3), DivideSample[uint8](10, 4))
	assert.Equal(t, uint8(0), DivideSample[uint8](0, 9))

	assert.Equal(t, uint16(0), DivideSample[uint16](0, 0))
	assert.Equal(t, uint16(65535), DivideSample[uint16](5, 0))
	assert.Equal(t, uint16(3), DivideSample[uint16](10, 4))

	assert.Equal(t, int16(0), DivideSample[int16](0, 0))
	assert.Equal(t, int16(math.MaxInt16), DivideSample[int16](5, 0))
	assert.Equal(t, int16(math.MinInt16), DivideSample[int16](-5, 0))
	assert.Equal(t, int16(3), DivideSample[int16](10, 4))
	assert.Equal(t, int16(-2), DivideSample[int16](-10, 4))

	assert.Equal(t, int32(0), DivideSample[int32](0, 0))
	assert.Equal(t, int32(math.MaxInt32), DivideSample[int32](5, 0))
	assert.Equal(t, int32(math.MinInt32), DivideSample[int32](-5, 0))
	assert.Equal(t, int32(3), DivideSample[int32](10, 4))
	assert.Equal(t, int32(math.MaxInt32), DivideSample[int32](math.MaxInt32, 1))

	assert.Equal(t, float32(2.5), DivideSample[float32](10, 4))
	assert.True(t, math.IsInf(DivideSample[float64](5, 0), 1))
	assert.True(t, math.IsInf(DivideSample[float64](-5, 0), -1))
	assert.True(t, math.IsNaN(DivideSample[float64](0, 0)))
}

func TestDivideTableMatchesDirect(t *testing.T) {
	table := DivideTable()
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			var want uint8
			switch {
			case a == 0:
				want = 0
			case b == 0:
				want = 255
			default:
				want = raster.ClampRound[uint8](float64(float32(a) / float32(b)))
			}
			require.Equal(t, want, table[a<<8|b], "%d/%d", a, b)
		}
	}
}

func TestMultiplySample(t *testing.T) {
	assert.Equal(t, uint8(255), MultiplySample[uint8](16, 16))
	assert.Equal(t, uint8(225), MultiplySample[uint8](15, 15))
	assert.Equal(t, uint16(65535), MultiplySample[uint16](300, 300))
	assert.Equal(t, int16(math.MinInt16), MultiplySample[int16](-300, 300))
	assert.Equal(t, int16(-90), MultiplySample[int16](-9, 10))
	assert.Equal(t, int32(math.MaxInt32), MultiplySample[int32](1<<20, 1<<20))
	assert.Equal(t, int32(math.MinInt32), MultiplySample[int32](-(1 << 20), 1<<20))
	assert.Equal(t, float32(-1.5), MultiplySample[float32](3, -0.5))
}

func TestMinTable(t *testing.T) {
	table := MinTable()
	for i := 0; i < 256; i++ {
		for j := 0; j < 256; j++ {
			require.Equal(t, uint8(min(i, j)), table[i<<8|j])
		}
	}
}

func TestMinTableConcurrentBuild(t *testing.T) {
	tab := &byteTable{name: "test", build: func(a, b int) uint8 { return uint8(a ^ b) }}
	var wg sync.WaitGroup
	results := make([][]uint8, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = tab.get()
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Same(t, &results[0][0], &r[0])
	}
	assert.Equal(t, uint8(3^5), results[0][3<<8|5])
}

func TestMinFloat(t *testing.T) {
	assert.True(t, math.IsNaN(MinFloat64(math.NaN(), 5)))
	assert.True(t, math.IsNaN(MinFloat64(5, math.NaN())))
	assert.True(t, math.Signbit(MinFloat64(math.Copysign(0, -1), 0)))
	assert.True(t, math.Signbit(MinFloat64(0, math.Copysign(0, -1))))
	assert.Equal(t, -3.0, MinFloat64(-3, 2))

	nan32 := float32(math.NaN())
	assert.True(t, MinFloat32(nan32, 1) != MinFloat32(nan32, 1))
	assert.True(t, math.Signbit(float64(MinFloat32(0, float32(math.Copysign(0, -1))))))

	assert.Equal(t, uint16(3), MinSample[uint16](65535, 3))
	assert.Equal(t, int16(-4), MinSample[int16](-4, 3))
	assert.Equal(t, int32(-4), MinSample[int32](7, -4))
}

func TestBinaryBroadcast(t *testing.T) {
	rect := image.Rect(0, 0, 3, 2)
	multi := testcommon.InterleavedRamp[int16](rect, 3, func(x, y, b int) float64 {
		return float64(10*(b+1) + x + y)
	})
	single := testcommon.Constant[int16](rect, 1, 2)

	dst := raster.NewBanded[int16](rect, 3)
	require.NoError(t, Multiply(multi, single, dst, rect))
	for b := 0; b < 3; b++ {
		assert.Equal(t, int16(2*(10*(b+1)+1+1)), dst.At(1, 1, b))
	}

	dst = raster.NewBanded[int16](rect, 3)
	require.NoError(t, Divide(single, multi, dst, rect))
	assert.Equal(t, int16(0), dst.At(0, 0, 0))

	// the destination may carry fewer bands than the sources provide
	two := raster.NewBanded[int16](rect, 2)
	require.NoError(t, Min(multi, single, two, rect))
	assert.Equal(t, int16(2), two.At(2, 1, 1))

	err := Min(multi, raster.NewBanded[int16](rect, 2), dst, rect)
	assert.ErrorIs(t, err, raster.ErrBandMismatch)
	err = Min(multi, single, raster.NewBanded[int16](rect, 4), rect)
	assert.ErrorIs(t, err, raster.ErrBandMismatch)
}

func TestBinarySubRegionOnly(t *testing.T) {
	rect := image.Rect(0, 0, 4, 4)
	a := testcommon.Constant[uint8](rect, 1, 100)
	b := testcommon.Constant[uint8](rect, 1, 3)
	dst := testcommon.Sentinel(raster.NewBanded[uint8](rect, 1), 9)

	require.NoError(t, Divide(a, b, dst, image.Rect(1, 1, 3, 3)))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint8(9)
			if x >= 1 && x < 3 && y >= 1 && y < 3 {
				want = 33
			}
			assert.Equal(t, want, dst.At(x, y, 0), "(%d,%d)", x, y)
		}
	}

	assert.ErrorIs(t, Divide(a, b, dst, image.Rect(2, 2, 6, 6)), raster.ErrOutsideBounds)
}

func TestComplexOps(t *testing.T) {
	rect := image.Rect(0, 0, 2, 1)
	src := raster.NewInterleaved[int16](rect, 5)
	// pixel 0: 3+4i and -1+0i, pixel 1: 0+1i and 200+200i
	for b, v := range []int16{3, 4, -1, 0, 99} {
		src.Set(0, 0, b, v)
	}
	for b, v := range []int16{0, 1, 200, 200, 99} {
		src.Set(1, 0, b, v)
	}

	mag := raster.NewBanded[int16](rect, 2)
	require.NoError(t, Magnitude(src, mag, rect))
	assert.Equal(t, [][]int16{{5, 1}}, testcommon.Rows(mag, 0))
	assert.Equal(t, [][]int16{{1, 283}}, testcommon.Rows(mag, 1))

	sq := raster.NewBanded[int16](rect, 2)
	require.NoError(t, MagnitudeSquared(src, sq, rect))
	assert.Equal(t, [][]int16{{25, 1}}, testcommon.Rows(sq, 0))
	assert.Equal(t, [][]int16{{1, math.MaxInt16}}, testcommon.Rows(sq, 1))

	ph := raster.NewBanded[int16](rect, 2)
	require.NoError(t, Phase(src, ph, rect))
	gain, bias := PhaseGain(raster.TypeShort)
	assert.Equal(t, raster.ClampRound[int16]((math.Atan2(4, 3)+bias)*gain), ph.At(0, 0, 0))
	assert.Equal(t, raster.ClampRound[int16]((math.Pi/2+bias)*gain), ph.At(1, 0, 0))
	assert.Equal(t, int16(math.MaxInt16), ph.At(0, 0, 1))

	assert.ErrorIs(t, Magnitude(src, raster.NewBanded[int16](rect, 3), rect), raster.ErrBandMismatch)
}

func TestComplexFloatAndInt(t *testing.T) {
	rect := image.Rect(0, 0, 1, 1)
	src := raster.NewInterleaved[int32](rect, 2)
	src.Set(0, 0, 0, math.MinInt32)
	src.Set(0, 0, 1, math.MinInt32)
	dst := raster.NewBanded[int32](rect, 1)
	require.NoError(t, MagnitudeSquared(src, dst, rect))
	assert.Equal(t, int32(math.MaxInt32), dst.At(0, 0, 0))

	fsrc := raster.NewInterleaved[float64](rect, 2)
	fsrc.Set(0, 0, 0, -1)
	fsrc.Set(0, 0, 1, 0)
	fdst := raster.NewBanded[float64](rect, 1)
	require.NoError(t, Phase(fsrc, fdst, rect))
	assert.Equal(t, math.Pi, fdst.At(0, 0, 0))

	bsrc := raster.NewInterleaved[uint8](rect, 2)
	bsrc.Set(0, 0, 0, 255)
	bsrc.Set(0, 0, 1, 255)
	bdst := raster.NewBanded[uint8](rect, 1)
	require.NoError(t, MagnitudeSquared(bsrc, bdst, rect))
	assert.Equal(t, uint8(255), bdst.At(0, 0, 0))
	require.NoError(t, Magnitude(bsrc, bdst, rect))
	assert.Equal(t, uint8(255), bdst.At(0, 0, 0))
}

func TestApply(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)
	a := testcommon.Constant[float32](rect, 1, 6)
	b := testcommon.Constant[float32](rect, 1, 4)
	dst := raster.NewBanded[float32](rect, 1)

	require.NoError(t, Apply(OpDivide, a, b, dst, rect))
	assert.Equal(t, float32(1.5), dst.At(1, 1, 0))

	require.NoError(t, Apply(OpMin, a, b, dst, rect))
	assert.Equal(t, float32(4), dst.At(0, 1, 0))

	mixed := testcommon.Constant[float64](rect, 1, 4)
	err := Apply(OpMultiply, a, mixed, dst, rect)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, float32(4), dst.At(0, 1, 0))

	op, err := ParseOp("magnitudesquared")
	require.NoError(t, err)
	assert.Equal(t, OpMagnitudeSquared, op)
	_, err = ParseOp("max")
	assert.Error(t, err)

	cplx := testcommon.Constant[float32](rect, 2, 2)
	require.NoError(t, Apply(op, cplx, nil, dst, rect))
	assert.Equal(t, float32(8), dst.At(0, 0, 0))
}
