package extrema

import (
	"image"
	"math"
	"testing"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/testcommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWholeImage(t *testing.T) {
	src := testcommon.Ramp[uint8](image.Rect(0, 0, 5, 5), 2, func(x, y, b int) float64 {
		return float64(x + y*10 + b*100)
	})
	tr, err := NewTracker(2, Config{})
	require.NoError(t, err)

	_, _, ok := tr.Extrema()
	assert.False(t, ok)

	require.NoError(t, tr.Accumulate(src, src.Rect))
	mins, maxs, ok := tr.Extrema()
	require.True(t, ok)
	assert.Equal(t, []float64{0, 100}, mins)
	assert.Equal(t, []float64{44, 144}, maxs)
}

// roiFixture has its global extremes outside the ROI, the minimum at the
// first pixel so seeding from (0,0) would be wrong.
func roiFixture() (*raster.Buffer[uint8], image.Rectangle) {
	src := testcommon.Constant[uint8](image.Rect(0, 0, 6, 6), 1, 100)
	src.Set(0, 0, 0, 0)
	src.Set(5, 5, 0, 255)
	src.Set(2, 2, 0, 40)
	src.Set(3, 4, 0, 160)
	return src, image.Rect(1, 1, 5, 5)
}

func TestROIRestrictsExtrema(t *testing.T) {
	src, roi := roiFixture()
	tr, err := NewTracker(1, Config{ROI: []image.Rectangle{roi}})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(src, src.Rect))

	mins, maxs, ok := tr.Extrema()
	require.True(t, ok)
	assert.Equal(t, []float64{40}, mins)
	assert.Equal(t, []float64{160}, maxs)
}

func TestROIThroughSampleInterface(t *testing.T) {
	src, roi := roiFixture()
	rec := testcommon.NewRasterRecorder(src)
	tr, err := NewTracker(1, Config{ROI: []image.Rectangle{roi}})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(rec, src.Rect))

	mins, maxs, ok := tr.Extrema()
	require.True(t, ok)
	assert.Equal(t, []float64{40}, mins)
	assert.Equal(t, []float64{160}, maxs)
	assert.Empty(t, rec.ReadOutside(roi))
	assert.Len(t, rec.Reads, 16)
}

func TestROIMissesRegion(t *testing.T) {
	src, _ := roiFixture()
	tr, err := NewTracker(1, Config{ROI: []image.Rectangle{image.Rect(10, 10, 12, 12)}})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(src, src.Rect))
	_, _, ok := tr.Extrema()
	assert.False(t, ok)
}

func TestPeriod(t *testing.T) {
	src := testcommon.Ramp[int16](image.Rect(0, 0, 8, 8), 1, func(x, y, _ int) float64 {
		return float64(x + 8*y)
	})
	rec := testcommon.NewRasterRecorder(src)
	tr, err := NewTracker(1, Config{XStart: 1, YStart: -1, XPeriod: 3, YPeriod: 2})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(rec, src.Rect))

	// columns 1, 4, 7 and rows 1, 3, 5, 7
	mins, maxs, ok := tr.Extrema()
	require.True(t, ok)
	assert.Equal(t, []float64{9}, mins)
	assert.Equal(t, []float64{63}, maxs)
	assert.Len(t, rec.Reads, 12)
	for p := range rec.Reads {
		assert.Equal(t, 1, p.X%3, "x %d", p.X)
		assert.Equal(t, 1, p.Y%2, "y %d", p.Y)
	}
}

func TestAccumulateAcrossTiles(t *testing.T) {
	src := testcommon.Ramp[float32](image.Rect(0, 0, 9, 7), 1, func(x, y, _ int) float64 {
		return math.Sin(float64(x)*0.7) * math.Cos(float64(y)*1.3) * 1000
	})
	whole, err := NewTracker(1, Config{})
	require.NoError(t, err)
	require.NoError(t, whole.Accumulate(src, src.Rect))

	tiled, err := NewTracker(1, Config{})
	require.NoError(t, err)
	for ty := 0; ty < 7; ty += 4 {
		for tx := 0; tx < 9; tx += 4 {
			require.NoError(t, tiled.Accumulate(src, image.Rect(tx, ty, tx+4, ty+4)))
		}
	}

	wMin, wMax, _ := whole.Extrema()
	tMin, tMax, _ := tiled.Extrema()
	assert.Equal(t, wMin, tMin)
	assert.Equal(t, wMax, tMax)
}

func TestRunLocations(t *testing.T) {
	src := raster.FromRows([][]uint16{{5, 1, 1, 3, 1, 9, 9}})

	for _, tc := range []struct {
		name    string
		maxRuns int
		wantMin []Run
		wantMax []Run
	}{
		{name: "unbounded", maxRuns: 10,
			wantMin: []Run{{X: 1, Y: 0, Length: 2}, {X: 4, Y: 0, Length: 1}},
			wantMax: []Run{{X: 5, Y: 0, Length: 2}}},
		{name: "one run", maxRuns: 1,
			wantMin: []Run{{X: 1, Y: 0, Length: 2}},
			wantMax: []Run{{X: 5, Y: 0, Length: 2}}},
		{name: "default", maxRuns: 0,
			wantMin: []Run{{X: 1, Y: 0, Length: 2}},
			wantMax: []Run{{X: 5, Y: 0, Length: 2}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := NewTracker(1, Config{SaveLocations: true, MaxRuns: tc.maxRuns})
			require.NoError(t, err)
			require.NoError(t, tr.Accumulate(src, src.Rect))

			mins, maxs, ok := tr.Extrema()
			require.True(t, ok)
			assert.Equal(t, []float64{1}, mins)
			assert.Equal(t, []float64{9}, maxs)

			minRuns, maxRuns := tr.RunLocations()
			require.Len(t, minRuns, 1)
			assert.ElementsMatch(t, tc.wantMin, minRuns[0])
			assert.ElementsMatch(t, tc.wantMax, maxRuns[0])
		})
	}
}

func TestRunsWithPeriodAndRows(t *testing.T) {
	src := raster.FromRows([][]uint8{
		{7, 0, 7, 9, 7, 0},
		{1, 1, 1, 1, 1, 1},
		{7, 9, 7, 0, 7, 9},
	})
	tr, err := NewTracker(1, Config{XPeriod: 2, SaveLocations: true, MaxRuns: 8})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(src, src.Rect))

	// only even columns are sampled: rows read 7 7 7, 1 1 1, 7 7 7
	mins, maxs, _ := tr.Extrema()
	assert.Equal(t, []float64{1}, mins)
	assert.Equal(t, []float64{7}, maxs)
	minRuns, maxRuns := tr.RunLocations()
	assert.Equal(t, []Run{{X: 0, Y: 1, Length: 3}}, minRuns[0])
	assert.Equal(t, []Run{{X: 0, Y: 0, Length: 3}, {X: 0, Y: 2, Length: 3}}, maxRuns[0])
}

func TestOverlappingROIVisitsOnce(t *testing.T) {
	src := raster.FromRows([][]uint8{{4, 4, 4, 4, 4, 4, 4}})
	rois := []image.Rectangle{image.Rect(0, 0, 4, 1), image.Rect(2, 0, 7, 1)}
	rec := testcommon.NewRasterRecorder(src)
	tr, err := NewTracker(1, Config{ROI: rois, SaveLocations: true, MaxRuns: 4})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(rec, src.Rect))

	for p, n := range rec.Reads {
		assert.Equal(t, 1, n, "pixel %v", p)
	}
	minRuns, maxRuns := tr.RunLocations()
	assert.Equal(t, []Run{{X: 0, Y: 0, Length: 7}}, minRuns[0])
	assert.Equal(t, []Run{{X: 0, Y: 0, Length: 7}}, maxRuns[0])
}

func TestFloatNaNIgnored(t *testing.T) {
	nan := float32(math.NaN())
	src := raster.FromRows([][]float32{{nan, -2.5, nan}, {8, nan, 3}})
	tr, err := NewTracker(1, Config{})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(src, src.Rect))
	mins, maxs, _ := tr.Extrema()
	assert.Equal(t, []float64{-2.5}, mins)
	assert.Equal(t, []float64{8}, maxs)

	allNaN := raster.FromRows([][]float64{{math.NaN()}})
	tr, err = NewTracker(1, Config{})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(allNaN, allNaN.Rect))
	mins, _, ok := tr.Extrema()
	assert.True(t, ok)
	assert.True(t, math.IsNaN(mins[0]))
}

func TestResetAndPreconditions(t *testing.T) {
	src := raster.FromRows([][]int32{{-7, 12}})
	tr, err := NewTracker(1, Config{SaveLocations: true, MaxRuns: 2})
	require.NoError(t, err)
	require.NoError(t, tr.Accumulate(src, src.Rect))
	tr.Reset()
	_, _, ok := tr.Extrema()
	assert.False(t, ok)
	minRuns, _ := tr.RunLocations()
	assert.Empty(t, minRuns[0])

	assert.ErrorIs(t, tr.Accumulate(testcommon.Constant[int32](src.Rect, 2, 0), src.Rect), raster.ErrBandMismatch)

	_, err = NewTracker(1, Config{XPeriod: -1})
	assert.ErrorIs(t, err, ErrBadPeriod)
	_, err = NewTracker(1, Config{MaxRuns: -1})
	assert.ErrorIs(t, err, ErrBadMaxRuns)
	_, err = NewTracker(0, Config{})
	assert.ErrorIs(t, err, raster.ErrBandMismatch)

	noRuns, err := NewTracker(1, Config{})
	require.NoError(t, err)
	a, b := noRuns.RunLocations()
	assert.Nil(t, a)
	assert.Nil(t, b)
}
