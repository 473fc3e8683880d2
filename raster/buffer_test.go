package raster

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleavedAddressing(t *testing.T) {
	rect := image.Rect(10, 20, 13, 22)
	b := NewInterleaved[uint8](rect, 3)

	assert.Equal(t, 3, b.NumBands())
	assert.Equal(t, 3, b.PixelStride)
	assert.Equal(t, 9, b.ScanlineStride)

	b.Set(11, 21, 2, 200)
	assert.Equal(t, uint8(200), b.Bands[2][2+1*3+1*9])
	assert.Equal(t, uint8(200), b.At(11, 21, 2))
	assert.Equal(t, 200.0, b.Sample(11, 21, 2))
}

func TestBandedAddressing(t *testing.T) {
	b := NewBanded[int16](image.Rect(0, 0, 4, 2), 2)
	b.Set(3, 1, 1, -7)
	assert.Equal(t, int16(-7), b.Bands[1][7])
	assert.Equal(t, int16(0), b.Bands[0][7])
}

func TestWrap(t *testing.T) {
	for _, tc := range []struct {
		name        string
		dataLen     int
		pixelStride int
		lineStride  int
		offsets     []int
		expectErr   bool
	}{
		{name: "exact fit", dataLen: 12, pixelStride: 2, lineStride: 6, offsets: []int{0, 1}},
		{name: "padded rows", dataLen: 16, pixelStride: 2, lineStride: 8, offsets: []int{0, 1}},
		{name: "too short", dataLen: 11, pixelStride: 2, lineStride: 6, offsets: []int{0, 1}, expectErr: true},
		{name: "negative offset", dataLen: 12, pixelStride: 2, lineStride: 6, offsets: []int{-1, 0}, expectErr: true},
		{name: "bottom up rows", dataLen: 12, pixelStride: 2, lineStride: -6, offsets: []int{6, 7}},
		{name: "no bands", dataLen: 12, pixelStride: 2, lineStride: 6, offsets: nil, expectErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Wrap(make([]float32, tc.dataLen), image.Rect(0, 0, 3, 2), tc.pixelStride, tc.lineStride, tc.offsets)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSubSharesStorage(t *testing.T) {
	b := FromRows([][]uint16{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	s, err := b.Sub(image.Rect(1, 1, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, uint16(5), s.At(1, 1, 0))
	assert.Equal(t, uint16(9), s.At(2, 2, 0))

	s.Set(2, 2, 0, 99)
	assert.Equal(t, uint16(99), b.At(2, 2, 0))

	_, err = b.Sub(image.Rect(2, 2, 4, 4))
	assert.ErrorIs(t, err, ErrOutsideBounds)
}

func TestFillAndCopy(t *testing.T) {
	b := NewInterleaved[int32](image.Rect(0, 0, 4, 4), 2)
	b.Fill(image.Rect(1, 1, 3, 3), 1, 42)
	assert.Equal(t, int32(42), b.At(2, 2, 1))
	assert.Equal(t, int32(0), b.At(2, 2, 0))
	assert.Equal(t, int32(0), b.At(0, 0, 1))

	c := b.Clone()
	assert.True(t, c.Equal(b))
	c.Set(0, 0, 0, 1)
	assert.False(t, c.Equal(b))

	err := c.CopyFrom(NewBanded[int32](image.Rect(0, 0, 4, 4), 3), c.Rect)
	assert.ErrorIs(t, err, ErrBandMismatch)
}

func TestCheckRegion(t *testing.T) {
	b := NewBanded[float64](image.Rect(0, 0, 4, 4), 1)
	assert.NoError(t, b.CheckRegion(image.Rect(0, 0, 4, 4)))
	assert.ErrorIs(t, b.CheckRegion(image.Rect(0, 0, 0, 4)), ErrEmptyRect)
	assert.ErrorIs(t, b.CheckRegion(image.Rect(2, 2, 5, 5)), ErrOutsideBounds)
}

func TestNewOfType(t *testing.T) {
	for _, et := range []ElementType{TypeByte, TypeUShort, TypeShort, TypeInt, TypeFloat, TypeDouble} {
		t.Run(et.String(), func(t *testing.T) {
			r := NewOfType(et, image.Rect(0, 0, 2, 2), 2)
			assert.Equal(t, et, r.ElementType())
			r.SetSample(1, 1, 1, 7.4)
			assert.InDelta(t, 7.0, r.Sample(1, 1, 1), 0.41)
		})
	}
	assert.True(t, SameType(NewOfType(TypeShort, image.Rect(0, 0, 1, 1), 1), NewOfType(TypeShort, image.Rect(0, 0, 1, 1), 1)))
	assert.False(t, SameType(NewOfType(TypeShort, image.Rect(0, 0, 1, 1), 1), NewOfType(TypeUShort, image.Rect(0, 0, 1, 1), 1)))
}
