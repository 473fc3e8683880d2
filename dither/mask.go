package dither

import (
	"fmt"
	"math"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/util"
)

// DitherMask holds one threshold pattern per band. Thresholds lie in [0, 1]
// and are stored row major; pixel (x, y) uses the entry at
// (y mod Height)*Width + (x mod Width). A mask with a single band applies to
// every source band.
type DitherMask struct {
	Width  int
	Height int
	Data   [][]float64
}

var (
	// Mask441 is the 4x4 Bayer pattern for every band.
	Mask441 = &DitherMask{Width: 4, Height: 4, Data: [][]float64{{
		0.9375, 0.4375, 0.8125, 0.3125,
		0.1875, 0.6875, 0.0625, 0.5625,
		0.7500, 0.2500, 0.8750, 0.3750,
		0.0000, 0.5000, 0.1250, 0.6250,
	}}}

	// Mask443 uses a differently rotated 4x4 Bayer pattern for each of three
	// bands.
	Mask443 = &DitherMask{Width: 4, Height: 4, Data: [][]float64{
		{
			0.0000, 0.5000, 0.1250, 0.6250,
			0.7500, 0.2500, 0.8750, 0.3750,
			0.1875, 0.6875, 0.0625, 0.5625,
			0.9375, 0.4375, 0.8125, 0.3125,
		},
		{
			0.6250, 0.1250, 0.5000, 0.0000,
			0.3750, 0.8750, 0.2500, 0.7500,
			0.5625, 0.0625, 0.6875, 0.1875,
			0.3125, 0.8125, 0.4375, 0.9375,
		},
		{
			0.9375, 0.4375, 0.8125, 0.3125,
			0.1875, 0.6875, 0.0625, 0.5625,
			0.7500, 0.2500, 0.8750, 0.3750,
			0.0000, 0.5000, 0.1250, 0.6250,
		},
	}}
)

func NewDitherMask(width int, height int, data ...[]float64) (*DitherMask, error) {
	m := &DitherMask{Width: width, Height: height, Data: util.CloneMatrix2D(data)}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DitherMask) Validate() error {
	if m.Width <= 0 || m.Height <= 0 || len(m.Data) == 0 {
		return fmt.Errorf("%dx%d mask with %d bands: %w", m.Width, m.Height, len(m.Data), ErrBadMask)
	}
	for b, band := range m.Data {
		if len(band) != m.Width*m.Height {
			return fmt.Errorf("band %d has %d thresholds, want %d: %w", b, len(band), m.Width*m.Height, ErrBadMask)
		}
		for _, v := range band {
			if !(v >= 0 && v <= 1) {
				return fmt.Errorf("threshold %v outside [0,1]: %w", v, ErrBadMask)
			}
		}
	}
	return nil
}

// CheckBands fails unless the mask has one band or numBands bands.
func (m *DitherMask) CheckBands(numBands int) error {
	if len(m.Data) != 1 && len(m.Data) != numBands {
		return fmt.Errorf("mask has %d bands for %d source bands: %w", len(m.Data), numBands, ErrBadMask)
	}
	return nil
}

func (m *DitherMask) band(b int) []float64 {
	if len(m.Data) == 1 {
		return m.Data[0]
	}
	return m.Data[b]
}

// FixedThresholds scales the mask to the fixed point fraction used when
// quantising integer samples of type t: 8 bits for bytes, 16 bits for shorts
// and 32 bits for ints.
func (m *DitherMask) FixedThresholds(t raster.ElementType, numBands int) [][]int64 {
	out := util.MakeMatrix2D[int64](numBands, m.Width*m.Height)
	for b := range out {
		for i, v := range m.band(b) {
			switch t {
			case raster.TypeByte:
				out[b][i] = int64(int32(float32(v)*255) & 0xff)
			case raster.TypeShort, raster.TypeUShort:
				out[b][i] = int64(float32(v) * math.MaxUint16)
			default:
				out[b][i] = int64(v * math.MaxUint32)
			}
		}
	}
	return out
}
