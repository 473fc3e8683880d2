package resample

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

var ErrBadTable = errors.New("invalid interpolation table")

// Table holds separable interpolation coefficients. For each of the
// 1<<SubsampleBitsH horizontal phases there are Width consecutive coefficients
// in DataH, applied to the samples at x-KeyX .. x-KeyX+Width-1. The vertical
// direction is laid out the same way in DataV. IntH and IntV hold the same
// coefficients in fixed point with PrecisionBits fractional bits.
type Table struct {
	KeyX           int
	KeyY           int
	Width          int
	Height         int
	SubsampleBitsH int
	SubsampleBitsV int
	PrecisionBits  int

	DataH []float64
	DataV []float64
	IntH  []int64
	IntV  []int64
}

// NewTable validates coefficient data and derives the fixed point
// coefficients. A nil dataV reuses dataH, which requires the vertical geometry
// to match the horizontal one.
func NewTable(keyX, keyY, width, height, subsampleBitsH, subsampleBitsV, precisionBits int, dataH, dataV []float64) (*Table, error) {
	if dataV == nil {
		if width != height || subsampleBitsH != subsampleBitsV {
			return nil, fmt.Errorf("shared coefficients need matching geometry: %w", ErrBadTable)
		}
		dataV = dataH
	}
	if width <= 0 || height <= 0 || keyX < 0 || keyX >= width || keyY < 0 || keyY >= height {
		log.Errorf("table %dx%d with key (%d,%d)", width, height, keyX, keyY)
		return nil, fmt.Errorf("table %dx%d key (%d,%d): %w", width, height, keyX, keyY, ErrBadTable)
	}
	if subsampleBitsH < 0 || subsampleBitsH > 16 || subsampleBitsV < 0 || subsampleBitsV > 16 {
		return nil, fmt.Errorf("subsample bits %d/%d: %w", subsampleBitsH, subsampleBitsV, ErrBadTable)
	}
	if precisionBits < 0 || precisionBits > 24 {
		return nil, fmt.Errorf("precision bits %d: %w", precisionBits, ErrBadTable)
	}
	if len(dataH) != width<<subsampleBitsH || len(dataV) != height<<subsampleBitsV {
		log.Errorf("table needs %d/%d coefficients, got %d/%d", width<<subsampleBitsH, height<<subsampleBitsV, len(dataH), len(dataV))
		return nil, fmt.Errorf("coefficient count %d/%d: %w", len(dataH), len(dataV), ErrBadTable)
	}

	t := &Table{
		KeyX:           keyX,
		KeyY:           keyY,
		Width:          width,
		Height:         height,
		SubsampleBitsH: subsampleBitsH,
		SubsampleBitsV: subsampleBitsV,
		PrecisionBits:  precisionBits,
		DataH:          append([]float64(nil), dataH...),
		DataV:          append([]float64(nil), dataV...),
	}
	t.IntH = toFixed(t.DataH, precisionBits)
	t.IntV = toFixed(t.DataV, precisionBits)
	return t, nil
}

func toFixed(data []float64, precisionBits int) []int64 {
	scale := float64(int64(1) << precisionBits)
	out := make([]int64, len(data))
	for i, f := range data {
		out[i] = int64(math.Round(f * scale))
	}
	return out
}

// NewBicubicTable builds the Keys cubic convolution table with a = -0.5.
func NewBicubicTable(subsampleBits int, precisionBits int) (*Table, error) {
	return newCubicTable(-0.5, subsampleBits, precisionBits)
}

// NewBicubic2Table builds the sharper cubic variant with a = -1.
func NewBicubic2Table(subsampleBits int, precisionBits int) (*Table, error) {
	return newCubicTable(-1, subsampleBits, precisionBits)
}

func newCubicTable(a float64, subsampleBits int, precisionBits int) (*Table, error) {
	if subsampleBits < 0 || subsampleBits > 16 {
		return nil, fmt.Errorf("subsample bits %d: %w", subsampleBits, ErrBadTable)
	}
	phases := 1 << subsampleBits
	data := make([]float64, 4*phases)
	for i := 0; i < phases; i++ {
		t := float64(i) / float64(phases)
		data[4*i] = keys(a, t+1)
		data[4*i+1] = keys(a, t)
		data[4*i+2] = keys(a, 1-t)
		data[4*i+3] = keys(a, 2-t)
	}
	return NewTable(1, 1, 4, 4, subsampleBits, subsampleBits, precisionBits, data, nil)
}

// keys evaluates the cubic convolution kernel at distance d.
func keys(a float64, d float64) float64 {
	d = math.Abs(d)
	d2 := d * d
	d3 := d2 * d
	switch {
	case d <= 1:
		return (a+2)*d3 - (a+3)*d2 + 1
	case d < 2:
		return a*d3 - 5*a*d2 + 8*a*d - 4*a
	default:
		return 0
	}
}

// hIndex returns the offset of the horizontal coefficients for a fraction
// quantised to SubsampleBitsH bits.
func (t *Table) hIndex(phase int64) int {
	return int(phase) * t.Width
}

func (t *Table) vIndex(phase int64) int {
	return int(phase) * t.Height
}
