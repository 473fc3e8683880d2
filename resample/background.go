package resample

import (
	"errors"
	"fmt"

	"github.com/kpfaulkner/rasterkern/raster"
)

var ErrBackgroundBands = errors.New("background values do not match destination bands")

// Background decides what happens to destination pixels whose neighbourhood
// falls outside the source. With Fill unset they are left untouched.
type Background struct {
	Fill   bool
	Values []float64
}

func NoFill() Background {
	return Background{}
}

// FillWith writes values, one per destination band. A single value is used for
// every band.
func FillWith(values ...float64) Background {
	return Background{Fill: true, Values: append([]float64(nil), values...)}
}

// backgroundSamples converts the fill values for a destination of numBands bands.
func backgroundSamples[T raster.Sample](bg Background, numBands int) ([]T, error) {
	if !bg.Fill {
		return nil, nil
	}
	conv := raster.NewConverter[T]()
	out := make([]T, numBands)
	switch len(bg.Values) {
	case numBands:
		for i, v := range bg.Values {
			out[i] = conv.Round(v)
		}
	case 1:
		for i := range out {
			out[i] = conv.Round(bg.Values[0])
		}
	case 0:
	default:
		return nil, fmt.Errorf("%d values for %d bands: %w", len(bg.Values), numBands, ErrBackgroundBands)
	}
	return out, nil
}
