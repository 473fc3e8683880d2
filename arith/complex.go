package arith

import (
	"fmt"
	"image"
	"math"

	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

// Complex sources interleave bands as (re, im) pairs: band 2k is the real
// part and band 2k+1 the imaginary part of output band k.

// Magnitude writes sqrt(re^2 + im^2), rounded and clamped to T.
func Magnitude[T raster.Sample](src *raster.Buffer[T], dst *raster.Buffer[T], rect image.Rectangle) error {
	round := raster.NewConverter[T]().Round
	return complexOp(src, dst, rect, func(re, im T) T {
		r, i := float64(re), float64(im)
		return round(math.Sqrt(r*r + i*i))
	})
}

// MagnitudeSquared writes re^2 + im^2. Integer results are exact before
// clamping.
func MagnitudeSquared[T raster.Sample](src *raster.Buffer[T], dst *raster.Buffer[T], rect image.Rectangle) error {
	return complexOp(src, dst, rect, magnitudeSquaredFunc[T]())
}

// Phase writes atan2(im, re). Integer types map [-pi, pi] linearly onto
// [0, gain*2pi] with the gain returned by PhaseGain.
func Phase[T raster.Sample](src *raster.Buffer[T], dst *raster.Buffer[T], rect image.Rectangle) error {
	round := raster.NewConverter[T]().Round
	gain, bias := PhaseGain(raster.TypeOf[T]())
	return complexOp(src, dst, rect, func(re, im T) T {
		return round((math.Atan2(float64(im), float64(re)) + bias) * gain)
	})
}

// PhaseGain returns the gain and bias applied to a phase angle before it is
// stored as t. Floating point types store the angle unchanged.
func PhaseGain(t raster.ElementType) (gain float64, bias float64) {
	switch t {
	case raster.TypeByte:
		return math.MaxUint8 / (2 * math.Pi), math.Pi
	case raster.TypeShort:
		return math.MaxInt16 / (2 * math.Pi), math.Pi
	case raster.TypeUShort:
		return math.MaxUint16 / (2 * math.Pi), math.Pi
	case raster.TypeInt:
		return math.MaxInt32 / (2 * math.Pi), math.Pi
	default:
		return 1, 0
	}
}

func magnitudeSquaredFunc[T raster.Sample]() func(re T, im T) T {
	var zero T
	var f any
	switch any(zero).(type) {
	case int32:
		f = func(re, im int32) int32 {
			// two squares of MinInt32 overflow int64 but not uint64
			r, i := int64(re), int64(im)
			sum := uint64(r*r) + uint64(i*i)
			if sum > math.MaxInt32 {
				return math.MaxInt32
			}
			return int32(sum)
		}
	case float32:
		f = func(re, im float32) float32 {
			r, i := float64(re), float64(im)
			return raster.ClampFloat32(r*r + i*i)
		}
	case float64:
		f = func(re, im float64) float64 {
			return re*re + im*im
		}
	default:
		f = func(re, im T) T {
			r, i := int64(re), int64(im)
			return raster.ClampInt64[T](r*r + i*i)
		}
	}
	return f.(func(re T, im T) T)
}

func complexOp[T raster.Sample](src *raster.Buffer[T], dst *raster.Buffer[T], rect image.Rectangle, fn func(re T, im T) T) error {
	if err := checkRegion(rect, dst, src); err != nil {
		return err
	}
	pairs := src.NumBands() / 2
	if pairs == 0 || dst.NumBands() > pairs {
		log.Errorf("complex source with %d bands cannot fill %d destination bands", src.NumBands(), dst.NumBands())
		return fmt.Errorf("%d source bands for %d destination bands: %w", src.NumBands(), dst.NumBands(), raster.ErrBandMismatch)
	}

	for b := 0; b < dst.NumBands(); b++ {
		re, im, d := src.Bands[2*b], src.Bands[2*b+1], dst.Bands[b]
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			ri := src.Index(rect.Min.X, y, 2*b)
			ii := src.Index(rect.Min.X, y, 2*b+1)
			di := dst.Index(rect.Min.X, y, b)
			for x := rect.Min.X; x < rect.Max.X; x++ {
				d[di] = fn(re[ri], im[ii])
				ri += src.PixelStride
				ii += src.PixelStride
				di += dst.PixelStride
			}
		}
	}
	return nil
}
