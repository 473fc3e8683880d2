package arith

import (
	"errors"
	"fmt"
	"image"

	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

type Op int

const (
	OpDivide Op = iota
	OpMultiply
	OpMin
	OpMagnitude
	OpMagnitudeSquared
	OpPhase
)

var opNames = []string{"divide", "multiply", "min", "magnitude", "magnitudesquared", "phase"}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// ParseOp maps a name such as "min" back to its Op.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// IsBinary reports whether the op reads two sources.
func (o Op) IsBinary() bool {
	return o == OpDivide || o == OpMultiply || o == OpMin
}

var (
	ErrTypeMismatch = errors.New("element types of sources and destination differ")
	ErrUnsupported  = errors.New("unsupported raster implementation")
)

// bandPlan describes how destination bands pick their source bands. A single
// band source is broadcast against every band of the other source.
type bandPlan struct {
	bands  int
	s1Step int
	s2Step int
}

func planBands(n1 int, n2 int, nDst int) (bandPlan, error) {
	p := bandPlan{s1Step: 1, s2Step: 1}
	switch {
	case n1 == n2:
		p.bands = n1
	case n1 == 1:
		p.bands, p.s1Step = n2, 0
	case n2 == 1:
		p.bands, p.s2Step = n1, 0
	default:
		log.Errorf("cannot combine %d and %d bands", n1, n2)
		return p, fmt.Errorf("sources have %d and %d bands: %w", n1, n2, raster.ErrBandMismatch)
	}
	if nDst < 1 || nDst > p.bands {
		log.Errorf("destination has %d bands, sources provide %d", nDst, p.bands)
		return p, fmt.Errorf("destination has %d bands, sources provide %d: %w", nDst, p.bands, raster.ErrBandMismatch)
	}
	p.bands = nDst
	return p, nil
}

// checkRegion verifies that rect lies inside every buffer.
func checkRegion[T raster.Sample](rect image.Rectangle, dst *raster.Buffer[T], srcs ...*raster.Buffer[T]) error {
	if err := dst.CheckRegion(rect); err != nil {
		return err
	}
	for _, s := range srcs {
		if err := s.CheckRegion(rect); err != nil {
			return fmt.Errorf("source: %w", err)
		}
	}
	return nil
}

// binary applies fn sample by sample over rect.
func binary[T raster.Sample](src1 *raster.Buffer[T], src2 *raster.Buffer[T], dst *raster.Buffer[T], rect image.Rectangle, fn func(a T, b T) T) error {
	if err := checkRegion(rect, dst, src1, src2); err != nil {
		return err
	}
	plan, err := planBands(src1.NumBands(), src2.NumBands(), dst.NumBands())
	if err != nil {
		return err
	}

	for b, b1, b2 := 0, 0, 0; b < plan.bands; b, b1, b2 = b+1, b1+plan.s1Step, b2+plan.s2Step {
		s1, s2, d := src1.Bands[b1], src2.Bands[b2], dst.Bands[b]
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			i1 := src1.Index(rect.Min.X, y, b1)
			i2 := src2.Index(rect.Min.X, y, b2)
			di := dst.Index(rect.Min.X, y, b)
			for x := rect.Min.X; x < rect.Max.X; x++ {
				d[di] = fn(s1[i1], s2[i2])
				i1 += src1.PixelStride
				i2 += src2.PixelStride
				di += dst.PixelStride
			}
		}
	}
	return nil
}
