package arith

import (
	"fmt"
	"image"

	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

// Apply runs op on rasters whose element type is only known at run time.
// src2 is ignored by the unary complex ops. All rasters must share one
// element type and be *raster.Buffer values.
func Apply(op Op, src1 raster.Raster, src2 raster.Raster, dst raster.Raster, rect image.Rectangle) error {
	rasters := []raster.Raster{src1, dst}
	if op.IsBinary() {
		if src2 == nil {
			return fmt.Errorf("%v needs two sources: %w", op, raster.ErrBandMismatch)
		}
		rasters = append(rasters, src2)
	}
	if !raster.SameType(rasters...) {
		log.Errorf("%v over mixed element types", op)
		return fmt.Errorf("%v: %w", op, ErrTypeMismatch)
	}
	log.Debugf("apply %v on %v over %v", op, dst.ElementType(), rect)

	switch d := dst.(type) {
	case *raster.Buffer[uint8]:
		return applyTyped(op, src1, src2, d, rect)
	case *raster.Buffer[uint16]:
		return applyTyped(op, src1, src2, d, rect)
	case *raster.Buffer[int16]:
		return applyTyped(op, src1, src2, d, rect)
	case *raster.Buffer[int32]:
		return applyTyped(op, src1, src2, d, rect)
	case *raster.Buffer[float32]:
		return applyTyped(op, src1, src2, d, rect)
	case *raster.Buffer[float64]:
		return applyTyped(op, src1, src2, d, rect)
	}
	return fmt.Errorf("destination %T: %w", dst, ErrUnsupported)
}

func applyTyped[T raster.Sample](op Op, src1 raster.Raster, src2 raster.Raster, dst *raster.Buffer[T], rect image.Rectangle) error {
	s1, ok := src1.(*raster.Buffer[T])
	if !ok {
		return fmt.Errorf("source %T: %w", src1, ErrUnsupported)
	}
	var s2 *raster.Buffer[T]
	if op.IsBinary() {
		if s2, ok = src2.(*raster.Buffer[T]); !ok {
			return fmt.Errorf("source %T: %w", src2, ErrUnsupported)
		}
	}

	switch op {
	case OpDivide:
		return Divide(s1, s2, dst, rect)
	case OpMultiply:
		return Multiply(s1, s2, dst, rect)
	case OpMin:
		return Min(s1, s2, dst, rect)
	case OpMagnitude:
		return Magnitude(s1, dst, rect)
	case OpMagnitudeSquared:
		return MagnitudeSquared(s1, dst, rect)
	case OpPhase:
		return Phase(s1, dst, rect)
	}
	return fmt.Errorf("operation %d: %w", op, ErrUnsupported)
}
