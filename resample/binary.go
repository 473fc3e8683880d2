package resample

import (
	"fmt"
	"image"

	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

// ComputeBits is ComputeRegion for packed binary images. Nearest copies
// source bits. Bilinear interpolates the 0/1 neighbourhood in fixed point and
// sets the destination bit when the result rounds to one. Other kernels are
// rejected. Any non zero background value fills with set pixels.
func ComputeBits(r *Resampler, src *raster.Bits, dst *raster.Bits, destRect image.Rectangle) error {
	if src == nil || dst == nil {
		return ErrNilBuffer
	}
	k := r.Kernel
	if k.Kind != KindNearest && k.Kind != KindBilinear {
		log.Errorf("%v kernel on a binary image", k.Kind)
		return fmt.Errorf("%v kernel on binary image: %w", k.Kind, ErrBadKernel)
	}
	if err := dst.CheckRegion(destRect); err != nil {
		return err
	}
	bg, err := backgroundSamples[uint8](r.Background, 1)
	if err != nil {
		log.Errorf("background does not fit binary destination: %v", err)
		return err
	}
	var fill uint8
	if r.Background.Fill && bg[0] != 0 {
		fill = 1
	}
	w, err := r.walker(destRect)
	if err != nil {
		return err
	}

	log.Debugf("resample binary %v kernel into %v", k.Kind, destRect)

	sb := k.SubsampleBitsH
	shift := 2 * sb
	var round int64
	if k.Kind == KindBilinear {
		round = int64(1) << (shift - 1)
	}
	lineBits := src.ScanlineStride * 8

	width := destRect.Dx()
	xs := make([]Position, width)
	ys := make([]Position, width)
	valid := make([]bool, width)

	minX, maxX := int64(src.Rect.Min.X), int64(src.Rect.Max.X)
	minY, maxY := int64(src.Rect.Min.Y), int64(src.Rect.Max.Y)
	right, bottom := int64(k.RightPadding()), int64(k.BottomPadding())

	for y := destRect.Min.Y; y < destRect.Max.Y; y++ {
		w.row(y, xs, ys, valid)
		di := dst.BitIndex(destRect.Min.X, y)
		for i := 0; i < width; i, di = i+1, di+1 {
			ix, iy := xs[i].Int, ys[i].Int
			if k.Kind == KindNearest {
				ix, iy = xs[i].Nearest(), ys[i].Nearest()
			}
			if !valid[i] || ix < minX || ix+right >= maxX || iy < minY || iy+bottom >= maxY {
				if r.Background.Fill {
					dst.SetBit(di, fill)
				}
				continue
			}
			si := src.BitIndex(int(ix), int(iy))
			if k.Kind == KindNearest {
				dst.SetBit(di, src.Bit(si))
				continue
			}

			s00 := int64(src.Bit(si))
			s01 := int64(src.Bit(si + 1))
			s10 := int64(src.Bit(si + lineBits))
			s11 := int64(src.Bit(si + lineBits + 1))
			xf := xs[i].FracBits(sb)
			yf := ys[i].FracBits(sb)
			s0 := (s01-s00)*xf + s00<<sb
			s1 := (s11-s10)*xf + s10<<sb
			s := ((s1-s0)*yf + s0<<sb + round) >> shift
			dst.SetBit(di, uint8(s))
		}
	}
	return nil
}
