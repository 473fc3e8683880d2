package resample

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/util"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/math/f64"
)

// maxCoord bounds mapped source coordinates. Anything further out can never
// land in a buffer and is treated as out of bounds.
const maxCoord = 1 << 40

var ErrNilBuffer = errors.New("nil source or destination buffer")

// Resampler computes destination pixels by mapping their centres into the
// source and interpolating there.
type Resampler struct {
	Mapper     Mapper
	Kernel     Kernel
	Background Background
}

func New(mapper Mapper, kernel Kernel, bg Background) (*Resampler, error) {
	if mapper == nil {
		log.Errorf("resampler without mapper")
		return nil, ErrNilMapper
	}
	if err := kernel.Validate(); err != nil {
		return nil, err
	}
	return &Resampler{Mapper: mapper, Kernel: kernel, Background: bg}, nil
}

// Scale builds a resampler for dst = src*scale + trans on both axes.
func Scale(scaleX, scaleY, transX, transY Rational, kernel Kernel, bg Background) (*Resampler, error) {
	m, err := NewScaleMapper(scaleX, scaleY, transX, transY)
	if err != nil {
		return nil, err
	}
	return New(m, kernel, bg)
}

// Affine builds a resampler from a forward (source to destination) transform.
func Affine(forward f64.Aff3, kernel Kernel, bg Background) (*Resampler, error) {
	m, err := NewAffineMapper(forward)
	if err != nil {
		return nil, err
	}
	return New(m, kernel, bg)
}

func Warp(fn WarpFunc, kernel Kernel, bg Background) (*Resampler, error) {
	m, err := NewWarpMapper(fn)
	if err != nil {
		return nil, err
	}
	return New(m, kernel, bg)
}

// walker produces the source positions for one destination row. Rows are
// requested in increasing order starting at the top of the destination
// rectangle.
type walker interface {
	row(y int, xs []Position, ys []Position, valid []bool)
}

// scaleWalker steps exactly with rational arithmetic. Column positions are
// the same on every row, so they are computed once.
type scaleWalker struct {
	xs []Position
	ys *RationalStepper
}

func newScaleWalker(m *ScaleMapper, destRect image.Rectangle) (*scaleWalker, error) {
	sx, err := NewRationalStepper(m.ScaleX, m.TransX, int64(destRect.Min.X))
	if err != nil {
		return nil, err
	}
	sy, err := NewRationalStepper(m.ScaleY, m.TransY, int64(destRect.Min.Y))
	if err != nil {
		return nil, err
	}
	xs := make([]Position, destRect.Dx())
	for i := range xs {
		xs[i] = sx.Pos
		sx.Advance()
	}
	return &scaleWalker{xs: xs, ys: sy}, nil
}

func (w *scaleWalker) row(_ int, xs []Position, ys []Position, valid []bool) {
	copy(xs, w.xs)
	for i := range ys {
		ys[i] = w.ys.Pos
		valid[i] = true
	}
	w.ys.Advance()
}

// affineWalker maps the start of each row and then steps in fixed point.
type affineWalker struct {
	m      *AffineMapper
	x0     int
	dx, dy RationalStep
}

func newAffineWalker(m *AffineMapper, destRect image.Rectangle) *affineWalker {
	return &affineWalker{
		m:  m,
		x0: destRect.Min.X,
		dx: FixedStep(m.Inverse[0]),
		dy: FixedStep(m.Inverse[3]),
	}
}

func (w *affineWalker) row(y int, xs []Position, ys []Position, valid []bool) {
	n := len(xs)
	sx, sy := w.m.Map(float64(w.x0)+0.5, float64(y)+0.5)
	sx -= 0.5
	sy -= 0.5
	ex := sx + w.m.Inverse[0]*float64(n-1)
	ey := sy + w.m.Inverse[3]*float64(n-1)
	ok := inRange(sx) && inRange(sy) && inRange(ex) && inRange(ey)
	if !ok {
		for i := range valid {
			valid[i] = false
		}
		return
	}
	px, py := FixedPosition(sx), FixedPosition(sy)
	for i := 0; i < n; i++ {
		xs[i], ys[i], valid[i] = px, py, true
		px.Advance(w.dx)
		py.Advance(w.dy)
	}
}

// warpWalker asks the warp for a full row of coordinates at a time.
type warpWalker struct {
	fn     WarpFunc
	x0     int
	coords []float64
}

func (w *warpWalker) row(y int, xs []Position, ys []Position, valid []bool) {
	w.fn(w.x0, y, len(xs), w.coords)
	for i := range xs {
		sx, sy := w.coords[2*i]-0.5, w.coords[2*i+1]-0.5
		if !inRange(sx) || !inRange(sy) {
			valid[i] = false
			continue
		}
		xs[i], ys[i], valid[i] = FixedPosition(sx), FixedPosition(sy), true
	}
}

func inRange(v float64) bool {
	return util.IsFinite(v) && math.Abs(v) < maxCoord
}

func (r *Resampler) walker(destRect image.Rectangle) (walker, error) {
	switch m := r.Mapper.(type) {
	case *ScaleMapper:
		return newScaleWalker(m, destRect)
	case *AffineMapper:
		return newAffineWalker(m, destRect), nil
	case *WarpMapper:
		return &warpWalker{fn: m.Func, x0: destRect.Min.X, coords: make([]float64, 2*destRect.Dx())}, nil
	default:
		// arbitrary mappers are evaluated per pixel
		fn := func(dstX int, dstY int, width int, coords []float64) {
			for i := 0; i < width; i++ {
				coords[2*i], coords[2*i+1] = m.Map(float64(dstX+i)+0.5, float64(dstY)+0.5)
			}
		}
		return &warpWalker{fn: fn, x0: destRect.Min.X, coords: make([]float64, 2*destRect.Dx())}, nil
	}
}

// pixelFunc computes one destination sample. (x, y) is the sample origin and
// px, py the full source position it was derived from.
type pixelFunc[T raster.Sample] func(src *raster.Buffer[T], x int, y int, px Position, py Position, band int) T

// ComputeRegion fills destRect of dst. Preconditions are checked before any
// destination sample is written.
func ComputeRegion[T raster.Sample](r *Resampler, src *raster.Buffer[T], dst *raster.Buffer[T], destRect image.Rectangle) error {
	if src == nil || dst == nil {
		return ErrNilBuffer
	}
	if err := dst.CheckRegion(destRect); err != nil {
		return err
	}
	if src.NumBands() != dst.NumBands() {
		log.Errorf("resample %d source bands into %d destination bands", src.NumBands(), dst.NumBands())
		return fmt.Errorf("resample %d bands into %d: %w", src.NumBands(), dst.NumBands(), raster.ErrBandMismatch)
	}
	bg, err := backgroundSamples[T](r.Background, dst.NumBands())
	if err != nil {
		log.Errorf("background does not fit destination: %v", err)
		return err
	}
	w, err := r.walker(destRect)
	if err != nil {
		return err
	}

	k := r.Kernel
	var scratch [][]float64
	if k.Kind == KindGeneral {
		scratch = util.GetLines[float64](1, k.Width*k.Height)
		defer util.ReturnLines(scratch)
	}
	fn := pixelFuncFor[T](k, scratch)

	log.Debugf("resample %v %v kernel into %v", raster.TypeOf[T](), k.Kind, destRect)

	width := destRect.Dx()
	xs := make([]Position, width)
	ys := make([]Position, width)
	valid := make([]bool, width)

	minX, maxX := int64(src.Rect.Min.X), int64(src.Rect.Max.X)
	minY, maxY := int64(src.Rect.Min.Y), int64(src.Rect.Max.Y)
	left, right := int64(k.LeftPadding()), int64(k.RightPadding())
	top, bottom := int64(k.TopPadding()), int64(k.BottomPadding())
	bands := dst.NumBands()

	for y := destRect.Min.Y; y < destRect.Max.Y; y++ {
		w.row(y, xs, ys, valid)
		for i := 0; i < width; i++ {
			x := destRect.Min.X + i
			ix, iy := xs[i].Int, ys[i].Int
			if k.Kind == KindNearest {
				ix, iy = xs[i].Nearest(), ys[i].Nearest()
			}
			if !valid[i] || ix-left < minX || ix+right >= maxX || iy-top < minY || iy+bottom >= maxY {
				if r.Background.Fill {
					for b := 0; b < bands; b++ {
						dst.Set(x, y, b, bg[b])
					}
				}
				continue
			}
			for b := 0; b < bands; b++ {
				dst.Set(x, y, b, fn(src, int(ix), int(iy), xs[i], ys[i], b))
			}
		}
	}
	return nil
}

// pixelFuncFor resolves the kernel and element type once per call.
func pixelFuncFor[T raster.Sample](k Kernel, scratch [][]float64) pixelFunc[T] {
	et := raster.TypeOf[T]()
	conv := raster.NewConverter[T]()

	switch k.Kind {
	case KindNearest:
		return func(src *raster.Buffer[T], x int, y int, _ Position, _ Position, band int) T {
			return src.At(x, y, band)
		}
	case KindBilinear:
		switch et {
		case raster.TypeByte, raster.TypeUShort:
			return bilinearFixed[T](k.SubsampleBitsH, false)
		case raster.TypeShort:
			return bilinearFixed[T](k.SubsampleBitsH, true)
		case raster.TypeInt:
			return bilinearFloat[T](conv.RoundAway)
		default:
			return bilinearFloat[T](conv.Round)
		}
	case KindBicubic:
		if et.IsFloat() {
			return tableFloat[T](k.Table, conv.Round)
		}
		return tableFixed[T](k.Table)
	default:
		return general[T](k, scratch[0], conv.Round)
	}
}

// bilinearFixed interpolates integer samples with subsampleBits of fraction
// and rounds once at the end. Signed results round half away from zero,
// unsigned results half up.
func bilinearFixed[T raster.Sample](subsampleBits int, signed bool) pixelFunc[T] {
	shift := 2 * subsampleBits
	round := int64(1) << (shift - 1)
	return func(src *raster.Buffer[T], x int, y int, px Position, py Position, band int) T {
		xf := px.FracBits(subsampleBits)
		yf := py.FracBits(subsampleBits)
		data := src.Bands[band]
		i := src.Index(x, y, band)
		s00 := int64(data[i])
		s01 := int64(data[i+src.PixelStride])
		s10 := int64(data[i+src.ScanlineStride])
		s11 := int64(data[i+src.PixelStride+src.ScanlineStride])

		s0 := (s01-s00)*xf + s00<<subsampleBits
		s1 := (s11-s10)*xf + s10<<subsampleBits
		v := (s1-s0)*yf + s0<<subsampleBits

		if signed && v < 0 {
			v = -((-v + round) >> shift)
		} else {
			v = (v + round) >> shift
		}
		return raster.ClampInt64[T](v)
	}
}

func bilinearFloat[T raster.Sample](conv func(float64) T) pixelFunc[T] {
	return func(src *raster.Buffer[T], x int, y int, px Position, py Position, band int) T {
		xf := px.Frac()
		yf := py.Frac()
		data := src.Bands[band]
		i := src.Index(x, y, band)
		s00 := float64(data[i])
		s01 := float64(data[i+src.PixelStride])
		s10 := float64(data[i+src.ScanlineStride])
		s11 := float64(data[i+src.PixelStride+src.ScanlineStride])

		s0 := s00 + (s01-s00)*xf
		s1 := s10 + (s11-s10)*xf
		return conv(s0 + (s1-s0)*yf)
	}
}

// tableFixed convolves integer samples with the fixed point coefficients,
// rounding after the horizontal pass and again after the vertical pass.
func tableFixed[T raster.Sample](t *Table) pixelFunc[T] {
	prec := t.PrecisionBits
	var round int64
	if prec > 0 {
		round = int64(1) << (prec - 1)
	}
	rows := make([]int64, t.Height)
	return func(src *raster.Buffer[T], x int, y int, px Position, py Position, band int) T {
		h := t.IntH[t.hIndex(px.FracBits(t.SubsampleBitsH)):]
		v := t.IntV[t.vIndex(py.FracBits(t.SubsampleBitsV)):]
		data := src.Bands[band]
		base := src.Index(x-t.KeyX, y-t.KeyY, band)
		for j := 0; j < t.Height; j++ {
			idx := base + j*src.ScanlineStride
			var sum int64
			for i := 0; i < t.Width; i++ {
				sum += h[i] * int64(data[idx])
				idx += src.PixelStride
			}
			rows[j] = (sum + round) >> prec
		}
		var sum int64
		for j := 0; j < t.Height; j++ {
			sum += v[j] * rows[j]
		}
		return raster.ClampInt64[T]((sum + round) >> prec)
	}
}

func tableFloat[T raster.Sample](t *Table, conv func(float64) T) pixelFunc[T] {
	return func(src *raster.Buffer[T], x int, y int, px Position, py Position, band int) T {
		h := t.DataH[t.hIndex(px.FracBits(t.SubsampleBitsH)):]
		v := t.DataV[t.vIndex(py.FracBits(t.SubsampleBitsV)):]
		data := src.Bands[band]
		base := src.Index(x-t.KeyX, y-t.KeyY, band)
		sum := 0.0
		for j := 0; j < t.Height; j++ {
			idx := base + j*src.ScanlineStride
			row := 0.0
			for i := 0; i < t.Width; i++ {
				row += h[i] * float64(data[idx])
				idx += src.PixelStride
			}
			sum += v[j] * row
		}
		return conv(sum)
	}
}

// general gathers the neighbourhood row-major and hands it to the kernel
// function.
func general[T raster.Sample](k Kernel, samples []float64, conv func(float64) T) pixelFunc[T] {
	fracH := quantiser(k.SubsampleBitsH)
	fracV := quantiser(k.SubsampleBitsV)
	return func(src *raster.Buffer[T], x int, y int, px Position, py Position, band int) T {
		data := src.Bands[band]
		base := src.Index(x-k.KeyX, y-k.KeyY, band)
		n := 0
		for j := 0; j < k.Height; j++ {
			idx := base + j*src.ScanlineStride
			for i := 0; i < k.Width; i++ {
				samples[n] = float64(data[idx])
				idx += src.PixelStride
				n++
			}
		}
		return conv(k.Func(samples, k.Width, k.Height, fracH(px), fracV(py)))
	}
}

// quantiser returns the fraction of a position rounded down to bits bits, or
// the exact fraction when bits is zero.
func quantiser(bits int) func(Position) float64 {
	if bits == 0 {
		return Position.Frac
	}
	scale := float64(int64(1) << bits)
	return func(p Position) float64 {
		return float64(p.FracBits(bits)) / scale
	}
}
