package resample

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/math/f64"
)

var (
	ErrSingular  = errors.New("affine transform is not invertible")
	ErrBadWarp   = errors.New("invalid warp definition")
	ErrNilMapper = errors.New("mapper is nil")
)

// Mapper maps the centre of a destination pixel to source space. Callers pass
// (dx+0.5, dy+0.5); the resampler subtracts 0.5 from the result before
// flooring it to the sample origin.
type Mapper interface {
	Map(dx float64, dy float64) (sx float64, sy float64)
}

// AffineMapper holds the destination to source transform as an f64.Aff3,
// row-major [a b c; d e f] with an implicit [0 0 1] bottom row.
type AffineMapper struct {
	Inverse f64.Aff3
}

// NewAffineMapper builds a mapper from the forward (source to destination)
// transform.
func NewAffineMapper(forward f64.Aff3) (*AffineMapper, error) {
	inv, err := invert(forward)
	if err != nil {
		log.Errorf("cannot invert affine transform %v", forward)
		return nil, err
	}
	return &AffineMapper{Inverse: inv}, nil
}

// NewInverseAffineMapper builds a mapper from an already inverted transform.
func NewInverseAffineMapper(inverse f64.Aff3) *AffineMapper {
	return &AffineMapper{Inverse: inverse}
}

func (m *AffineMapper) Map(dx float64, dy float64) (float64, float64) {
	a := &m.Inverse
	return a[0]*dx + a[1]*dy + a[2], a[3]*dx + a[4]*dy + a[5]
}

// Forward returns the source to destination transform.
func (m *AffineMapper) Forward() (f64.Aff3, error) {
	return invert(m.Inverse)
}

func invert(m f64.Aff3) (f64.Aff3, error) {
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return f64.Aff3{}, ErrSingular
	}
	return f64.Aff3{
		m[4] / det, -m[1] / det, (m[1]*m[5] - m[4]*m[2]) / det,
		-m[3] / det, m[0] / det, (m[3]*m[2] - m[0]*m[5]) / det,
	}, nil
}

// ScaleMapper is the pure scale and translate mapping, dst = src*scale + trans.
// Keeping the factors rational lets the resampler step exactly.
type ScaleMapper struct {
	ScaleX Rational
	ScaleY Rational
	TransX Rational
	TransY Rational
}

func NewScaleMapper(scaleX, scaleY, transX, transY Rational) (*ScaleMapper, error) {
	for _, r := range []Rational{scaleX, scaleY, transX, transY} {
		if r.Den == 0 {
			log.Errorf("scale mapper with zero denominator %v", r)
			return nil, ErrZeroDenom
		}
	}
	if scaleX.Num*scaleX.Den <= 0 || scaleY.Num*scaleY.Den <= 0 {
		log.Errorf("scale mapper with scale %v x %v", scaleX, scaleY)
		return nil, ErrZeroScale
	}
	return &ScaleMapper{
		ScaleX: NewRational(scaleX.Num, scaleX.Den),
		ScaleY: NewRational(scaleY.Num, scaleY.Den),
		TransX: NewRational(transX.Num, transX.Den),
		TransY: NewRational(transY.Num, transY.Den),
	}, nil
}

func (m *ScaleMapper) Map(dx float64, dy float64) (float64, float64) {
	return (dx - m.TransX.Float()) / m.ScaleX.Float(), (dy - m.TransY.Float()) / m.ScaleY.Float()
}

// Affine returns the equivalent inverse affine mapper.
func (m *ScaleMapper) Affine() *AffineMapper {
	sx, sy := m.ScaleX.Float(), m.ScaleY.Float()
	return NewInverseAffineMapper(f64.Aff3{
		1 / sx, 0, -m.TransX.Float() / sx,
		0, 1 / sy, -m.TransY.Float() / sy,
	})
}

// WarpFunc fills coords with width (sx, sy) pairs: the source positions of the
// centres of destination pixels (dstX+i, dstY) for i in [0, width). Working a
// row at a time lets a warp amortise its per row setup.
type WarpFunc func(dstX int, dstY int, width int, coords []float64)

// WarpMapper wraps a row batch warp.
type WarpMapper struct {
	Func WarpFunc
}

func NewWarpMapper(fn WarpFunc) (*WarpMapper, error) {
	if fn == nil {
		return nil, fmt.Errorf("nil warp function: %w", ErrBadWarp)
	}
	return &WarpMapper{Func: fn}, nil
}

func (m *WarpMapper) Map(dx float64, dy float64) (float64, float64) {
	var c [2]float64
	m.Func(int(math.Floor(dx)), int(math.Floor(dy)), 1, c[:])
	return c[0], c[1]
}

// NewPolynomialWarp builds a polynomial warp. Coefficients are ordered
// 1, x, y, x^2, xy, y^2, x^3, x^2y, xy^2, y^3 (as many as the degree needs).
// Destination centres are multiplied by preScale before evaluation and the
// result by postScale.
func NewPolynomialWarp(xCoeffs []float64, yCoeffs []float64, preScaleX, preScaleY, postScaleX, postScaleY float64) (*WarpMapper, error) {
	if len(xCoeffs) != len(yCoeffs) {
		return nil, fmt.Errorf("x has %d coefficients, y has %d: %w", len(xCoeffs), len(yCoeffs), ErrBadWarp)
	}
	degree := -1
	for d := 0; d <= 7; d++ {
		if (d+1)*(d+2)/2 == len(xCoeffs) {
			degree = d
			break
		}
	}
	if degree < 0 {
		log.Errorf("polynomial warp with %d coefficients", len(xCoeffs))
		return nil, fmt.Errorf("%d coefficients is not a complete polynomial: %w", len(xCoeffs), ErrBadWarp)
	}
	xc := append([]float64(nil), xCoeffs...)
	yc := append([]float64(nil), yCoeffs...)

	return NewWarpMapper(func(dstX int, dstY int, width int, coords []float64) {
		y := (float64(dstY) + 0.5) * preScaleY
		for i := 0; i < width; i++ {
			x := (float64(dstX+i) + 0.5) * preScaleX
			sx, sy := 0.0, 0.0
			k := 0
			for d := 0; d <= degree; d++ {
				for j := 0; j <= d; j++ {
					term := math.Pow(x, float64(d-j)) * math.Pow(y, float64(j))
					sx += xc[k] * term
					sy += yc[k] * term
					k++
				}
			}
			coords[2*i] = sx * postScaleX
			coords[2*i+1] = sy * postScaleY
		}
	})
}

// GridWarp describes a regular grid of control points. Positions holds
// (sx, sy) pairs for (xNumCells+1)*(yNumCells+1) points in row-major order,
// the point (i, j) sitting on destination centre
// (xStart + i*xStep, yStart + j*yStep). Destination pixels outside the grid map
// to themselves.
type GridWarp struct {
	XStart, XStep, XNumCells int
	YStart, YStep, YNumCells int
	Positions                []float64
}

// NewGridWarp validates the grid and returns its mapper.
func NewGridWarp(g GridWarp) (*WarpMapper, error) {
	if g.XStep <= 0 || g.YStep <= 0 || g.XNumCells <= 0 || g.YNumCells <= 0 {
		return nil, fmt.Errorf("grid steps and cell counts must be positive: %w", ErrBadWarp)
	}
	if want := 2 * (g.XNumCells + 1) * (g.YNumCells + 1); len(g.Positions) != want {
		log.Errorf("grid warp needs %d positions, got %d", want, len(g.Positions))
		return nil, fmt.Errorf("grid needs %d positions, got %d: %w", want, len(g.Positions), ErrBadWarp)
	}
	pos := append([]float64(nil), g.Positions...)
	xEnd := g.XStart + g.XStep*g.XNumCells
	yEnd := g.YStart + g.YStep*g.YNumCells
	stride := 2 * (g.XNumCells + 1)

	return NewWarpMapper(func(dstX int, dstY int, width int, coords []float64) {
		y := dstY
		inY := y >= g.YStart && y < yEnd
		cy, fy := 0, 0.0
		if inY {
			cy = (y - g.YStart) / g.YStep
			fy = float64(y-g.YStart-cy*g.YStep) / float64(g.YStep)
		}
		for i := 0; i < width; i++ {
			x := dstX + i
			if !inY || x < g.XStart || x >= xEnd {
				coords[2*i] = float64(x) + 0.5
				coords[2*i+1] = float64(y) + 0.5
				continue
			}
			cx := (x - g.XStart) / g.XStep
			fx := float64(x-g.XStart-cx*g.XStep) / float64(g.XStep)
			p00 := cy*stride + 2*cx
			p10 := p00 + stride
			for c := 0; c < 2; c++ {
				top := pos[p00+c] + (pos[p00+2+c]-pos[p00+c])*fx
				bottom := pos[p10+c] + (pos[p10+2+c]-pos[p10+c])*fx
				coords[2*i+c] = top + (bottom-top)*fy
			}
		}
	})
}
