package resample

import (
	"image"
	"math"

	"github.com/kpfaulkner/rasterkern/util"
)

// ForwardMapRect returns the destination pixels whose centres map back inside
// srcRect under m.
func ForwardMapRect(m *AffineMapper, srcRect image.Rectangle) (image.Rectangle, error) {
	fwd, err := m.Forward()
	if err != nil {
		return image.Rectangle{}, err
	}
	var xs, ys [4]float64
	for i, c := range corners(float64(srcRect.Min.X), float64(srcRect.Min.Y), float64(srcRect.Max.X), float64(srcRect.Max.Y)) {
		xs[i] = fwd[0]*c[0] + fwd[1]*c[1] + fwd[2]
		ys[i] = fwd[3]*c[0] + fwd[4]*c[1] + fwd[5]
	}
	return image.Rect(
		int(math.Ceil(util.Min(xs[:]...)-0.5)), int(math.Ceil(util.Min(ys[:]...)-0.5)),
		int(math.Ceil(util.Max(xs[:]...)-0.5)), int(math.Ceil(util.Max(ys[:]...)-0.5)),
	), nil
}

// DestBounds is ForwardMapRect for a scale mapper.
func DestBounds(m *ScaleMapper, srcRect image.Rectangle) image.Rectangle {
	r, _ := ForwardMapRect(m.Affine(), srcRect)
	return r
}

// BackwardMapRect returns the source region that destRect reads, including the
// kernel's padding. Affine and scale mappers are evaluated at the corners,
// other mappers at every destination pixel.
func BackwardMapRect(mapper Mapper, destRect image.Rectangle, k Kernel) image.Rectangle {
	if destRect.Empty() {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	visit := func(dx, dy float64) {
		sx, sy := mapper.Map(dx, dy)
		if !inRange(sx) || !inRange(sy) {
			return
		}
		minX, maxX = math.Min(minX, sx-0.5), math.Max(maxX, sx-0.5)
		minY, maxY = math.Min(minY, sy-0.5), math.Max(maxY, sy-0.5)
	}

	x0, y0 := float64(destRect.Min.X)+0.5, float64(destRect.Min.Y)+0.5
	x1, y1 := float64(destRect.Max.X)-0.5, float64(destRect.Max.Y)-0.5
	switch mapper.(type) {
	case *AffineMapper, *ScaleMapper:
		for _, c := range corners(x0, y0, x1, y1) {
			visit(c[0], c[1])
		}
	default:
		for y := destRect.Min.Y; y < destRect.Max.Y; y++ {
			for x := destRect.Min.X; x < destRect.Max.X; x++ {
				visit(float64(x)+0.5, float64(y)+0.5)
			}
		}
	}
	if math.IsInf(minX, 1) {
		return image.Rectangle{}
	}

	// nearest rounds, so allow one extra pixel on the far side
	extra := 0
	if k.Kind == KindNearest {
		extra = 1
	}
	return image.Rect(
		int(math.Floor(minX))-k.LeftPadding(),
		int(math.Floor(minY))-k.TopPadding(),
		int(math.Floor(maxX))+k.RightPadding()+1+extra,
		int(math.Floor(maxY))+k.BottomPadding()+1+extra,
	)
}

func corners(x0, y0, x1, y1 float64) [4][2]float64 {
	return [4][2]float64{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}}
}
