package dither

import (
	"fmt"
	"image/color"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/lucasb-eyer/go-colorful"
)

// PaletteColors returns the entries of a byte colour map as colours, in
// index order starting at cmap.Offset(). Single band maps give greys.
func PaletteColors(cmap ColorMap) ([]colorful.Color, error) {
	if cmap.ElementType() != raster.TypeByte {
		return nil, fmt.Errorf("%v colour map: %w", cmap.ElementType(), ErrTypeMismatch)
	}
	if cmap.NumBands() != 1 && cmap.NumBands() != 3 {
		return nil, fmt.Errorf("%d band colour map: %w", cmap.NumBands(), raster.ErrBandMismatch)
	}

	out := make([]colorful.Color, cmap.NumEntries())
	for i := range out {
		index := cmap.Offset() + i
		r := float64(cmap.LookupFloat(0, index)) / 255
		g, b := r, r
		if cmap.NumBands() == 3 {
			g = float64(cmap.LookupFloat(1, index)) / 255
			b = float64(cmap.LookupFloat(2, index)) / 255
		}
		out[i] = colorful.Color{R: r, G: g, B: b}
	}
	return out, nil
}

// Palette returns a palette addressed directly by index. Indices below the
// map's offset are black.
func Palette(cmap ColorMap) (color.Palette, error) {
	colors, err := PaletteColors(cmap)
	if err != nil {
		return nil, err
	}
	if cmap.Offset()+len(colors) > 256 {
		return nil, fmt.Errorf("%d entries at offset %d: %w", len(colors), cmap.Offset(), ErrIndexRange)
	}
	p := make(color.Palette, cmap.Offset(), cmap.Offset()+len(colors))
	for i := range p {
		p[i] = color.Black
	}
	for _, c := range colors {
		p = append(p, c.Clamped())
	}
	return p, nil
}

// MeanDeltaE is the mean CIE76 distance in Lab space between the source
// colours and the palette entries chosen for them. It is a quality measure
// for a dithered result; smaller is closer.
func MeanDeltaE(source []color.Color, palette color.Palette, indices []int) float64 {
	if len(source) == 0 {
		return 0
	}
	var sum float64
	for i, c := range source {
		want, _ := colorful.MakeColor(c)
		got, _ := colorful.MakeColor(palette[indices[i]])
		sum += want.DistanceLab(got)
	}
	return sum / float64(len(source))
}
