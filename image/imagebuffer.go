package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/kpfaulkner/rasterkern/dither"
	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

var ErrUnsupported = errors.New("unsupported raster for image conversion")

// FromImage copies img into an interleaved byte buffer with origin (0,0).
// Gray images give one band, opaque images three bands and everything else
// four bands of non premultiplied RGBA.
func FromImage(img image.Image) *raster.Buffer[uint8] {
	if g, ok := img.(*image.Gray); ok {
		out := raster.NewInterleaved[uint8](image.Rect(0, 0, g.Rect.Dx(), g.Rect.Dy()), 1)
		for y := 0; y < g.Rect.Dy(); y++ {
			row := g.Pix[y*g.Stride:]
			copy(out.Bands[0][y*out.ScanlineStride:], row[:g.Rect.Dx()])
		}
		return out
	}

	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	numBands := 4
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		numBands = 3
	}
	out := raster.NewInterleaved[uint8](image.Rect(0, 0, w, h), numBands)
	data := out.Bands[0]
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := data[y*out.ScanlineStride:]
		if numBands == 4 {
			copy(dst, src[:4*w])
			continue
		}
		for x := 0; x < w; x++ {
			copy(dst[3*x:3*x+3], src[4*x:4*x+3])
		}
	}
	log.Debugf("image %v as %d byte bands", img.Bounds(), numBands)
	return out
}

// ToImage converts a 1, 3 or 4 band byte or ushort raster to an image.
// Three bands are written opaque.
func ToImage(r raster.Raster) (image.Image, error) {
	bounds := r.Bounds()
	nb := r.NumBands()
	if nb != 1 && nb != 3 && nb != 4 {
		return nil, fmt.Errorf("%d bands: %w", nb, ErrUnsupported)
	}

	switch r.ElementType() {
	case raster.TypeByte:
		if nb == 1 {
			img := image.NewGray(bounds)
			for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					img.SetGray(x, y, color.Gray{Y: uint8(r.Sample(x, y, 0))})
				}
			}
			return img, nil
		}
		img := image.NewNRGBA(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBA{R: uint8(r.Sample(x, y, 0)), G: uint8(r.Sample(x, y, 1)), B: uint8(r.Sample(x, y, 2)), A: 0xff}
				if nb == 4 {
					c.A = uint8(r.Sample(x, y, 3))
				}
				img.SetNRGBA(x, y, c)
			}
		}
		return img, nil
	case raster.TypeUShort:
		if nb == 1 {
			img := image.NewGray16(bounds)
			for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					img.SetGray16(x, y, color.Gray16{Y: uint16(r.Sample(x, y, 0))})
				}
			}
			return img, nil
		}
		img := image.NewNRGBA64(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBA64{R: uint16(r.Sample(x, y, 0)), G: uint16(r.Sample(x, y, 1)), B: uint16(r.Sample(x, y, 2)), A: 0xffff}
				if nb == 4 {
					c.A = uint16(r.Sample(x, y, 3))
				}
				img.SetNRGBA64(x, y, c)
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("%v samples: %w", r.ElementType(), ErrUnsupported)
}

// ToPaletted wraps band 0 of a dithered index buffer as a paletted image
// whose palette comes from cmap.
func ToPaletted(indices *raster.Buffer[uint8], cmap dither.ColorMap) (*image.Paletted, error) {
	palette, err := dither.Palette(cmap)
	if err != nil {
		return nil, err
	}
	img := image.NewPaletted(indices.Rect, palette)
	for y := indices.Rect.Min.Y; y < indices.Rect.Max.Y; y++ {
		row := img.Pix[(y-indices.Rect.Min.Y)*img.Stride:]
		for x := indices.Rect.Min.X; x < indices.Rect.Max.X; x++ {
			row[x-indices.Rect.Min.X] = indices.At(x, y, 0)
		}
	}
	return img, nil
}

// Colors returns the first three bands of every pixel of a byte buffer as
// opaque colours in raster order. One band buffers give greys.
func Colors(buf *raster.Buffer[uint8]) []color.Color {
	out := make([]color.Color, 0, buf.Rect.Dx()*buf.Rect.Dy())
	for y := buf.Rect.Min.Y; y < buf.Rect.Max.Y; y++ {
		for x := buf.Rect.Min.X; x < buf.Rect.Max.X; x++ {
			if buf.NumBands() < 3 {
				v := buf.At(x, y, 0)
				out = append(out, color.NRGBA{R: v, G: v, B: v, A: 0xff})
				continue
			}
			out = append(out, color.NRGBA{R: buf.At(x, y, 0), G: buf.At(x, y, 1), B: buf.At(x, y, 2), A: 0xff})
		}
	}
	return out
}

// Indices returns band 0 of an index buffer in raster order.
func Indices(buf *raster.Buffer[uint8]) []int {
	out := make([]int, 0, buf.Rect.Dx()*buf.Rect.Dy())
	for y := buf.Rect.Min.Y; y < buf.Rect.Max.Y; y++ {
		for x := buf.Rect.Min.X; x < buf.Rect.Max.X; x++ {
			out = append(out, int(buf.At(x, y, 0)))
		}
	}
	return out
}

// CastToFloat scales integer samples into [0, 1] by maxValue.
func CastToFloat[T raster.Sample](buf *raster.Buffer[T], maxValue float64) *raster.Buffer[float32] {
	out := raster.NewInterleaved[float32](buf.Rect, buf.NumBands())
	for b := 0; b < buf.NumBands(); b++ {
		for y := buf.Rect.Min.Y; y < buf.Rect.Max.Y; y++ {
			for x := buf.Rect.Min.X; x < buf.Rect.Max.X; x++ {
				out.Set(x, y, b, float32(float64(buf.At(x, y, b))/maxValue))
			}
		}
	}
	return out
}

// CastToInt is the inverse of CastToFloat, rounding and clamping to T.
func CastToInt[T raster.Sample](buf *raster.Buffer[float32], maxValue float64) *raster.Buffer[T] {
	out := raster.NewInterleaved[T](buf.Rect, buf.NumBands())
	for b := 0; b < buf.NumBands(); b++ {
		for y := buf.Rect.Min.Y; y < buf.Rect.Max.Y; y++ {
			for x := buf.Rect.Min.X; x < buf.Rect.Max.X; x++ {
				out.SetSample(x, y, b, float64(buf.At(x, y, b))*maxValue)
			}
		}
	}
	return out
}

// Grayscale converts img to a single band of luminance with origin (0,0).
func Grayscale(img image.Image) *raster.Buffer[uint8] {
	grey := FromImage(imaging.Grayscale(img))
	out := raster.NewBanded[uint8](grey.Rect, 1)
	if err := out.CopyFrom(&raster.Buffer[uint8]{
		Bands:          grey.Bands[:1],
		BandOffsets:    grey.BandOffsets[:1],
		PixelStride:    grey.PixelStride,
		ScanlineStride: grey.ScanlineStride,
		Rect:           grey.Rect,
	}, grey.Rect); err != nil {
		log.Errorf("grayscale copy: %v", err)
	}
	return out
}

// ThresholdBits packs one band of buf, setting the pixels at or above
// threshold.
func ThresholdBits(buf *raster.Buffer[uint8], band int, threshold uint8) *raster.Bits {
	out := raster.NewBits(buf.Rect)
	for y := buf.Rect.Min.Y; y < buf.Rect.Max.Y; y++ {
		for x := buf.Rect.Min.X; x < buf.Rect.Max.X; x++ {
			if buf.At(x, y, band) >= threshold {
				out.Set(x, y, 1)
			}
		}
	}
	return out
}

// FromBits renders packed pixels as a grey image, set pixels white.
func FromBits(b *raster.Bits) *image.Gray {
	img := image.NewGray(b.Rect)
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Rect.Min.X, y):]
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			row[x-b.Rect.Min.X] = b.At(x, y) * 255
		}
	}
	return img
}
