package rasterkern

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/kpfaulkner/rasterkern/dither"
	"github.com/kpfaulkner/rasterkern/extrema"
	image2 "github.com/kpfaulkner/rasterkern/image"
	"github.com/kpfaulkner/rasterkern/imageformats"
	"github.com/kpfaulkner/rasterkern/options"
	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/resample"
	"github.com/kpfaulkner/rasterkern/tiles"
	"github.com/kpfaulkner/rasterkern/transpose"
	log "github.com/sirupsen/logrus"
)

const rawHeader = "RKZ1"

var ErrBadSize = errors.New("bad output size")

func init() {
	image.RegisterFormat("rkz", rawHeader, Decode, DecodeConfig)
}

// Decode reads a raw raster dump as an image. Only byte and ushort rasters
// with 1, 3 or 4 bands have an image representation.
func Decode(r io.Reader) (image.Image, error) {
	ras, err := imageformats.ReadRaw(r)
	if err != nil {
		return nil, err
	}
	return image2.ToImage(ras)
}

func DecodeConfig(r io.Reader) (image.Config, error) {
	hdr, err := imageformats.ReadRawHeader(r)
	if err != nil {
		return image.Config{}, err
	}

	var colourModel color.Model
	wide := hdr.Type == raster.TypeUShort
	switch {
	case hdr.NumBands == 1 && wide:
		colourModel = color.Gray16Model
	case hdr.NumBands == 1:
		colourModel = color.GrayModel
	case wide:
		colourModel = color.NRGBA64Model
	default:
		colourModel = color.NRGBAModel
	}

	return image.Config{
		ColorModel: colourModel,
		Width:      hdr.Rect.Dx(),
		Height:     hdr.Rect.Dy(),
	}, nil
}

// Configure applies the process wide parts of opts: the log level and the
// ordered dither table cache size.
func Configure(opts *options.RasterOptions) {
	opts = options.NewRasterOptions(opts)
	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}
	dither.SetLUTCacheSize(opts.LUTCacheSize)
}

// KernelByName returns one of the interpolation kernels "nearest",
// "bilinear", "bicubic" or "bicubic2" with the precision set in opts.
func KernelByName(name string, opts *options.RasterOptions) (resample.Kernel, error) {
	opts = options.NewRasterOptions(opts)
	switch name {
	case "nearest":
		return resample.Nearest(), nil
	case "bilinear":
		return resample.Bilinear(opts.SubsampleBits), nil
	case "bicubic":
		table, err := resample.NewBicubicTable(opts.SubsampleBits, opts.PrecisionBits)
		if err != nil {
			return resample.Kernel{}, err
		}
		return resample.Bicubic(table), nil
	case "bicubic2":
		table, err := resample.NewBicubic2Table(opts.SubsampleBits, opts.PrecisionBits)
		if err != nil {
			return resample.Kernel{}, err
		}
		return resample.Bicubic(table), nil
	}
	return resample.Kernel{}, fmt.Errorf("unknown kernel %q", name)
}

// Resize scales img to width x height. Edge pixels are replicated outwards
// so the kernel never reads past the image.
func Resize(img image.Image, width int, height int, kernel resample.Kernel, opts *options.RasterOptions) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrBadSize)
	}
	src := image2.FromImage(img)
	if src.Rect.Empty() {
		return nil, fmt.Errorf("empty source: %w", raster.ErrEmptyRect)
	}

	sx := resample.NewRational(int64(width), int64(src.Rect.Dx()))
	sy := resample.NewRational(int64(height), int64(src.Rect.Dy()))
	r, err := resample.Scale(sx, sy, resample.Int(0), resample.Int(0), kernel, resample.NoFill())
	if err != nil {
		return nil, err
	}

	padded := extendEdges(src, kernel)
	dst := raster.NewInterleaved[uint8](image.Rect(0, 0, width, height), src.NumBands())
	if err := resampleBuffer(r, padded, dst, opts); err != nil {
		return nil, err
	}
	return image2.ToImage(dst)
}

func resampleBuffer[T raster.Sample](r *resample.Resampler, src *raster.Buffer[T], dst *raster.Buffer[T], opts *options.RasterOptions) error {
	opts = options.NewRasterOptions(opts)
	mem, err := tiles.NewMemorySource(src, opts.TileSize, opts.TileSize)
	if err != nil {
		return err
	}
	return tiles.Resample[T](context.Background(), r, mem, dst, opts)
}

// extendEdges copies buf into a buffer grown by the kernel padding on every
// side, filling the border with the nearest edge pixel.
func extendEdges[T raster.Sample](buf *raster.Buffer[T], k resample.Kernel) *raster.Buffer[T] {
	// rounding may step one pixel past the nominal neighbourhood
	left, top := k.LeftPadding()+1, k.TopPadding()+1
	right, bottom := k.RightPadding()+1, k.BottomPadding()+1
	rect := image.Rect(buf.Rect.Min.X-left, buf.Rect.Min.Y-top, buf.Rect.Max.X+right, buf.Rect.Max.Y+bottom)

	out := raster.NewInterleaved[T](rect, buf.NumBands())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		sy := min(max(y, buf.Rect.Min.Y), buf.Rect.Max.Y-1)
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sx := min(max(x, buf.Rect.Min.X), buf.Rect.Max.X-1)
			for b := 0; b < buf.NumBands(); b++ {
				out.Set(x, y, b, buf.At(sx, sy, b))
			}
		}
	}
	return out
}

// DitherOptions selects the dithering method. A non nil Mask selects ordered
// dithering, otherwise the error is diffused with Kernel. Cube defaults to
// ColorCubeByte496 and Kernel to Floyd-Steinberg.
type DitherOptions struct {
	Cube   *dither.ColorCube
	Mask   *dither.DitherMask
	Kernel *dither.ErrorKernel
}

// Dither reduces img to the colours of a byte colour cube. Alpha is dropped
// and grey images are treated as RGB.
func Dither(img image.Image, opts DitherOptions) (*image.Paletted, error) {
	if opts.Cube == nil {
		opts.Cube = dither.ColorCubeByte496
	}
	if opts.Kernel == nil {
		opts.Kernel = dither.FloydSteinberg
	}

	src, err := selectBands(image2.FromImage(img), opts.Cube.NumBands())
	if err != nil {
		return nil, err
	}
	indices := raster.NewBanded[uint8](src.Rect, 1)
	if opts.Mask != nil {
		err = dither.Ordered(src, indices, src.Rect, opts.Cube, opts.Mask)
	} else {
		err = dither.ErrorDiffusion(src, indices, src.Rect, opts.Cube, opts.Kernel)
	}
	if err != nil {
		return nil, err
	}
	return image2.ToPaletted(indices, opts.Cube)
}

// selectBands views the first n bands of buf, repeating band 0 when buf has
// a single band. No samples are copied.
func selectBands[T raster.Sample](buf *raster.Buffer[T], n int) (*raster.Buffer[T], error) {
	view := &raster.Buffer[T]{
		PixelStride:    buf.PixelStride,
		ScanlineStride: buf.ScanlineStride,
		Rect:           buf.Rect,
	}
	switch {
	case buf.NumBands() == 1:
		for i := 0; i < n; i++ {
			view.Bands = append(view.Bands, buf.Bands[0])
			view.BandOffsets = append(view.BandOffsets, buf.BandOffsets[0])
		}
	case buf.NumBands() >= n:
		view.Bands = buf.Bands[:n]
		view.BandOffsets = buf.BandOffsets[:n]
	default:
		return nil, fmt.Errorf("%d bands for %d: %w", buf.NumBands(), n, raster.ErrBandMismatch)
	}
	return view, nil
}

// Transpose flips or rotates img.
func Transpose(img image.Image, t transpose.Type, opts *options.RasterOptions) (image.Image, error) {
	opts = options.NewRasterOptions(opts)
	src := image2.FromImage(img)
	mem, err := tiles.NewMemorySource(src, opts.TileSize, opts.TileSize)
	if err != nil {
		return nil, err
	}
	dst := raster.NewInterleaved[uint8](transpose.DestBounds(src.Rect, t), src.NumBands())
	if err := tiles.Transpose[uint8](context.Background(), mem, dst, t, opts); err != nil {
		return nil, err
	}
	return image2.ToImage(dst)
}

// ResizeBinary thresholds the luminance of img and scales the packed result
// to width x height with a nearest or bilinear kernel. Set pixels are white
// in the returned image.
func ResizeBinary(img image.Image, width int, height int, threshold uint8, kernel resample.Kernel) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrBadSize)
	}
	grey := image2.Grayscale(img)
	if grey.Rect.Empty() {
		return nil, fmt.Errorf("empty source: %w", raster.ErrEmptyRect)
	}

	sx := resample.NewRational(int64(width), int64(grey.Rect.Dx()))
	sy := resample.NewRational(int64(height), int64(grey.Rect.Dy()))
	r, err := resample.Scale(sx, sy, resample.Int(0), resample.Int(0), kernel, resample.NoFill())
	if err != nil {
		return nil, err
	}

	src := image2.ThresholdBits(extendEdges(grey, kernel), 0, threshold)
	dst := raster.NewBits(image.Rect(0, 0, width, height))
	if err := resample.ComputeBits(r, src, dst, dst.Rect); err != nil {
		return nil, err
	}
	return image2.FromBits(dst), nil
}

// TransposeBinary thresholds the luminance of img and flips or rotates the
// packed result.
func TransposeBinary(img image.Image, threshold uint8, t transpose.Type) (*image.Gray, error) {
	src := image2.ThresholdBits(image2.Grayscale(img), 0, threshold)
	dst, err := transpose.TransposeBits(src, t)
	if err != nil {
		return nil, err
	}
	return image2.FromBits(dst), nil
}

// Extrema returns the per band minimum and maximum of img over the pixels
// selected by cfg. Coordinates are relative to the top left of img.
func Extrema(img image.Image, cfg extrema.Config) ([]float64, []float64, error) {
	src := image2.FromImage(img)
	tr, err := extrema.NewTracker(src.NumBands(), cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := tr.Accumulate(src, src.Rect); err != nil {
		return nil, nil, err
	}
	mins, maxs, _ := tr.Extrema()
	return mins, maxs, nil
}
