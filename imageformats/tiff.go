package imageformats

import (
	"fmt"
	"io"

	image2 "github.com/kpfaulkner/rasterkern/image"
	"github.com/kpfaulkner/rasterkern/raster"
	"golang.org/x/image/tiff"
)

// WriteTIFF encodes a 1, 3 or 4 band byte or ushort raster as a deflate
// compressed TIFF.
func WriteTIFF(r raster.Raster, output io.Writer) error {
	img, err := image2.ToImage(r)
	if err != nil {
		return err
	}
	if err := tiff.Encode(output, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return fmt.Errorf("tiff: %w", err)
	}
	return nil
}

// ReadTIFF decodes a TIFF into an interleaved byte buffer.
func ReadTIFF(input io.Reader) (*raster.Buffer[uint8], error) {
	img, err := tiff.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("tiff: %w", err)
	}
	return image2.FromImage(img), nil
}
