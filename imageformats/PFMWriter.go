package imageformats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/kpfaulkner/rasterkern/raster"
)

var ErrBadPFM = errors.New("malformed PFM")

// WritePFM writes a one band (Pf) or three band (PF) float buffer as a big
// endian portable float map, bottom row first.
func WritePFM(img *raster.Buffer[float32], output io.Writer) error {

	gray := img.NumBands() == 1
	if !gray && img.NumBands() != 3 {
		return fmt.Errorf("PFM of %d bands: %w", img.NumBands(), raster.ErrBandMismatch)
	}
	width := img.Rect.Dx()
	height := img.Rect.Dy()

	pf := "Pf"
	if !gray {
		pf = "PF"
	}
	header := fmt.Sprintf("%s\n%d %d\n1.0\n", pf, width, height)
	if _, err := output.Write([]byte(header)); err != nil {
		return err
	}
	cCount := img.NumBands()
	row := make([]float32, width*cCount)
	var buf bytes.Buffer
	for y := img.Rect.Max.Y - 1; y >= img.Rect.Min.Y; y-- {
		for x := 0; x < width; x++ {
			for c := 0; c < cCount; c++ {
				row[x*cCount+c] = img.At(img.Rect.Min.X+x, y, c)
			}
		}
		buf.Reset()
		if err := binary.Write(&buf, binary.BigEndian, row); err != nil {
			return err
		}
		if _, err := output.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// ReadPFM reads a portable float map written by WritePFM or any other
// encoder. A negative scale marks little endian data.
func ReadPFM(input io.Reader) (*raster.Buffer[float32], error) {
	r := bufio.NewReader(input)
	var magic string
	var width, height int
	var scale float64
	if _, err := fmt.Fscan(r, &magic, &width, &height, &scale); err != nil {
		return nil, fmt.Errorf("header: %w: %v", ErrBadPFM, err)
	}
	// exactly one whitespace byte separates the header from the data
	if _, err := r.ReadByte(); err != nil {
		return nil, fmt.Errorf("header: %w: %v", ErrBadPFM, err)
	}

	numBands := 0
	switch magic {
	case "Pf":
		numBands = 1
	case "PF":
		numBands = 3
	default:
		return nil, fmt.Errorf("magic %q: %w", magic, ErrBadPFM)
	}
	if width <= 0 || height <= 0 || scale == 0 || math.IsNaN(scale) {
		return nil, fmt.Errorf("%dx%d scale %v: %w", width, height, scale, ErrBadPFM)
	}
	var order binary.ByteOrder = binary.BigEndian
	if scale < 0 {
		order = binary.LittleEndian
	}

	img := raster.NewInterleaved[float32](image.Rect(0, 0, width, height), numBands)
	for y := height - 1; y >= 0; y-- {
		row := img.Bands[0][y*img.ScanlineStride : (y+1)*img.ScanlineStride]
		if err := binary.Read(r, order, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", y, err)
		}
	}
	return img, nil
}
