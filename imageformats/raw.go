package imageformats

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

const rawMagic = "RKZ1"

var ErrBadRaw = errors.New("malformed raw raster")

// WriteRaw dumps buf losslessly: a small header with the element type, band
// count and bounds followed by the zstd compressed little endian samples in
// raster order, bands interleaved.
func WriteRaw[T raster.Sample](buf *raster.Buffer[T], output io.Writer) error {
	hdr := make([]byte, 0, 64)
	hdr = append(hdr, rawMagic...)
	hdr = append(hdr, byte(buf.ElementType()))
	hdr = binary.AppendUvarint(hdr, uint64(buf.NumBands()))
	hdr = binary.AppendVarint(hdr, int64(buf.Rect.Min.X))
	hdr = binary.AppendVarint(hdr, int64(buf.Rect.Min.Y))
	hdr = binary.AppendUvarint(hdr, uint64(buf.Rect.Dx()))
	hdr = binary.AppendUvarint(hdr, uint64(buf.Rect.Dy()))
	if _, err := output.Write(hdr); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(output, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	nb := buf.NumBands()
	row := make([]T, buf.Rect.Dx()*nb)
	for y := buf.Rect.Min.Y; y < buf.Rect.Max.Y; y++ {
		for x := buf.Rect.Min.X; x < buf.Rect.Max.X; x++ {
			for b := 0; b < nb; b++ {
				row[(x-buf.Rect.Min.X)*nb+b] = buf.At(x, y, b)
			}
		}
		if err := binary.Write(enc, binary.LittleEndian, row); err != nil {
			_ = enc.Close()
			return err
		}
	}
	return enc.Close()
}

// RawHeader describes a raw dump.
type RawHeader struct {
	Type     raster.ElementType
	NumBands int
	Rect     image.Rectangle
}

// ReadRawHeader reads only the header of a dump written by WriteRaw.
func ReadRawHeader(input io.Reader) (RawHeader, error) {
	return readRawHeader(bufio.NewReader(input))
}

func readRawHeader(r *bufio.Reader) (RawHeader, error) {
	magic := make([]byte, len(rawMagic)+1)
	if _, err := io.ReadFull(r, magic); err != nil {
		return RawHeader{}, fmt.Errorf("header: %w", err)
	}
	if string(magic[:len(rawMagic)]) != rawMagic {
		return RawHeader{}, fmt.Errorf("magic %q: %w", magic[:len(rawMagic)], ErrBadRaw)
	}
	t := raster.ElementType(magic[len(rawMagic)])
	nb, err1 := binary.ReadUvarint(r)
	x0, err2 := binary.ReadVarint(r)
	y0, err3 := binary.ReadVarint(r)
	w, err4 := binary.ReadUvarint(r)
	h, err5 := binary.ReadUvarint(r)
	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		return RawHeader{}, fmt.Errorf("header: %w: %v", ErrBadRaw, err)
	}
	if nb == 0 || nb > 1<<16 || w > 1<<24 || h > 1<<24 || t < raster.TypeByte || t > raster.TypeDouble {
		return RawHeader{}, fmt.Errorf("%v, %d bands %dx%d: %w", t, nb, w, h, ErrBadRaw)
	}
	return RawHeader{
		Type:     t,
		NumBands: int(nb),
		Rect:     image.Rect(int(x0), int(y0), int(x0)+int(w), int(y0)+int(h)),
	}, nil
}

// ReadRaw reads a dump written by WriteRaw into an interleaved buffer of the
// recorded element type.
func ReadRaw(input io.Reader) (raster.Raster, error) {
	r := bufio.NewReader(input)
	hdr, err := readRawHeader(r)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	log.Debugf("reading %v raster %v with %d bands", hdr.Type, hdr.Rect, hdr.NumBands)
	switch hdr.Type {
	case raster.TypeByte:
		return readSamples[uint8](dec, hdr.Rect, hdr.NumBands)
	case raster.TypeShort:
		return readSamples[int16](dec, hdr.Rect, hdr.NumBands)
	case raster.TypeUShort:
		return readSamples[uint16](dec, hdr.Rect, hdr.NumBands)
	case raster.TypeInt:
		return readSamples[int32](dec, hdr.Rect, hdr.NumBands)
	case raster.TypeFloat:
		return readSamples[float32](dec, hdr.Rect, hdr.NumBands)
	default:
		return readSamples[float64](dec, hdr.Rect, hdr.NumBands)
	}
}

func readSamples[T raster.Sample](r io.Reader, rect image.Rectangle, numBands int) (raster.Raster, error) {
	buf := raster.NewInterleaved[T](rect, numBands)
	if err := binary.Read(r, binary.LittleEndian, buf.Bands[0]); err != nil {
		return nil, fmt.Errorf("samples: %w", err)
	}
	return buf, nil
}
