package dither

import (
	"errors"
	"fmt"

	"github.com/kpfaulkner/rasterkern/raster"
	log "github.com/sirupsen/logrus"
)

var (
	ErrBadLookupTable = errors.New("invalid lookup table")
	ErrBadColorCube   = errors.New("invalid colour cube")
	ErrBadMask        = errors.New("invalid dither mask")
	ErrBadKernel      = errors.New("invalid error kernel")
	ErrIndexRange     = errors.New("colour map index does not fit destination type")
	ErrTypeMismatch   = errors.New("colour map type does not match source")
)

// ColorMap maps pixels to entry indices and back. Indices include the map's
// offset, so the first entry has index Offset().
type ColorMap interface {
	NumBands() int
	NumEntries() int
	Offset() int
	ElementType() raster.ElementType
	FindNearestEntry(pixel []float32) int
	LookupFloat(band int, index int) float32
}

// LookupTable is a general colour map. Data holds one slice per band, all of
// the same length, and entry i of band b has index Offsets[b]+i.
type LookupTable struct {
	Type    raster.ElementType
	Offsets []int
	Data    [][]float64
}

var _ ColorMap = (*LookupTable)(nil)

// NewLookupTable creates a table whose bands all start at offset.
func NewLookupTable(t raster.ElementType, offset int, data ...[]float64) (*LookupTable, error) {
	offsets := make([]int, len(data))
	for i := range offsets {
		offsets[i] = offset
	}
	return NewLookupTableOffsets(t, offsets, data...)
}

// NewLookupTableOffsets creates a table with an offset per band. Indices are
// shared across bands, so every band must use the same offset.
func NewLookupTableOffsets(t raster.ElementType, offsets []int, data ...[]float64) (*LookupTable, error) {
	lt := &LookupTable{Type: t, Offsets: append([]int(nil), offsets...), Data: data}
	if err := lt.Validate(); err != nil {
		return nil, err
	}
	return lt, nil
}

func (lt *LookupTable) Validate() error {
	if len(lt.Data) == 0 || len(lt.Data[0]) == 0 {
		return fmt.Errorf("no entries: %w", ErrBadLookupTable)
	}
	if len(lt.Offsets) != len(lt.Data) {
		return fmt.Errorf("%d offsets for %d bands: %w", len(lt.Offsets), len(lt.Data), ErrBadLookupTable)
	}
	for b, off := range lt.Offsets {
		if off != lt.Offsets[0] {
			log.Errorf("lookup table band %d offset %d differs from band 0 offset %d", b, off, lt.Offsets[0])
			return fmt.Errorf("band %d offset %d, band 0 offset %d: %w", b, off, lt.Offsets[0], ErrBadLookupTable)
		}
	}
	lo, hi := lt.Type.MinValue(), lt.Type.MaxValue()
	for b, band := range lt.Data {
		if len(band) != len(lt.Data[0]) {
			return fmt.Errorf("band %d has %d entries, band 0 has %d: %w", b, len(band), len(lt.Data[0]), ErrBadLookupTable)
		}
		for i, v := range band {
			if v < lo || v > hi || v != v {
				return fmt.Errorf("entry %d of band %d is %v, outside %v range: %w", i, b, v, lt.Type, ErrBadLookupTable)
			}
		}
	}
	return nil
}

func (lt *LookupTable) NumBands() int {
	return len(lt.Data)
}

func (lt *LookupTable) NumEntries() int {
	return len(lt.Data[0])
}

// Offset returns the offset of the first band.
func (lt *LookupTable) Offset() int {
	return lt.Offsets[0]
}

func (lt *LookupTable) ElementType() raster.ElementType {
	return lt.Type
}

// LookupFloat returns the value of the entry with the given index. A single
// band table answers for every band.
func (lt *LookupTable) LookupFloat(band int, index int) float32 {
	if len(lt.Data) == 1 {
		band = 0
	}
	return float32(lt.Data[band][index-lt.Offsets[band]])
}

// FindNearestEntry returns the index of the entry with the smallest squared
// Euclidean distance to pixel. Ties go to the lowest index. A single band
// table is compared against every band of the pixel.
func (lt *LookupTable) FindNearestEntry(pixel []float32) int {
	numBands := len(pixel)
	if len(lt.Data) > 1 {
		numBands = min(numBands, len(lt.Data))
	}

	nearest := 0
	var best float32
	for i := 0; i < lt.NumEntries(); i++ {
		var dist float32
		for b := 0; b < numBands; b++ {
			d := pixel[b] - lt.entry(b, i)
			dist += d * d
		}
		if i == 0 || dist < best {
			best = dist
			nearest = i
		}
	}
	return nearest + lt.Offsets[0]
}

func (lt *LookupTable) entry(band int, i int) float32 {
	if len(lt.Data) == 1 {
		return float32(lt.Data[0][i])
	}
	return float32(lt.Data[band][i])
}

// checkIndexRange fails when an index produced by cmap cannot be stored in a
// destination of type dt.
func checkIndexRange(cmap ColorMap, dt raster.ElementType) error {
	lowest := cmap.Offset()
	highest := lowest + cmap.NumEntries() - 1
	if float64(lowest) < dt.MinValue() || float64(highest) > dt.MaxValue() {
		log.Errorf("colour map indices %d..%d do not fit %v", lowest, highest, dt)
		return fmt.Errorf("indices %d..%d for %v: %w", lowest, highest, dt, ErrIndexRange)
	}
	return nil
}
