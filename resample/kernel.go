package resample

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrBadKernel = errors.New("invalid interpolation kernel")

type Kind int

const (
	KindNearest Kind = iota
	KindBilinear
	KindBicubic
	KindGeneral
)

func (k Kind) String() string {
	switch k {
	case KindNearest:
		return "nearest"
	case KindBilinear:
		return "bilinear"
	case KindBicubic:
		return "bicubic"
	case KindGeneral:
		return "general"
	}
	return "unknown"
}

// InterpolateFunc combines a row-major height x width neighbourhood into one
// value. xfrac and yfrac are the position of the sample point inside the key
// pixel, quantised to the kernel's subsample bits.
type InterpolateFunc func(samples []float64, width int, height int, xfrac float64, yfrac float64) float64

// Kernel describes one interpolation variant. The neighbourhood of a sample
// point with origin (x, y) is [x-KeyX, x-KeyX+Width) x [y-KeyY, y-KeyY+Height).
type Kernel struct {
	Kind           Kind
	Width          int
	Height         int
	KeyX           int
	KeyY           int
	SubsampleBitsH int
	SubsampleBitsV int
	PrecisionBits  int
	Table          *Table
	Func           InterpolateFunc
}

// Nearest picks the source pixel whose centre is closest to the sample point.
func Nearest() Kernel {
	return Kernel{Kind: KindNearest, Width: 1, Height: 1}
}

// Bilinear interpolates the 2x2 neighbourhood. Integer samples use
// subsampleBits of fixed point fraction.
func Bilinear(subsampleBits int) Kernel {
	return Kernel{
		Kind:           KindBilinear,
		Width:          2,
		Height:         2,
		SubsampleBitsH: subsampleBits,
		SubsampleBitsV: subsampleBits,
	}
}

// Bicubic convolves the neighbourhood described by table.
func Bicubic(table *Table) Kernel {
	k := Kernel{Kind: KindBicubic, Table: table}
	if table != nil {
		k.Width, k.Height = table.Width, table.Height
		k.KeyX, k.KeyY = table.KeyX, table.KeyY
		k.SubsampleBitsH, k.SubsampleBitsV = table.SubsampleBitsH, table.SubsampleBitsV
		k.PrecisionBits = table.PrecisionBits
	}
	return k
}

// General delegates the combination step to fn.
func General(width, height, keyX, keyY, subsampleBits int, fn InterpolateFunc) Kernel {
	return Kernel{
		Kind:           KindGeneral,
		Width:          width,
		Height:         height,
		KeyX:           keyX,
		KeyY:           keyY,
		SubsampleBitsH: subsampleBits,
		SubsampleBitsV: subsampleBits,
		Func:           fn,
	}
}

// TableKernel evaluates table in floating point through the general path.
// The result of the separable sum is not rounded between passes.
func TableKernel(table *Table) Kernel {
	k := General(table.Width, table.Height, table.KeyX, table.KeyY, table.SubsampleBitsH, nil)
	k.SubsampleBitsV = table.SubsampleBitsV
	k.Table = table
	hPhases := float64(int64(1) << table.SubsampleBitsH)
	vPhases := float64(int64(1) << table.SubsampleBitsV)
	k.Func = func(samples []float64, width int, height int, xfrac float64, yfrac float64) float64 {
		h := table.DataH[int(xfrac*hPhases)*width:]
		v := table.DataV[int(yfrac*vPhases)*height:]
		sum := 0.0
		for j := 0; j < height; j++ {
			row := 0.0
			for i := 0; i < width; i++ {
				row += h[i] * samples[j*width+i]
			}
			sum += v[j] * row
		}
		return sum
	}
	return k
}

func (k Kernel) LeftPadding() int {
	return k.KeyX
}

func (k Kernel) TopPadding() int {
	return k.KeyY
}

func (k Kernel) RightPadding() int {
	return k.Width - k.KeyX - 1
}

func (k Kernel) BottomPadding() int {
	return k.Height - k.KeyY - 1
}

// Validate checks that the kernel can be evaluated.
func (k Kernel) Validate() error {
	if k.Width <= 0 || k.Height <= 0 || k.KeyX < 0 || k.KeyX >= k.Width || k.KeyY < 0 || k.KeyY >= k.Height {
		log.Errorf("%v kernel %dx%d with key (%d,%d)", k.Kind, k.Width, k.Height, k.KeyX, k.KeyY)
		return fmt.Errorf("%v kernel geometry: %w", k.Kind, ErrBadKernel)
	}
	switch k.Kind {
	case KindNearest:
		if k.Width != 1 || k.Height != 1 {
			return fmt.Errorf("nearest kernel must be 1x1: %w", ErrBadKernel)
		}
	case KindBilinear:
		if k.Width != 2 || k.Height != 2 || k.KeyX != 0 || k.KeyY != 0 {
			return fmt.Errorf("bilinear kernel must be 2x2 keyed at 0: %w", ErrBadKernel)
		}
		if k.SubsampleBitsH < 1 || k.SubsampleBitsH > 16 || k.SubsampleBitsV != k.SubsampleBitsH {
			return fmt.Errorf("bilinear subsample bits %d: %w", k.SubsampleBitsH, ErrBadKernel)
		}
	case KindBicubic:
		if k.Table == nil {
			return fmt.Errorf("bicubic kernel without table: %w", ErrBadKernel)
		}
		if k.Table.Width != k.Width || k.Table.Height != k.Height {
			return fmt.Errorf("bicubic kernel disagrees with its table: %w", ErrBadKernel)
		}
	case KindGeneral:
		if k.Func == nil {
			return fmt.Errorf("general kernel without function: %w", ErrBadKernel)
		}
		if k.SubsampleBitsH < 0 || k.SubsampleBitsH > 30 || k.SubsampleBitsV < 0 || k.SubsampleBitsV > 30 {
			return fmt.Errorf("general subsample bits %d/%d: %w", k.SubsampleBitsH, k.SubsampleBitsV, ErrBadKernel)
		}
	default:
		return fmt.Errorf("kind %d: %w", k.Kind, ErrBadKernel)
	}
	return nil
}
