package dither

import (
	"fmt"
	"image"
	"math"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/util"
	log "github.com/sirupsen/logrus"
)

// ErrorDiffusion quantises rect of src to indices of cmap, written to band 0
// of dst. The quantisation error of each pixel is spread over its unvisited
// neighbours with the weights of kernel. rect is the whole diffusion domain:
// no error enters from or leaves to pixels outside it.
//
// Only kernel.Height-kernel.YOrigin source rows are held at a time. Three
// band byte sources dithered to a byte colour cube with the Floyd-Steinberg
// kernel take an integer only path.
func ErrorDiffusion[S raster.Sample, D raster.Sample](src *raster.Buffer[S], dst *raster.Buffer[D], rect image.Rectangle, cmap ColorMap, kernel *ErrorKernel) error {
	if err := checkDiffusion(src, dst, rect, cmap, kernel); err != nil {
		return err
	}
	if rect.Empty() {
		return nil
	}

	if cube, ok := cmap.(*ColorCube); ok && kernel.isFloydSteinberg() && fastCube(cube) {
		s8, sok := any(src).(*raster.Buffer[uint8])
		d8, dok := any(dst).(*raster.Buffer[uint8])
		if sok && dok && src.NumBands() == 3 {
			log.Debugf("error diffusion %v with the Floyd-Steinberg byte path", rect)
			floydSteinbergByte(s8, d8, rect, cube)
			return nil
		}
	}
	log.Debugf("error diffusion %v with a %dx%d kernel", rect, kernel.Width, kernel.Height)
	diffuse(src, dst, rect, cmap, kernel)
	return nil
}

func checkDiffusion[S raster.Sample, D raster.Sample](src *raster.Buffer[S], dst *raster.Buffer[D], rect image.Rectangle, cmap ColorMap, kernel *ErrorKernel) error {
	if src == nil || dst == nil || cmap == nil || kernel == nil {
		return ErrNilArgument
	}
	if err := kernel.Validate(); err != nil {
		return err
	}
	switch m := cmap.(type) {
	case *ColorCube:
		if err := m.Validate(); err != nil {
			return err
		}
	case *LookupTable:
		if err := m.Validate(); err != nil {
			return err
		}
	}
	if (cmap.NumBands() != 1 && cmap.NumBands() != src.NumBands()) || dst.NumBands() != 1 {
		log.Errorf("error diffusion of %d bands with a %d band map into %d bands", src.NumBands(), cmap.NumBands(), dst.NumBands())
		return fmt.Errorf("source %d, map %d, destination %d bands: %w", src.NumBands(), cmap.NumBands(), dst.NumBands(), raster.ErrBandMismatch)
	}
	if _, ok := cmap.(*ColorCube); ok && cmap.NumBands() != src.NumBands() {
		return fmt.Errorf("cube %d, source %d bands: %w", cmap.NumBands(), src.NumBands(), raster.ErrBandMismatch)
	}
	if err := src.CheckRegion(rect); err != nil {
		return err
	}
	if err := dst.CheckRegion(rect); err != nil {
		return err
	}
	return checkIndexRange(cmap, raster.TypeOf[D]())
}

// pixelRange is the range samples are clamped to before the nearest entry is
// looked up.
func pixelRange(t raster.ElementType) (float32, float32) {
	switch t {
	case raster.TypeByte:
		return 0, math.MaxUint8
	case raster.TypeShort:
		return math.MinInt16, math.MaxInt16
	case raster.TypeUShort:
		return 0, math.MaxUint16
	case raster.TypeInt:
		return math.MinInt32, math.MaxInt32
	default:
		return 0, math.MaxFloat32
	}
}

func diffuse[S raster.Sample, D raster.Sample](src *raster.Buffer[S], dst *raster.Buffer[D], rect image.Rectangle, cmap ColorMap, kernel *ErrorKernel) {
	nb := src.NumBands()
	width := rect.Dx()
	numLines := kernel.Height - kernel.YOrigin
	diffuseRight := kernel.Width - kernel.XOrigin - 1
	diffuseBelow := numLines - 1
	lo, hi := pixelRange(cmap.ElementType())
	toDst := raster.ClampInt64[D]

	lines := util.GetLines[float32](numLines, width*nb)
	defer util.ReturnLines(lines)
	order := make([]int, numLines)
	load := func(line []float32, y int) {
		for b := 0; b < nb; b++ {
			si := src.Index(rect.Min.X, y, b)
			s := src.Bands[b]
			for x := b; x < len(line); x += nb {
				line[x] = float32(s[si])
				si += src.PixelStride
			}
		}
	}
	for i := range order {
		order[i] = i
		if rect.Min.Y+i < rect.Max.Y {
			load(lines[i], rect.Min.Y+i)
		}
	}

	pixel := make([]float32, nb)
	qerr := make([]float32, nb)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		current := lines[order[0]]
		di := dst.Index(rect.Min.X, y, 0)
		for x := 0; x < width; x++ {
			z := x * nb
			for b := range pixel {
				pixel[b] = min(max(current[z+b], lo), hi)
			}
			nearest := cmap.FindNearestEntry(pixel)
			dst.Bands[0][di] = toDst(int64(nearest))
			di += dst.PixelStride

			hasError := false
			for b := range qerr {
				qerr[b] = pixel[b] - cmap.LookupFloat(b, nearest)
				if qerr[b] != 0 {
					hasError = true
				}
			}
			if !hasError {
				continue
			}

			for u := 1; u <= min(diffuseRight, width-1-x); u++ {
				w := kernel.At(kernel.XOrigin+u, kernel.YOrigin)
				at := z + u*nb
				for b := range qerr {
					current[at+b] += qerr[b] * w
				}
			}
			for v := 1; v <= diffuseBelow; v++ {
				line := lines[order[v]]
				for u := max(-kernel.XOrigin, -x); u <= min(diffuseRight, width-1-x); u++ {
					w := kernel.At(kernel.XOrigin+u, kernel.YOrigin+v)
					if w == 0 {
						continue
					}
					at := z + u*nb
					for b := range qerr {
						line[at+b] += qerr[b] * w
					}
				}
			}
		}

		first := order[0]
		copy(order, order[1:])
		order[numLines-1] = first
		if y+numLines < rect.Max.Y {
			load(lines[first], y+numLines)
		}
	}
}

// fastCube reports whether the integer Floyd-Steinberg path can represent
// cube: three byte bands, each with at least two levels running upwards.
func fastCube(c *ColorCube) bool {
	if c.Type != raster.TypeByte || c.NumBands() != 3 {
		return false
	}
	for b := range c.Dims {
		if c.Dims[b] < 2 {
			return false
		}
	}
	return true
}

const (
	fsGrays      = 256
	fsUndershoot = 256
	fsOvershoot  = 256
	fsTotal      = fsUndershoot + fsGrays + fsOvershoot
	fsErrShift   = 8
)

// floydSteinbergTable folds cube binning and the quantisation error into one
// table per band. Entry gray+fsUndershoot holds error<<fsErrShift plus the
// band's contribution to the index, so gray levels pushed out of [0,255] by
// diffused error still resolve. The cube offset is folded into band 0.
func floydSteinbergTable(c *ColorCube) []int32 {
	table := make([]int32, 3*fsTotal)
	for band := 0; band < 3; band++ {
		p := band * fsTotal
		levels := c.DimsLessOne[band]
		mult := int32(c.Multipliers[band])
		binWidth := float32(255) / float32(levels)

		thresh := make([]float32, levels+2)
		for i := 0; i < levels; i++ {
			thresh[i] = (float32(i) + 0.5) * binWidth
		}
		thresh[levels], thresh[levels+1] = 256, 256

		value := int32(-fsUndershoot) << fsErrShift
		for gray := -fsUndershoot; gray < 0; gray++ {
			table[p] = value
			p++
			value += 1 << fsErrShift
		}

		var contrib int32
		var repF float32
		bin := 0
		for gray := int32(0); gray < fsGrays; {
			rep := int32(repF + 0.5)
			for float32(gray) < thresh[bin] {
				table[p] = (gray-rep)<<fsErrShift + contrib
				p++
				gray++
			}
			bin++
			contrib += mult
			repF += binWidth
		}

		contrib -= mult
		value = (fsGrays-255)<<fsErrShift + contrib
		for gray := fsGrays; gray < fsGrays+fsOvershoot; gray++ {
			table[p] = value
			p++
			value += 1 << fsErrShift
		}
	}
	for i := 0; i < fsTotal; i++ {
		table[i] += int32(c.AdjustedOffset)
	}
	return table
}

// floydSteinbergByte is the integer path. Errors are kept in sixteenths: the
// A register carries 7/16 to the right, and each buffer slot collects the
// 3/16, 5/16 and 1/16 shares landing on one pixel of the next row.
func floydSteinbergByte(src *raster.Buffer[uint8], dst *raster.Buffer[uint8], rect image.Rectangle, c *ColorCube) {
	table := floydSteinbergTable(c)
	width := rect.Dx()
	errLines := util.GetLines[int32](1, (width+2)*3)
	defer util.ReturnLines(errLines)
	errBuf := errLines[0]

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		var errA, errC, errD [3]int32
		var si [3]int
		for b := range si {
			si[b] = src.Index(rect.Min.X, y, b)
		}
		di := dst.Index(rect.Min.X, y, 0)
		pErr := 0
		for x := 0; x < width; x++ {
			var index int32
			for b := 0; b < 3; b++ {
				adj := (errA[b]+errBuf[pErr+3+b]+8)>>4 + int32(src.Bands[b][si[b]])
				si[b] += src.PixelStride
				adj = min(max(adj, -fsUndershoot), fsGrays+fsOvershoot-1)

				tab := table[b*fsTotal+fsUndershoot+int(adj)]
				e := tab >> fsErrShift
				index += tab & 0xff

				e1, e2 := e, e+e
				e += e2
				errBuf[pErr+b] = errC[b] + e
				e += e2
				errC[b] = errD[b] + e
				errD[b] = e1
				errA[b] = e + e2
			}
			dst.Bands[0][di] = uint8(index)
			di += dst.PixelStride
			pErr += 3
		}
		last := 3 * width
		for b := 0; b < 3; b++ {
			errBuf[last+b] = errC[b]
		}
	}
}
