package extrema

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/util"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var (
	ErrBadPeriod  = errors.New("sampling period must be positive")
	ErrBadMaxRuns = errors.New("max runs must not be negative")
)

// Config selects which pixels a Tracker looks at. A pixel (x, y) is sampled
// when it lies in one of the ROI rectangles (or ROI is empty) and x-XStart and
// y-YStart are multiples of XPeriod and YPeriod. Zero periods mean 1.
type Config struct {
	ROI     []image.Rectangle
	XStart  int
	YStart  int
	XPeriod int
	YPeriod int

	// SaveLocations enables run recording. At most MaxRuns runs are kept per
	// band for each of the minimum and the maximum; further runs are dropped.
	// A zero MaxRuns keeps one run.
	SaveLocations bool
	MaxRuns       int
}

// Run is a horizontal stretch of consecutive sampled pixels holding the
// extreme value. Length counts sampled pixels, so with an XPeriod of 2 a run
// of length 3 covers X, X+2 and X+4.
type Run struct {
	X      int
	Y      int
	Length int
}

// Tracker accumulates per band minimum and maximum over any number of
// regions. It is not safe for concurrent use.
type Tracker struct {
	numBands int
	cfg      Config
	hasROI   bool

	seeded  []bool
	sampled bool
	min     []float64
	max     []float64

	minRuns  [][]Run
	maxRuns  [][]Run
	minCount []int
	maxCount []int

	// scratch, one row of sampled values per band
	rows [][]float64
}

func NewTracker(numBands int, cfg Config) (*Tracker, error) {
	if numBands <= 0 {
		return nil, fmt.Errorf("%d bands: %w", numBands, raster.ErrBandMismatch)
	}
	if cfg.XPeriod == 0 {
		cfg.XPeriod = 1
	}
	if cfg.YPeriod == 0 {
		cfg.YPeriod = 1
	}
	if cfg.XPeriod < 0 || cfg.YPeriod < 0 {
		log.Errorf("extrema period %d,%d", cfg.XPeriod, cfg.YPeriod)
		return nil, fmt.Errorf("period %d,%d: %w", cfg.XPeriod, cfg.YPeriod, ErrBadPeriod)
	}
	if cfg.MaxRuns < 0 {
		return nil, fmt.Errorf("%d: %w", cfg.MaxRuns, ErrBadMaxRuns)
	}
	if cfg.SaveLocations && cfg.MaxRuns == 0 {
		cfg.MaxRuns = 1
	}
	hasROI := len(cfg.ROI) > 0
	cfg.ROI = lo.Filter(cfg.ROI, func(r image.Rectangle, _ int) bool { return !r.Empty() })

	t := &Tracker{numBands: numBands, cfg: cfg, hasROI: hasROI, rows: make([][]float64, numBands)}
	t.Reset()
	return t, nil
}

// Reset forgets everything accumulated so far.
func (t *Tracker) Reset() {
	nb := t.numBands
	t.sampled = false
	t.seeded = make([]bool, nb)
	t.min = make([]float64, nb)
	t.max = make([]float64, nb)
	t.minRuns = make([][]Run, nb)
	t.maxRuns = make([][]Run, nb)
	t.minCount = make([]int, nb)
	t.maxCount = make([]int, nb)
}

// Extrema returns copies of the running minimum and maximum per band. ok is
// false until at least one pixel has been sampled. A band that has only seen
// NaN reports NaN.
func (t *Tracker) Extrema() (mins []float64, maxs []float64, ok bool) {
	if !t.sampled {
		return nil, nil, false
	}
	mins = slices.Clone(t.min)
	maxs = slices.Clone(t.max)
	for b := range mins {
		if !t.seeded[b] {
			mins[b], maxs[b] = math.NaN(), math.NaN()
		}
	}
	return mins, maxs, true
}

// RunLocations returns copies of the recorded runs per band. Both are nil
// when SaveLocations is off.
func (t *Tracker) RunLocations() (minRuns [][]Run, maxRuns [][]Run) {
	if !t.cfg.SaveLocations {
		return nil, nil
	}
	minRuns = make([][]Run, t.numBands)
	maxRuns = make([][]Run, t.numBands)
	for b := 0; b < t.numBands; b++ {
		minRuns[b] = slices.Clone(t.minRuns[b])
		maxRuns[b] = slices.Clone(t.maxRuns[b])
	}
	return minRuns, maxRuns
}

// Accumulate folds the sampled pixels of rect in src into the running
// extrema. rect is clipped to the source bounds; a rect that misses the ROI
// changes nothing.
func (t *Tracker) Accumulate(src raster.Raster, rect image.Rectangle) error {
	if src == nil {
		return errors.New("nil source")
	}
	if src.NumBands() != t.numBands {
		log.Errorf("extrema tracker of %d bands given %d", t.numBands, src.NumBands())
		return fmt.Errorf("tracker %d, source %d bands: %w", t.numBands, src.NumBands(), raster.ErrBandMismatch)
	}
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil
	}

	var load rowLoader
	switch s := src.(type) {
	case *raster.Buffer[uint8]:
		load = bufferLoader(s)
	case *raster.Buffer[int16]:
		load = bufferLoader(s)
	case *raster.Buffer[uint16]:
		load = bufferLoader(s)
	case *raster.Buffer[int32]:
		load = bufferLoader(s)
	case *raster.Buffer[float32]:
		load = bufferLoader(s)
	case *raster.Buffer[float64]:
		load = bufferLoader(s)
	default:
		log.Debugf("extrema of %v through the sample interface", rect)
		load = sampleLoader(src)
	}

	rois := t.cfg.ROI
	if t.hasROI {
		rois = lo.Filter(rois, func(r image.Rectangle, _ int) bool { return r.Overlaps(rect) })
		if len(rois) == 0 {
			return nil
		}
	}

	for y := firstOnGrid(rect.Min.Y, t.cfg.YStart, t.cfg.YPeriod); y < rect.Max.Y; y += t.cfg.YPeriod {
		for _, span := range t.rowSpans(rois, rect, y) {
			x0 := firstOnGrid(span[0], t.cfg.XStart, t.cfg.XPeriod)
			if x0 >= span[1] {
				continue
			}
			n := util.CeilDiv(span[1]-x0, t.cfg.XPeriod)
			for b := range t.rows {
				t.rows[b] = load(t.rows[b][:0], x0, y, b, n, t.cfg.XPeriod)
			}
			t.sampled = true
			for b := range t.rows {
				t.scan(b, t.rows[b], x0, y)
			}
		}
	}
	return nil
}

// firstOnGrid is the smallest p >= pos with p-start a multiple of period.
func firstOnGrid(pos int, start int, period int) int {
	if m := util.FloorMod(pos-start, period); m != 0 {
		return pos + period - m
	}
	return pos
}

// rowSpans returns the disjoint [x0, x1) intervals of row y inside rect and
// the ROI, in ascending order. Overlapping ROI rectangles are merged so no
// pixel is visited twice.
func (t *Tracker) rowSpans(rois []image.Rectangle, rect image.Rectangle, y int) [][2]int {
	if !t.hasROI {
		return [][2]int{{rect.Min.X, rect.Max.X}}
	}
	spans := lo.FilterMap(rois, func(r image.Rectangle, _ int) ([2]int, bool) {
		if y < r.Min.Y || y >= r.Max.Y {
			return [2]int{}, false
		}
		x0, x1 := max(r.Min.X, rect.Min.X), min(r.Max.X, rect.Max.X)
		return [2]int{x0, x1}, x0 < x1
	})
	if len(spans) < 2 {
		return spans
	}
	slices.SortFunc(spans, func(a, b [2]int) int { return a[0] - b[0] })
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s[0] <= last[1] {
			last[1] = max(last[1], s[1])
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// scan updates band b with one row of sampled values starting at x0. Runs
// only span consecutive samples of one row; any sample that differs from the
// current extreme closes the open run.
func (t *Tracker) scan(b int, row []float64, x0 int, y int) {
	if !t.seeded[b] {
		for _, p := range row {
			if !math.IsNaN(p) {
				t.min[b], t.max[b] = p, p
				t.seeded[b] = true
				break
			}
		}
		if !t.seeded[b] {
			return
		}
	}

	mn, mx := t.min[b], t.max[b]
	if !t.cfg.SaveLocations {
		for _, p := range row {
			if p < mn {
				mn = p
			} else if p > mx {
				mx = p
			}
		}
		t.min[b], t.max[b] = mn, mx
		return
	}

	period := t.cfg.XPeriod
	var minRun, maxRun Run
	closeMin := func() {
		if minRun.Length > 0 && t.minCount[b] < t.cfg.MaxRuns {
			t.minRuns[b] = append(t.minRuns[b], minRun)
			t.minCount[b]++
		}
		minRun.Length = 0
	}
	closeMax := func() {
		if maxRun.Length > 0 && t.maxCount[b] < t.cfg.MaxRuns {
			t.maxRuns[b] = append(t.maxRuns[b], maxRun)
			t.maxCount[b]++
		}
		maxRun.Length = 0
	}

	x := x0
	for _, p := range row {
		switch {
		case p < mn:
			mn = p
			t.minRuns[b] = t.minRuns[b][:0]
			t.minCount[b] = 0
			minRun = Run{X: x, Y: y, Length: 1}
			closeMax()
		case p > mx:
			mx = p
			t.maxRuns[b] = t.maxRuns[b][:0]
			t.maxCount[b] = 0
			maxRun = Run{X: x, Y: y, Length: 1}
			closeMin()
		default:
			if p == mn {
				if minRun.Length == 0 {
					minRun = Run{X: x, Y: y}
				}
				minRun.Length++
			} else {
				closeMin()
			}
			if p == mx {
				if maxRun.Length == 0 {
					maxRun = Run{X: x, Y: y}
				}
				maxRun.Length++
			} else {
				closeMax()
			}
		}
		x += period
	}
	closeMin()
	closeMax()
	t.min[b], t.max[b] = mn, mx
}
