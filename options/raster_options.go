package options

import (
	"runtime"
)

const (
	DefaultSubsampleBits = 8
	DefaultPrecisionBits = 8
	DefaultLUTCacheSize  = 4
	DefaultTileSize      = 256
)

type RasterOptions struct {
	Debug bool

	// SubsampleBits is the fractional position precision of bilinear and
	// table kernels, PrecisionBits the fixed point precision of table
	// coefficients.
	SubsampleBits int
	PrecisionBits int

	// LUTCacheSize bounds the number of ordered dither tables kept. 0 keeps
	// none.
	LUTCacheSize int

	// Parallelism is the number of tiles computed at once, TileSize their
	// edge length.
	Parallelism int
	TileSize    int
}

// NewRasterOptions returns the defaults overridden by every non zero field of
// options. A negative LUTCacheSize selects an empty cache.
func NewRasterOptions(options *RasterOptions) *RasterOptions {

	opt := &RasterOptions{
		SubsampleBits: DefaultSubsampleBits,
		PrecisionBits: DefaultPrecisionBits,
		LUTCacheSize:  DefaultLUTCacheSize,
		Parallelism:   runtime.GOMAXPROCS(0),
		TileSize:      DefaultTileSize,
	}
	if options != nil {
		opt.Debug = options.Debug
		if options.SubsampleBits > 0 {
			opt.SubsampleBits = options.SubsampleBits
		}
		if options.PrecisionBits > 0 {
			opt.PrecisionBits = options.PrecisionBits
		}
		if options.LUTCacheSize > 0 {
			opt.LUTCacheSize = options.LUTCacheSize
		} else if options.LUTCacheSize < 0 {
			opt.LUTCacheSize = 0
		}
		if options.Parallelism > 0 {
			opt.Parallelism = options.Parallelism
		}
		if options.TileSize > 0 {
			opt.TileSize = options.TileSize
		}
	}
	return opt
}
