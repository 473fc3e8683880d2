package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kpfaulkner/rasterkern"
	image2 "github.com/kpfaulkner/rasterkern/image"
	"github.com/kpfaulkner/rasterkern/imageformats"
	"github.com/kpfaulkner/rasterkern/options"
	"github.com/pkg/profile"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	opts        options.RasterOptions
	profileMode string
	profiler    interface{ Stop() }
)

func main() {
	root := &cobra.Command{
		Use:           "rastertool",
		Short:         "Resample, dither, transpose and measure raster images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rasterkern.Configure(&opts)
			switch profileMode {
			case "":
			case "cpu":
				profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."))
			case "mem":
				profiler = profile.Start(profile.MemProfileHeap, profile.ProfilePath("."))
			default:
				return fmt.Errorf("unknown profile mode %q", profileMode)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if profiler != nil {
				profiler.Stop()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&opts.Debug, "debug", false, "log path choices")
	pf.StringVar(&profileMode, "profile", "", "write a cpu or mem profile to the current directory")
	pf.IntVar(&opts.TileSize, "tile", options.DefaultTileSize, "tile edge length")
	pf.IntVar(&opts.Parallelism, "parallel", 0, "tiles computed at once (0 uses GOMAXPROCS)")
	pf.IntVar(&opts.SubsampleBits, "subsample-bits", options.DefaultSubsampleBits, "fractional position bits of bilinear and bicubic kernels")
	pf.IntVar(&opts.PrecisionBits, "precision-bits", options.DefaultPrecisionBits, "fixed point bits of bicubic coefficients")
	pf.IntVar(&opts.LUTCacheSize, "lut-cache", options.DefaultLUTCacheSize, "ordered dither tables kept (negative keeps none)")

	root.AddCommand(resampleCmd(), ditherCmd(), extremaCmd(), transposeCmd())

	if err := root.Execute(); err != nil {
		log.Errorf("rastertool: %v", err)
		os.Exit(1)
	}
}

// writeOutput picks the encoder from the file extension: .pfm, .tif/.tiff
// and .rkz are written by imageformats, everything else by imaging.
func writeOutput(img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pfm", ".tif", ".tiff", ".rkz":
	default:
		return image2.Save(img, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := image2.FromImage(img)
	switch ext {
	case ".pfm":
		err = imageformats.WritePFM(image2.CastToFloat(buf, 255), f)
	case ".rkz":
		err = imageformats.WriteRaw(buf, f)
	default:
		err = imageformats.WriteTIFF(buf, f)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// parseInts splits a comma separated list of integers.
func parseInts(s string, want int) ([]int, error) {
	fields := lo.Map(strings.Split(s, ","), func(f string, _ int) string {
		return strings.TrimSpace(f)
	})
	if len(fields) != want {
		return nil, fmt.Errorf("%q: want %d values", s, want)
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseRect reads "x0,y0,x1,y1".
func parseRect(s string) (image.Rectangle, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}
