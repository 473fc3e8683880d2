package main

import (
	"fmt"

	"github.com/kpfaulkner/rasterkern"
	"github.com/kpfaulkner/rasterkern/dither"
	image2 "github.com/kpfaulkner/rasterkern/image"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	cubes = map[string]*dither.ColorCube{
		"496": dither.ColorCubeByte496,
		"855": dither.ColorCubeByte855,
	}
	masks = map[string]*dither.DitherMask{
		"441": dither.Mask441,
		"443": dither.Mask443,
	}
	errorKernels = map[string]*dither.ErrorKernel{
		"fs":     dither.FloydSteinberg,
		"jjn":    dither.JarvisJudiceNinke,
		"stucki": dither.Stucki,
	}
)

func ditherCmd() *cobra.Command {
	var in, out, cube, mask, kernel string
	cmd := &cobra.Command{
		Use:   "dither",
		Short: "Reduce an image to a colour cube palette",
		Long: "Reduce an image to a colour cube palette with ordered dithering (--mask) " +
			"or error diffusion (--kernel) and report the mean CIE76 colour difference.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dopts rasterkern.DitherOptions
			var ok bool
			if dopts.Cube, ok = cubes[cube]; !ok {
				return fmt.Errorf("unknown cube %q, have %v", cube, lo.Keys(cubes))
			}
			if mask != "" {
				if dopts.Mask, ok = masks[mask]; !ok {
					return fmt.Errorf("unknown mask %q, have %v", mask, lo.Keys(masks))
				}
			}
			if dopts.Kernel, ok = errorKernels[kernel]; !ok {
				return fmt.Errorf("unknown kernel %q, have %v", kernel, lo.Keys(errorKernels))
			}

			img, err := image2.Load(in)
			if err != nil {
				return err
			}
			res, err := rasterkern.Dither(img, dopts)
			if err != nil {
				return err
			}

			source := image2.Colors(image2.FromImage(img))
			indices := lo.Map(res.Pix, func(p uint8, _ int) int { return int(p) })
			fmt.Printf("mean delta E %.3f\n", dither.MeanDeltaE(source, res.Palette, indices))
			return writeOutput(res, out)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in, "input", "i", "", "input image")
	f.StringVarP(&out, "output", "o", "", "output image")
	f.StringVar(&cube, "cube", "496", "colour cube, 496 or 855")
	f.StringVar(&mask, "mask", "", "ordered dither mask, 441 or 443")
	f.StringVar(&kernel, "kernel", "fs", "error diffusion kernel, fs, jjn or stucki")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
