package main

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/kpfaulkner/rasterkern"
	image2 "github.com/kpfaulkner/rasterkern/image"
	"github.com/spf13/cobra"
)

func resampleCmd() *cobra.Command {
	var (
		in, out, kernel string
		width, height   int
		scale           float64
		binary          int
	)
	cmd := &cobra.Command{
		Use:   "resample",
		Short: "Scale an image to a new size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := image2.Load(in)
			if err != nil {
				return err
			}
			if scale > 0 {
				width = int(float64(img.Bounds().Dx())*scale + 0.5)
				height = int(float64(img.Bounds().Dy())*scale + 0.5)
			}
			if width <= 0 || height <= 0 {
				return errors.New("give --scale or both --width and --height")
			}
			k, err := rasterkern.KernelByName(kernel, &opts)
			if err != nil {
				return err
			}

			start := time.Now()
			var res image.Image
			if binary >= 0 {
				res, err = rasterkern.ResizeBinary(img, width, height, uint8(min(binary, 255)), k)
			} else {
				res, err = rasterkern.Resize(img, width, height, k, &opts)
			}
			if err != nil {
				return err
			}
			fmt.Printf("resample %v to %dx%d took %d ms\n", img.Bounds(), width, height, time.Since(start).Milliseconds())
			return writeOutput(res, out)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in, "input", "i", "", "input image")
	f.StringVarP(&out, "output", "o", "", "output image")
	f.StringVarP(&kernel, "kernel", "k", "bilinear", "nearest, bilinear, bicubic or bicubic2")
	f.IntVar(&width, "width", 0, "output width")
	f.IntVar(&height, "height", 0, "output height")
	f.Float64Var(&scale, "scale", 0, "scale factor applied to both axes")
	f.IntVar(&binary, "binary", -1, "threshold the luminance at this level and resample packed bits (nearest or bilinear)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
