package main

import (
	"image"

	"github.com/kpfaulkner/rasterkern"
	image2 "github.com/kpfaulkner/rasterkern/image"
	"github.com/kpfaulkner/rasterkern/transpose"
	"github.com/spf13/cobra"
)

func transposeCmd() *cobra.Command {
	var in, out, kind string
	var binary int
	cmd := &cobra.Command{
		Use:   "transpose",
		Short: "Flip or rotate an image",
		Long:  "Flip or rotate an image. --type is one of flipv, fliph, flipd, flipa, rot90, rot180 or rot270.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := transpose.ParseType(kind)
			if err != nil {
				return err
			}
			img, err := image2.Load(in)
			if err != nil {
				return err
			}
			var res image.Image
			if binary >= 0 {
				res, err = rasterkern.TransposeBinary(img, uint8(min(binary, 255)), t)
			} else {
				res, err = rasterkern.Transpose(img, t, &opts)
			}
			if err != nil {
				return err
			}
			return writeOutput(res, out)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in, "input", "i", "", "input image")
	f.StringVarP(&out, "output", "o", "", "output image")
	f.StringVarP(&kind, "type", "t", "rot90", "transpose type")
	f.IntVar(&binary, "binary", -1, "threshold the luminance at this level and transpose packed bits")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
