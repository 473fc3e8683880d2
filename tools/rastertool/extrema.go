package main

import (
	"fmt"
	"image"

	"github.com/kpfaulkner/rasterkern/extrema"
	image2 "github.com/kpfaulkner/rasterkern/image"
	"github.com/spf13/cobra"
)

func extremaCmd() *cobra.Command {
	var (
		in    string
		rois  []string
		start string
		cfg   extrema.Config
	)
	cmd := &cobra.Command{
		Use:   "extrema",
		Short: "Print the per band minimum and maximum",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range rois {
				r, err := parseRect(s)
				if err != nil {
					return err
				}
				cfg.ROI = append(cfg.ROI, r)
			}
			v, err := parseInts(start, 2)
			if err != nil {
				return err
			}
			cfg.XStart, cfg.YStart = v[0], v[1]

			img, err := image2.Load(in)
			if err != nil {
				return err
			}
			src := image2.FromImage(img)
			tr, err := extrema.NewTracker(src.NumBands(), cfg)
			if err != nil {
				return err
			}
			if err := tr.Accumulate(src, src.Rect); err != nil {
				return err
			}

			mins, maxs, ok := tr.Extrema()
			if !ok {
				fmt.Println("no pixels sampled")
				return nil
			}
			minRuns, maxRuns := tr.RunLocations()
			for b := range mins {
				fmt.Printf("band %d: min %g max %g\n", b, mins[b], maxs[b])
				if cfg.SaveLocations {
					printRuns("min", minRuns[b])
					printRuns("max", maxRuns[b])
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in, "input", "i", "", "input image")
	f.StringArrayVar(&rois, "roi", nil, "region of interest x0,y0,x1,y1 (repeatable)")
	f.StringVar(&start, "start", "0,0", "sampling grid origin x,y")
	f.IntVar(&cfg.XPeriod, "xperiod", 1, "horizontal sampling period")
	f.IntVar(&cfg.YPeriod, "yperiod", 1, "vertical sampling period")
	f.BoolVar(&cfg.SaveLocations, "locations", false, "print the runs where the extremes occur")
	f.IntVar(&cfg.MaxRuns, "max-runs", 16, "runs kept per band and extreme")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func printRuns(kind string, runs []extrema.Run) {
	for _, r := range runs {
		fmt.Printf("  %s at %v length %d\n", kind, image.Pt(r.X, r.Y), r.Length)
	}
}
