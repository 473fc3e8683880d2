package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/anthonynsimon/bild/transform"
	"github.com/kpfaulkner/rasterkern"
	"github.com/kpfaulkner/rasterkern/dither"
	image2 "github.com/kpfaulkner/rasterkern/image"
	"github.com/kpfaulkner/rasterkern/options"
	"github.com/kpfaulkner/rasterkern/util"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// Times the resampler against x/image/draw and bild on the same input, then
// the two dithering paths.
func main() {
	infile := flag.String("i", "", "input image")
	scale := flag.Float64("scale", 0.5, "scale factor")
	count := flag.Int("n", 5, "repetitions")
	profileMode := flag.String("profile", "cpu", "cpu, mem or none")
	flag.Parse()

	if *infile == "" {
		fmt.Printf("input file must be specified\n")
		os.Exit(1)
	}

	switch *profileMode {
	case "cpu":
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."))
		defer p.Stop()
	case "mem":
		p := profile.Start(profile.MemProfileHeap, profile.ProfilePath("."))
		defer p.Stop()
	}

	img, err := image2.Load(*infile)
	if err != nil {
		log.Errorf("Error opening file: %v\n", err)
		return
	}
	w := int(float64(img.Bounds().Dx()) * *scale)
	h := int(float64(img.Bounds().Dy()) * *scale)
	opts := options.NewRasterOptions(nil)

	for _, name := range []string{"nearest", "bilinear", "bicubic"} {
		k, err := rasterkern.KernelByName(name, opts)
		if err != nil {
			log.Fatalf("kernel %s: %v", name, err)
		}
		timeIt("rasterkern "+name, *count, func() {
			if _, err := rasterkern.Resize(img, w, h, k, opts); err != nil {
				log.Fatalf("resize: %v", err)
			}
		})
	}

	for name, scaler := range map[string]draw.Scaler{
		"nearest":  draw.NearestNeighbor,
		"bilinear": draw.BiLinear,
		"bicubic":  draw.CatmullRom,
	} {
		timeIt("x/image/draw "+name, *count, func() {
			dst := image.NewNRGBA(image.Rect(0, 0, w, h))
			scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		})
	}

	for name, filter := range map[string]transform.ResampleFilter{
		"nearest":  transform.NearestNeighbor,
		"bilinear": transform.Linear,
		"bicubic":  transform.CatmullRom,
	} {
		timeIt("bild "+name, *count, func() {
			transform.Resize(img, w, h, filter)
		})
	}

	timeIt("ordered dither", *count, func() {
		if _, err := rasterkern.Dither(img, rasterkern.DitherOptions{Mask: dither.Mask443}); err != nil {
			log.Fatalf("dither: %v", err)
		}
	})
	timeIt("floyd steinberg", *count, func() {
		if _, err := rasterkern.Dither(img, rasterkern.DitherOptions{}); err != nil {
			log.Fatalf("dither: %v", err)
		}
	})

	for name, m := range util.GetPoolMetrics() {
		fmt.Printf("line pool %s: %d hits %d misses\n", name, m["hits"], m["misses"])
	}
}

func timeIt(name string, count int, fn func()) {
	start := time.Now()
	for i := 0; i < count; i++ {
		fn()
	}
	fmt.Printf("%-28s %d ms per run\n", name, time.Since(start).Milliseconds()/int64(max(count, 1)))
}
