package dither

import (
	"fmt"
	"math"
)

// ErrorKernel gives the share of a pixel's quantisation error passed to each
// neighbour. The pixel being quantised sits at (XOrigin, YOrigin); only
// entries to its right on the same row and on the rows below are used.
type ErrorKernel struct {
	Width   int
	Height  int
	XOrigin int
	YOrigin int
	Data    []float32
}

var (
	FloydSteinberg = &ErrorKernel{Width: 3, Height: 2, XOrigin: 1, YOrigin: 0, Data: []float32{
		0, 0, 7.0 / 16,
		3.0 / 16, 5.0 / 16, 1.0 / 16,
	}}

	JarvisJudiceNinke = &ErrorKernel{Width: 5, Height: 3, XOrigin: 2, YOrigin: 0, Data: []float32{
		0, 0, 0, 7.0 / 48, 5.0 / 48,
		3.0 / 48, 5.0 / 48, 7.0 / 48, 5.0 / 48, 3.0 / 48,
		1.0 / 48, 3.0 / 48, 5.0 / 48, 3.0 / 48, 1.0 / 48,
	}}

	Stucki = &ErrorKernel{Width: 5, Height: 3, XOrigin: 2, YOrigin: 0, Data: []float32{
		0, 0, 0, 7.0 / 42, 5.0 / 42,
		2.0 / 42, 4.0 / 42, 8.0 / 42, 4.0 / 42, 2.0 / 42,
		1.0 / 42, 2.0 / 42, 4.0 / 42, 2.0 / 42, 1.0 / 42,
	}}
)

func (k *ErrorKernel) Validate() error {
	if k.Width <= 0 || k.Height <= 0 {
		return fmt.Errorf("%dx%d: %w", k.Width, k.Height, ErrBadKernel)
	}
	if k.XOrigin < 0 || k.XOrigin >= k.Width || k.YOrigin < 0 || k.YOrigin >= k.Height {
		return fmt.Errorf("origin (%d,%d) outside %dx%d: %w", k.XOrigin, k.YOrigin, k.Width, k.Height, ErrBadKernel)
	}
	if len(k.Data) != k.Width*k.Height {
		return fmt.Errorf("%d weights for %dx%d: %w", len(k.Data), k.Width, k.Height, ErrBadKernel)
	}
	return nil
}

func (k *ErrorKernel) At(x int, y int) float32 {
	return k.Data[y*k.Width+x]
}

// isFloydSteinberg reports whether k spreads error with the 7/16, 3/16, 5/16,
// 1/16 weights, regardless of any unused rows above the origin.
func (k *ErrorKernel) isFloydSteinberg() bool {
	const eps = 1.192092896e-07
	ky := k.YOrigin
	near := func(x, y int, w float64) bool {
		return math.Abs(float64(k.At(x, y))-w) < eps
	}
	return k.Width == 3 && k.XOrigin == 1 && k.Height-ky == 2 &&
		near(2, ky, 7.0/16) &&
		near(0, ky+1, 3.0/16) &&
		near(1, ky+1, 5.0/16) &&
		near(2, ky+1, 1.0/16)
}
