package main

import (
	"fmt"
	"reflect"

	"github.com/kpfaulkner/rasterkern/dither"
	"github.com/kpfaulkner/rasterkern/extrema"
	"github.com/kpfaulkner/rasterkern/raster"
	"github.com/kpfaulkner/rasterkern/resample"
)

// displays sizes of the per pixel and per row structs to spot padding waste
func memStats(input any) {

	rType := reflect.TypeOf(input)
	fmt.Printf("Size of %s : %d bytes\n", rType.Name(), rType.Size())

	if rType.Kind() == reflect.Struct {
		for i := 0; i < rType.NumField(); i++ {
			field := rType.Field(i)
			fmt.Printf("  Name %s\n", field.Name)
			fmt.Printf("    Offset of    : %d bytes\n", field.Offset)
			fmt.Printf("    Size of      : %d bytes\n", field.Type.Size())
			fmt.Printf("    Alignment of : %d bytes\n", field.Type.Align())
			fmt.Println()
		}
	}
}

func main() {
	memStats(resample.Position{})
	memStats(resample.RationalStep{})
	memStats(resample.Kernel{})
	memStats(raster.Buffer[uint8]{})
	memStats(raster.Bits{})
	memStats(extrema.Run{})
	memStats(extrema.Tracker{})
	memStats(dither.ColorCube{})
}
