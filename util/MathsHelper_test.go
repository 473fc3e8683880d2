package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDivMod(t *testing.T) {
	tests := []struct {
		a, b         int64
		div, modulus int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{-8, 2, -4, 0},
		{0, 5, 0, 0},
		{-1, 1 << 20, -1, (1 << 20) - 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.div, FloorDiv(tt.a, tt.b), "FloorDiv(%d, %d)", tt.a, tt.b)
		assert.Equal(t, tt.modulus, FloorMod(tt.a, tt.b), "FloorMod(%d, %d)", tt.a, tt.b)
		assert.Equal(t, tt.a, FloorDiv(tt.a, tt.b)*tt.b+FloorMod(tt.a, tt.b))
	}
}

func TestGCD(t *testing.T) {
	assert.Equal(t, int64(6), GCD[int64](12, 18))
	assert.Equal(t, int64(6), GCD[int64](-12, 18))
	assert.Equal(t, int64(5), GCD[int64](0, 5))
	assert.Equal(t, int64(0), GCD[int64](0, 0))
}

func TestCeilDivAndAbs(t *testing.T) {
	assert.Equal(t, 3, CeilDiv(9, 4))
	assert.Equal(t, 2, CeilDiv(8, 4))
	assert.Equal(t, 3.5, Abs(-3.5))
	assert.Equal(t, int32(4), Abs(int32(-4)))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestMaxMin(t *testing.T) {
	tests := []struct {
		name     string
		args     []float64
		max, min float64
	}{
		{name: "plain", args: []float64{3, -1, 7}, max: 7, min: -1},
		{name: "single", args: []float64{2}, max: 2, min: 2},
		{name: "empty", args: nil, max: 0, min: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.max, Max(tt.args...))
			assert.Equal(t, tt.min, Min(tt.args...))
		})
	}

	assert.True(t, math.IsNaN(Max(1.0, math.NaN(), 3.0)))
	assert.True(t, math.IsNaN(Min(math.NaN(), 1.0)))
}
