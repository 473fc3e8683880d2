package raster

import (
	"math"
)

// Converter holds the per element type rounding and clamping rules. The rules
// differ subtly between types and every operator relies on the exact table, so
// they are resolved once per call instead of per pixel.
type Converter[T Sample] struct {
	// Round is the general round-and-clamp rule. Unsigned integers round half
	// up, signed integers use floor(v+0.5), float32 clamps to +/-MaxFloat32 and
	// float64 passes through.
	Round func(v float64) T

	// RoundAway rounds signed integers half away from zero. Other types behave
	// as Round.
	RoundAway func(v float64) T

	// Clamp truncates toward zero and clamps to the type range.
	Clamp func(v float64) T
}

// NewConverter returns the conversion rules for T.
func NewConverter[T Sample]() Converter[T] {
	var zero T
	var c any
	switch any(zero).(type) {
	case uint8:
		c = Converter[uint8]{Round: clampRoundByte, RoundAway: clampRoundByte, Clamp: clampByte}
	case uint16:
		c = Converter[uint16]{Round: clampRoundUShort, RoundAway: clampRoundUShort, Clamp: clampUShort}
	case int16:
		c = Converter[int16]{Round: clampRoundShort, RoundAway: clampRoundAwayShort, Clamp: clampShort}
	case int32:
		c = Converter[int32]{Round: clampRoundInt, RoundAway: clampRoundAwayInt, Clamp: clampInt}
	case float32:
		c = Converter[float32]{Round: ClampFloat32, RoundAway: ClampFloat32, Clamp: ClampFloat32}
	default:
		id := func(v float64) float64 { return v }
		c = Converter[float64]{Round: id, RoundAway: id, Clamp: id}
	}
	return c.(Converter[T])
}

// ClampRound converts v with the general rounding rule for T.
func ClampRound[T Sample](v float64) T {
	return NewConverter[T]().Round(v)
}

// ClampFloat32 clamps v into the finite float32 range.
func ClampFloat32(v float64) float32 {
	if v > math.MaxFloat32 {
		return math.MaxFloat32
	}
	if v < -math.MaxFloat32 {
		return -math.MaxFloat32
	}
	return float32(v)
}

func clampRoundByte(v float64) uint8 {
	if v != v || v < 0.5 {
		return 0
	}
	if v >= math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v + 0.5)
}

func clampRoundUShort(v float64) uint16 {
	if v != v || v < 0.5 {
		return 0
	}
	if v >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v + 0.5)
}

func clampRoundShort(v float64) int16 {
	if v != v {
		return 0
	}
	if v >= math.MaxInt16 {
		return math.MaxInt16
	}
	if v <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Floor(v + 0.5))
}

func clampRoundInt(v float64) int32 {
	if v != v {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	if v <= math.MinInt32 {
		return math.MinInt32
	}
	r := math.Floor(v + 0.5)
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(r)
}

func roundAway(v float64) float64 {
	if v > 0 {
		return math.Trunc(v + 0.5)
	}
	return math.Trunc(v - 0.5)
}

func clampRoundAwayShort(v float64) int16 {
	if v != v {
		return 0
	}
	if v >= math.MaxInt16 {
		return math.MaxInt16
	}
	if v <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, roundAway(v))))
}

func clampRoundAwayInt(v float64) int32 {
	if v != v {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	if v <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(math.Max(math.MinInt32, math.Min(math.MaxInt32, roundAway(v))))
}

func clampByte(v float64) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}

func clampUShort(v float64) uint16 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

func clampShort(v float64) int16 {
	if v != v {
		return 0
	}
	if v >= math.MaxInt16 {
		return math.MaxInt16
	}
	if v <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func clampInt(v float64) int32 {
	if v != v {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	if v <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// ClampInt64 clamps an exact integer result into the range of T. It is used by
// the fixed point paths where the intermediate is already an integer.
func ClampInt64[T Sample](v int64) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(min(max(v, 0), math.MaxUint8))
	case uint16:
		return T(min(max(v, 0), math.MaxUint16))
	case int16:
		return T(min(max(v, math.MinInt16), math.MaxInt16))
	case int32:
		return T(min(max(v, math.MinInt32), math.MaxInt32))
	default:
		return T(v)
	}
}
