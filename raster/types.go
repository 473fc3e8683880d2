package raster

import (
	"math"
)

// Sample is the set of element types a Buffer can hold.
type Sample interface {
	uint8 | int16 | uint16 | int32 | float32 | float64
}

type ElementType int

const (
	TypeByte ElementType = iota
	TypeUShort
	TypeShort
	TypeInt
	TypeFloat
	TypeDouble
)

var elementTypeNames = []string{"byte", "ushort", "short", "int", "float", "double"}

func (e ElementType) String() string {
	if e < 0 || int(e) >= len(elementTypeNames) {
		return "unknown"
	}
	return elementTypeNames[e]
}

func (e ElementType) IsFloat() bool {
	return e == TypeFloat || e == TypeDouble
}

func (e ElementType) IsSigned() bool {
	return e == TypeShort || e == TypeInt || e.IsFloat()
}

// MinValue returns the smallest representable value of the element type.
func (e ElementType) MinValue() float64 {
	switch e {
	case TypeShort:
		return math.MinInt16
	case TypeInt:
		return math.MinInt32
	case TypeFloat:
		return -math.MaxFloat32
	case TypeDouble:
		return -math.MaxFloat64
	default:
		return 0
	}
}

// MaxValue returns the largest representable value of the element type.
func (e ElementType) MaxValue() float64 {
	switch e {
	case TypeByte:
		return math.MaxUint8
	case TypeUShort:
		return math.MaxUint16
	case TypeShort:
		return math.MaxInt16
	case TypeInt:
		return math.MaxInt32
	case TypeFloat:
		return math.MaxFloat32
	default:
		return math.MaxFloat64
	}
}

// Bits returns the size of one element in bits.
func (e ElementType) Bits() int {
	switch e {
	case TypeByte:
		return 8
	case TypeUShort, TypeShort:
		return 16
	case TypeInt, TypeFloat:
		return 32
	default:
		return 64
	}
}

// TypeOf returns the ElementType matching T.
func TypeOf[T Sample]() ElementType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return TypeByte
	case uint16:
		return TypeUShort
	case int16:
		return TypeShort
	case int32:
		return TypeInt
	case float32:
		return TypeFloat
	default:
		return TypeDouble
	}
}
