package util

import (
	"cmp"
	"math"

	"golang.org/x/exp/constraints"
)

// FloorDiv divides rounding toward negative infinity. b must be positive.
func FloorDiv[T constraints.Signed](a T, b T) T {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}

// FloorMod is the remainder matching FloorDiv, always in [0, b).
func FloorMod[T constraints.Signed](a T, b T) T {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func CeilDiv[T constraints.Integer](a T, b T) T {
	return (a + b - 1) / b
}

func Abs[T constraints.Signed | constraints.Float](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// GCD returns the greatest common divisor of |a| and |b|. GCD(0, 0) is 0.
func GCD[T constraints.Signed](a T, b T) T {
	a, b = Abs(a), Abs(b)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Max returns the largest argument. A NaN argument is returned as soon as it
// is seen.
func Max[T cmp.Ordered](args ...T) T {
	if len(args) == 0 {
		return *new(T)
	}

	if isNan(args[0]) {
		return args[0]
	}

	max := args[0]
	for _, arg := range args[1:] {
		if isNan(arg) {
			return arg
		}
		if arg > max {
			max = arg
		}
	}
	return max
}

// Min returns the smallest argument with the same NaN rule as Max.
func Min[T cmp.Ordered](args ...T) T {
	if len(args) == 0 {
		return *new(T)
	}

	if isNan(args[0]) {
		return args[0]
	}

	min := args[0]
	for _, arg := range args[1:] {
		if isNan(arg) {
			return arg
		}
		if arg < min {
			min = arg
		}
	}
	return min
}

func isNan[T comparable](arg T) bool {
	return arg != arg
}
