package resample

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/kpfaulkner/rasterkern/util"
	log "github.com/sirupsen/logrus"
)

// FixedBits is the number of fractional bits used when stepping through an
// affine transform.
const FixedBits = 20

var (
	ErrZeroScale = errors.New("scale factor must be positive")
	ErrZeroDenom = errors.New("rational with zero denominator")
	ErrOverflow  = errors.New("rational arithmetic overflows int64")
)

// Rational is an exact fraction Num/Den. NewRational keeps Den positive and
// the fraction reduced.
type Rational struct {
	Num int64
	Den int64
}

func NewRational(num int64, den int64) Rational {
	if den < 0 {
		num, den = -num, -den
	}
	if g := util.GCD(num, den); g > 1 {
		num /= g
		den /= g
	}
	return Rational{Num: num, Den: den}
}

// Int returns the rational n/1.
func Int(n int64) Rational {
	return Rational{Num: n, Den: 1}
}

// RationalFromFloat approximates f with a denominator of at most 1<<FixedBits
// and reduces the result, so that 0.5 becomes 1/2.
func RationalFromFloat(f float64) Rational {
	const den = 1 << FixedBits
	return NewRational(int64(math.Round(f*den)), den)
}

func (r Rational) Float() float64 {
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// RationalStep is a per destination pixel increment Int + Num/Den with
// 0 <= Num < Den.
type RationalStep struct {
	Int int64
	Num int64
	Den int64
}

// Position is a source coordinate Int + Num/Den with 0 <= Num < Den.
type Position struct {
	Int int64
	Num int64
	Den int64
}

// Advance moves p by s. Both must share a denominator.
func (p *Position) Advance(s RationalStep) {
	p.Int += s.Int
	p.Num += s.Num
	if p.Num >= p.Den {
		p.Int++
		p.Num -= p.Den
	}
}

// Frac returns the fractional part as a float.
func (p Position) Frac() float64 {
	return float64(p.Num) / float64(p.Den)
}

func (p Position) Float() float64 {
	return float64(p.Int) + p.Frac()
}

// FracBits returns floor(Num/Den * 2^n) computed without overflow.
func (p Position) FracBits(n int) int64 {
	hi, lo := bits.Mul64(uint64(p.Num), uint64(1)<<n)
	q, _ := bits.Div64(hi, lo, uint64(p.Den))
	return int64(q)
}

// Nearest returns the integer closest to the position, rounding halves up.
func (p Position) Nearest() int64 {
	if 2*p.Num >= p.Den {
		return p.Int + 1
	}
	return p.Int
}

// FixedPosition converts v to a position on a 1<<FixedBits denominator.
func FixedPosition(v float64) Position {
	const den = 1 << FixedBits
	i := math.Floor(v)
	num := int64(math.Round((v - i) * den))
	p := Position{Int: int64(i), Num: num, Den: den}
	if p.Num >= den {
		p.Int++
		p.Num -= den
	}
	return p
}

// FixedStep converts a per pixel delta to a step on a 1<<FixedBits denominator.
func FixedStep(delta float64) RationalStep {
	p := FixedPosition(delta)
	return RationalStep{Int: p.Int, Num: p.Num, Den: p.Den}
}

// RationalStepper walks source positions for consecutive destination pixels
// along one axis of a scale+translate mapping. The source coordinate of
// destination pixel d is
//
//	s(d) = (d + 0.5 - translation) / scale - 0.5
//
// and is held exactly, so N calls to Advance land on exactly s(destStart+N).
type RationalStepper struct {
	Pos  Position
	Step RationalStep
}

// NewRationalStepper computes the start position for destStart and the per
// pixel step. Scale must be positive.
func NewRationalStepper(scale Rational, translation Rational, destStart int64) (*RationalStepper, error) {
	if scale.Den == 0 || translation.Den == 0 {
		log.Errorf("rational stepper with zero denominator scale %v translation %v", scale, translation)
		return nil, ErrZeroDenom
	}
	scale = NewRational(scale.Num, scale.Den)
	translation = NewRational(translation.Num, translation.Den)
	if scale.Num <= 0 {
		log.Errorf("rational stepper with scale %v", scale)
		return nil, ErrZeroScale
	}

	// inverse scale = invNum/invDen
	invNum, invDen := scale.Den, scale.Num

	c := &checked{}

	// d - t
	sNum := c.sub(c.mul(destStart, translation.Den), translation.Num)
	sDen := translation.Den

	// + 0.5
	sNum = c.add(c.mul(2, sNum), sDen)
	sDen = c.mul(2, sDen)

	// / scale
	sNum = c.mul(sNum, invNum)
	sDen = c.mul(sDen, invDen)

	// - 0.5
	sNum = c.sub(c.mul(2, sNum), sDen)
	sDen = c.mul(2, sDen)

	if g := util.GCD(sNum, sDen); g > 1 {
		sNum /= g
		sDen /= g
	}

	// put position and step over a common denominator
	g := util.GCD(sDen, invDen)
	common := c.mul(sDen/g, invDen)
	if c.overflow {
		log.Errorf("rational stepper overflow scale %v translation %v start %d", scale, translation, destStart)
		return nil, ErrOverflow
	}

	pos := Position{
		Int: util.FloorDiv(sNum, sDen),
		Num: c.mul(util.FloorMod(sNum, sDen), common/sDen),
		Den: common,
	}
	step := RationalStep{
		Int: invNum / invDen,
		Num: c.mul(invNum%invDen, common/invDen),
		Den: common,
	}
	if c.overflow {
		log.Errorf("rational stepper overflow scale %v translation %v start %d", scale, translation, destStart)
		return nil, ErrOverflow
	}
	return &RationalStepper{Pos: pos, Step: step}, nil
}

// Advance moves the stepper to the next destination pixel.
func (s *RationalStepper) Advance() {
	s.Pos.Advance(s.Step)
}

// checked accumulates int64 overflow across a chain of operations.
type checked struct {
	overflow bool
}

func (c *checked) mul(a int64, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	r := a * b
	if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		c.overflow = true
	}
	return r
}

func (c *checked) add(a int64, b int64) int64 {
	r := a + b
	if (a > 0 && b > 0 && r < 0) || (a < 0 && b < 0 && r >= 0) {
		c.overflow = true
	}
	return r
}

func (c *checked) sub(a int64, b int64) int64 {
	if b == math.MinInt64 {
		c.overflow = true
		return 0
	}
	return c.add(a, -b)
}
