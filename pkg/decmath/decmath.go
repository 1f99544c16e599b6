// Package decmath provides the transcendental functions the meteorological
// formulas need on top of shopspring/decimal. Every function here is pure and
// keeps no shared state, so callers may use it from any number of goroutines.
package decmath

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places kept by divisions and series
// expansions before a caller quantizes the final result.
const Precision int32 = 28

// guard digits carried through intermediate steps
const guard int32 = 12

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)

	// ErrDomain is returned when an argument lies outside a function's domain,
	// such as the logarithm of a non-positive number.
	ErrDomain = errors.New("decimal argument outside function domain")
)

// Div divides a by b, rounding the quotient to Precision places.
func Div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, Precision)
}

func div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, Precision+guard)
}

// Exp returns e raised to d.
func Exp(d decimal.Decimal) decimal.Decimal {
	return exp(d).Round(Precision)
}

func exp(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return one
	}
	if d.Sign() < 0 {
		return div(one, exp(d.Neg()))
	}

	// Halve the argument until the series converges quickly, then square back up.
	halvings := 0
	x := d
	for x.GreaterThan(one) {
		x = div(x, two)
		halvings++
	}

	epsilon := decimal.New(1, -(Precision + guard))
	sum := one
	term := one
	for n := int64(1); ; n++ {
		term = div(term.Mul(x), decimal.NewFromInt(n))
		sum = sum.Add(term)
		if term.Abs().LessThan(epsilon) {
			break
		}
	}

	for i := 0; i < halvings; i++ {
		sum = sum.Mul(sum).Round(Precision + guard)
	}
	return sum
}

// Ln returns the natural logarithm of d.
func Ln(d decimal.Decimal) (decimal.Decimal, error) {
	if d.Sign() <= 0 {
		return decimal.Zero, ErrDomain
	}
	y, err := ln(d)
	if err != nil {
		return decimal.Zero, err
	}
	return y.Round(Precision), nil
}

func ln(d decimal.Decimal) (decimal.Decimal, error) {
	f := d.InexactFloat64()
	if f <= 0 || math.IsInf(f, 0) {
		return decimal.Zero, ErrDomain
	}

	// Halley iteration from the float64 estimate; each step triples the
	// number of correct digits.
	y := decimal.NewFromFloat(math.Log(f))
	for i := 0; i < 4; i++ {
		ey := exp(y)
		y = y.Add(div(two.Mul(d.Sub(ey)), d.Add(ey)))
	}
	return y, nil
}

// Sqrt returns the non-negative square root of d.
func Sqrt(d decimal.Decimal) (decimal.Decimal, error) {
	if d.Sign() < 0 {
		return decimal.Zero, ErrDomain
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}

	x := decimal.NewFromFloat(math.Sqrt(d.InexactFloat64()))
	if x.IsZero() {
		x = d
	}
	for i := 0; i < 6; i++ {
		x = div(x.Add(div(d, x)), two)
	}
	return x.Round(Precision), nil
}

// PowInt raises d to a non-negative integer power by repeated squaring.
// The result is exact up to the final rounding to Precision places.
func PowInt(d decimal.Decimal, n int) decimal.Decimal {
	result := one
	base := d
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(Precision + guard)
		}
		base = base.Mul(base).Round(Precision + guard)
		n >>= 1
	}
	return result.Round(Precision)
}

// Pow raises base to an arbitrary decimal exponent. Integral exponents are
// computed exactly; fractional exponents need a positive base.
func Pow(base, exponent decimal.Decimal) (decimal.Decimal, error) {
	if exponent.IsInteger() && exponent.Abs().LessThanOrEqual(decimal.NewFromInt(math.MaxInt32)) {
		n := int(exponent.IntPart())
		if n >= 0 {
			return PowInt(base, n), nil
		}
		if base.IsZero() {
			return decimal.Zero, ErrDomain
		}
		return Div(one, PowInt(base, -n)), nil
	}

	if base.Sign() <= 0 {
		if base.IsZero() && exponent.Sign() > 0 {
			return decimal.Zero, nil
		}
		return decimal.Zero, ErrDomain
	}

	l, err := ln(base)
	if err != nil {
		return decimal.Zero, err
	}
	return exp(exponent.Mul(l)).Round(Precision), nil
}
