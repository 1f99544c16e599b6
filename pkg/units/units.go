// Package units holds the exact decimal constants and the unit conversions
// used by the derived-metrics engine.
package units

import (
	"github.com/chrissnell/weatherlink/pkg/decmath"
	"github.com/shopspring/decimal"
)

// Conversion constants. These are exact decimal literals and never pass
// through binary floating point.
var (
	Zero  = decimal.Zero
	One   = decimal.NewFromInt(1)
	Ten   = decimal.NewFromInt(10)
	Sixty = decimal.NewFromInt(60)

	KelvinOffset  = decimal.RequireFromString("459.67")
	CelsiusOffset = decimal.NewFromInt(32)

	FiveNinths = ratio(5, 9)
	NineFifths = decimal.RequireFromString("1.8")

	// inches of mercury per kilopascal
	InHgPerKPa = decimal.RequireFromString("0.295299830714")
	// inches of mercury per millibar
	InHgPerMillibar = InHgPerKPa.Mul(decimal.RequireFromString("0.1"))

	MetersPerSecondPerMPH = decimal.RequireFromString("0.44704")
)

func ratio(a, b int64) decimal.Decimal {
	return decmath.Div(decimal.NewFromInt(a), decimal.NewFromInt(b))
}

// FahrenheitToKelvin converts °F to K, quantized to 3 places.
func FahrenheitToKelvin(f decimal.Decimal) decimal.Decimal {
	return f.Add(KelvinOffset).Mul(FiveNinths).Round(3)
}

// KelvinToFahrenheit converts K to °F, quantized to 3 places.
func KelvinToFahrenheit(k decimal.Decimal) decimal.Decimal {
	return k.Mul(NineFifths).Sub(KelvinOffset).Round(3)
}

// FahrenheitToCelsius converts °F to °C without quantizing the result.
func FahrenheitToCelsius(f decimal.Decimal) decimal.Decimal {
	return f.Sub(CelsiusOffset).Mul(FiveNinths).Round(decmath.Precision)
}

// CelsiusToFahrenheit converts °C to °F without quantizing the result.
func CelsiusToFahrenheit(c decimal.Decimal) decimal.Decimal {
	return c.Mul(NineFifths).Add(CelsiusOffset)
}

// InHgToKPa converts inches of mercury to kilopascals, quantized to 2 places.
func InHgToKPa(inHg decimal.Decimal) decimal.Decimal {
	return decmath.Div(inHg, InHgPerKPa).Round(2)
}

// KPaToInHg converts kilopascals back to inches of mercury, quantized to 2 places.
func KPaToInHg(kPa decimal.Decimal) decimal.Decimal {
	return kPa.Mul(InHgPerKPa).Round(2)
}

// InHgToMillibars converts inches of mercury to millibars, quantized to 2 places.
func InHgToMillibars(inHg decimal.Decimal) decimal.Decimal {
	return decmath.Div(inHg, InHgPerMillibar).Round(2)
}

// MPHToMetersPerSecond converts miles per hour to meters per second.
func MPHToMetersPerSecond(mph decimal.Decimal) decimal.Decimal {
	return mph.Mul(MetersPerSecondPerMPH)
}

// Null-propagating variants. An invalid input yields an invalid output.

// NullFahrenheitToKelvin is FahrenheitToKelvin over a nullable value.
func NullFahrenheitToKelvin(f decimal.NullDecimal) decimal.NullDecimal {
	return apply(f, FahrenheitToKelvin)
}

// NullFahrenheitToCelsius is FahrenheitToCelsius over a nullable value.
func NullFahrenheitToCelsius(f decimal.NullDecimal) decimal.NullDecimal {
	return apply(f, FahrenheitToCelsius)
}

// NullInHgToKPa is InHgToKPa over a nullable value.
func NullInHgToKPa(inHg decimal.NullDecimal) decimal.NullDecimal {
	return apply(inHg, InHgToKPa)
}

// NullInHgToMillibars is InHgToMillibars over a nullable value.
func NullInHgToMillibars(inHg decimal.NullDecimal) decimal.NullDecimal {
	return apply(inHg, InHgToMillibars)
}

// NullMPHToMetersPerSecond is MPHToMetersPerSecond over a nullable value.
func NullMPHToMetersPerSecond(mph decimal.NullDecimal) decimal.NullDecimal {
	return apply(mph, MPHToMetersPerSecond)
}

func apply(v decimal.NullDecimal, fn func(decimal.Decimal) decimal.Decimal) decimal.NullDecimal {
	if !v.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(fn(v.Decimal))
}
