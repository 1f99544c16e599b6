package derived

import (
	"github.com/chrissnell/weatherlink/pkg/decmath"
	"github.com/chrissnell/weatherlink/pkg/units"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	oneHundred   = decimal.NewFromInt(100)
	oneHundredth = dec("0.01")

	// wet bulb, NOAA approximation
	wb0_00066 = dec("0.00066")
	wb0_007   = dec("0.007")
	wb0_114   = dec("0.114")
	wb0_117   = dec("0.117")
	wb2_5     = dec("2.5")
	wb6_11    = dec("6.11")
	wb7_5     = dec("7.5")
	wb14_55   = dec("14.55")
	wb15_9    = dec("15.9")
	wb237_7   = dec("237.7")
	wb4098    = decimal.NewFromInt(4098)

	// dew point, Magnus formula with Bögel's modification
	dpB = dec("17.67")
	dpC = dec("243.5")
	dpD = dec("234.5")

	// heat index, NWS Rothfusz regression
	hiRegressionThreshold = dec("80.0")
	hi0_094               = dec("0.094")
	hi0_5                 = dec("0.5")
	hi1_2                 = dec("1.2")
	hi61                  = dec("61.0")
	hi68                  = dec("68.0")
	hiC1                  = dec("-42.379")
	hiC2                  = dec("2.04901523")
	hiC3                  = dec("10.14333127")
	hiC4                  = dec("-0.22475541")
	hiC5                  = dec("-0.00683783")
	hiC6                  = dec("-0.05481717")
	hiC7                  = dec("0.00122874")
	hiC8                  = dec("0.00085282")
	hiC9                  = dec("-0.00000199")
	hiLowHumidityMinT     = dec("80.0")
	hiLowHumidityMaxT     = dec("112.0")
	hiLowHumidityMaxRH    = dec("13.0")
	hiHighHumidityMinT    = dec("80.0")
	hiHighHumidityMaxT    = dec("87.0")
	hiHighHumidityMinRH   = dec("85.0")
	hi13                  = decimal.NewFromInt(13)
	hi17                  = decimal.NewFromInt(17)
	hi95                  = decimal.NewFromInt(95)
	hi85                  = decimal.NewFromInt(85)
	hi87                  = decimal.NewFromInt(87)
	four                  = decimal.NewFromInt(4)
	five                  = decimal.NewFromInt(5)

	// wind chill, NWS 2001 formula
	wcC1   = dec("35.74")
	wcC2   = dec("0.6215")
	wcC3   = dec("35.75")
	wcC4   = dec("0.4275")
	wcVExp = dec("0.16")

	thwConstant = dec("1.072")

	// THSW, Australian BoM apparent temperature
	thsw0_348 = dec("0.348")
	thsw0_70  = dec("0.70")
	thsw4_25  = dec("4.25")
	thsw6_105 = dec("6.105")
	thsw17_27 = dec("17.27")
	thsw237_7 = dec("237.7")

	// HeatIndexThreshold is the temperature (°F) below which no heat index is reported.
	HeatIndexThreshold = dec("70.0")

	// WindChillThreshold is the temperature (°F) above which no wind chill is reported.
	WindChillThreshold = dec("40.0")

	// DegreeDaysThreshold is the base temperature (°F) for degree-day accounting.
	DegreeDaysThreshold = dec("65.0")
)

// OrZero returns the value of v, or zero when v is null. Relative humidity
// and wind speed default to zero in the formulas that accept missing values.
func OrZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

func some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// WetBulbTemperature approximates the wet-bulb temperature (°F) from the air
// temperature (°F), relative humidity (%) and barometric pressure (inHg).
// The result is quantized to one decimal place.
func WetBulbTemperature(temperature, humidity, pressure decimal.Decimal) decimal.NullDecimal {
	T := temperature
	P := units.InHgToMillibars(pressure)
	dryness := units.One.Sub(oneHundredth.Mul(humidity))

	Tdc := T.
		Sub(wb14_55.Add(wb0_114.Mul(T)).Mul(dryness)).
		Sub(decmath.PowInt(wb2_5.Add(wb0_007.Mul(T)).Mul(dryness), 3)).
		Sub(wb15_9.Add(wb0_117.Mul(T)).Mul(decmath.PowInt(dryness, 14)))

	denom := wb237_7.Add(Tdc)
	if denom.IsZero() {
		return decimal.NullDecimal{}
	}
	exponent := decmath.Div(wb7_5.Mul(Tdc), denom)
	tenPow, err := decmath.Pow(units.Ten, exponent)
	if err != nil {
		return decimal.NullDecimal{}
	}
	E := wb6_11.Mul(tenPow)

	slope := decmath.Div(wb4098.Mul(E), decmath.PowInt(denom, 2))
	psychro := wb0_00066.Mul(P)
	bottom := psychro.Add(slope)
	if bottom.IsZero() {
		return decimal.NullDecimal{}
	}

	wb := decmath.Div(psychro.Mul(T).Add(slope.Mul(Tdc)), bottom)
	return some(wb.Round(1))
}

func dewPointGamma(tc, humidity decimal.Decimal) (decimal.Decimal, error) {
	inner := dpB.Sub(decmath.Div(tc, dpD)).Mul(decmath.Div(tc, dpC.Add(tc)))
	return decmath.Ln(decmath.Div(humidity, oneHundred).Mul(decmath.Exp(inner)))
}

// DewPoint computes the dew point (°F) from the air temperature (°F) and
// relative humidity (%), quantized to one decimal place. A non-positive
// humidity has no dew point and yields null.
func DewPoint(temperature, humidity decimal.Decimal) decimal.NullDecimal {
	if humidity.Sign() <= 0 {
		return decimal.NullDecimal{}
	}

	tc := units.FahrenheitToCelsius(temperature)
	gamma, err := dewPointGamma(tc, humidity)
	if err != nil {
		return decimal.NullDecimal{}
	}
	denom := dpB.Sub(gamma)
	if denom.IsZero() {
		return decimal.NullDecimal{}
	}

	dp := decmath.Div(dpC.Mul(gamma), denom)
	return some(units.CelsiusToFahrenheit(dp).Round(1))
}

// HeatIndex computes the NWS heat index (°F) from the air temperature (°F)
// and relative humidity (%). Temperatures below HeatIndexThreshold yield
// null. Results are rounded away from zero to one decimal place.
func HeatIndex(temperature, humidity decimal.Decimal) decimal.NullDecimal {
	if temperature.LessThan(HeatIndexThreshold) {
		return decimal.NullDecimal{}
	}

	T := temperature
	RH := humidity

	// Steadman's simple estimate, averaged with the temperature
	hi := hi0_5.Mul(T.Add(hi61).Add(T.Sub(hi68).Mul(hi1_2)).Add(RH.Mul(hi0_094)))
	hi = decmath.Div(hi.Add(T), decimal.NewFromInt(2))
	if hi.LessThan(hiRegressionThreshold) {
		return some(hi.RoundUp(1))
	}

	hi = hiC1.
		Add(hiC2.Mul(T)).
		Add(hiC3.Mul(RH)).
		Add(hiC4.Mul(T).Mul(RH)).
		Add(hiC5.Mul(T).Mul(T)).
		Add(hiC6.Mul(RH).Mul(RH)).
		Add(hiC7.Mul(T).Mul(T).Mul(RH)).
		Add(hiC8.Mul(T).Mul(RH).Mul(RH)).
		Add(hiC9.Mul(T).Mul(T).Mul(RH).Mul(RH))

	switch {
	case between(T, hiLowHumidityMinT, hiLowHumidityMaxT) && RH.LessThan(hiLowHumidityMaxRH):
		root, err := decmath.Sqrt(decmath.Div(hi17.Sub(T.Sub(hi95).Abs()), hi17))
		if err != nil {
			return decimal.NullDecimal{}
		}
		hi = hi.Sub(decmath.Div(hi13.Sub(RH), four).Mul(root))
	case between(T, hiHighHumidityMinT, hiHighHumidityMaxT) && RH.GreaterThan(hiHighHumidityMinRH):
		hi = hi.Add(decmath.Div(RH.Sub(hi85), units.Ten).Mul(decmath.Div(hi87.Sub(T), five)))
	}

	return some(hi.RoundUp(1))
}

func between(v, lo, hi decimal.Decimal) bool {
	return v.GreaterThanOrEqual(lo) && v.LessThanOrEqual(hi)
}

// WindChill computes the NWS wind chill (°F) from the air temperature (°F)
// and wind speed (mph), quantized to one decimal place. Temperatures above
// WindChillThreshold yield null. Calm air returns the temperature itself and
// the result never exceeds the temperature.
func WindChill(temperature, windSpeed decimal.Decimal) decimal.NullDecimal {
	if temperature.GreaterThan(WindChillThreshold) {
		return decimal.NullDecimal{}
	}

	T := temperature
	if windSpeed.IsZero() {
		return some(T)
	}

	V, err := decmath.Pow(windSpeed, wcVExp)
	if err != nil {
		return decimal.NullDecimal{}
	}

	wc := wcC1.Add(wcC2.Mul(T)).Sub(wcC3.Mul(V)).Add(wcC4.Mul(T).Mul(V)).Round(1)
	if wc.GreaterThan(T) {
		return some(T)
	}
	return some(wc)
}

// THWIndex computes the temperature-humidity-wind index (°F): the heat index
// less 1.072 °F per mph of wind, the wind term truncated to one decimal place.
// It is null whenever the heat index is.
func THWIndex(temperature, humidity, windSpeed decimal.Decimal) decimal.NullDecimal {
	hi := HeatIndex(temperature, humidity)
	if !hi.Valid {
		return decimal.NullDecimal{}
	}
	return some(hi.Decimal.Sub(thwConstant.Mul(windSpeed).RoundDown(1)))
}

// THSWIndex computes the temperature-humidity-sun-wind index (°F) from the
// air temperature (°F), relative humidity (%), solar radiation (W/m²) and
// wind speed (mph), quantized to one decimal place.
func THSWIndex(temperature, humidity, solarRadiation, windSpeed decimal.Decimal) decimal.NullDecimal {
	T := units.FahrenheitToCelsius(temperature)
	WS := units.MPHToMetersPerSecond(windSpeed)

	denom := thsw237_7.Add(T)
	if denom.IsZero() {
		return decimal.NullDecimal{}
	}
	E := decmath.Div(humidity, oneHundred).Mul(thsw6_105).Mul(decmath.Exp(decmath.Div(thsw17_27.Mul(T), denom)))

	windDenom := WS.Add(units.Ten)
	if windDenom.IsZero() {
		return decimal.NullDecimal{}
	}

	thsw := T.
		Add(thsw0_348.Mul(E)).
		Sub(thsw0_70.Mul(WS)).
		Add(thsw0_70.Mul(decmath.Div(solarRadiation, windDenom))).
		Sub(thsw4_25)

	return some(units.CelsiusToFahrenheit(thsw).Round(1))
}

// CoolingDegreeDays returns how far the average temperature (°F) sits above
// DegreeDaysThreshold, or null when it does not.
func CoolingDegreeDays(averageTemperature decimal.Decimal) decimal.NullDecimal {
	if averageTemperature.LessThanOrEqual(DegreeDaysThreshold) {
		return decimal.NullDecimal{}
	}
	return some(averageTemperature.Sub(DegreeDaysThreshold))
}

// HeatingDegreeDays returns how far the average temperature (°F) sits below
// DegreeDaysThreshold, or null when it does not.
func HeatingDegreeDays(averageTemperature decimal.Decimal) decimal.NullDecimal {
	if averageTemperature.GreaterThanOrEqual(DegreeDaysThreshold) {
		return decimal.NullDecimal{}
	}
	return some(DegreeDaysThreshold.Sub(averageTemperature))
}
