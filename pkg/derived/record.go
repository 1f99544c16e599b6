// Package derived computes secondary meteorological quantities (dew point,
// heat index, wind chill, wet bulb, THW and THSW indices, degree-days and
// rolling wind averages) from primitive Davis sensor readings.
//
// All arithmetic is exact decimal. Functions keep no state, so records may be
// derived concurrently.
package derived

import (
	"time"

	"github.com/chrissnell/weatherlink/pkg/decmath"
	"github.com/shopspring/decimal"
)

// Record is a primitive sensor record as produced by a LOOP poll or an
// archive download. Null fields were not reported by the station.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	MinutesCovered int       `json:"minutes_covered"`

	WindSpeed              decimal.NullDecimal `json:"wind_speed"`
	WindSpeedDirection     string              `json:"wind_speed_direction,omitempty"`
	WindSpeedHigh          decimal.NullDecimal `json:"wind_speed_high"`
	WindSpeedHighDirection string              `json:"wind_speed_high_direction,omitempty"`

	HumidityOutside    decimal.NullDecimal `json:"humidity_outside"`
	HumidityInside     decimal.NullDecimal `json:"humidity_inside"`
	BarometricPressure decimal.NullDecimal `json:"barometric_pressure"`

	TemperatureOutside     decimal.NullDecimal `json:"temperature_outside"`
	TemperatureOutsideLow  decimal.NullDecimal `json:"temperature_outside_low"`
	TemperatureOutsideHigh decimal.NullDecimal `json:"temperature_outside_high"`
	TemperatureInside      decimal.NullDecimal `json:"temperature_inside"`

	SolarRadiation     decimal.NullDecimal `json:"solar_radiation"`
	SolarRadiationHigh decimal.NullDecimal `json:"solar_radiation_high"`
}

// Values maps derived field names to their values. A field that could not
// be derived is absent rather than zero.
type Values map[string]decimal.Decimal

// Derived field names.
const (
	KeyWindRunDistanceTotal = "wind_run_distance_total"

	KeyWetBulb     = "temperature_wet_bulb"
	KeyWetBulbLow  = "temperature_wet_bulb_low"
	KeyWetBulbHigh = "temperature_wet_bulb_high"

	KeyDewPointOutside  = "dew_point_outside"
	KeyHeatIndexOutside = "heat_index_outside"
	KeyDewPointInside   = "dew_point_inside"
	KeyHeatIndexInside  = "heat_index_inside"

	KeyWindChill = "wind_chill"
	KeyTHWIndex  = "thw_index"
	KeyTHSWIndex = "thsw_index"

	lowSuffix  = "_low"
	highSuffix = "_high"
)

// Low returns the name of the low variant of a derived field.
func Low(key string) string { return key + lowSuffix }

// High returns the name of the high variant of a derived field.
func High(key string) string { return key + highSuffix }

// candidates collects computed values in a fixed order. The first becomes
// the representative value; low and high are the extremes.
type candidates []decimal.Decimal

func (c *candidates) add(v decimal.NullDecimal) {
	if v.Valid {
		*c = append(*c, v.Decimal)
	}
}

func (c candidates) storeInto(values Values, key string) {
	if len(c) == 0 {
		return
	}
	low, high := c[0], c[0]
	for _, v := range c[1:] {
		if v.LessThan(low) {
			low = v
		}
		if v.GreaterThan(high) {
			high = v
		}
	}
	values[key] = c[0]
	values[Low(key)] = low
	values[High(key)] = high
}

func store(values Values, key string, v decimal.NullDecimal) {
	if v.Valid {
		values[key] = v.Decimal
	}
}

// CalculateAll derives every quantity the record has inputs for.
//
// Temperature variants are visited current, then low, then high for dew
// point and heat index, and current, high, low for wind chill and the THW
// and THSW indices; the first value computed is the representative one.
// Wind chill only pairs speeds that were reported, while THW and THSW treat
// a missing speed as calm.
func CalculateAll(r Record) Values {
	values := Values{}

	ws := r.WindSpeed
	wsh := r.WindSpeedHigh
	rh := r.HumidityOutside
	t, tLow, tHigh := r.TemperatureOutside, r.TemperatureOutsideLow, r.TemperatureOutsideHigh
	anyTemperature := t.Valid || tLow.Valid || tHigh.Valid

	if ws.Valid {
		// multiply before dividing so terminating distances stay exact
		total := ws.Decimal.Mul(decimal.NewFromInt(int64(r.MinutesCovered)))
		values[KeyWindRunDistanceTotal] = decmath.Div(total, decimal.NewFromInt(60))
	}

	if rh.Valid && r.BarometricPressure.Valid {
		p := r.BarometricPressure.Decimal
		for _, v := range []struct {
			key string
			t   decimal.NullDecimal
		}{
			{KeyWetBulb, t},
			{KeyWetBulbLow, tLow},
			{KeyWetBulbHigh, tHigh},
		} {
			if v.t.Valid {
				store(values, v.key, WetBulbTemperature(v.t.Decimal, rh.Decimal, p))
			}
		}
	}

	if rh.Valid {
		var dewPoints, heatIndices candidates
		for _, temp := range []decimal.NullDecimal{t, tLow, tHigh} {
			if !temp.Valid {
				continue
			}
			dewPoints.add(DewPoint(temp.Decimal, rh.Decimal))
			heatIndices.add(HeatIndex(temp.Decimal, rh.Decimal))
		}
		dewPoints.storeInto(values, KeyDewPointOutside)
		heatIndices.storeInto(values, KeyHeatIndexOutside)
	}

	if r.HumidityInside.Valid && r.TemperatureInside.Valid {
		store(values, KeyDewPointInside, DewPoint(r.TemperatureInside.Decimal, r.HumidityInside.Decimal))
		store(values, KeyHeatIndexInside, HeatIndex(r.TemperatureInside.Decimal, r.HumidityInside.Decimal))
	}

	// wind chill, THW and THSW share this temperature order
	temps := []decimal.NullDecimal{t, tHigh, tLow}

	if (ws.Valid || wsh.Valid) && anyTemperature {
		var chills candidates
		for _, speed := range []decimal.NullDecimal{ws, wsh} {
			if !speed.Valid {
				continue
			}
			for _, temp := range temps {
				if temp.Valid {
					chills.add(WindChill(temp.Decimal, speed.Decimal))
				}
			}
		}
		chills.storeInto(values, KeyWindChill)
	}

	if rh.Valid && anyTemperature {
		speeds := []decimal.Decimal{OrZero(ws), OrZero(wsh)}

		var thw candidates
		for _, temp := range temps {
			if !temp.Valid {
				continue
			}
			for _, speed := range speeds {
				thw.add(THWIndex(temp.Decimal, rh.Decimal, speed))
			}
		}
		thw.storeInto(values, KeyTHWIndex)

		if r.SolarRadiation.Valid || r.SolarRadiationHigh.Valid {
			var thsw candidates
			for _, solar := range []decimal.NullDecimal{r.SolarRadiation, r.SolarRadiationHigh} {
				if !solar.Valid {
					continue
				}
				for _, temp := range temps {
					if !temp.Valid {
						continue
					}
					for _, speed := range speeds {
						thsw.add(THSWIndex(temp.Decimal, rh.Decimal, solar.Decimal, speed))
					}
				}
			}
			thsw.storeInto(values, KeyTHSWIndex)
		}
	}

	return values
}

// WindSample returns the record's contribution to a rolling wind average.
func (r Record) WindSample() WindSample {
	return WindSample{
		Speed:          r.WindSpeed,
		Direction:      r.WindSpeedDirection,
		End:            r.Timestamp,
		MinutesCovered: r.MinutesCovered,
	}
}
