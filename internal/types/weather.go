package types

import (
	"time"

	"github.com/chrissnell/weatherlink/pkg/derived"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reading is one observation from a station together with everything
// derived from it. Stations publish Readings to the storage manager's
// distributor; storage engines and controllers consume them.
type Reading struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	StationName string    `json:"station"`
	StationType string    `json:"station_type"`

	Record  derived.Record `json:"record"`
	Derived derived.Values `json:"derived"`

	// Rain amounts in inches, converted using the console's rain collector.
	RainRate  decimal.NullDecimal `json:"rain_rate"`
	DayRain   decimal.NullDecimal `json:"rain_today"`
	StormRain decimal.NullDecimal `json:"rain_storm"`

	UV    decimal.NullDecimal `json:"uv_index"`
	DayET decimal.NullDecimal `json:"evapotranspiration"`
}

// NewReading stamps a record with a fresh ID and derives its secondary
// values.
func NewReading(station, stationType string, record derived.Record) Reading {
	return Reading{
		ID:          uuid.New(),
		Timestamp:   record.Timestamp,
		StationName: station,
		StationType: stationType,
		Record:      record,
		Derived:     derived.CalculateAll(record),
	}
}
