package davis

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/chrissnell/weatherlink/pkg/crc16"
	"github.com/chrissnell/weatherlink/pkg/derived"
	"github.com/shopspring/decimal"
)

// LoopPacketLength is the size of a LOOP2 packet including its checksum.
const LoopPacketLength = 99

const loop2PacketType = 1

// Dash values: the console sends these in place of a reading it does not have.
const (
	dashLarge  = 32767
	dashSmall  = 255
	dashZero   = 0
	dashTrend  = 80
	dashMinute = 60
)

// BarometerTrend is the console's three-hour barometer trend.
type BarometerTrend int8

func (t BarometerTrend) String() string {
	switch t {
	case -60:
		return "Falling Rapidly"
	case -20:
		return "Falling Slowly"
	case 0:
		return "Steady"
	case 20:
		return "Rising Slowly"
	case 60:
		return "Rising Rapidly"
	}
	return "Unknown"
}

// LoopRecord is a decoded LOOP2 packet. Null fields carried the console's
// dash value.
type LoopRecord struct {
	Timestamp time.Time `json:"timestamp"`

	BarometerTrend     *BarometerTrend     `json:"barometer_trend,omitempty"`
	BarometricPressure decimal.NullDecimal `json:"barometric_pressure"`

	TemperatureInside  decimal.NullDecimal `json:"temperature_inside"`
	HumidityInside     decimal.NullDecimal `json:"humidity_inside"`
	TemperatureOutside decimal.NullDecimal `json:"temperature_outside"`
	HumidityOutside    decimal.NullDecimal `json:"humidity_outside"`

	WindSpeed                      decimal.NullDecimal `json:"wind_speed"`
	WindDirectionDegrees           int                 `json:"wind_direction_degrees"`
	WindSpeed10MinuteAverage       decimal.NullDecimal `json:"wind_speed_10_minute_average"`
	WindSpeed2MinuteAverage        decimal.NullDecimal `json:"wind_speed_2_minute_average"`
	WindSpeed10MinuteGust          decimal.NullDecimal `json:"wind_speed_10_minute_gust"`
	WindSpeed10MinuteGustDirection int                 `json:"wind_speed_10_minute_gust_direction_degrees"`

	// Values the console computes itself, in whole degrees.
	DewPoint  decimal.NullDecimal `json:"dew_point"`
	HeatIndex decimal.NullDecimal `json:"heat_index"`
	WindChill decimal.NullDecimal `json:"wind_chill"`
	THSWIndex decimal.NullDecimal `json:"thsw_index"`

	UVIndex    decimal.NullDecimal `json:"uv_index"`
	Solar      decimal.NullDecimal `json:"solar_radiation"`
	ET         decimal.NullDecimal `json:"evapotranspiration"`
	MinuteHour *int                `json:"minute_in_hour,omitempty"`

	RainRateClicks      int `json:"rain_rate_clicks"`
	RainClicksThisStorm int `json:"rain_clicks_this_storm"`
	RainClicksToday     int `json:"rain_clicks_today"`
	RainClicks15Minutes int `json:"rain_clicks_15_minutes"`
	RainClicks1Hour     int `json:"rain_clicks_1_hour"`
	RainClicks24Hours   int `json:"rain_clicks_24_hours"`
}

var (
	ones        = decimal.New(1, 0)
	tenths      = decimal.New(1, -1)
	thousandths = decimal.New(1, -3)
)

// loopReader pulls little-endian fields out of a packet by offset.
type loopReader []byte

func (p loopReader) u8(off int) int  { return int(p[off]) }
func (p loopReader) u16(off int) int { return int(binary.LittleEndian.Uint16(p[off:])) }
func (p loopReader) i16(off int) int { return int(int16(binary.LittleEndian.Uint16(p[off:]))) }

// value returns v scaled by scale, or null when v is the dash value.
func value(v, dash int, scale decimal.Decimal) decimal.NullDecimal {
	if v == dash {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromInt(int64(v)).Mul(scale))
}

func whole(v int) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(int64(v)))
}

// DecodeLoop2 decodes one LOOP2 packet received at ts. It returns a
// *CRCError when the checksum fails and an ErrProtocol error when the
// packet's fixed markers are wrong.
func DecodeLoop2(packet []byte, ts time.Time) (LoopRecord, error) {
	if len(packet) != LoopPacketLength {
		return LoopRecord{}, fmt.Errorf("%w: LOOP2 packet is %d bytes, want %d", ErrProtocol, len(packet), LoopPacketLength)
	}
	if crc := crc16.Crc16(packet); crc != 0 {
		return LoopRecord{}, &CRCError{Data: bytes.Clone(packet), CRC: crc}
	}
	if !bytes.Equal(packet[0:3], []byte("LOO")) {
		return LoopRecord{}, fmt.Errorf("%w: invalid packet header %q", ErrProtocol, packet[0:3])
	}
	if packet[4] != loop2PacketType {
		return LoopRecord{}, fmt.Errorf("%w: packet type %d is not LOOP2", ErrProtocol, packet[4])
	}
	if packet[95] != '\n' || packet[96] != '\r' {
		return LoopRecord{}, fmt.Errorf("%w: packet is not terminated by \\n\\r", ErrProtocol)
	}

	p := loopReader(packet)
	r := LoopRecord{
		Timestamp:          ts,
		BarometricPressure: value(p.u16(7), dashZero, thousandths),
		TemperatureInside:  value(p.i16(9), dashLarge, tenths),
		HumidityInside:     value(p.u8(11), dashSmall, ones),
		TemperatureOutside: value(p.i16(12), dashLarge, tenths),
		HumidityOutside:    value(p.u8(33), dashSmall, ones),

		WindSpeed:                      value(p.u8(14), dashSmall, ones),
		WindDirectionDegrees:           p.u16(16),
		WindSpeed10MinuteAverage:       value(p.u16(18), dashZero, tenths),
		WindSpeed2MinuteAverage:        value(p.u16(20), dashZero, tenths),
		WindSpeed10MinuteGust:          value(p.u16(22), dashZero, tenths),
		WindSpeed10MinuteGustDirection: p.u16(24),

		DewPoint:  whole(p.i16(30)),
		HeatIndex: whole(p.i16(35)),
		WindChill: whole(p.i16(37)),
		THSWIndex: whole(p.i16(39)),

		UVIndex: value(p.u8(43), dashSmall, tenths),
		Solar:   value(p.u16(44), dashLarge, ones),
		ET:      value(p.u16(56), dashZero, thousandths),

		RainRateClicks:      p.u16(41),
		RainClicksThisStorm: p.u16(46),
		RainClicksToday:     p.u16(50),
		RainClicks15Minutes: p.u16(52),
		RainClicks1Hour:     p.u16(54),
		RainClicks24Hours:   p.u16(58),
	}

	if trend := int8(packet[3]); trend != dashTrend {
		t := BarometerTrend(trend)
		r.BarometerTrend = &t
	}
	if minute := p.u8(79); minute != dashMinute {
		r.MinuteHour = &minute
	}

	return r, nil
}

// Record converts the packet to a primitive record for derivation. A LOOP
// packet is an instantaneous reading, so it covers no minutes and has no
// low or high variants. The 10-minute gust stands in as the high wind speed.
func (r LoopRecord) Record() derived.Record {
	return derived.Record{
		Timestamp:              r.Timestamp,
		WindSpeed:              r.WindSpeed,
		WindSpeedDirection:     CompassDirection(r.WindDirectionDegrees),
		WindSpeedHigh:          r.WindSpeed10MinuteGust,
		WindSpeedHighDirection: CompassDirection(r.WindSpeed10MinuteGustDirection),
		HumidityOutside:        r.HumidityOutside,
		HumidityInside:         r.HumidityInside,
		BarometricPressure:     r.BarometricPressure,
		TemperatureOutside:     r.TemperatureOutside,
		TemperatureInside:      r.TemperatureInside,
		SolarRadiation:         r.Solar,
	}
}
