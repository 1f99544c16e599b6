package derived

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func coldRecord() Record {
	return Record{
		MinutesCovered:         10,
		WindSpeed:              nd("5"),
		WindSpeedHigh:          nd("12"),
		HumidityOutside:        nd("60"),
		BarometricPressure:     nd("29.92"),
		TemperatureOutside:     nd("35"),
		TemperatureOutsideLow:  nd("30"),
		TemperatureOutsideHigh: nd("38"),
		TemperatureInside:      nd("70"),
		HumidityInside:         nd("40"),
	}
}

func hotRecord() Record {
	return Record{
		MinutesCovered:         5,
		WindSpeed:              nd("4"),
		WindSpeedHigh:          nd("10"),
		HumidityOutside:        nd("55"),
		BarometricPressure:     nd("29.95"),
		TemperatureOutside:     nd("88"),
		TemperatureOutsideLow:  nd("84"),
		TemperatureOutsideHigh: nd("91"),
		SolarRadiation:         nd("650"),
		SolarRadiationHigh:     nd("900"),
	}
}

func TestCalculateAll(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   map[string]string
	}{
		{
			name:   "cold",
			record: coldRecord(),
			want: map[string]string{
				"dew_point_inside":          "44.4",
				"dew_point_outside":         "22.5",
				"dew_point_outside_high":    "25.3",
				"dew_point_outside_low":     "17.8",
				"heat_index_inside":         "69.3",
				"temperature_wet_bulb":      "28.4",
				"temperature_wet_bulb_high": "31.1",
				"temperature_wet_bulb_low":  "24.1",
				"wind_chill":                "30.6",
				"wind_chill_high":           "34.1",
				"wind_chill_low":            "20.3",
				"wind_run_distance_total":   "0.8333333333333333333333333333",
			},
		},
		{
			name:   "hot",
			record: hotRecord(),
			want: map[string]string{
				"dew_point_outside":         "69.4",
				"dew_point_outside_high":    "72.1",
				"dew_point_outside_low":     "65.7",
				"heat_index_outside":        "93.0",
				"heat_index_outside_high":   "99.2",
				"heat_index_outside_low":    "86.3",
				"temperature_wet_bulb":      "74.7",
				"temperature_wet_bulb_high": "77.5",
				"temperature_wet_bulb_low":  "71.1",
				"thsw_index":                "163.1",
				"thsw_index_high":           "194.3",
				"thsw_index_low":            "141.0",
				"thw_index":                 "88.8",
				"thw_index_high":            "95.0",
				"thw_index_low":             "75.6",
				"wind_run_distance_total":   "0.3333333333333333333333333333",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateAll(tt.record)
			if len(got) != len(tt.want) {
				t.Errorf("got %d derived values, want %d: %v", len(got), len(tt.want), got)
			}
			for key, want := range tt.want {
				v, ok := got[key]
				if !ok {
					t.Errorf("%s missing", key)
					continue
				}
				if !v.Equal(d(want)) {
					t.Errorf("%s = %s, want %s", key, v, want)
				}
			}
		})
	}
}

func TestWindRunDistance(t *testing.T) {
	tests := []struct {
		speed   string
		minutes int
		want    string
	}{
		{speed: "23.9", minutes: 30, want: "11.95"},
		{speed: "4.1", minutes: 30, want: "2.05"},
		{speed: "6", minutes: 5, want: "0.5"},
		{speed: "5", minutes: 10, want: "0.8333333333333333333333333333"},
		{speed: "12", minutes: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.speed+"x"+strconv.Itoa(tt.minutes), func(t *testing.T) {
			got, ok := CalculateAll(Record{WindSpeed: nd(tt.speed), MinutesCovered: tt.minutes})[KeyWindRunDistanceTotal]
			if !ok {
				t.Fatal("wind run missing")
			}
			if got.String() != tt.want {
				t.Errorf("wind run = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateAllEmptyRecord(t *testing.T) {
	if got := CalculateAll(Record{}); len(got) != 0 {
		t.Errorf("empty record derived %v", got)
	}
}

func TestCalculateAllRepresentativeOrder(t *testing.T) {
	// without a current temperature the low variant is visited first for dew
	// point, the high variant first for wind chill
	r := Record{
		WindSpeed:              nd("10"),
		HumidityOutside:        nd("60"),
		TemperatureOutsideLow:  nd("20"),
		TemperatureOutsideHigh: nd("30"),
	}
	got := CalculateAll(r)

	if want := DewPoint(d("20"), d("60")).Decimal; !got[KeyDewPointOutside].Equal(want) {
		t.Errorf("dew_point_outside = %s, want the low-temperature value %s", got[KeyDewPointOutside], want)
	}
	if want := WindChill(d("30"), d("10")).Decimal; !got[KeyWindChill].Equal(want) {
		t.Errorf("wind_chill = %s, want the high-temperature value %s", got[KeyWindChill], want)
	}
}

func TestCalculateAllMissingSpeedDefaults(t *testing.T) {
	r := Record{
		HumidityOutside:    nd("50"),
		TemperatureOutside: nd("30"),
	}
	got := CalculateAll(r)

	if _, ok := got[KeyWindChill]; ok {
		t.Error("wind chill derived without any wind speed")
	}

	r = Record{
		HumidityOutside:    nd("60"),
		TemperatureOutside: nd("85"),
	}
	got = CalculateAll(r)
	if v, ok := got[KeyTHWIndex]; !ok || !v.Equal(d("89.3")) {
		t.Errorf("thw_index = %v (present %v), want 89.3 with calm wind", v, ok)
	}
}

func TestCalculateAllLowNeverExceedsHigh(t *testing.T) {
	for _, r := range []Record{coldRecord(), hotRecord()} {
		got := CalculateAll(r)
		for key, v := range got {
			if !strings.HasSuffix(key, lowSuffix) {
				continue
			}
			base := strings.TrimSuffix(key, lowSuffix)
			high, ok := got[High(base)]
			if !ok {
				continue
			}
			if v.GreaterThan(high) {
				t.Errorf("%s = %s exceeds %s = %s", key, v, High(base), high)
			}
		}
	}
}

func TestCalculateAllConcurrent(t *testing.T) {
	want := CalculateAll(hotRecord())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := CalculateAll(hotRecord())
			for k, v := range want {
				if !got[k].Equal(v) {
					t.Errorf("%s diverged: %s != %s", k, got[k], v)
				}
			}
		}()
	}
	wg.Wait()
}

func TestRecordJSON(t *testing.T) {
	raw := `{"timestamp":"2016-04-29T06:10:00Z","minutes_covered":5,"wind_speed":"3","temperature_outside":72.5,"humidity_outside":null}`

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.MinutesCovered != 5 || !r.WindSpeed.Valid || !r.WindSpeed.Decimal.Equal(d("3")) {
		t.Errorf("unexpected record %+v", r)
	}
	if !r.TemperatureOutside.Valid || !r.TemperatureOutside.Decimal.Equal(d("72.5")) {
		t.Errorf("temperature_outside = %v, want 72.5", r.TemperatureOutside)
	}
	if r.HumidityOutside.Valid || r.BarometricPressure.Valid {
		t.Error("null and absent fields should stay null")
	}

	s := r.WindSample()
	if s.MinutesCovered != 5 || !s.End.Equal(r.Timestamp) {
		t.Errorf("WindSample() = %+v", s)
	}
}
