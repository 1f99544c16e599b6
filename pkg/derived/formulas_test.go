package derived

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertNull(t *testing.T, name string, got decimal.NullDecimal) {
	t.Helper()
	if got.Valid {
		t.Errorf("%s = %s, want null", name, got.Decimal)
	}
}

func assertEqual(t *testing.T, name string, got decimal.NullDecimal, want string) {
	t.Helper()
	if !got.Valid {
		t.Errorf("%s = null, want %s", name, want)
		return
	}
	if !got.Decimal.Equal(d(want)) {
		t.Errorf("%s = %s, want %s", name, got.Decimal, want)
	}
}

func assertNear(t *testing.T, name string, got decimal.NullDecimal, want int, delta string) {
	t.Helper()
	if !got.Valid {
		t.Errorf("%s = null, want about %d", name, want)
		return
	}
	if got.Decimal.Sub(decimal.NewFromInt(int64(want))).Abs().GreaterThan(d(delta)) {
		t.Errorf("%s = %s, want %d ± %s", name, got.Decimal, want, delta)
	}
}

func assertOnePlace(t *testing.T, name string, got decimal.NullDecimal) {
	t.Helper()
	if got.Valid && !got.Decimal.Equal(got.Decimal.Truncate(1)) {
		t.Errorf("%s = %s has more than one decimal place", name, got.Decimal)
	}
}

func TestWetBulbTemperature(t *testing.T) {
	tests := []struct {
		temperature, humidity, pressure string
		want                            string
	}{
		{"84.4", "50", "29.80", "69.4"},
		{"91.5", "45", "30.01", "73.4"},
		{"55.7", "85", "29.41", "52.8"},
		{"32.0", "60", "30.00", "25.8"},
	}

	for _, tt := range tests {
		t.Run(tt.temperature, func(t *testing.T) {
			got := WetBulbTemperature(d(tt.temperature), d(tt.humidity), d(tt.pressure))
			assertEqual(t, "WetBulbTemperature", got, tt.want)
		})
	}
}

func TestDewPoint(t *testing.T) {
	tests := []struct {
		temperature, humidity string
		want                  string
	}{
		{"83.1", "54", "64.4"},
		{"82.1", "55", "64.0"},
		{"77.9", "58", "61.7"},
		{"54.5", "97", "53.6"},
		{"32.0", "99", "31.8"},
		{"95.0", "31", "59.2"},
		{"70", "40", "44.4"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.temperature, tt.humidity), func(t *testing.T) {
			assertEqual(t, "DewPoint", DewPoint(d(tt.temperature), d(tt.humidity)), tt.want)
		})
	}

	assertNull(t, "DewPoint(70, 0)", DewPoint(d("70"), decimal.Zero))
}

func TestHeatIndexKnownValues(t *testing.T) {
	tests := []struct {
		temperature, humidity string
		want                  string
	}{
		{"70", "90", "70.5"},
		{"70.0", "5", "68.5"},
		{"70.1", "25", "69.1"},
		{"80", "40", "79.8"},
		{"80", "86", "85.3"},
		{"80", "100", "89.3"},
		{"81.5", "58", "83.5"},
		{"86", "90", "105.4"},
		{"95", "12", "90.1"},
		{"100", "65", "135.9"},
		{"111", "12", "107.0"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.temperature, tt.humidity), func(t *testing.T) {
			got := HeatIndex(d(tt.temperature), d(tt.humidity))
			assertEqual(t, "HeatIndex", got, tt.want)
			assertOnePlace(t, "HeatIndex", got)
		})
	}
}

func TestHeatIndexThreshold(t *testing.T) {
	for _, temp := range []string{"69.9", "50", "-10"} {
		assertNull(t, "HeatIndex("+temp+")", HeatIndex(d(temp), d("90")))
	}
	for _, temp := range []string{"70", "70.05", "99"} {
		if !HeatIndex(d(temp), d("50")).Valid {
			t.Errorf("HeatIndex(%s) = null, want a value", temp)
		}
	}
}

func TestHeatIndexRoundsUp(t *testing.T) {
	// the simple estimate for 70 °F at 40% is exactly 69.29
	assertEqual(t, "HeatIndex(70, 40)", HeatIndex(d("70"), d("40")), "69.3")
}

// NOAA/NWS heat index chart, rows by humidity, columns by temperature.
var (
	heatIndexTemperatures = []int{80, 82, 84, 86, 88, 90, 92, 94, 96, 98, 100, 102, 104, 106, 108, 110}
	heatIndexHumidities   = []int{40, 45, 50, 55, 60, 65, 70, 75, 80, 85, 90, 95, 100}
	heatIndexChart        = [][]int{
		{80, 81, 83, 85, 88, 91, 94, 97, 101, 105, 109, 114, 119, 124, 130, 136},
		{80, 82, 84, 87, 89, 93, 96, 100, 104, 109, 114, 119, 124, 130, 137},
		{81, 83, 85, 88, 91, 95, 99, 103, 108, 113, 118, 124, 131, 137},
		{81, 84, 86, 89, 93, 97, 101, 106, 112, 117, 124, 130, 137},
		{82, 84, 88, 91, 95, 100, 105, 110, 116, 123, 129, 137},
		{82, 85, 89, 93, 98, 103, 108, 114, 121, 128, 136},
		{83, 86, 90, 95, 100, 105, 112, 119, 126, 134},
		{84, 88, 92, 97, 103, 109, 116, 124, 132},
		{84, 89, 94, 100, 106, 113, 121, 129},
		{85, 90, 96, 102, 110, 117, 126, 135},
		{86, 91, 98, 105, 113, 122, 131},
		{87, 93, 100, 108, 117, 127},
		{88, 95, 103, 112, 121, 132},
	}
)

func TestHeatIndexAgainstChart(t *testing.T) {
	checked := 0
	for y, humidity := range heatIndexHumidities {
		for x, want := range heatIndexChart[y] {
			temperature := heatIndexTemperatures[x]
			got := HeatIndex(decimal.NewFromInt(int64(temperature)), decimal.NewFromInt(int64(humidity)))
			assertNear(t, fmt.Sprintf("HeatIndex(%d, %d)", temperature, humidity), got, want, "1.3")
			checked++
		}
	}
	if checked != 135 {
		t.Errorf("checked %d chart cells, want 135", checked)
	}
}

// NWS wind chill chart, rows by wind speed, columns by temperature.
var (
	windChillTemperatures = []int{40, 35, 30, 25, 20, 15, 10, 5, 0, -5, -10, -15, -20, -25, -30, -35, -40, -45}
	windChillSpeeds       = []int{5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60}
	windChillChart        = [][]int{
		{36, 31, 25, 19, 13, 7, 1, -5, -11, -16, -22, -28, -34, -40, -46, -52, -57, -63},
		{34, 27, 21, 15, 9, 3, -4, -10, -16, -22, -28, -35, -41, -47, -53, -59, -66, -72},
		{32, 25, 19, 13, 6, 0, -7, -13, -19, -26, -32, -39, -45, -51, -58, -64, -71, -77},
		{30, 24, 17, 11, 4, -2, -9, -15, -22, -29, -35, -42, -48, -55, -61, -68, -74, -81},
		{29, 23, 16, 9, 3, -4, -11, -17, -24, -31, -37, -44, -51, -58, -64, -71, -78, -84},
		{28, 22, 15, 8, 1, -5, -12, -19, -26, -33, -39, -46, -53, -60, -67, -73, -80, -87},
		{28, 21, 14, 7, 0, -7, -14, -21, -27, -34, -41, -48, -55, -62, -69, -76, -82, -89},
		{27, 20, 13, 6, -1, -8, -15, -22, -29, -36, -43, -50, -57, -64, -71, -78, -84, -91},
		{26, 19, 12, 5, -2, -9, -16, -23, -30, -37, -44, -51, -58, -65, -72, -79, -86, -93},
		{26, 19, 12, 4, -3, -10, -17, -24, -31, -38, -45, -52, -60, -67, -74, -81, -88, -95},
		{25, 18, 11, 4, -3, -11, -18, -25, -32, -39, -46, -54, -61, -68, -75, -82, -89, -97},
		{25, 17, 10, 3, -4, -11, -19, -26, -33, -40, -48, -55, -62, -69, -76, -84, -91, -98},
	}
)

func TestWindChillAgainstChart(t *testing.T) {
	checked := 0
	for y, speed := range windChillSpeeds {
		for x, temperature := range windChillTemperatures {
			got := WindChill(decimal.NewFromInt(int64(temperature)), decimal.NewFromInt(int64(speed)))
			assertNear(t, fmt.Sprintf("WindChill(%d, %d)", temperature, speed), got, windChillChart[y][x], "0.5")
			if got.Valid && got.Decimal.GreaterThan(decimal.NewFromInt(int64(temperature))) {
				t.Errorf("WindChill(%d, %d) = %s is warmer than the air", temperature, speed, got.Decimal)
			}
			checked++
		}
	}
	if checked != 216 {
		t.Errorf("checked %d chart cells, want 216", checked)
	}
}

func TestWindChillKnownValues(t *testing.T) {
	tests := []struct {
		temperature, speed string
		want               string
	}{
		{"0", "5", "-10.5"},
		{"0", "45", "-30.0"},
		{"39.9", "0", "39.9"},
		{"39.9", "2", "39.7"},
		{"39.9", "3", "38.3"},
		{"40.0", "5", "36.5"},
		{"40.0", "45", "26.3"},
		{"-20", "15", "-45.0"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.temperature, tt.speed), func(t *testing.T) {
			got := WindChill(d(tt.temperature), d(tt.speed))
			assertEqual(t, "WindChill", got, tt.want)
			assertOnePlace(t, "WindChill", got)
		})
	}

	assertNull(t, "WindChill(40.1, 5)", WindChill(d("40.1"), d("5")))
}

func TestWindChillCalmReturnsTemperature(t *testing.T) {
	for _, temp := range []string{"40", "12.34", "-7"} {
		assertEqual(t, "WindChill("+temp+", 0)", WindChill(d(temp), decimal.Zero), temp)
	}
}

func TestTHWIndex(t *testing.T) {
	tests := []struct {
		temperature, humidity, speed string
		want                         string
	}{
		{"85", "60", "0", "89.3"},
		{"85", "60", "10", "78.6"},
		{"75", "50", "3.5", "71.1"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s/%s", tt.temperature, tt.humidity, tt.speed), func(t *testing.T) {
			assertEqual(t, "THWIndex", THWIndex(d(tt.temperature), d(tt.humidity), d(tt.speed)), tt.want)
		})
	}

	assertNull(t, "THWIndex(69.9, 90, 5)", THWIndex(d("69.9"), d("90"), d("5")))
}

func TestTHSWIndex(t *testing.T) {
	tests := []struct {
		temperature, humidity, solar, speed string
		want                                string
	}{
		{"85", "60", "800", "5", "172.3"},
		{"70", "40", "0", "0", "68.6"},
		{"95", "30", "1000", "12", "173.1"},
		{"50", "70", "200", "3", "68.3"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s/%s/%s", tt.temperature, tt.humidity, tt.solar, tt.speed), func(t *testing.T) {
			got := THSWIndex(d(tt.temperature), d(tt.humidity), d(tt.solar), d(tt.speed))
			assertEqual(t, "THSWIndex", got, tt.want)
			assertOnePlace(t, "THSWIndex", got)
		})
	}
}

func TestDegreeDays(t *testing.T) {
	assertNull(t, "CoolingDegreeDays(64.9)", CoolingDegreeDays(d("64.9")))
	assertNull(t, "CoolingDegreeDays(65)", CoolingDegreeDays(d("65")))
	assertEqual(t, "CoolingDegreeDays(65.1)", CoolingDegreeDays(d("65.1")), "0.1")
	assertEqual(t, "CoolingDegreeDays(83.5)", CoolingDegreeDays(d("83.5")), "18.5")
	assertEqual(t, "CoolingDegreeDays(90)", CoolingDegreeDays(d("90")), "25")

	assertNull(t, "HeatingDegreeDays(65.1)", HeatingDegreeDays(d("65.1")))
	assertNull(t, "HeatingDegreeDays(65)", HeatingDegreeDays(d("65")))
	assertEqual(t, "HeatingDegreeDays(64.9)", HeatingDegreeDays(d("64.9")), "0.1")
	assertEqual(t, "HeatingDegreeDays(25.4)", HeatingDegreeDays(d("25.4")), "39.6")
	assertEqual(t, "HeatingDegreeDays(10)", HeatingDegreeDays(d("10")), "55")
}
