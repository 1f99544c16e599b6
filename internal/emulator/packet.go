package emulator

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink/pkg/crc16"
)

// Sample is one console reading in the console's own units.
type Sample struct {
	BarometerTrend  int8   // -60 .. 60, or 80 for no trend
	Barometer       uint16 // inches Hg * 1000
	InsideTemp      int16  // °F * 10
	InsideHumidity  uint8  // %
	OutsideTemp     int16  // °F * 10
	OutsideHumidity uint8  // %
	WindSpeed       uint8  // mph
	WindDir         uint16 // degrees, 0 = no data
	WindAvg10       uint16 // mph * 10
	WindAvg2        uint16 // mph * 10
	WindGust10      uint16 // mph * 10
	WindGustDir     uint16 // degrees
	DewPoint        int16  // °F
	HeatIndex       int16  // °F
	WindChill       int16  // °F
	THSW            int16  // °F
	RainRate        uint16 // clicks/hour
	UV              uint8  // index * 10
	SolarRadiation  uint16 // watts/m²
	StormRain       uint16 // clicks
	DayRain         uint16 // clicks
	Rain15Min       uint16 // clicks
	RainHour        uint16 // clicks
	DayET           uint16 // inches * 1000
	Rain24Hour      uint16 // clicks
	Minute          uint8  // minute within the hour
}

// LoopPacket encodes s as a 99-byte LOOP2 packet with its checksum.
func (s Sample) LoopPacket() []byte {
	data := make([]byte, 97)

	copy(data[0:3], "LOO")
	data[3] = byte(s.BarometerTrend)
	data[4] = 1 // LOOP2
	binary.LittleEndian.PutUint16(data[5:7], 0x7FFF)
	binary.LittleEndian.PutUint16(data[7:9], s.Barometer)
	binary.LittleEndian.PutUint16(data[9:11], uint16(s.InsideTemp))
	data[11] = s.InsideHumidity
	binary.LittleEndian.PutUint16(data[12:14], uint16(s.OutsideTemp))
	data[14] = s.WindSpeed
	data[15] = 0xFF
	binary.LittleEndian.PutUint16(data[16:18], s.WindDir)
	binary.LittleEndian.PutUint16(data[18:20], s.WindAvg10)
	binary.LittleEndian.PutUint16(data[20:22], s.WindAvg2)
	binary.LittleEndian.PutUint16(data[22:24], s.WindGust10)
	binary.LittleEndian.PutUint16(data[24:26], s.WindGustDir)
	binary.LittleEndian.PutUint16(data[26:28], 0x7FFF)
	binary.LittleEndian.PutUint16(data[28:30], 0x7FFF)
	binary.LittleEndian.PutUint16(data[30:32], uint16(s.DewPoint))
	data[32] = 0xFF
	data[33] = s.OutsideHumidity
	data[34] = 0xFF
	binary.LittleEndian.PutUint16(data[35:37], uint16(s.HeatIndex))
	binary.LittleEndian.PutUint16(data[37:39], uint16(s.WindChill))
	binary.LittleEndian.PutUint16(data[39:41], uint16(s.THSW))
	binary.LittleEndian.PutUint16(data[41:43], s.RainRate)
	data[43] = s.UV
	binary.LittleEndian.PutUint16(data[44:46], s.SolarRadiation)
	binary.LittleEndian.PutUint16(data[46:48], s.StormRain)
	binary.LittleEndian.PutUint16(data[48:50], 0xFFFF) // storm start date
	binary.LittleEndian.PutUint16(data[50:52], s.DayRain)
	binary.LittleEndian.PutUint16(data[52:54], s.Rain15Min)
	binary.LittleEndian.PutUint16(data[54:56], s.RainHour)
	binary.LittleEndian.PutUint16(data[56:58], s.DayET)
	binary.LittleEndian.PutUint16(data[58:60], s.Rain24Hour)
	// 60..70 barometer calibration, 71 unused
	data[71] = 0xFF
	data[79] = s.Minute
	for off := 83; off < 95; off += 2 {
		binary.LittleEndian.PutUint16(data[off:off+2], 0x7FFF)
	}
	data[95] = '\n'
	data[96] = '\r'

	return crc16.Append(data)
}

// FixedSample returns a fixed mild autumn reading.
func FixedSample() Sample {
	return Sample{
		BarometerTrend:  20,
		Barometer:       29920,
		InsideTemp:      702,
		InsideHumidity:  40,
		OutsideTemp:     585,
		OutsideHumidity: 61,
		WindSpeed:       7,
		WindDir:         225,
		WindAvg10:       52,
		WindAvg2:        61,
		WindGust10:      140,
		WindGustDir:     247,
		DewPoint:        45,
		HeatIndex:       58,
		WindChill:       57,
		THSW:            60,
		UV:              23,
		SolarRadiation:  412,
		DayRain:         3,
		DayET:           42,
		Minute:          17,
	}
}

// simulator produces plausible readings that follow the time of day, with
// noise and a slow pressure random walk.
type simulator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	baseTemp  float64
	baseHum   float64
	pressure  float64
	dayRain   uint16
	lastDayOf int
}

func newSimulator() *simulator {
	return &simulator{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		baseTemp: 60,
		baseHum:  55,
		pressure: 30,
	}
}

func (w *simulator) Sample() Sample {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	hourOfDay := float64(now.Hour()) + float64(now.Minute())/60.0
	dayOfYear := float64(now.YearDay())

	seasonal := 20.0 * math.Sin(2*math.Pi*(dayOfYear-80)/365.0)
	daily := 15.0 * math.Sin(2*math.Pi*(hourOfDay-9)/24.0)
	temp := w.baseTemp + seasonal + daily + (w.rng.Float64()-0.5)*2

	humidity := w.baseHum + (w.baseTemp-temp)*0.8 + (w.rng.Float64()-0.5)*6
	humidity = math.Max(10, math.Min(95, humidity))

	w.pressure += (w.rng.Float64() - 0.5) * 0.02
	w.pressure = math.Max(28.5, math.Min(31.5, w.pressure))

	wind := 3 + w.rng.Float64()*10
	gust := wind + w.rng.Float64()*8
	dir := 1 + w.rng.Intn(360)

	var solar float64
	if hourOfDay > 6 && hourOfDay < 18 {
		solar = 1000 * math.Sin(math.Pi*(hourOfDay-6)/12.0) * (0.7 + w.rng.Float64()*0.3)
	}

	if now.YearDay() != w.lastDayOf {
		w.dayRain, w.lastDayOf = 0, now.YearDay()
	}
	if w.rng.Float64() < 0.05 {
		w.dayRain++
	}

	return Sample{
		BarometerTrend:  0,
		Barometer:       uint16(w.pressure * 1000),
		InsideTemp:      int16(700 + w.rng.Intn(20)),
		InsideHumidity:  uint8(35 + w.rng.Intn(10)),
		OutsideTemp:     int16(temp * 10),
		OutsideHumidity: uint8(humidity),
		WindSpeed:       uint8(wind),
		WindDir:         uint16(dir),
		WindAvg10:       uint16(wind * 10),
		WindAvg2:        uint16(wind * 10),
		WindGust10:      uint16(gust * 10),
		WindGustDir:     uint16(dir),
		DewPoint:        int16(temp - (100-humidity)/2.8),
		HeatIndex:       int16(temp),
		WindChill:       int16(temp),
		THSW:            int16(temp + solar/100),
		UV:              uint8(solar / 100),
		SolarRadiation:  uint16(solar),
		DayRain:         w.dayRain,
		DayET:           uint16(w.rng.Intn(200)),
		Minute:          uint8(now.Minute()),
	}
}
