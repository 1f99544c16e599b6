package davis

import "github.com/shopspring/decimal"

// RainCollectorMask selects the rain collector bits of the setup bits byte.
const RainCollectorMask byte = 0b00110000

// RainCollectorType is the size of one tip of the rain collector bucket.
type RainCollectorType byte

const (
	RainCollector001Inch RainCollectorType = 0x00
	RainCollector02MM    RainCollectorType = 0x10
	RainCollector01MM    RainCollectorType = 0x20
)

var (
	clickInches = map[RainCollectorType]decimal.Decimal{
		RainCollector001Inch: decimal.RequireFromString("0.01"),
		RainCollector02MM:    decimal.RequireFromString("0.00787402"),
		RainCollector01MM:    decimal.RequireFromString("0.00393701"),
	}
	clickCentimeters = map[RainCollectorType]decimal.Decimal{
		RainCollector001Inch: decimal.RequireFromString("0.0254"),
		RainCollector02MM:    decimal.RequireFromString("0.02"),
		RainCollector01MM:    decimal.RequireFromString("0.01"),
	}
)

func (t RainCollectorType) String() string {
	switch t {
	case RainCollector001Inch:
		return "0.01 in"
	case RainCollector02MM:
		return "0.2 mm"
	case RainCollector01MM:
		return "0.1 mm"
	}
	return "unknown"
}

// Known reports whether t is one of the three collector sizes.
func (t RainCollectorType) Known() bool {
	_, ok := clickInches[t]
	return ok
}

// Inches converts a click count to inches of rain. The result is null for an
// unknown collector.
func (t RainCollectorType) Inches(clicks int) decimal.NullDecimal {
	size, ok := clickInches[t]
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(size.Mul(decimal.NewFromInt(int64(clicks))))
}

// Centimeters converts a click count to centimeters of rain.
func (t RainCollectorType) Centimeters(clicks int) decimal.NullDecimal {
	size, ok := clickCentimeters[t]
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(size.Mul(decimal.NewFromInt(int64(clicks))))
}
