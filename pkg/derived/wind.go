package derived

import (
	"time"

	"github.com/chrissnell/weatherlink/pkg/decmath"
	"github.com/shopspring/decimal"
)

// windowMinutes is the span of the rolling wind average.
const windowMinutes = 10

// WindSample is one wind observation spanning MinutesCovered minutes that
// end at End.
type WindSample struct {
	Speed          decimal.NullDecimal `json:"speed"`
	Direction      string              `json:"direction"`
	End            time.Time           `json:"timestamp"`
	MinutesCovered int                 `json:"minutes_covered"`
}

// WindAverageStatus tells a found average apart from the two ways of not
// having one.
type WindAverageStatus int

const (
	// WindAverageFound means a positive 10-minute average was found.
	WindAverageFound WindAverageStatus = iota
	// WindAverageNoData means the samples never filled a 10-minute window
	// with any wind.
	WindAverageNoData
	// WindAverageUnanalyzable means a sample spanned more than 10 minutes,
	// so the batch cannot be split into one-minute slots.
	WindAverageUnanalyzable
)

func (s WindAverageStatus) String() string {
	switch s {
	case WindAverageFound:
		return "found"
	case WindAverageNoData:
		return "no_data"
	case WindAverageUnanalyzable:
		return "unanalyzable"
	}
	return "unknown"
}

// MarshalText encodes the status by name.
func (s WindAverageStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WindAverage is the highest 10-minute average wind speed in a batch of
// samples. Every field but Status is null/empty unless Status is
// WindAverageFound.
type WindAverage struct {
	Speed     decimal.NullDecimal `json:"speed"`
	Direction string              `json:"direction,omitempty"`
	Start     *time.Time          `json:"start,omitempty"`
	End       *time.Time          `json:"end,omitempty"`
	Status    WindAverageStatus   `json:"status"`
}

// window is a FIFO that keeps its most recent windowMinutes entries.
type window[T any] struct {
	items []T
}

func (w *window[T]) push(v T) {
	w.items = append(w.items, v)
	if len(w.items) > windowMinutes {
		w.items = w.items[len(w.items)-windowMinutes:]
	}
}

func (w *window[T]) full() bool {
	return len(w.items) == windowMinutes
}

func (w *window[T]) snapshot() []T {
	return append([]T(nil), w.items...)
}

// TenMinuteWindAverage finds the highest rolling 10-minute average wind speed
// in samples, which must be in chronological order. Each sample fills one
// slot per minute it covers, so longer samples weigh proportionally more. A
// null speed counts as calm.
//
// The direction reported is the most common one within the winning window,
// ties going to the direction seen first. Start and End are the first and last
// minute of that window.
func TenMinuteWindAverage(samples []WindSample) WindAverage {
	var (
		speeds     window[decimal.Decimal]
		directions window[string]
		minutes    window[time.Time]

		best           = decimal.Zero
		bestDirections []string
		bestMinutes    []time.Time
	)

	for _, s := range samples {
		if s.MinutesCovered > windowMinutes {
			return WindAverage{Status: WindAverageUnanalyzable}
		}

		speed := OrZero(s.Speed)
		for m := s.MinutesCovered - 1; m >= 0; m-- {
			speeds.push(speed)
			directions.push(s.Direction)
			minutes.push(s.End.Add(-time.Duration(m) * time.Minute))
		}

		if !speeds.full() {
			continue
		}

		sum := decimal.Zero
		for _, v := range speeds.items {
			sum = sum.Add(v)
		}
		avg := decmath.Div(sum, decimal.NewFromInt(windowMinutes))
		if avg.GreaterThan(best) {
			best = avg
			bestDirections = directions.snapshot()
			bestMinutes = minutes.snapshot()
		}
	}

	if !best.IsPositive() {
		return WindAverage{Status: WindAverageNoData}
	}

	start, end := bestMinutes[0], bestMinutes[len(bestMinutes)-1]
	return WindAverage{
		Speed:     decimal.NewNullDecimal(best),
		Direction: mostCommon(bestDirections),
		Start:     &start,
		End:       &end,
		Status:    WindAverageFound,
	}
}

// mostCommon returns the most frequent value, preferring the earliest on ties.
func mostCommon(values []string) string {
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	var winner string
	most := 0
	for _, v := range order {
		if counts[v] > most {
			winner, most = v, counts[v]
		}
	}
	return winner
}
