package gex

import (
	"math"
	"sort"

	"gexview/internal/models"
)

// Strikes outside [0.92P, 1.08P] are ignored by the aggregator.
const (
	WindowLower = 0.92
	WindowUpper = 1.08
)

const billions = 1e9

// Window is an inclusive strike range.
type Window struct {
	Lower float64
	Upper float64
}

// InclusionWindow returns the aggregation window around price.
func InclusionWindow(price float64) Window {
	return Window{Lower: price * WindowLower, Upper: price * WindowUpper}
}

// Contains reports whether strike lies inside the window.
func (w Window) Contains(strike int) bool {
	s := float64(strike)
	return s >= w.Lower && s <= w.Upper
}

// Aggregate sums field per strike over the records inside the inclusion
// window around price. Values are in billions and ordered by ascending
// strike; strikes without contributions are omitted.
func Aggregate(records []models.ExposureRecord, field models.Field, mode models.Mode, price float64) models.AggregateSeries {
	window := InclusionWindow(price)
	if mode == models.ModeSplit {
		calls, puts := aggregateSplit(records, field, window)
		return models.AggregateSeries{Mode: models.ModeSplit, Calls: calls, Puts: puts}
	}
	return models.AggregateSeries{Mode: models.ModeNet, Net: aggregateNet(records, field, window)}
}

func aggregateNet(records []models.ExposureRecord, field models.Field, window Window) []models.StrikeValue {
	byStrike := make(map[int]float64)
	for _, r := range records {
		if !r.Bucketable() || !window.Contains(r.Strike) {
			continue
		}
		byStrike[r.Strike] += r.Value(field) / billions
	}
	return sortedValues(byStrike, 1)
}

func aggregateSplit(records []models.ExposureRecord, field models.Field, window Window) (calls, puts []models.StrikeValue) {
	callTotals := make(map[int]float64)
	putTotals := make(map[int]float64)
	for _, r := range records {
		if !r.Bucketable() || !window.Contains(r.Strike) {
			continue
		}
		value := math.Abs(r.Value(field)) / billions
		switch r.Type {
		case models.OptionTypeCall:
			callTotals[r.Strike] += value
		case models.OptionTypePut:
			putTotals[r.Strike] += value
		}
	}
	return sortedValues(callTotals, 1), sortedValues(putTotals, -1)
}

func sortedValues(totals map[int]float64, sign float64) []models.StrikeValue {
	strikes := make([]int, 0, len(totals))
	for strike := range totals {
		strikes = append(strikes, strike)
	}
	sort.Ints(strikes)

	out := make([]models.StrikeValue, len(strikes))
	for i, strike := range strikes {
		out[i] = models.StrikeValue{Strike: strike, Value: totals[strike] * sign}
	}
	return out
}
