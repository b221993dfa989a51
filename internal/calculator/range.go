package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

const (
	tradingDays30D = 22
	tradingDays52W = 252
)

// CalculateRange scans the most recent days bars and returns the high and low.
func CalculateRange(series model.TimeSeries, days int) (high, low decimal.Decimal, err error) {
	if len(series) == 0 {
		return decimal.Zero, decimal.Zero, errors.New("no daily bars provided")
	}
	start := len(series) - days
	if start < 0 {
		start = 0
	}
	high, low = series[start].High, series[start].Low
	for _, b := range series[start+1:] {
		high = decimal.Max(high, b.High)
		low = decimal.Min(low, b.Low)
	}
	return high, low, nil
}

// Calculate52WeekRange covers the most recent 252 trading days, or whatever
// the series holds when it is shorter.
func Calculate52WeekRange(series model.TimeSeries) (high, low decimal.Decimal, err error) {
	return CalculateRange(series, tradingDays52W)
}

// Calculate30DayRange covers the most recent 22 trading days.
func Calculate30DayRange(series model.TimeSeries) (high, low decimal.Decimal, err error) {
	return CalculateRange(series, tradingDays30D)
}

// Calculate52WeekPosition returns where the current price sits within the range (0.0~1.0).
func Calculate52WeekPosition(current, high, low decimal.Decimal) (float64, error) {
	if high.Equal(low) {
		return 0.5, nil
	}
	if high.LessThan(low) {
		return 0, errors.New("high must be >= low")
	}
	pos := current.Sub(low).Div(high.Sub(low)).InexactFloat64()
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
