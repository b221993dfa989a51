package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

var (
	ErrPeriod        = errors.New("period must be positive")
	ErrNotEnoughData = errors.New("not enough data")
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, ErrPeriod
	}
	if len(prices) < period {
		return decimal.Zero, ErrNotEnoughData
	}
	return decimal.Avg(prices[len(prices)-period], prices[len(prices)-period+1:]...), nil
}

// CalculateMA returns the period-day simple moving average of the closes.
func CalculateMA(series model.TimeSeries, period int) (decimal.Decimal, error) {
	return CalculateSMA(series.Closes(), period)
}
