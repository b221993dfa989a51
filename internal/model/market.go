package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by the provider and the API.
const DateLayout = "2006-01-02"

// Quote is the latest traded price snapshot for a symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// ZeroQuote is the explicit fallback used when no usable quote is available.
func ZeroQuote(symbol string) Quote {
	return Quote{Symbol: symbol, Price: decimal.Zero, Change: decimal.Zero, ChangePercent: decimal.Zero}
}

// Validate checks price >= 0 and that change and percent agree in sign.
func (q Quote) Validate() error {
	if q.Price.IsNegative() {
		return fmt.Errorf("negative price %s", q.Price)
	}
	if q.Change.Sign()*q.ChangePercent.Sign() < 0 {
		return fmt.Errorf("change %s and percent %s disagree in sign", q.Change, q.ChangePercent)
	}
	return nil
}

// DailyBar represents one trading day's OHLCV.
type DailyBar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Validate checks low <= open,close <= high and a non-negative volume.
func (b DailyBar) Validate() error {
	if b.Volume < 0 {
		return fmt.Errorf("negative volume %d", b.Volume)
	}
	if b.Low.GreaterThan(b.High) {
		return fmt.Errorf("low %s above high %s", b.Low, b.High)
	}
	for _, v := range []decimal.Decimal{b.Open, b.Close} {
		if v.LessThan(b.Low) || v.GreaterThan(b.High) {
			return fmt.Errorf("price %s outside range [%s, %s]", v, b.Low, b.High)
		}
	}
	return nil
}

// TimeSeries is a chronologically ascending sequence of daily bars.
// An empty series is valid and means "pending".
type TimeSeries []DailyBar

func (s TimeSeries) Len() int { return len(s) }

// Last returns the most recent bar.
func (s TimeSeries) Last() (DailyBar, bool) {
	if len(s) == 0 {
		return DailyBar{}, false
	}
	return s[len(s)-1], true
}

func (s TimeSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, b := range s {
		dates[i] = b.Date
	}
	return dates
}

func (s TimeSeries) Closes() []decimal.Decimal {
	closes := make([]decimal.Decimal, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Validate checks that dates are strictly increasing.
func (s TimeSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("bar %d (%s) not after %s", i, s[i].Date.Format(DateLayout), s[i-1].Date.Format(DateLayout))
		}
	}
	return nil
}

// Clone returns a copy that shares no backing array with s.
func (s TimeSeries) Clone() TimeSeries {
	if s == nil {
		return TimeSeries{}
	}
	return slices.Clone(s)
}

// VolumePoint is one (date, volume) pair of a VolumeSeries.
type VolumePoint struct {
	Date   time.Time `json:"date"`
	Volume int64     `json:"volume"`
}

// VolumeSeries is the (date, volume) projection of a TimeSeries.
type VolumeSeries []VolumePoint

// VolumeOf projects a series onto its volumes, keeping length and date alignment.
func VolumeOf(s TimeSeries) VolumeSeries {
	out := make(VolumeSeries, len(s))
	for i, b := range s {
		out[i] = VolumePoint{Date: b.Date, Volume: b.Volume}
	}
	return out
}

func (v VolumeSeries) Clone() VolumeSeries {
	if v == nil {
		return VolumeSeries{}
	}
	return slices.Clone(v)
}

// OwnershipMix is a proportional ownership breakdown in percent.
type OwnershipMix struct {
	Institutions decimal.Decimal `json:"institutions"`
	Retail       decimal.Decimal `json:"retail"`
	Insiders     decimal.Decimal `json:"insiders"`
}

func (o OwnershipMix) Validate() error {
	for name, v := range map[string]decimal.Decimal{
		"institutions": o.Institutions,
		"retail":       o.Retail,
		"insiders":     o.Insiders,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s share %s is negative", name, v)
		}
	}
	return nil
}

// RecommendationMix holds analyst rating counts.
type RecommendationMix struct {
	StrongBuy  int `json:"strong_buy"`
	Buy        int `json:"buy"`
	Hold       int `json:"hold"`
	Sell       int `json:"sell"`
	StrongSell int `json:"strong_sell"`
}

func (r RecommendationMix) Total() int {
	return r.StrongBuy + r.Buy + r.Hold + r.Sell + r.StrongSell
}

func (r RecommendationMix) Validate() error {
	if r.StrongBuy < 0 || r.Buy < 0 || r.Hold < 0 || r.Sell < 0 || r.StrongSell < 0 {
		return fmt.Errorf("negative rating count in %+v", r)
	}
	return nil
}
