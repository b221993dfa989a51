package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

const (
	DefaultMAPeriod  = 20
	DefaultRSIPeriod = 14
)

// Stats is the stats-table view derived from a snapshot. Fields that need
// more history than the snapshot holds are nil.
type Stats struct {
	Symbol    string           `json:"symbol"`
	Price     decimal.Decimal  `json:"price"`
	AsOf      *time.Time       `json:"as_of,omitempty"`
	Open      *decimal.Decimal `json:"open,omitempty"`
	PrevClose *decimal.Decimal `json:"prev_close,omitempty"`
	DayHigh   *decimal.Decimal `json:"day_high,omitempty"`
	DayLow    *decimal.Decimal `json:"day_low,omitempty"`
	Volume    int64            `json:"volume"`

	High30D     *decimal.Decimal `json:"high_30d,omitempty"`
	Low30D      *decimal.Decimal `json:"low_30d,omitempty"`
	High52W     *decimal.Decimal `json:"high_52w,omitempty"`
	Low52W      *decimal.Decimal `json:"low_52w,omitempty"`
	Position52W *float64         `json:"position_52w,omitempty"`

	MA  *decimal.Decimal `json:"ma,omitempty"`
	RSI *float64         `json:"rsi,omitempty"`
}

// Compute derives Stats from snap. The live quote price is used when
// present, otherwise the last close.
func Compute(snap model.Snapshot) Stats {
	st := Stats{Symbol: snap.Symbol, Price: snap.Quote.Price}

	last, ok := snap.Series.Last()
	if !ok {
		return st
	}
	if st.Price.IsZero() {
		st.Price = last.Close
	}
	asOf := last.Date
	st.AsOf = &asOf
	st.Open = ptr(last.Open)
	st.DayHigh = ptr(last.High)
	st.DayLow = ptr(last.Low)
	st.Volume = last.Volume
	if n := len(snap.Series); n > 1 {
		st.PrevClose = ptr(snap.Series[n-2].Close)
	}

	if hi, lo, err := Calculate30DayRange(snap.Series); err == nil {
		st.High30D, st.Low30D = ptr(hi), ptr(lo)
	}
	if hi, lo, err := Calculate52WeekRange(snap.Series); err == nil {
		st.High52W, st.Low52W = ptr(hi), ptr(lo)
		if pos, err := Calculate52WeekPosition(st.Price, hi, lo); err == nil {
			st.Position52W = &pos
		}
	}
	if ma, err := CalculateMA(snap.Series, DefaultMAPeriod); err == nil {
		st.MA = ptr(ma)
	}
	if len(snap.Series) > DefaultRSIPeriod {
		if rsi, err := CalculateRSI(snap.Series, DefaultRSIPeriod); err == nil {
			st.RSI = &rsi
		}
	}
	return st
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
