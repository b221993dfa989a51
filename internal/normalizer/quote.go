// Package normalizer turns provider payloads into typed model records.
// Every function here is pure.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

// Alpha Vantage GLOBAL_QUOTE field labels.
const (
	QuoteSymbolField        = "01. symbol"
	QuotePriceField         = "05. price"
	QuoteChangeField        = "09. change"
	QuoteChangePercentField = "10. change percent"
)

// Quote converts a GLOBAL_QUOTE field map into a Quote. An empty map
// yields ErrEmptyPayload so the caller can substitute model.ZeroQuote.
func Quote(symbol string, raw map[string]string) (model.Quote, error) {
	if len(raw) == 0 {
		return model.Quote{}, ErrEmptyPayload
	}
	if s := strings.TrimSpace(raw[QuoteSymbolField]); s != "" {
		symbol = s
	}

	price, err := quoteField(raw, QuotePriceField)
	if err != nil {
		return model.Quote{}, err
	}
	change, err := quoteField(raw, QuoteChangeField)
	if err != nil {
		return model.Quote{}, err
	}
	percent, err := quoteField(raw, QuoteChangePercentField)
	if err != nil {
		return model.Quote{}, err
	}

	q := model.Quote{Symbol: symbol, Price: price, Change: change, ChangePercent: percent}
	if err := q.Validate(); err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrMalformedQuote, err)
	}
	return q, nil
}

func quoteField(raw map[string]string, key string) (decimal.Decimal, error) {
	s, ok := raw[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: missing %q", ErrMalformedQuote, key)
	}
	d, err := parseDecimal(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrMalformedQuote, key, err)
	}
	return d, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	return decimal.NewFromString(s)
}
