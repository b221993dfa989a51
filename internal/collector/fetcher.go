package collector

import (
	"context"
	"errors"

	"MarketDash/internal/model"
)

var (
	// ErrTransport covers network failures, non-2xx statuses and provider
	// notices such as rate limiting.
	ErrTransport = errors.New("transport error")
	ErrNoSource  = errors.New("no source configured")
)

// QuoteSource fetches the raw GLOBAL_QUOTE field map for a symbol.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (map[string]string, error)
}

// SeriesSource fetches the raw date-keyed daily OHLCV map for a symbol.
type SeriesSource interface {
	FetchDaily(ctx context.Context, symbol string) (map[string]map[string]string, error)
}

// MarketSource is a provider serving both quote and daily history.
type MarketSource interface {
	QuoteSource
	SeriesSource
}

type OwnershipSource interface {
	FetchOwnership(ctx context.Context, symbol string) (model.OwnershipMix, error)
}

type RecommendationSource interface {
	FetchRecommendations(ctx context.Context, symbol string) (model.RecommendationMix, error)
}

// Sources bundles one fetch implementation per data kind, so any single
// provider can be swapped without touching the scheduler or the store.
type Sources struct {
	Quote           QuoteSource
	Series          SeriesSource
	Ownership       OwnershipSource
	Recommendations RecommendationSource
}

func (s Sources) Validate() error {
	var errs []error
	if s.Quote == nil {
		errs = append(errs, errors.New("quote source is nil"))
	}
	if s.Series == nil {
		errs = append(errs, errors.New("series source is nil"))
	}
	if s.Ownership == nil {
		errs = append(errs, errors.New("ownership source is nil"))
	}
	if s.Recommendations == nil {
		errs = append(errs, errors.New("recommendations source is nil"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrNoSource}, errs...)...)
	}
	return nil
}

// Name returns src's Name() when it has one.
func Name(src any) string {
	if n, ok := src.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unnamed"
}
