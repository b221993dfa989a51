package collector

import (
	"context"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

// SimulatedFetcher serves fixed ownership and analyst figures. The quote
// provider has no such endpoints; a real source can replace it through
// Sources without touching the scheduler.
type SimulatedFetcher struct {
	OwnershipMix      model.OwnershipMix
	RecommendationMix model.RecommendationMix
}

func NewSimulatedFetcher() *SimulatedFetcher {
	return &SimulatedFetcher{
		OwnershipMix: model.OwnershipMix{
			Institutions: decimal.NewFromInt(60),
			Retail:       decimal.NewFromInt(30),
			Insiders:     decimal.NewFromInt(10),
		},
		RecommendationMix: model.RecommendationMix{
			StrongBuy:  15,
			Buy:        10,
			Hold:       5,
			Sell:       2,
			StrongSell: 1,
		},
	}
}

func (f *SimulatedFetcher) Name() string { return "simulated" }

func (f *SimulatedFetcher) FetchOwnership(ctx context.Context, _ string) (model.OwnershipMix, error) {
	if err := ctx.Err(); err != nil {
		return model.OwnershipMix{}, err
	}
	return f.OwnershipMix, nil
}

func (f *SimulatedFetcher) FetchRecommendations(ctx context.Context, _ string) (model.RecommendationMix, error) {
	if err := ctx.Err(); err != nil {
		return model.RecommendationMix{}, err
	}
	return f.RecommendationMix, nil
}
