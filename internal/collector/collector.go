package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketDash/internal/model"
)

// NewSources wires market for quote and history and the simulated fetcher
// for ownership and recommendations.
func NewSources(market MarketSource, sim *SimulatedFetcher) Sources {
	return Sources{Quote: market, Series: market, Ownership: sim, Recommendations: sim}
}

// MockFetcher returns controllable fixed data for development and testing.
// It implements every source interface.
type MockFetcher struct {
	mu sync.Mutex

	QuoteData map[string]string
	QuoteErr  error
	// QuoteFunc, when set, overrides QuoteData/QuoteErr. call starts at 1.
	QuoteFunc func(ctx context.Context, call int) (map[string]string, error)

	DailyData map[string]map[string]string
	DailyErr  error

	OwnershipData      model.OwnershipMix
	OwnershipErr       error
	RecommendationData model.RecommendationMix
	RecommendationErr  error

	// Delay is applied to every call; it honours ctx cancellation.
	Delay time.Duration

	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) hit(ctx context.Context, name string) (int, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
	n := m.calls[name]
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return n, fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
		}
	}
	return n, nil
}

// Calls returns how many times the named fetch method was invoked.
func (m *MockFetcher) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockFetcher) FetchQuote(ctx context.Context, _ string) (map[string]string, error) {
	n, err := m.hit(ctx, "FetchQuote")
	if err != nil {
		return nil, err
	}
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, n)
	}
	return m.QuoteData, m.QuoteErr
}

func (m *MockFetcher) FetchDaily(ctx context.Context, _ string) (map[string]map[string]string, error) {
	if _, err := m.hit(ctx, "FetchDaily"); err != nil {
		return nil, err
	}
	return m.DailyData, m.DailyErr
}

func (m *MockFetcher) FetchOwnership(ctx context.Context, _ string) (model.OwnershipMix, error) {
	if _, err := m.hit(ctx, "FetchOwnership"); err != nil {
		return model.OwnershipMix{}, err
	}
	return m.OwnershipData, m.OwnershipErr
}

func (m *MockFetcher) FetchRecommendations(ctx context.Context, _ string) (model.RecommendationMix, error) {
	if _, err := m.hit(ctx, "FetchRecommendations"); err != nil {
		return model.RecommendationMix{}, err
	}
	return m.RecommendationData, m.RecommendationErr
}

// MockSources uses m for every kind.
func MockSources(m *MockFetcher) Sources {
	return Sources{Quote: m, Series: m, Ownership: m, Recommendations: m}
}
