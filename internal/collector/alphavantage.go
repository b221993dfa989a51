package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co"

// AlphaVantageFetcher implements QuoteSource and SeriesSource against the
// Alpha Vantage query API.
type AlphaVantageFetcher struct {
	client *resty.Client
	apiKey string
}

// NewAlphaVantageFetcher creates a fetcher with optional proxy support.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string) *AlphaVantageFetcher {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Accept", "application/json")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &AlphaVantageFetcher{client: client, apiKey: apiKey}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avNotice carries the fields Alpha Vantage uses instead of data when a
// call is rejected or throttled.
type avNotice struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (n avNotice) err() error {
	switch {
	case n.ErrorMessage != "":
		return fmt.Errorf("%w: alphavantage: %s", ErrTransport, n.ErrorMessage)
	case n.Note != "":
		return fmt.Errorf("%w: alphavantage: %s", ErrTransport, n.Note)
	case n.Information != "":
		return fmt.Errorf("%w: alphavantage: %s", ErrTransport, n.Information)
	}
	return nil
}

type avGlobalQuote struct {
	avNotice
	GlobalQuote map[string]string `json:"Global Quote"`
}

type avDailySeries struct {
	avNotice
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
}

// FetchQuote returns the "Global Quote" field map. An empty map is a valid
// answer (unknown or delisted symbol) and is returned without error.
func (f *AlphaVantageFetcher) FetchQuote(ctx context.Context, symbol string) (map[string]string, error) {
	var out avGlobalQuote
	if err := f.query(ctx, "GLOBAL_QUOTE", symbol, nil, &out); err != nil {
		return nil, err
	}
	if out.GlobalQuote == nil {
		if err := out.err(); err != nil {
			return nil, err
		}
		return map[string]string{}, nil
	}
	return out.GlobalQuote, nil
}

// FetchDaily returns the "Time Series (Daily)" map, most recent date first
// as the provider sends it (map order is not meaningful anyway).
func (f *AlphaVantageFetcher) FetchDaily(ctx context.Context, symbol string) (map[string]map[string]string, error) {
	var out avDailySeries
	if err := f.query(ctx, "TIME_SERIES_DAILY", symbol, map[string]string{"outputsize": "compact"}, &out); err != nil {
		return nil, err
	}
	if out.TimeSeries == nil {
		if err := out.err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: alphavantage: no daily series for %s", ErrTransport, symbol)
	}
	return out.TimeSeries, nil
}

func (f *AlphaVantageFetcher) query(ctx context.Context, function, symbol string, extra map[string]string, out any) error {
	params := map[string]string{
		"function": function,
		"symbol":   symbol,
		"apikey":   f.apiKey,
	}
	for k, v := range extra {
		params[k] = v
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/query")
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, function, symbol, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s %s: status %d, body: %s", ErrTransport, function, symbol, resp.StatusCode(), truncate(resp.String(), 200))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %s %s: decode: %v", ErrTransport, function, symbol, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
