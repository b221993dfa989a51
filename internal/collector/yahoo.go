package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
	"MarketDash/internal/normalizer"
)

const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements QuoteSource and SeriesSource on the Yahoo Finance
// chart API. It re-shapes the chart into the Alpha Vantage field maps so the
// normalizer handles both providers the same way.
type YahooFetcher struct {
	client    *resty.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{
		client: client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Null points (holidays, halted sessions) decode as nil.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"interval": interval, "range": rng}).
		Get("/v8/finance/chart/" + url.PathEscape(f.yahooSymbol(symbol)))
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo fetch: %v", ErrTransport, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: yahoo: status %d, body: %s", ErrTransport, resp.StatusCode(), truncate(resp.String(), 200))
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("%w: yahoo decode: %v", ErrTransport, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", ErrTransport, chart.Chart.Error.Description)
	}
	return &chart, nil
}

// FetchQuote derives the quote fields from the chart meta block. A chart
// without a market price yields an empty map.
func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (map[string]string, error) {
	chart, err := f.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return nil, err
	}
	if len(chart.Chart.Result) == 0 {
		return map[string]string{}, nil
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return map[string]string{}, nil
	}

	price := decimal.NewFromFloat(*meta.RegularMarketPrice)
	change, pct := decimal.Zero, decimal.Zero
	if meta.ChartPreviousClose != nil && *meta.ChartPreviousClose != 0 {
		prev := decimal.NewFromFloat(*meta.ChartPreviousClose)
		change = price.Sub(prev)
		pct = change.Div(prev).Mul(decimal.NewFromInt(100))
	}
	return map[string]string{
		normalizer.QuoteSymbolField:        symbol,
		normalizer.QuotePriceField:         price.StringFixed(4),
		normalizer.QuoteChangeField:        change.StringFixed(4),
		normalizer.QuoteChangePercentField: pct.StringFixed(4) + "%",
	}, nil
}

// FetchDaily returns roughly the same window as an Alpha Vantage compact
// call, keyed by trading date.
func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string) (map[string]map[string]string, error) {
	chart, err := f.fetchChart(ctx, symbol, "1d", "6mo")
	if err != nil {
		return nil, err
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("%w: yahoo: no daily series for %s", ErrTransport, symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo: no quote indicators for %s", ErrTransport, symbol)
	}
	q := result.Indicators.Quote[0]

	out := make(map[string]map[string]string, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c, v := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i), at(q.Volume, i)
		if o == nil && h == nil && l == nil && c == nil {
			continue // skip null bars (holidays etc.)
		}
		date := time.Unix(ts, 0).UTC().Format(model.DateLayout)
		out[date] = map[string]string{
			normalizer.BarOpenField:   formatPoint(o),
			normalizer.BarHighField:   formatPoint(h),
			normalizer.BarLowField:    formatPoint(l),
			normalizer.BarCloseField:  formatPoint(c),
			normalizer.BarVolumeField: formatVolume(v),
		}
	}
	return out, nil
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

// formatPoint leaves partial nulls empty so the normalizer drops the bar.
func formatPoint(v *float64) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).StringFixed(4)
}

func formatVolume(v *float64) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromFloat(*v).Round(0).String()
}
