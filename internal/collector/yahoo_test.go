package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"MarketDash/internal/normalizer"
)

func newYahooServer(t *testing.T, body string, status int) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" && r.URL.Path != "/v8/finance/chart/^GSPC" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewYahooFetcher(srv.URL, "")
}

const yahooChartBody = `{"chart": {"result": [{
	"meta": {"symbol": "AAPL", "regularMarketPrice": 169.0, "chartPreviousClose": 167.5},
	"timestamp": [1714656600, 1714743000, 1714829400],
	"indicators": {"quote": [{
		"open":   [165.0, null, 168.0],
		"high":   [166.5, null, 170.0],
		"low":    [164.0, null, 167.0],
		"close":  [166.0, null, 169.0],
		"volume": [1000, null, 2500]
	}]}
}], "error": null}}`

func TestYahoo_FetchQuote(t *testing.T) {
	f := newYahooServer(t, yahooChartBody, http.StatusOK)
	raw, err := f.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	q, err := normalizer.Quote("AAPL", raw)
	if err != nil {
		t.Fatalf("normalize %v: %v", raw, err)
	}
	if q.Price.String() != "169" || q.Change.String() != "1.5" {
		t.Errorf("quote = %+v", q)
	}
	if !q.ChangePercent.IsPositive() {
		t.Errorf("change percent = %s, want positive", q.ChangePercent)
	}
}

func TestYahoo_FetchDaily(t *testing.T) {
	f := newYahooServer(t, yahooChartBody, http.StatusOK)
	raw, err := f.FetchDaily(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("got %d days, want 2 (null bar skipped)", len(raw))
	}
	res, err := normalizer.Daily(raw)
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if res.Series.Len() != 2 || len(res.Dropped) != 0 {
		t.Errorf("series = %d bars, dropped %v", res.Series.Len(), res.Dropped)
	}
	if last, _ := res.Series.Last(); last.Volume != 2500 {
		t.Errorf("last volume = %d", last.Volume)
	}
}

func TestYahoo_SymbolMap(t *testing.T) {
	f := newYahooServer(t, yahooChartBody, http.StatusOK)
	if _, err := f.FetchDaily(context.Background(), "SPX500"); err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
}

func TestYahoo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"http error", `{}`, http.StatusInternalServerError},
		{"api error", `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`, http.StatusOK},
		{"bad json", `{"chart":`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newYahooServer(t, tt.body, tt.status)
			if _, err := f.FetchDaily(context.Background(), "AAPL"); !errors.Is(err, ErrTransport) {
				t.Errorf("err = %v, want ErrTransport", err)
			}
		})
	}
}

func TestYahoo_QuoteWithoutPriceIsEmpty(t *testing.T) {
	f := newYahooServer(t, `{"chart": {"result": [{"meta": {"symbol": "AAPL"}}], "error": null}}`, http.StatusOK)
	raw, err := f.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("raw = %v, want empty", raw)
	}
}
