package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newAVServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *AlphaVantageFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return NewAlphaVantageFetcher(srv.URL, "demo-key", "")
}

func TestAlphaVantage_FetchQuote(t *testing.T) {
	f := newAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/query" || q.Get("function") != "GLOBAL_QUOTE" || q.Get("symbol") != "AAPL" || q.Get("apikey") != "demo-key" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "169.0000", "09. change": "1.5000", "10. change percent": "0.8900%"}}`))
	})

	raw, err := f.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if raw["05. price"] != "169.0000" || raw["10. change percent"] != "0.8900%" {
		t.Errorf("raw = %v", raw)
	}
}

func TestAlphaVantage_FetchQuoteEmpty(t *testing.T) {
	f := newAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})
	raw, err := f.FetchQuote(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("raw = %v, want empty", raw)
	}
}

func TestAlphaVantage_FetchDaily(t *testing.T) {
	f := newAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") != "TIME_SERIES_DAILY" {
			t.Errorf("function = %s", r.URL.Query().Get("function"))
		}
		w.Write([]byte(`{
			"Meta Data": {"2. Symbol": "AAPL"},
			"Time Series (Daily)": {
				"2024-01-03": {"1. open": "184.2", "2. high": "185.8", "3. low": "183.4", "4. close": "184.2", "5. volume": "58414460"},
				"2024-01-02": {"1. open": "187.1", "2. high": "188.4", "3. low": "183.9", "4. close": "185.6", "5. volume": "82488674"}
			}
		}`))
	})
	raw, err := f.FetchDaily(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if len(raw) != 2 || raw["2024-01-02"]["5. volume"] != "82488674" {
		t.Errorf("raw = %v", raw)
	}
}

func TestAlphaVantage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		daily  bool
	}{
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"rate limited", http.StatusOK, `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`, false},
		{"information", http.StatusOK, `{"Information": "premium endpoint"}`, true},
		{"invalid call", http.StatusOK, `{"Error Message": "Invalid API call."}`, true},
		{"bad json", http.StatusOK, `{"Global Quote": [}`, false},
		{"no series", http.StatusOK, `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAVServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			var err error
			if tt.daily {
				_, err = f.FetchDaily(context.Background(), "AAPL")
			} else {
				_, err = f.FetchQuote(context.Background(), "AAPL")
			}
			if !errors.Is(err, ErrTransport) {
				t.Errorf("err = %v, want ErrTransport", err)
			}
		})
	}
}

func TestAlphaVantage_ContextTimeout(t *testing.T) {
	f := newAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.FetchQuote(ctx, "AAPL")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if time.Since(start) > time.Second {
		t.Error("request was not cut short by the context")
	}
}
