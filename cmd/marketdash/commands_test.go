package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"MarketDash/internal/config"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "marketdash ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	logger, err := newLogger(cfg)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T", logger.Formatter)
	}

	cfg.Log.Level = "loud"
	if _, err := newLogger(cfg); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFetchCmd(t *testing.T) {
	av := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			w.Write([]byte(`{"Global Quote": {"01. symbol": "IBM", "05. price": "169.00", "09. change": "1.50", "10. change percent": "0.89%"}}`))
		case "TIME_SERIES_DAILY":
			w.Write([]byte(`{"Time Series (Daily)": {"2024-05-03": {"1. open": "168", "2. high": "170", "3. low": "167", "4. close": "169", "5. volume": "1000"}}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer av.Close()

	for _, k := range []string{"DATA_PROVIDER", "SYMBOL", "QUOTE_INTERVAL_MS", "HTTP_ADDR", "SQLITE_PATH", "LOG_LEVEL", "HTTPS_PROXY"} {
		t.Setenv(k, "")
	}
	t.Setenv("ALPHAVANTAGE_BASE_URL", av.URL)
	t.Setenv("ALPHAVANTAGE_API_KEY", "demo")
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"fetch",
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--symbol", "IBM",
		"--log-level", "error",
		"--timeout", "5s",
		"--stats",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("fetch: %v", err)
	}
}
