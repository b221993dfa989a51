package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATA_PROVIDER", "ALPHAVANTAGE_API_KEY", "ALPHAVANTAGE_BASE_URL", "SYMBOL", "QUOTE_INTERVAL_MS",
		"HTTP_ADDR", "SQLITE_PATH", "LOG_LEVEL", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
	}
	// keep godotenv from picking up a stray .env
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.Symbol != DefaultSymbol {
		t.Errorf("symbol = %q, want %q", cfg.DataSource.Symbol, DefaultSymbol)
	}
	if cfg.DataSource.Provider != ProviderAlphaVantage || cfg.DataSource.BaseURL == "" {
		t.Errorf("provider/base url = %q/%q", cfg.DataSource.Provider, cfg.DataSource.BaseURL)
	}
	if cfg.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Database.SQLitePath != "" {
		t.Errorf("journal should be off by default, got %q", cfg.Database.SQLitePath)
	}

	sc := cfg.Scheduler()
	if sc.QuoteInterval != 15*time.Second {
		t.Errorf("quote interval = %v, want 15s", sc.QuoteInterval)
	}
	if !sc.HistoryFetchOnce {
		t.Error("history should be fetched once by default")
	}
	if sc.FetchTimeout != 30*time.Second {
		t.Errorf("fetch timeout = %v, want 30s", sc.FetchTimeout)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_source:
  api_key: file-key
  symbol: IBM
schedule:
  quote_interval_ms: 5000
  history_fetch_once: false
  history_interval_ms: 60000
log:
  level: debug
  format: json
`)
	t.Setenv("SYMBOL", "MSFT")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.APIKey != "file-key" {
		t.Errorf("api key = %q", cfg.DataSource.APIKey)
	}
	if cfg.DataSource.Symbol != "MSFT" {
		t.Errorf("env should override symbol, got %q", cfg.DataSource.Symbol)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
	sc := cfg.Scheduler()
	if sc.QuoteInterval != 5*time.Second || sc.HistoryFetchOnce || sc.HistoryInterval != time.Minute {
		t.Errorf("scheduler config = %+v", sc)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	if err := os.WriteFile(".env", []byte("ALPHAVANTAGE_API_KEY=dotenv-key\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv never overrides variables that are already set, even empty ones
	os.Unsetenv("ALPHAVANTAGE_API_KEY")

	cfg, err := Load("missing.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.APIKey != "dotenv-key" {
		t.Errorf("api key = %q, want dotenv-key", cfg.DataSource.APIKey)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, "data_source: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
	t.Setenv("QUOTE_INTERVAL_MS", "soon")
	if _, err := Load("missing.yaml"); err == nil {
		t.Error("expected QUOTE_INTERVAL_MS error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.DataSource.Provider = ProviderAlphaVantage
		c.DataSource.APIKey = "k"
		c.DataSource.Symbol = "IBM"
		c.Schedule.QuoteIntervalMS = 15000
		c.Schedule.HistoryIntervalMS = 60000
		c.Schedule.FetchTimeoutMS = 30000
		c.Log.Format = "text"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.DataSource.APIKey = "" }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"missing symbol", func(c *Config) { c.DataSource.Symbol = "" }},
		{"negative interval", func(c *Config) { c.Schedule.QuoteIntervalMS = -1 }},
		{"zero fetch timeout", func(c *Config) { c.Schedule.FetchTimeoutMS = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	yahoo := valid()
	yahoo.DataSource.Provider = ProviderYahoo
	yahoo.DataSource.APIKey = ""
	if err := yahoo.Validate(); err != nil {
		t.Errorf("yahoo needs no api key: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
