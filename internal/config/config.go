package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketDash/internal/collector"
	"MarketDash/internal/scheduler"
)

const (
	DefaultPath            = "configs/config.yaml"
	DefaultSymbol          = "AAPL"
	DefaultQuoteIntervalMS = 15000
	DefaultHTTPAddr        = ":8080"

	ProviderAlphaVantage = "alphavantage"
	ProviderYahoo        = "yahoo"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Symbol   string `yaml:"symbol"`
	} `yaml:"data_source"`
	Schedule struct {
		QuoteIntervalMS   int   `yaml:"quote_interval_ms"`
		HistoryFetchOnce  *bool `yaml:"history_fetch_once"`
		HistoryIntervalMS int   `yaml:"history_interval_ms"`
		FetchTimeoutMS    int   `yaml:"fetch_timeout_ms"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("QUOTE_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("QUOTE_INTERVAL_MS: %w", err)
		}
		cfg.Schedule.QuoteIntervalMS = ms
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderAlphaVantage
	}
	if cfg.DataSource.BaseURL == "" {
		switch cfg.DataSource.Provider {
		case ProviderYahoo:
			cfg.DataSource.BaseURL = collector.DefaultYahooURL
		default:
			cfg.DataSource.BaseURL = collector.DefaultAlphaVantageURL
		}
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = DefaultSymbol
	}
	if cfg.Schedule.QuoteIntervalMS == 0 {
		cfg.Schedule.QuoteIntervalMS = DefaultQuoteIntervalMS
	}
	if cfg.Schedule.HistoryFetchOnce == nil {
		once := true
		cfg.Schedule.HistoryFetchOnce = &once
	}
	if cfg.Schedule.HistoryIntervalMS == 0 {
		cfg.Schedule.HistoryIntervalMS = int(scheduler.DefaultHistoryInterval / time.Millisecond)
	}
	if cfg.Schedule.FetchTimeoutMS == 0 {
		cfg.Schedule.FetchTimeoutMS = int(scheduler.DefaultFetchTimeout / time.Millisecond)
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderAlphaVantage:
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required")
		}
	case ProviderYahoo:
	default:
		return fmt.Errorf("data_source.provider must be %s or %s, got %q", ProviderAlphaVantage, ProviderYahoo, c.DataSource.Provider)
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if c.Schedule.QuoteIntervalMS <= 0 {
		return fmt.Errorf("schedule.quote_interval_ms must be positive")
	}
	if c.Schedule.HistoryIntervalMS <= 0 {
		return fmt.Errorf("schedule.history_interval_ms must be positive")
	}
	if c.Schedule.FetchTimeoutMS <= 0 {
		return fmt.Errorf("schedule.fetch_timeout_ms must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Scheduler converts the schedule section into a scheduler.Config.
func (c *Config) Scheduler() scheduler.Config {
	once := true
	if c.Schedule.HistoryFetchOnce != nil {
		once = *c.Schedule.HistoryFetchOnce
	}
	return scheduler.Config{
		QuoteInterval:    time.Duration(c.Schedule.QuoteIntervalMS) * time.Millisecond,
		HistoryFetchOnce: once,
		HistoryInterval:  time.Duration(c.Schedule.HistoryIntervalMS) * time.Millisecond,
		FetchTimeout:     time.Duration(c.Schedule.FetchTimeoutMS) * time.Millisecond,
	}
}
