package scheduler

import (
	"errors"
	"time"
)

const (
	DefaultQuoteInterval   = 15 * time.Second
	DefaultHistoryInterval = time.Hour
	DefaultFetchTimeout    = 30 * time.Second
	DefaultDrainTimeout    = 5 * time.Second
)

// Config controls one polling session.
type Config struct {
	// QuoteInterval is the refresh period of the live quote. cron works in
	// whole seconds, so shorter periods run every second.
	QuoteInterval time.Duration
	// HistoryFetchOnce fetches the daily series exactly once per session.
	HistoryFetchOnce bool
	// HistoryInterval re-fetches the daily series when HistoryFetchOnce is false.
	HistoryInterval time.Duration
	// FetchTimeout bounds the one-shot fetches (history, ownership,
	// recommendations). Quote fetches are bounded by 2 x QuoteInterval.
	FetchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		QuoteInterval:    DefaultQuoteInterval,
		HistoryFetchOnce: true,
		HistoryInterval:  DefaultHistoryInterval,
		FetchTimeout:     DefaultFetchTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.QuoteInterval == 0 {
		c.QuoteInterval = DefaultQuoteInterval
	}
	if c.HistoryInterval == 0 {
		c.HistoryInterval = DefaultHistoryInterval
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	return c
}

func (c Config) validate() error {
	if c.QuoteInterval < 0 {
		return errors.New("quote interval must be positive")
	}
	if c.HistoryInterval < 0 {
		return errors.New("history interval must be positive")
	}
	if c.FetchTimeout < 0 {
		return errors.New("fetch timeout must be positive")
	}
	return nil
}

// QuoteTimeout is the deadline of one quote fetch.
func (c Config) QuoteTimeout() time.Duration {
	return 2 * c.QuoteInterval
}
