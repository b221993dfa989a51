package recorder

import (
	"time"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

// Fetch outcomes recorded in the journal.
const (
	OutcomeApplied   = "APPLIED"
	OutcomeFallback  = "FALLBACK"
	OutcomeRetained  = "RETAINED"
	OutcomeStale     = "STALE"
	OutcomeDiscarded = "DISCARDED"
)

// QuoteTick is one applied quote.
type QuoteTick struct {
	Session       string
	Symbol        string
	Seq           uint64
	Price         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	Fallback      bool
}

// FetchEvent is the outcome of one fetch of one kind.
type FetchEvent struct {
	Session  string
	Symbol   string
	Kind     model.Kind
	Seq      uint64
	Outcome  string
	Dropped  int // malformed bars skipped
	Err      string
	Duration time.Duration
}

// Recorder keeps an append-only diagnostic journal of fetch activity.
// Nothing in it is read back at startup.
type Recorder interface {
	RecordQuote(tick *QuoteTick) error
	RecordFetch(evt *FetchEvent) error
	Close() error
}
