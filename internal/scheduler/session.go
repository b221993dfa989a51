package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"MarketDash/internal/model"
	"MarketDash/internal/normalizer"
	"MarketDash/internal/recorder"
)

// session is one Start..Stop lifetime. Deliveries are serialized on mu and
// dropped once closed is set.
type session struct {
	id     string
	symbol string
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	cron   *cron.Cron
	logger *logrus.Entry

	seq [model.NumKinds]atomic.Uint64
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func (sess *session) close() {
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()
}

// begin registers an in-flight fetch. It fails once the session is closed,
// which keeps wg.Add from racing Stop's Wait.
func (sess *session) begin() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return false
	}
	sess.wg.Add(1)
	return true
}

// deliver runs fn unless the session was stopped while the fetch was in flight.
func (sess *session) deliver(fn func()) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return false
	}
	fn()
	return true
}

type job int

const (
	jobQuote job = iota
	jobHistory
	jobOwnership
	jobRecommendations
)

var allJobs = []job{jobQuote, jobHistory, jobOwnership, jobRecommendations}

func (j job) String() string {
	switch j {
	case jobQuote:
		return "quote"
	case jobHistory:
		return "history"
	case jobOwnership:
		return "ownership"
	case jobRecommendations:
		return "recommendations"
	}
	return "unknown"
}

// kinds lists the store kinds a job feeds. History feeds series and volume
// from a single provider call.
func (j job) kinds() []model.Kind {
	switch j {
	case jobQuote:
		return []model.Kind{model.KindQuote}
	case jobHistory:
		return []model.Kind{model.KindSeries, model.KindVolume}
	case jobOwnership:
		return []model.Kind{model.KindOwnership}
	case jobRecommendations:
		return []model.Kind{model.KindRecommendations}
	}
	return nil
}

func jobFor(kind model.Kind) (job, bool) {
	switch kind {
	case model.KindQuote:
		return jobQuote, true
	case model.KindSeries, model.KindVolume:
		return jobHistory, true
	case model.KindOwnership:
		return jobOwnership, true
	case model.KindRecommendations:
		return jobRecommendations, true
	}
	return 0, false
}

// result is a normalized fetch outcome for one kind.
type result struct {
	kind     model.Kind
	value    any
	err      error
	fallback bool // value is the zero value of an empty payload
	dropped  int
}

// dispatch issues one fetch on its own goroutine. The sequence number is
// taken at dispatch so responses arriving out of order are rejected by the store.
func (s *Scheduler) dispatch(sess *session, j job) {
	if !sess.begin() {
		return
	}
	seq := sess.seq[j.kinds()[0]].Add(1)
	timeout := sess.cfg.FetchTimeout
	if j == jobQuote {
		timeout = sess.cfg.QuoteTimeout()
	}

	go func() {
		defer sess.wg.Done()
		ctx, cancel := context.WithTimeout(sess.ctx, timeout)
		defer cancel()

		start := time.Now()
		results := s.fetch(ctx, sess.symbol, j)
		s.complete(sess, j, seq, results, time.Since(start))
	}()
}

func (s *Scheduler) fetch(ctx context.Context, symbol string, j job) []result {
	switch j {
	case jobQuote:
		raw, err := s.sources.Quote.FetchQuote(ctx, symbol)
		if err != nil {
			return []result{{kind: model.KindQuote, err: err}}
		}
		q, err := normalizer.Quote(symbol, raw)
		if errors.Is(err, normalizer.ErrEmptyPayload) {
			return []result{{kind: model.KindQuote, value: model.ZeroQuote(symbol), fallback: true, err: err}}
		}
		if err != nil {
			return []result{{kind: model.KindQuote, err: err}}
		}
		return []result{{kind: model.KindQuote, value: q}}

	case jobHistory:
		raw, err := s.sources.Series.FetchDaily(ctx, symbol)
		if err == nil {
			var res normalizer.SeriesResult
			res, err = normalizer.Daily(raw)
			if err == nil {
				return []result{
					{kind: model.KindSeries, value: res.Series, dropped: len(res.Dropped), err: res.DroppedErr()},
					{kind: model.KindVolume, value: res.Volume, dropped: len(res.Dropped)},
				}
			}
		}
		return []result{{kind: model.KindSeries, err: err}, {kind: model.KindVolume, err: err}}

	case jobOwnership:
		o, err := s.sources.Ownership.FetchOwnership(ctx, symbol)
		if err == nil {
			o, err = normalizer.Ownership(o)
		}
		if err != nil {
			return []result{{kind: model.KindOwnership, err: err}}
		}
		return []result{{kind: model.KindOwnership, value: o}}

	case jobRecommendations:
		r, err := s.sources.Recommendations.FetchRecommendations(ctx, symbol)
		if err == nil {
			r, err = normalizer.Recommendations(r)
		}
		if err != nil {
			return []result{{kind: model.KindRecommendations, err: err}}
		}
		return []result{{kind: model.KindRecommendations, value: r}}
	}
	return nil
}

// complete applies the results of one fetch. A failed fetch installs the
// zero value when the kind has never had one and otherwise keeps the last
// good value.
func (s *Scheduler) complete(sess *session, j job, seq uint64, results []result, took time.Duration) {
	events := make([]*recorder.FetchEvent, 0, len(results))
	var tick *recorder.QuoteTick

	delivered := sess.deliver(func() {
		for _, r := range results {
			evt := &recorder.FetchEvent{
				Session:  sess.id,
				Symbol:   sess.symbol,
				Kind:     r.kind,
				Seq:      seq,
				Dropped:  r.dropped,
				Duration: took,
			}
			if r.err != nil {
				evt.Err = r.err.Error()
			}
			value, outcome := r.value, recorder.OutcomeApplied
			switch {
			case r.fallback:
				outcome = recorder.OutcomeFallback
			case r.value == nil && !s.store.HasValue(r.kind):
				value, outcome = model.ZeroValue(r.kind, sess.symbol), recorder.OutcomeFallback
			case r.value == nil:
				outcome = recorder.OutcomeRetained
			}

			if value != nil {
				applied, err := s.store.Update(r.kind, seq, value)
				if err != nil {
					sess.logger.WithError(err).WithField("kind", r.kind).Error("store rejected value")
					evt.Err = err.Error()
					outcome = recorder.OutcomeDiscarded
				} else if !applied {
					outcome = recorder.OutcomeStale
				}
			}
			evt.Outcome = outcome
			events = append(events, evt)

			if q, ok := value.(model.Quote); ok && (outcome == recorder.OutcomeApplied || outcome == recorder.OutcomeFallback) {
				tick = &recorder.QuoteTick{
					Session:       sess.id,
					Symbol:        sess.symbol,
					Seq:           seq,
					Price:         q.Price,
					Change:        q.Change,
					ChangePercent: q.ChangePercent,
					Fallback:      outcome == recorder.OutcomeFallback,
				}
			}
		}
	})

	if !delivered {
		sess.logger.WithFields(logrus.Fields{"job": j, "seq": seq}).Debug("discarding fetch completed after stop")
		for _, r := range results {
			events = append(events, &recorder.FetchEvent{
				Session:  sess.id,
				Symbol:   sess.symbol,
				Kind:     r.kind,
				Seq:      seq,
				Outcome:  recorder.OutcomeDiscarded,
				Duration: took,
			})
		}
	} else {
		s.logOutcome(sess, j, seq, events)
	}
	s.journal(sess, events, tick)
}

func (s *Scheduler) logOutcome(sess *session, j job, seq uint64, events []*recorder.FetchEvent) {
	for _, evt := range events {
		entry := sess.logger.WithFields(logrus.Fields{
			"kind":    evt.Kind,
			"seq":     seq,
			"outcome": evt.Outcome,
			"took":    evt.Duration.Round(time.Millisecond),
		})
		switch {
		case evt.Outcome == recorder.OutcomeApplied && evt.Dropped > 0:
			entry.WithField("dropped", evt.Dropped).Warnf("%s: skipped malformed entries: %s", j, evt.Err)
		case evt.Outcome == recorder.OutcomeFallback:
			entry.Warnf("%s fetch failed, using empty value: %s", j, evt.Err)
		case evt.Outcome == recorder.OutcomeRetained:
			entry.Warnf("%s fetch failed, keeping previous value: %s", j, evt.Err)
		case evt.Outcome == recorder.OutcomeStale:
			entry.Debug("stale response ignored")
		default:
			entry.Debug("fetch applied")
		}
	}
}

func (s *Scheduler) journal(sess *session, events []*recorder.FetchEvent, tick *recorder.QuoteTick) {
	for _, evt := range events {
		if err := s.recorder.RecordFetch(evt); err != nil {
			sess.logger.WithError(err).Warn("record fetch event failed")
		}
	}
	if tick != nil {
		if err := s.recorder.RecordQuote(tick); err != nil {
			sess.logger.WithError(err).Warn("record quote tick failed")
		}
	}
}
