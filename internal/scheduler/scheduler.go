package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"MarketDash/internal/collector"
	"MarketDash/internal/model"
	"MarketDash/internal/recorder"
	"MarketDash/internal/store"
)

var (
	ErrAlreadyRunning = errors.New("scheduler already running")
	ErrNotRunning     = errors.New("scheduler not running")
	ErrEmptySymbol    = errors.New("symbol is required")
)

// Scheduler drives the provider calls for one symbol and funnels every
// normalized result into the store.
type Scheduler struct {
	store    *store.Store
	sources  collector.Sources
	recorder recorder.Recorder
	logger   *logrus.Entry
	drain    time.Duration

	mu   sync.Mutex
	sess *session
}

type Option func(*Scheduler)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scheduler) { s.logger = l.WithField("component", "scheduler") }
}

func WithRecorder(r recorder.Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithDrainTimeout bounds how long Stop waits for in-flight fetches.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.drain = d }
}

// NewScheduler creates a Scheduler.
func NewScheduler(st *store.Store, sources collector.Sources, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		sources:  sources,
		recorder: recorder.NewNoopRecorder(),
		logger:   logrus.NewEntry(logrus.StandardLogger()).WithField("component", "scheduler"),
		drain:    DefaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resets the store for symbol, fetches every kind once and schedules
// the recurring quote refresh.
func (s *Scheduler) Start(symbol string, cfg Config) error {
	if symbol == "" {
		return ErrEmptySymbol
	}
	if err := s.sources.Validate(); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	cfg = cfg.withDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil {
		return ErrAlreadyRunning
	}

	sess := s.newSession(symbol, cfg)
	if cfg.QuoteInterval < time.Second {
		sess.logger.WithField("interval", cfg.QuoteInterval).Warn("quote interval below one second, running every second")
	}
	sess.cron.Schedule(cron.Every(cfg.QuoteInterval), cron.FuncJob(func() {
		s.dispatch(sess, jobQuote)
	}))
	if !cfg.HistoryFetchOnce {
		sess.cron.Schedule(cron.Every(cfg.HistoryInterval), cron.FuncJob(func() {
			s.dispatch(sess, jobHistory)
		}))
	}

	s.store.Reset(symbol)
	s.sess = sess

	for _, j := range allJobs {
		s.dispatch(sess, j)
	}
	sess.cron.Start()

	sess.logger.WithFields(logrus.Fields{
		"quote_interval":     cfg.QuoteInterval,
		"history_fetch_once": cfg.HistoryFetchOnce,
	}).Info("scheduler started")
	return nil
}

// Stop cancels the recurring jobs and every in-flight fetch. Results that
// complete afterwards are discarded. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	sess := s.sess
	if sess == nil {
		s.mu.Unlock()
		return
	}
	// closed before a concurrent Start can reset the store
	sess.close()
	s.sess = nil
	s.mu.Unlock()

	<-sess.cron.Stop().Done()
	sess.cancel()

	done := make(chan struct{})
	go func() {
		sess.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.drain):
		sess.logger.WithField("drain_timeout", s.drain).Warn("in-flight fetches still running after stop, their results will be discarded")
	}
	sess.logger.Info("scheduler stopped")
}

// Running reports whether a session is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess != nil
}

// SessionID returns the id of the active session, or "" when stopped.
func (s *Scheduler) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return ""
	}
	return s.sess.id
}

// RefreshNow triggers one immediate fetch for kind. Series and volume
// share the history fetch.
func (s *Scheduler) RefreshNow(kind model.Kind) error {
	j, ok := jobFor(kind)
	if !ok {
		return fmt.Errorf("refresh: unknown kind %s", kind)
	}
	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()
	if sess == nil {
		return ErrNotRunning
	}
	s.dispatch(sess, j)
	return nil
}

func (s *Scheduler) newSession(symbol string, cfg Config) *session {
	id := uuid.NewString()
	logger := s.logger.WithFields(logrus.Fields{"session": id, "symbol": symbol})
	cronLogger := cron.PrintfLogger(logger)
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:     id,
		symbol: symbol,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
	}
}
