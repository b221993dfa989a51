// Package store holds the authoritative in-memory snapshot of every data
// kind. It is the only mutable shared state of the pipeline.
package store

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"MarketDash/internal/model"
	"MarketDash/internal/notify"
)

var ErrValueType = errors.New("value type does not match kind")

// Stats counts applied and rejected updates per kind since the last Reset.
type Stats struct {
	Applied [model.NumKinds]uint64 `json:"applied"`
	Stale   [model.NumKinds]uint64 `json:"stale"`
	LastSeq [model.NumKinds]uint64 `json:"last_seq"`
}

// Store applies per-kind updates atomically. Writers are serialized; the
// published snapshot is immutable and swapped through an atomic pointer,
// so readers never block and never see a partial update.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[model.Snapshot]
	hub     *notify.Hub
	logger  *logrus.Entry
	now     func() time.Time

	lastSeq  [model.NumKinds]uint64
	received [model.NumKinds]bool
	mask     atomic.Uint32 // bit k set once kind k has a value
	stats    Stats
	ready    chan struct{}
}

type Option func(*Store)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.logger = l.WithField("component", "store") }
}

// WithHub sets the hub updates are published to.
func WithHub(h *notify.Hub) Option {
	return func(s *Store) { s.hub = h }
}

func withClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		hub:    notify.NewHub(),
		logger: logrus.NewEntry(logrus.StandardLogger()).WithField("component", "store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetLocked("")
	return s
}

// Hub returns the notification hub renderers subscribe to.
func (s *Store) Hub() *notify.Hub { return s.hub }

// Reset drops all values, sequence numbers and readiness and starts a new
// session for symbol. Subscriptions survive a reset.
func (s *Store) Reset(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(symbol)
}

func (s *Store) resetLocked(symbol string) {
	s.lastSeq = [model.NumKinds]uint64{}
	s.received = [model.NumKinds]bool{}
	s.mask.Store(0)
	s.stats = Stats{}
	s.ready = make(chan struct{})
	s.current.Store(&model.Snapshot{
		Symbol: symbol,
		Quote:  model.ZeroQuote(symbol),
		Series: model.TimeSeries{},
		Volume: model.VolumeSeries{},
	})
}

// Update replaces the field for kind with value when seq is newer than the
// last sequence applied for that kind. It reports whether the value was
// applied. Older or repeated sequence numbers are rejected and counted;
// that is not an error. Subscribers are notified before Update returns,
// while the writer lock is held: callbacks may read the store through its
// accessors but must not call Update, Reset, Stats or Ready.
func (s *Store) Update(kind model.Kind, seq uint64, value any) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("%w: %s", ErrValueType, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lastSeq[kind] {
		s.stats.Stale[kind]++
		s.logger.WithFields(logrus.Fields{
			"kind":     kind,
			"seq":      seq,
			"last_seq": s.lastSeq[kind],
		}).Debug("stale update rejected")
		return false, nil
	}

	next := *s.current.Load()
	if err := assign(&next, kind, value); err != nil {
		return false, err
	}
	next.UpdatedAt = s.now()

	s.lastSeq[kind] = seq
	s.stats.Applied[kind]++
	s.stats.LastSeq[kind] = seq
	wasReady := next.Ready
	s.received[kind] = true
	s.mask.Or(1 << uint(kind))
	next.Ready = allTrue(s.received)
	s.current.Store(&next)

	if next.Ready && !wasReady {
		close(s.ready)
		s.logger.WithField("symbol", next.Symbol).Info("snapshot ready")
	}
	s.logger.WithFields(logrus.Fields{"kind": kind, "seq": seq}).Debug("update applied")

	s.hub.PublishEach(kind, func() any { return next.Value(kind) })
	return true, nil
}

func assign(snap *model.Snapshot, kind model.Kind, value any) error {
	switch kind {
	case model.KindQuote:
		v, ok := value.(model.Quote)
		if !ok {
			return fmt.Errorf("%w: %s got %T", ErrValueType, kind, value)
		}
		snap.Quote = v
	case model.KindSeries:
		v, ok := value.(model.TimeSeries)
		if !ok {
			return fmt.Errorf("%w: %s got %T", ErrValueType, kind, value)
		}
		snap.Series = v.Clone()
	case model.KindVolume:
		v, ok := value.(model.VolumeSeries)
		if !ok {
			return fmt.Errorf("%w: %s got %T", ErrValueType, kind, value)
		}
		snap.Volume = v.Clone()
	case model.KindOwnership:
		v, ok := value.(model.OwnershipMix)
		if !ok {
			return fmt.Errorf("%w: %s got %T", ErrValueType, kind, value)
		}
		snap.Ownership = v
	case model.KindRecommendations:
		v, ok := value.(model.RecommendationMix)
		if !ok {
			return fmt.Errorf("%w: %s got %T", ErrValueType, kind, value)
		}
		snap.Recommendations = v
	}
	return nil
}

func allTrue(b [model.NumKinds]bool) bool {
	for _, v := range b {
		if !v {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.Snapshot {
	return s.current.Load().Clone()
}

func (s *Store) Quote() model.Quote { return s.current.Load().Quote }

func (s *Store) Series() model.TimeSeries { return s.current.Load().Series.Clone() }

func (s *Store) Volume() model.VolumeSeries { return s.current.Load().Volume.Clone() }

func (s *Store) Ownership() model.OwnershipMix { return s.current.Load().Ownership }

func (s *Store) Recommendations() model.RecommendationMix {
	return s.current.Load().Recommendations
}

// IsReady reports whether every kind has received a value since the last Reset.
func (s *Store) IsReady() bool { return s.current.Load().Ready }

// Ready returns a channel closed once the store first becomes ready after
// the most recent Reset.
func (s *Store) Ready() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// HasValue reports whether kind has received at least one update.
func (s *Store) HasValue(kind model.Kind) bool {
	if !kind.Valid() {
		return false
	}
	return s.mask.Load()&(1<<uint(kind)) != 0
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
