package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder writes the fetch journal to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger logrus.FieldLogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so an external reader can tail the journal while we write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.WithField("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.WithField("path", dbPath).Info("sqlite journal opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quote_ticks (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			session        TEXT,
			symbol         TEXT,
			seq            INTEGER,
			price          TEXT,
			change         TEXT,
			change_percent TEXT,
			fallback       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_ts ON quote_ticks(timestamp)`,

		`CREATE TABLE IF NOT EXISTS fetch_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			session     TEXT,
			symbol      TEXT,
			kind        TEXT,
			seq         INTEGER,
			outcome     TEXT,
			dropped     INTEGER,
			error       TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_kind ON fetch_events(kind, outcome)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordQuote(tick *QuoteTick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO quote_ticks
		(timestamp, session, symbol, seq, price, change, change_percent, fallback)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), tick.Session, tick.Symbol, int64(tick.Seq),
		tick.Price.String(), tick.Change.String(), tick.ChangePercent.String(),
		boolToInt(tick.Fallback),
	)
	return err
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_events
		(timestamp, session, symbol, kind, seq, outcome, dropped, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Session, evt.Symbol, evt.Kind.String(), int64(evt.Seq),
		evt.Outcome, evt.Dropped, evt.Err, evt.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite journal")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
