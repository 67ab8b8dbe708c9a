package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/sirupsen/logrus"
)

const (
	defaultChangePoll = 250 * time.Millisecond
	changeRetention   = 10 * time.Minute
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL,
	origin TEXT NOT NULL,
	at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_at ON changes (at);
`

// SQLite is a durable backend. Every process opening the same file sees the
// same entries; writes are announced through a change log that watchers poll.
type SQLite struct {
	db        *sql.DB
	pollEvery time.Duration
	log       logrus.FieldLogger

	mu     sync.Mutex
	closed bool
}

// SQLiteOptions configure OpenSQLite.
type SQLiteOptions struct {
	Path      string
	PollEvery time.Duration // change log poll; zero uses 250ms
	Logger    logrus.FieldLogger
}

// OpenSQLite opens (creating if needed) the database at opts.Path.
func OpenSQLite(opts SQLiteOptions) (*SQLite, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if opts.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if opts.Path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.WithError(err).Warn("failed to enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=2000;"); err != nil {
		log.WithError(err).Warn("failed to set busy timeout")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	pollEvery := opts.PollEvery
	if pollEvery <= 0 {
		pollEvery = defaultChangePoll
	}
	return &SQLite{db: db, pollEvery: pollEvery, log: log}, nil
}

// Get implements Backend.
func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	if s.isClosed() {
		return "", false, ErrClosed
	}
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Backend.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	if s.isClosed() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Delete implements Backend.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if s.isClosed() {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Announce appends change to the change log and prunes old entries.
func (s *SQLite) Announce(ctx context.Context, change Change) error {
	if s.isClosed() {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin announce: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	if _, err := tx.ExecContext(ctx, "INSERT INTO changes (key, origin, at) VALUES (?, ?, ?)",
		change.Key, change.Origin, now.UnixNano()); err != nil {
		return fmt.Errorf("insert change: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM changes WHERE at < ?",
		now.Add(-changeRetention).UnixNano()); err != nil {
		return fmt.Errorf("prune changes: %w", err)
	}
	return tx.Commit()
}

// Watch polls the change log for entries appended after the call.
func (s *SQLite) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	if s.isClosed() {
		return func() {}, ErrClosed
	}
	var last int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM changes").Scan(&last); err != nil {
		return func() {}, fmt.Errorf("read change cursor: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(s.pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
			}
			next, err := s.drainChanges(watchCtx, last, fn)
			if err != nil {
				if watchCtx.Err() == nil && !errors.Is(err, ErrClosed) {
					s.log.WithError(err).Debug("change log poll failed")
				}
				continue
			}
			last = next
		}
	}()
	return cancel, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLite) drainChanges(ctx context.Context, after int64, fn func(Change)) (int64, error) {
	if s.isClosed() {
		return after, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id, key, origin FROM changes WHERE id > ? ORDER BY id", after)
	if err != nil {
		return after, err
	}
	defer rows.Close()

	var changes []Change
	last := after
	for rows.Next() {
		var id int64
		var change Change
		if err := rows.Scan(&id, &change.Key, &change.Origin); err != nil {
			return after, err
		}
		changes = append(changes, change)
		last = id
	}
	if err := rows.Err(); err != nil {
		return after, err
	}
	// Release the connection before fn reads through the same pool.
	_ = rows.Close()
	for _, change := range changes {
		fn(change)
	}
	return last, nil
}

func (s *SQLite) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
