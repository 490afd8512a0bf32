// Package history keeps a record of completed builds in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
)

// Status values recorded for a build.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Entry is one recorded build.
type Entry struct {
	ID        int64
	BuildID   string
	StartedAt time.Time
	Duration  time.Duration
	Mode      string
	Status    string
	Rendered  int
	Deleted   int
	Assets    int
	Revision  string
	Error     string
}

// Store persists build entries.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path. Use ":memory:" for an
// in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create history directory").WithPath(path).Fatal().Build()
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "open history database").WithPath(path).Fatal().Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "initialize history schema").WithPath(path).Fatal().Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		rendered INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		assets INTEGER NOT NULL DEFAULT 0,
		revision TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends e to the store.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, started_at, duration_ms, mode, status, rendered, deleted, assets, revision, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BuildID, e.StartedAt.UnixNano(), e.Duration.Milliseconds(), e.Mode, e.Status,
		e.Rendered, e.Deleted, e.Assets, e.Revision, e.Error,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "record build").WithContext("build_id", e.BuildID).Build()
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, started_at, duration_ms, mode, status, rendered, deleted, assets, revision, error
		 FROM builds ORDER BY started_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHistory, "query builds").Build()
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			startedAt  int64
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &startedAt, &durationMS, &e.Mode, &e.Status,
			&e.Rendered, &e.Deleted, &e.Assets, &e.Revision, &e.Error); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		e.StartedAt = time.Unix(0, startedAt)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
