// Package store keeps a local SQLite journal of transfer operations, used
// by the CLI to answer "what did I move where, and did it finish".
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Sentinel errors
var (
	ErrNotFound = errors.New("not found")
)

// Transfer statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

type Transfer struct {
	ID         string    `json:"id"`
	Op         string    `json:"op"` // get, put, copy, move, remove, mkdir
	Path       string    `json:"path"`
	TargetPath string    `json:"target_path,omitempty"`
	Bytes      int64     `json:"bytes"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

type Store struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS transfers (
	id          TEXT PRIMARY KEY,
	op          TEXT NOT NULL,
	path        TEXT NOT NULL,
	target_path TEXT NOT NULL DEFAULT '',
	bytes       INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'running',
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status);
CREATE INDEX IF NOT EXISTS idx_transfers_started_at ON transfers(started_at);
`

// dsnWithPragmas returns a connection string with WAL and busy_timeout
// applied per-connection by the driver.
func dsnWithPragmas(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(15000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dsnWithPragmas(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// isBusyLock reports whether err indicates an SQLite lock (SQLITE_BUSY).
func isBusyLock(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// retryOnBusy runs fn and retries on SQLITE_BUSY with exponential backoff.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 4
	backoff := 25 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isBusyLock(lastErr) {
			return lastErr
		}
		if attempt < maxAttempts-1 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return lastErr
}

// Begin records the start of a transfer operation.
func (s *Store) Begin(tr *Transfer) error {
	return retryOnBusy(func() error {
		_, err := s.db.Exec(
			`INSERT INTO transfers (id, op, path, target_path, status, started_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tr.ID, tr.Op, tr.Path, tr.TargetPath, StatusRunning, fmtTime(tr.StartedAt),
		)
		return err
	})
}

// Finish marks a transfer done or failed. errMsg empty means success.
func (s *Store) Finish(id string, bytes int64, errMsg string) error {
	status := StatusDone
	if errMsg != "" {
		status = StatusFailed
	}
	return retryOnBusy(func() error {
		res, err := s.db.Exec(
			`UPDATE transfers SET bytes = ?, status = ?, error = ?, finished_at = ? WHERE id = ?`,
			bytes, status, errMsg, fmtTime(time.Now()), id,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) Get(id string) (*Transfer, error) {
	row := s.db.QueryRow(
		`SELECT id, op, path, target_path, bytes, status, error, started_at, COALESCE(finished_at, '')
		 FROM transfers WHERE id = ?`, id,
	)
	tr, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tr, err
}

// List returns the most recent transfers, newest first.
func (s *Store) List(limit int) ([]*Transfer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, op, path, target_path, bytes, status, error, started_at, COALESCE(finished_at, '')
		 FROM transfers ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Transfer
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*Transfer, error) {
	var tr Transfer
	var started, finished string
	err := row.Scan(&tr.ID, &tr.Op, &tr.Path, &tr.TargetPath, &tr.Bytes, &tr.Status, &tr.Error, &started, &finished)
	if err != nil {
		return nil, err
	}
	tr.StartedAt = parseTime(started)
	tr.FinishedAt = parseTime(finished)
	return &tr, nil
}

// Times are stored as RFC 3339 strings so they survive the round trip
// through the driver unambiguously.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
