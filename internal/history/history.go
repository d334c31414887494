// Package history keeps a SQLite log of completed build cycles.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver registration.
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Status values stored per cycle.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Entry is one recorded build cycle.
type Entry struct {
	ID              string
	Trigger         string
	Force           bool
	StartedAt       time.Time
	FinishedAt      time.Time
	Scanned         int
	Selected        int
	Failed          int
	ManifestWritten bool
	Status          string
	Error           string
}

// Duration is the wall time of the cycle.
func (e Entry) Duration() time.Duration { return e.FinishedAt.Sub(e.StartedAt) }

// Store is a SQLite-backed cycle history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies pending migrations.
// Use ":memory:" for a throwaway store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A second pooled connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one cycle.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (id, triggered_by, forced, started_at, finished_at, scanned, selected, failed, manifest_written, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Trigger, boolToInt(e.Force),
		e.StartedAt.UTC().Format(timeLayout), e.FinishedAt.UTC().Format(timeLayout),
		e.Scanned, e.Selected, e.Failed, boolToInt(e.ManifestWritten),
		e.Status, e.Error,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// Recent returns up to limit cycles, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, triggered_by, forced, started_at, finished_at, scanned, selected, failed, manifest_written, status, error
		 FROM cycles ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			force, written    int
			started, finished string
		)
		if err := rows.Scan(&e.ID, &e.Trigger, &force, &started, &finished,
			&e.Scanned, &e.Selected, &e.Failed, &written, &e.Status, &e.Error); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		e.Force = force != 0
		e.ManifestWritten = written != 0
		if e.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if e.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
