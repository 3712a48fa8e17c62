// Package history keeps a permanent ledger of completed digitizations
// in SQLite. The working store can be wiped and rebuilt; this cannot.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vinylflow/vinylflow-server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one completed digitization.
type Entry struct {
	ID          string    `json:"id"` // export job ID
	RecordingID string    `json:"recording_id"`
	ReleaseID   int       `json:"release_id,omitempty"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	Year        int       `json:"year,omitempty"`
	Label       string    `json:"label,omitempty"`
	TrackCount  int       `json:"track_count"`
	OutputDir   string    `json:"output_dir"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store provides SQLite-backed persistence for the digitization ledger.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the ledger at the given path. It configures WAL mode,
// sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records a completed digitization. An entry is write-once; adding
// the same job twice fails with ErrAlreadyExists.
func (s *Store) Add(ctx context.Context, e *Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO digitizations
			(id, recording_id, release_id, artist, album, year, label, track_count, output_dir, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RecordingID, nullInt(e.ReleaseID), e.Artist, e.Album,
		nullInt(e.Year), nullString(e.Label), e.TrackCount, e.OutputDir,
		formatTime(e.CompletedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert digitization: %w", err)
	}
	return nil
}

// Get retrieves one ledger entry by job ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, recording_id, release_id, artist, album, year, label, track_count, output_dir, completed_at
		FROM digitizations WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Recent returns ledger entries newest first.
func (s *Store) Recent(ctx context.Context, limit, offset int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recording_id, release_id, artist, album, year, label, track_count, output_dir, completed_at
		FROM digitizations
		ORDER BY completed_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query digitizations: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the total number of ledger entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM digitizations`).Scan(&n)
	return n, err
}

// All walks every entry, oldest first. Used to rebuild the search
// index on startup.
func (s *Store) All(ctx context.Context, fn func(*Entry) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recording_id, release_id, artist, album, year, label, track_count, output_dir, completed_at
		FROM digitizations
		ORDER BY completed_at ASC`)
	if err != nil {
		return fmt.Errorf("query digitizations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := scanEntry(rows)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e           Entry
		releaseID   sql.NullInt64
		year        sql.NullInt64
		label       sql.NullString
		completedAt string
	)
	err := row.Scan(&e.ID, &e.RecordingID, &releaseID, &e.Artist, &e.Album,
		&year, &label, &e.TrackCount, &e.OutputDir, &completedAt)
	if err != nil {
		return nil, err
	}
	e.ReleaseID = int(releaseID.Int64)
	e.Year = int(year.Int64)
	e.Label = label.String

	e.CompletedAt, err = parseTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures in the message.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString returns a sql.NullString from a string, empty meaning NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullInt returns a sql.NullInt64 from an int, zero meaning NULL.
func nullInt(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
