// Package store persists recordings, analysis sessions, export jobs,
// and cached catalog releases in a Badger database.
package store

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/vinylflow/vinylflow-server/internal/domain"
)

// EventEmitter is the interface for emitting SSE events. Store uses
// this to broadcast changes without depending on SSE implementation
// details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// SSE event emitter for broadcasting changes.
	eventEmitter EventEmitter

	// Generic entities
	Recordings *Entity[domain.Recording]
	Sessions   *Entity[domain.AnalysisSession]
	Jobs       *Entity[domain.ExportJob]
	Releases   *Entity[domain.Release]
}

// New creates a new Store instance with the given database path and
// event emitter.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes survive a crash
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:           db,
		logger:       logger,
		eventEmitter: emitter,
	}

	store.Recordings = NewEntity[domain.Recording](store, "recording:")

	// One analysis session per recording; a second create for the same
	// recording conflicts.
	store.Sessions = NewEntity[domain.AnalysisSession](store, "session:").
		WithIndex("recording", func(s *domain.AnalysisSession) []string {
			return []string{s.RecordingID}
		})

	store.Jobs = NewEntity[domain.ExportJob](store, "job:")

	store.Releases = NewEntity[domain.Release](store, "release:")

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Emit broadcasts an event through the configured emitter.
func (s *Store) Emit(event any) {
	if s.eventEmitter != nil {
		s.eventEmitter.Emit(event)
	}
}

// ReleaseKey renders a Discogs release ID as a store key.
func ReleaseKey(id int) string {
	return strconv.Itoa(id)
}
