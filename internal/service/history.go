package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/vinylflow/vinylflow-server/internal/search"
	"github.com/vinylflow/vinylflow-server/internal/store"
	"github.com/vinylflow/vinylflow-server/internal/store/history"
)

// HistoryService maintains the permanent digitization ledger and the
// search index layered over it. The ledger is the source of truth; the
// index is derived and can always be rebuilt from it.
type HistoryService struct {
	ledger *history.Store
	index  *search.Index
	logger *slog.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(ledger *history.Store, index *search.Index, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		ledger: ledger,
		index:  index,
		logger: logger,
	}
}

// Record writes a completed digitization to the ledger and indexes it.
// Recording the same job twice is a no-op.
func (s *HistoryService) Record(ctx context.Context, entry *history.Entry) error {
	if err := s.ledger.Add(ctx, entry); err != nil {
		if stderrors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("ledger add: %w", err)
	}

	if err := s.index.IndexDocument(search.FromEntry(entry)); err != nil {
		// The ledger row is durable; the index catches up on the next
		// startup reconciliation.
		s.logger.Warn("failed to index digitization",
			slog.String("entry_id", entry.ID),
			slog.Any("error", err))
	}
	return nil
}

// Get returns one ledger entry.
func (s *HistoryService) Get(ctx context.Context, id string) (*history.Entry, error) {
	return s.ledger.Get(ctx, id)
}

// Recent returns ledger entries newest first.
func (s *HistoryService) Recent(ctx context.Context, limit, offset int) ([]*history.Entry, error) {
	return s.ledger.Recent(ctx, limit, offset)
}

// Count returns the total number of digitizations.
func (s *HistoryService) Count(ctx context.Context) (int, error) {
	return s.ledger.Count(ctx)
}

// Search queries the index over the ledger.
func (s *HistoryService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	return s.index.Search(ctx, params)
}

// EnsureIndexed reconciles the index with the ledger at startup. A
// fresh or rebuilt index gets refilled from the ledger here.
func (s *HistoryService) EnsureIndexed(ctx context.Context) error {
	total, err := s.ledger.Count(ctx)
	if err != nil {
		return fmt.Errorf("ledger count: %w", err)
	}

	indexed, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("index count: %w", err)
	}

	if int(indexed) == total {
		return nil
	}

	s.logger.Info("reindexing digitization history",
		slog.Int("ledger_entries", total),
		slog.Uint64("indexed", indexed),
	)

	var docs []*search.Document
	err = s.ledger.All(ctx, func(e *history.Entry) error {
		docs = append(docs, search.FromEntry(e))
		return nil
	})
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	s.logger.Info("history reindex complete", slog.Int("documents", len(docs)))
	return nil
}
