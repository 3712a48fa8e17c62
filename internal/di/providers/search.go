package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/logger"
	"github.com/vinylflow/vinylflow-server/internal/search"
	"github.com/vinylflow/vinylflow-server/internal/service"
)

// SearchIndexHandle wraps the bleve index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// EnsureHistoryIndexed reindexes the ledger when the bleve index has
// fallen behind, for example after the index directory was deleted.
func EnsureHistoryIndexed(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	historySvc := do.MustInvoke[*service.HistoryService](i)

	go func() {
		if err := historySvc.EnsureIndexed(context.Background()); err != nil {
			log.Error("History reindex failed", "error", err)
		}
	}()
}

// ProvideSearchIndex provides the full-text index over the digitization ledger.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Storage.SearchIndexPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Search index opened", "path", cfg.Storage.SearchIndexPath)

	return &SearchIndexHandle{Index: index}, nil
}
