package providers

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/logger"
	"github.com/vinylflow/vinylflow-server/internal/sse"
	"github.com/vinylflow/vinylflow-server/internal/store"
	"github.com/vinylflow/vinylflow-server/internal/store/history"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, "db")
	db, err := store.New(dbPath, log.Logger, sseHandle.Manager)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// LedgerHandle wraps the digitization ledger with shutdown capability.
type LedgerHandle struct {
	*history.Store
}

// Shutdown implements do.Shutdownable.
func (h *LedgerHandle) Shutdown() error {
	return h.Close()
}

// ProvideLedger provides the SQLite digitization ledger.
func ProvideLedger(i do.Injector) (*LedgerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ledger, err := history.Open(cfg.Storage.HistoryDBPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Digitization ledger opened", "path", cfg.Storage.HistoryDBPath)

	return &LedgerHandle{Store: ledger}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
