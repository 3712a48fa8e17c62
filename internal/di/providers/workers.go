package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/vinylflow/vinylflow-server/internal/logger"
	"github.com/vinylflow/vinylflow-server/internal/service"
)

// CleanupJobHandle runs the upload retention sweep in the background.
type CleanupJobHandle struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CleanupJobHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideCleanupJob starts the periodic cleanup of unexported uploads.
func ProvideCleanupJob(i do.Injector) (*CleanupJobHandle, error) {
	recordings := do.MustInvoke[*service.RecordingService](i)

	ctx, cancel := context.WithCancel(context.Background())
	go recordings.StartCleanup(ctx)

	return &CleanupJobHandle{cancel: cancel}, nil
}

// InboxWatcherHandle runs the drop-folder watcher in the background.
type InboxWatcherHandle struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *InboxWatcherHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideInboxWatcher starts the inbox watcher when enabled.
func ProvideInboxWatcher(i do.Injector) (*InboxWatcherHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	inbox := do.MustInvoke[*service.InboxService](i)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := inbox.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("Inbox watcher failed", "error", err)
		}
	}()

	return &InboxWatcherHandle{cancel: cancel}, nil
}
