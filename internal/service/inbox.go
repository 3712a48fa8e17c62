package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/watcher"
)

// inboxExtensions are the capture formats picked up from the drop
// folder.
var inboxExtensions = map[string]bool{
	".wav":  true,
	".flac": true,
	".aiff": true,
	".aif":  true,
}

// InboxService watches a drop folder and imports finished captures as
// recordings. Recorder software writing directly into the folder is
// handled by the watcher's settle detection; only complete files reach
// the importer.
type InboxService struct {
	recordings *RecordingService
	cfg        config.InboxConfig
	logger     *slog.Logger
	watcher    *watcher.Watcher

	// imported remembers name+size keys of captures taken in this
	// process, so a watcher event replay or a re-dropped copy of the
	// same file does not import twice.
	imported map[string]struct{}
}

// NewInboxService creates a new inbox service.
func NewInboxService(recordings *RecordingService, cfg config.InboxConfig, logger *slog.Logger) *InboxService {
	return &InboxService{
		recordings: recordings,
		cfg:        cfg,
		logger:     logger,
		imported:   make(map[string]struct{}),
	}
}

// Start begins watching the drop folder. Blocks until the context is
// canceled. No-op when the inbox is disabled.
func (s *InboxService) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("inbox watcher disabled")
		return nil
	}

	if err := os.MkdirAll(s.cfg.Path, 0755); err != nil {
		return fmt.Errorf("create inbox directory: %w", err)
	}

	w, err := watcher.New(s.logger, watcher.Options{})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	s.watcher = w

	if err := w.Watch(s.cfg.Path); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	s.logger.Info("inbox watcher started", slog.String("path", s.cfg.Path))

	// Sweep files that landed while the server was down.
	s.importExisting(ctx)

	go func() {
		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("inbox watcher stopped unexpectedly", slog.Any("error", err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return w.Stop()

		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			if event.Type != watcher.EventAdded {
				continue
			}
			s.importFile(ctx, event.Path)

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			s.logger.Warn("inbox watcher error", slog.Any("error", err))
		}
	}
}

// importExisting imports captures already sitting in the drop folder.
func (s *InboxService) importExisting(ctx context.Context) {
	entries, err := os.ReadDir(s.cfg.Path)
	if err != nil {
		s.logger.Warn("failed to read inbox directory", slog.Any("error", err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.importFile(ctx, filepath.Join(s.cfg.Path, entry.Name()))
	}
}

// captureKey identifies a capture for dedup purposes.
func captureKey(name string, size int64) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(name), size)
}

// importFile moves one capture from the drop folder into managed
// upload storage.
func (s *InboxService) importFile(ctx context.Context, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if !inboxExtensions[ext] {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// The file may already be gone; a remove event follows an add
		// once an import finishes.
		return
	}
	key := captureKey(filepath.Base(path), info.Size())
	if _, dup := s.imported[key]; dup {
		s.logger.Info("skipping already imported inbox capture",
			slog.String("path", path))
		return
	}

	f, err := os.Open(path) //#nosec G304 -- path comes from the watched inbox directory
	if err != nil {
		s.logger.Warn("failed to open inbox file",
			slog.String("path", path),
			slog.Any("error", err))
		return
	}

	rec, err := s.recordings.Upload(ctx, filepath.Base(path), f, "inbox")
	closeErr := f.Close()
	if closeErr != nil {
		s.logger.Warn("failed to close inbox file", slog.Any("error", closeErr))
	}
	if err != nil {
		s.logger.Error("inbox import failed",
			slog.String("path", path),
			slog.Any("error", err))
		return
	}

	s.imported[key] = struct{}{}

	// The capture now lives in upload storage; drop the original.
	if err := os.Remove(path); err != nil {
		s.logger.Warn("failed to remove imported inbox file",
			slog.String("path", path),
			slog.Any("error", err))
	}

	s.logger.Info("inbox capture imported",
		slog.String("path", path),
		slog.String("recording_id", rec.ID),
	)
}
