package service

import (
	"context"
	"encoding/json/v2"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/errors"
	"github.com/vinylflow/vinylflow-server/internal/id"
	"github.com/vinylflow/vinylflow-server/internal/media"
	"github.com/vinylflow/vinylflow-server/internal/sse"
	"github.com/vinylflow/vinylflow-server/internal/store"
)

// RecordingService manages uploaded side captures: intake, probing,
// peaks, previews, and retention cleanup.
type RecordingService struct {
	store   *store.Store
	media   *media.Toolchain
	emitter *sse.Manager
	storage config.StorageConfig
	cleanup config.CleanupConfig
	logger  *slog.Logger
}

// NewRecordingService creates a new recording service.
func NewRecordingService(
	store *store.Store,
	toolchain *media.Toolchain,
	emitter *sse.Manager,
	storage config.StorageConfig,
	cleanup config.CleanupConfig,
	logger *slog.Logger,
) (*RecordingService, error) {
	for _, dir := range []string{storage.UploadPath, storage.CachePath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return &RecordingService{
		store:   store,
		media:   toolchain,
		emitter: emitter,
		storage: storage,
		cleanup: cleanup,
		logger:  logger,
	}, nil
}

// Upload stores a capture from the given reader under a generated
// filename, probes it, and registers the recording. Source is "upload"
// for HTTP uploads and "inbox" for watched-folder imports.
func (s *RecordingService) Upload(ctx context.Context, originalFilename string, r io.Reader, source string) (*domain.Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recID, err := id.Generate("rec")
	if err != nil {
		return nil, fmt.Errorf("generate recording id: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext == "" {
		ext = ".wav"
	}
	dst := filepath.Join(s.storage.UploadPath, recID+ext)

	// Write to a temp name first so partial uploads never look like
	// complete captures.
	tmp := dst + ".part"
	f, err := os.Create(tmp) //#nosec G304 -- path is built from a generated ID
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	size, err := io.Copy(f, r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("finalize upload: %w", err)
	}

	probe, err := s.media.Probe(ctx, dst)
	if err != nil {
		_ = os.Remove(dst)
		return nil, errors.Wrapf(err, errors.CodeValidation, "file %q is not a usable audio capture", originalFilename)
	}

	rec := &domain.Recording{
		ID:               recID,
		OriginalFilename: originalFilename,
		Path:             dst,
		SizeBytes:        size,
		Duration:         probe.Duration,
		SampleRate:       probe.SampleRate,
		Channels:         probe.Channels,
		Codec:            probe.Codec,
		Status:           domain.RecordingStatusUploaded,
		UploadedAt:       time.Now(),
	}

	if err := s.store.Recordings.Create(ctx, rec.ID, rec); err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("store recording: %w", err)
	}

	s.logger.Info("recording stored",
		slog.String("recording_id", rec.ID),
		slog.String("filename", originalFilename),
		slog.String("source", source),
		slog.Float64("duration_sec", rec.Duration),
		slog.Int64("size_bytes", size),
	)

	s.emitter.Emit(sse.NewRecordingUploadedEvent(rec.ID, originalFilename, rec.Duration, source))
	return rec, nil
}

// Get returns one recording.
func (s *RecordingService) Get(ctx context.Context, recordingID string) (*domain.Recording, error) {
	return s.store.Recordings.Get(ctx, recordingID)
}

// List returns all recordings, newest first.
func (s *RecordingService) List(ctx context.Context) ([]*domain.Recording, error) {
	var recs []*domain.Recording
	for rec, err := range s.store.Recordings.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list recordings: %w", err)
		}
		recs = append(recs, rec)
	}
	sortRecordingsNewestFirst(recs)
	return recs, nil
}

// Delete removes a recording, its capture file, its caches, and any
// analysis session attached to it.
func (s *RecordingService) Delete(ctx context.Context, recordingID string) error {
	rec, err := s.store.Recordings.Get(ctx, recordingID)
	if err != nil {
		return err
	}

	if session, err := s.store.Sessions.GetByIndex(ctx, "recording", recordingID); err == nil {
		if err := s.store.Sessions.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("failed to delete session for recording",
				slog.String("recording_id", recordingID),
				slog.Any("error", err))
		}
	}

	if err := s.store.Recordings.Delete(ctx, recordingID); err != nil {
		return err
	}

	if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove capture file",
			slog.String("path", rec.Path),
			slog.Any("error", err))
	}
	_ = os.Remove(s.peaksCachePath(recordingID))

	s.logger.Info("recording deleted", slog.String("recording_id", recordingID))
	s.emitter.Emit(sse.NewRecordingDeletedEvent(recordingID, time.Now()))
	return nil
}

// Path returns the capture file path for streaming.
func (s *RecordingService) Path(ctx context.Context, recordingID string) (string, error) {
	rec, err := s.store.Recordings.Get(ctx, recordingID)
	if err != nil {
		return "", err
	}
	return rec.Path, nil
}

// Peaks returns the waveform peak buckets for a recording. Computed
// once per recording and cached on disk; peaks never change for an
// immutable capture.
func (s *RecordingService) Peaks(ctx context.Context, recordingID string) ([]float64, error) {
	rec, err := s.store.Recordings.Get(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	cachePath := s.peaksCachePath(recordingID)
	if data, err := os.ReadFile(cachePath); err == nil { //#nosec G304 -- path is built from a generated ID
		var peaks []float64
		if err := json.Unmarshal(data, &peaks); err == nil {
			return peaks, nil
		}
		// Corrupt cache entry, recompute.
		_ = os.Remove(cachePath)
	}

	peaks, err := s.media.Peaks(ctx, rec.Path, rec.Duration)
	if err != nil {
		return nil, fmt.Errorf("compute peaks: %w", err)
	}

	if data, err := json.Marshal(peaks); err == nil {
		if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err == nil {
			_ = os.WriteFile(cachePath, data, 0644)
		}
	}

	return peaks, nil
}

// Preview renders a short MP3 excerpt of a recording span and returns
// the cached file path.
func (s *RecordingService) Preview(ctx context.Context, recordingID string, start, end float64) (string, error) {
	rec, err := s.store.Recordings.Get(ctx, recordingID)
	if err != nil {
		return "", err
	}
	if start < 0 || end <= start || start >= rec.Duration {
		return "", errors.Validationf("preview span %.2f-%.2f is outside the recording", start, end)
	}
	if end > rec.Duration {
		end = rec.Duration
	}

	previewDir := filepath.Join(s.storage.CachePath, "previews")
	return s.media.Preview(ctx, rec.Path, previewDir, start, end)
}

// StartCleanup runs the retention sweep until the context is canceled.
// Captures are working files; anything neither exported nor touched
// within the TTL gets dropped.
func (s *RecordingService) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cleanup.Interval)
	defer ticker.Stop()

	s.logger.Info("upload cleanup started",
		slog.Duration("ttl", s.cleanup.UploadTTL),
		slog.Duration("interval", s.cleanup.Interval),
	)

	// One sweep at startup, then periodically.
	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("upload cleanup stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep deletes expired recordings that were never exported.
func (s *RecordingService) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.cleanup.UploadTTL)
	removed := 0

	for rec, err := range s.store.Recordings.List(ctx) {
		if err != nil {
			s.logger.Error("cleanup list failed", slog.Any("error", err))
			return
		}
		if rec.UploadedAt.After(cutoff) {
			continue
		}
		if s.hasCompletedExport(ctx, rec.ID) {
			continue
		}
		if err := s.Delete(ctx, rec.ID); err != nil {
			if stderrors.Is(err, store.ErrNotFound) {
				continue
			}
			s.logger.Warn("cleanup delete failed",
				slog.String("recording_id", rec.ID),
				slog.Any("error", err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("expired uploads removed", slog.Int("count", removed))
	}
}

// hasCompletedExport reports whether any export job finished for this
// recording. Exported captures are kept until deleted explicitly.
func (s *RecordingService) hasCompletedExport(ctx context.Context, recordingID string) bool {
	for job, err := range s.store.Jobs.List(ctx) {
		if err != nil {
			return true // fail safe: keep the capture
		}
		if job.RecordingID == recordingID && job.Status == domain.ExportStatusCompleted {
			return true
		}
	}
	return false
}

func (s *RecordingService) peaksCachePath(recordingID string) string {
	return filepath.Join(s.storage.CachePath, "peaks", recordingID+".json")
}

// sortRecordingsNewestFirst orders by upload time descending.
func sortRecordingsNewestFirst(recs []*domain.Recording) {
	slices.SortFunc(recs, func(a, b *domain.Recording) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})
}
