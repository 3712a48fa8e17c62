package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/errors"
	"github.com/vinylflow/vinylflow-server/internal/id"
	"github.com/vinylflow/vinylflow-server/internal/media"
	"github.com/vinylflow/vinylflow-server/internal/sse"
	"github.com/vinylflow/vinylflow-server/internal/store"
	"github.com/vinylflow/vinylflow-server/internal/store/history"
	"github.com/vinylflow/vinylflow-server/internal/textutil"
)

// trackComment is stamped into every exported file.
const trackComment = "Digitized from vinyl"

// ExportService runs album exports: each mapped track is cut from the
// side capture into a tagged FLAC. One job runs at a time; tracks
// within a job extract concurrently up to the configured limit.
type ExportService struct {
	store    *store.Store
	history  *HistoryService
	catalog  *CatalogService
	settings *SettingsService
	media    *media.Toolchain
	emitter  *sse.Manager
	cfg      config.ExportConfig
	logger   *slog.Logger

	// Worker management
	ctx       context.Context //nolint:containedctx // Context needed for worker lifecycle management
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	jobNotify chan struct{} // Signal that new jobs are available

	// Cancel functions for running jobs
	runningMu sync.Mutex
	running   map[string]context.CancelFunc
}

// NewExportService creates a new export service.
func NewExportService(
	store *store.Store,
	historySvc *HistoryService,
	catalog *CatalogService,
	settings *SettingsService,
	toolchain *media.Toolchain,
	emitter *sse.Manager,
	cfg config.ExportConfig,
	logger *slog.Logger,
) *ExportService {
	ctx, cancel := context.WithCancel(context.Background())

	return &ExportService{
		store:     store,
		history:   historySvc,
		catalog:   catalog,
		settings:  settings,
		media:     toolchain,
		emitter:   emitter,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		jobNotify: make(chan struct{}, 1),
		running:   make(map[string]context.CancelFunc),
	}
}

// Start begins the export worker.
func (s *ExportService) Start() {
	s.logger.Info("starting export worker",
		slog.Int("max_concurrent_tracks", s.cfg.MaxConcurrent),
	)

	// Reset any jobs that were running when the server stopped.
	s.recoverStalledJobs()

	s.wg.Add(1)
	go s.worker()
}

// Stop gracefully shuts down the export service.
func (s *ExportService) Stop() {
	s.logger.Info("stopping export service")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("export service stopped")
}

// NotifyNewJob signals the worker that a new job is available.
func (s *ExportService) NotifyNewJob() {
	select {
	case s.jobNotify <- struct{}{}:
	default:
		// Already notified
	}
}

// CreateJob queues an export for a session with a confirmed, current
// mapping.
func (s *ExportService) CreateJob(ctx context.Context, sessionID string) (*domain.ExportJob, error) {
	session, err := s.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Mapping == nil {
		return nil, errors.Conflict("session has no confirmed mapping")
	}
	if !session.MappingValid() {
		return nil, errors.Conflictf("mapping was confirmed at revision %d but the track set is at revision %d; confirm again",
			session.Mapping.Revision, session.TrackSet.Revision)
	}

	rec, err := s.store.Recordings.Get(ctx, session.RecordingID)
	if err != nil {
		return nil, err
	}

	release, err := s.catalog.GetRelease(ctx, session.Mapping.ReleaseID, false)
	if err != nil {
		return nil, err
	}

	// Reject a second job while one is still queued or running for this
	// session.
	for job, err := range s.store.Jobs.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		if job.SessionID == sessionID &&
			(job.Status == domain.ExportStatusPending || job.Status == domain.ExportStatusRunning) {
			return nil, errors.Conflictf("export job %s is already %s for this session", job.ID, job.Status)
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	jobID, err := id.Generate("ej")
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}

	albumDir := textutil.SanitizeFilename(release.AlbumFolder())
	outputDir := filepath.Join(settings.OutputDir, albumDir)

	tracks := make([]domain.TrackResult, len(session.Mapping.Pairs))
	for i, pair := range session.Mapping.Pairs {
		tracks[i] = domain.TrackResult{
			Number:   pair.TrackNumber,
			Position: pair.Position,
			Title:    pair.Title,
			Start:    pair.Start,
			End:      pair.End,
			Status:   domain.TrackResultPending,
		}
	}

	job := &domain.ExportJob{
		ID:          jobID,
		SessionID:   sessionID,
		RecordingID: rec.ID,
		ReleaseID:   release.ID,
		Artist:      release.Artist,
		Album:       release.Title,
		Year:        release.Year,
		Label:       release.Label,
		CoverURL:    release.CoverURL,
		OutputDir:   outputDir,
		Reversed:    session.Mapping.Reversed,
		Status:      domain.ExportStatusPending,
		Tracks:      tracks,
		CreatedAt:   time.Now(),
	}

	if err := s.store.Jobs.Create(ctx, job.ID, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.Info("created export job",
		slog.String("job_id", job.ID),
		slog.String("session_id", sessionID),
		slog.String("album", release.AlbumFolder()),
		slog.Int("tracks", len(tracks)),
	)

	s.NotifyNewJob()
	return job, nil
}

// GetJob returns one export job.
func (s *ExportService) GetJob(ctx context.Context, jobID string) (*domain.ExportJob, error) {
	return s.store.Jobs.Get(ctx, jobID)
}

// ListJobs returns all export jobs.
func (s *ExportService) ListJobs(ctx context.Context) ([]*domain.ExportJob, error) {
	var jobs []*domain.ExportJob
	for job, err := range s.store.Jobs.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Cancel stops a pending or running job. Tracks not yet scheduled are
// skipped; tracks mid-extraction are interrupted.
func (s *ExportService) Cancel(ctx context.Context, jobID string) error {
	job, err := s.store.Jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	switch job.Status {
	case domain.ExportStatusPending:
		job.MarkCanceled()
		if err := s.store.Jobs.Update(ctx, jobID, job); err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		s.emitter.Emit(sse.NewExportCanceledEvent(jobID))
		return nil

	case domain.ExportStatusRunning:
		s.runningMu.Lock()
		cancel, ok := s.running[jobID]
		s.runningMu.Unlock()
		if !ok {
			return errors.Conflictf("job %s is marked running but has no active worker", jobID)
		}
		cancel()
		return nil

	default:
		return errors.Conflictf("job %s is already %s", jobID, job.Status)
	}
}

// worker processes export jobs one at a time.
func (s *ExportService) worker() {
	defer s.wg.Done()

	s.logger.Debug("export worker started")

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("export worker stopping")
			return
		case <-s.jobNotify:
			s.processNextJob()
		case <-time.After(5 * time.Second):
			// Periodic check for jobs (in case notification was missed)
			s.processNextJob()
		}
	}
}

// processNextJob claims and runs the oldest pending job.
func (s *ExportService) processNextJob() {
	ctx := s.ctx

	var next *domain.ExportJob
	for job, err := range s.store.Jobs.List(ctx) {
		if err != nil {
			s.logger.Error("failed to list jobs", slog.Any("error", err))
			return
		}
		if job.Status != domain.ExportStatusPending {
			continue
		}
		if next == nil || job.CreatedAt.Before(next.CreatedAt) {
			next = job
		}
	}
	if next == nil {
		return
	}

	next.MarkRunning()
	if err := s.store.Jobs.Update(ctx, next.ID, next); err != nil {
		s.logger.Error("failed to claim job", slog.Any("error", err))
		return
	}

	s.runJob(next)
}

// runJob extracts every mapped track and finishes the job.
func (s *ExportService) runJob(job *domain.ExportJob) {
	jobCtx, cancelJob := context.WithCancel(s.ctx)
	defer cancelJob()

	s.runningMu.Lock()
	s.running[job.ID] = cancelJob
	s.runningMu.Unlock()
	defer func() {
		s.runningMu.Lock()
		delete(s.running, job.ID)
		s.runningMu.Unlock()
	}()

	s.emitter.SetExporting(true)
	s.emitter.Emit(sse.NewExportStartedEvent(job.ID, job.SessionID, len(job.Tracks)))

	s.logger.Info("export started",
		slog.String("job_id", job.ID),
		slog.String("output_dir", job.OutputDir),
		slog.Int("tracks", len(job.Tracks)),
	)

	if err := s.extractTracks(jobCtx, job); err != nil {
		s.finishFailed(job, err)
		return
	}

	// Server shutdown mid-job: leave the job running so stalled-job
	// recovery requeues it on the next start.
	if s.ctx.Err() != nil {
		return
	}

	if jobCtx.Err() != nil {
		s.finishCanceled(job)
		return
	}

	if failed := job.FailedTracks(); failed > 0 {
		s.finishFailed(job, fmt.Errorf("%d of %d tracks failed to extract", failed, len(job.Tracks)))
		return
	}

	s.writeCover(job)
	s.finishCompleted(job)
}

// extractTracks runs the per-track extractions with bounded
// concurrency. Returns an error only for faults that abort the whole
// job; individual track failures are recorded on the track.
func (s *ExportService) extractTracks(ctx context.Context, job *domain.ExportJob) error {
	rec, err := s.store.Recordings.Get(ctx, job.RecordingID)
	if err != nil {
		return fmt.Errorf("load recording: %w", err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err := os.MkdirAll(job.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	coverPath := s.coverPath(job)

	maxConcurrent := s.cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)

	var (
		jobMu sync.Mutex // guards job mutation and store writes
		wg    sync.WaitGroup
	)

	for i := range job.Tracks {
		// Tracks not yet scheduled when the job is canceled stay
		// pending and are marked skipped at the end.
		if ctx.Err() != nil {
			break
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			s.extractOneTrack(ctx, job, rec, settings, coverPath, idx, &jobMu)
		}(i)
	}

	wg.Wait()
	return nil
}

// extractOneTrack cuts a single track and records the outcome.
func (s *ExportService) extractOneTrack(
	ctx context.Context,
	job *domain.ExportJob,
	rec *domain.Recording,
	settings *domain.ServerSettings,
	coverPath string,
	idx int,
	jobMu *sync.Mutex,
) {
	track := &job.Tracks[idx]

	jobMu.Lock()
	track.Status = domain.TrackResultExtracting
	s.persistJob(job)
	jobMu.Unlock()

	filename := textutil.SanitizeFilename(fmt.Sprintf("%s-%s", track.Position, track.Title)) + ".flac"
	dst := filepath.Join(job.OutputDir, filename)

	tags := media.Tags{
		Artist:      job.Artist,
		Album:       job.Album,
		Title:       track.Title,
		TrackNumber: idx + 1,
		Label:       job.Label,
		ReleaseID:   job.ReleaseID,
		Comment:     trackComment,
	}
	if job.Year > 0 {
		tags.Date = fmt.Sprintf("%d", job.Year)
	}

	err := s.media.ExtractTrack(ctx, media.ExtractRequest{
		Source:      rec.Path,
		Dest:        dst,
		Start:       track.Start,
		End:         track.End,
		Compression: settings.FlacCompression,
		CoverPath:   coverPath,
		Tags:        tags,
	})

	jobMu.Lock()
	defer jobMu.Unlock()

	status := "completed"
	errMsg := ""
	switch {
	case err != nil && stderrors.Is(err, context.Canceled):
		track.Status = domain.TrackResultSkipped
		status = "failed"
		errMsg = "canceled"
	case err != nil:
		track.Status = domain.TrackResultFailed
		track.Error = err.Error()
		status = "failed"
		errMsg = err.Error()
		s.logger.Error("track extraction failed",
			slog.String("job_id", job.ID),
			slog.String("position", track.Position),
			slog.Any("error", err))
	default:
		track.Status = domain.TrackResultDone
		track.Path = dst
		s.logger.Info("track extracted",
			slog.String("job_id", job.ID),
			slog.String("position", track.Position),
			slog.String("file", filename))
	}

	job.SetProgress(float64(job.FinishedTracks()) / float64(len(job.Tracks)))
	s.persistJob(job)

	if track.Status != domain.TrackResultSkipped {
		s.emitter.Emit(sse.NewExportTrackEvent(
			job.ID, track.Number, len(job.Tracks), track.Position, track.Title, status, errMsg,
		))
	}
}

// persistJob writes the job state. Callers must hold the job mutex.
func (s *ExportService) persistJob(job *domain.ExportJob) {
	if err := s.store.Jobs.Update(s.ctx, job.ID, job); err != nil {
		s.logger.Warn("failed to persist job state",
			slog.String("job_id", job.ID),
			slog.Any("error", err))
	}
}

// coverPath locates the cached release cover, already downscaled by
// the downloader, for embedding into each track. Empty when no cover
// was fetched.
func (s *ExportService) coverPath(job *domain.ExportJob) string {
	if job.ReleaseID == 0 || s.catalog == nil {
		return ""
	}
	path, ok := s.catalog.CoverPath(job.ReleaseID)
	if !ok {
		return ""
	}
	return path
}

// writeCover copies the cached release cover into the album folder.
func (s *ExportService) writeCover(job *domain.ExportJob) {
	src := s.coverPath(job)
	if src == "" {
		return
	}
	data, err := os.ReadFile(src) //#nosec G304 -- path comes from our own cover storage
	if err != nil {
		s.logger.Warn("failed to read cached cover", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(filepath.Join(job.OutputDir, "cover.jpg"), data, 0644); err != nil {
		s.logger.Warn("failed to write album cover", slog.Any("error", err))
	}
}

// finishCompleted marks the job done, writes the ledger row, and
// indexes it for search.
func (s *ExportService) finishCompleted(job *domain.ExportJob) {
	job.MarkCompleted()
	if err := s.store.Jobs.Update(s.ctx, job.ID, job); err != nil {
		s.logger.Error("failed to update completed job", slog.Any("error", err))
	}

	entry := &history.Entry{
		ID:          job.ID,
		RecordingID: job.RecordingID,
		ReleaseID:   job.ReleaseID,
		Artist:      job.Artist,
		Album:       job.Album,
		Year:        job.Year,
		Label:       job.Label,
		TrackCount:  len(job.Tracks),
		OutputDir:   job.OutputDir,
		CompletedAt: *job.CompletedAt,
	}
	if err := s.history.Record(s.ctx, entry); err != nil {
		s.logger.Error("failed to record digitization",
			slog.String("job_id", job.ID),
			slog.Any("error", err))
	}

	s.logger.Info("export completed",
		slog.String("job_id", job.ID),
		slog.String("output_dir", job.OutputDir),
		slog.Int("tracks", len(job.Tracks)),
	)

	s.emitter.SetExporting(false)
	s.emitter.Emit(sse.NewExportCompletedEvent(job.ID, job.OutputDir, len(job.Tracks), 0))
}

// finishFailed marks the job failed.
func (s *ExportService) finishFailed(job *domain.ExportJob, err error) {
	s.logger.Error("export failed",
		slog.String("job_id", job.ID),
		slog.Any("error", err),
	)

	job.MarkFailed(err.Error())
	if updateErr := s.store.Jobs.Update(s.ctx, job.ID, job); updateErr != nil {
		s.logger.Error("failed to update failed job", slog.Any("error", updateErr))
	}

	s.emitter.SetExporting(false)
	s.emitter.Emit(sse.NewExportFailedEvent(job.ID, err.Error()))
}

// finishCanceled marks the job canceled.
func (s *ExportService) finishCanceled(job *domain.ExportJob) {
	job.MarkCanceled()
	if err := s.store.Jobs.Update(s.ctx, job.ID, job); err != nil {
		s.logger.Error("failed to update canceled job", slog.Any("error", err))
	}

	s.logger.Info("export canceled", slog.String("job_id", job.ID))
	s.emitter.SetExporting(false)
	s.emitter.Emit(sse.NewExportCanceledEvent(job.ID))
}

// recoverStalledJobs resets any jobs that were running when the server
// stopped.
func (s *ExportService) recoverStalledJobs() {
	ctx := context.Background()

	recovered := 0
	for job, err := range s.store.Jobs.List(ctx) {
		if err != nil {
			s.logger.Error("failed to list jobs for recovery", slog.Any("error", err))
			return
		}
		if job.Status != domain.ExportStatusRunning {
			continue
		}

		s.logger.Info("recovering stalled export job", slog.String("job_id", job.ID))

		job.Status = domain.ExportStatusPending
		job.Progress = 0
		job.StartedAt = nil
		for i := range job.Tracks {
			if job.Tracks[i].Status == domain.TrackResultExtracting {
				job.Tracks[i].Status = domain.TrackResultPending
			}
		}

		if err := s.store.Jobs.Update(ctx, job.ID, job); err != nil {
			s.logger.Error("failed to reset stalled job", slog.Any("error", err))
			continue
		}
		recovered++
	}

	if recovered > 0 {
		s.logger.Info("recovered stalled jobs", slog.Int("count", recovered))
		s.NotifyNewJob()
	}
}
