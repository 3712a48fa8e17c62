package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/errors"
	"github.com/vinylflow/vinylflow-server/internal/id"
	"github.com/vinylflow/vinylflow-server/internal/mapping"
	"github.com/vinylflow/vinylflow-server/internal/segmentation"
	"github.com/vinylflow/vinylflow-server/internal/sse"
	"github.com/vinylflow/vinylflow-server/internal/store"
)

// AnalysisService runs silence detection and owns all boundary edits.
// Edits for one session are serialized through a per-session lock;
// concurrent editors are resolved by revision checks, not last write
// wins.
type AnalysisService struct {
	store    *store.Store
	detector *segmentation.Detector
	catalog  *CatalogService
	settings *SettingsService
	emitter  *sse.Manager
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(
	store *store.Store,
	detector *segmentation.Detector,
	catalog *CatalogService,
	settings *SettingsService,
	emitter *sse.Manager,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		store:    store,
		detector: detector,
		catalog:  catalog,
		settings: settings,
		emitter:  emitter,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing edits for one session.
func (s *AnalysisService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// Analyze runs silence detection on a recording and builds the initial
// track set. Re-analyzing replaces the session's track set and drops
// any confirmed mapping.
func (s *AnalysisService) Analyze(ctx context.Context, recordingID string, params domain.AnalysisParams) (*domain.AnalysisSession, error) {
	rec, err := s.store.Recordings.Get(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	params, err = s.fillParams(ctx, params)
	if err != nil {
		return nil, err
	}

	segParams := segmentation.Params{
		ThresholdDB:   params.SilenceThresholdDB,
		MinSilenceSec: params.MinSilenceSec,
		MinTrackSec:   params.MinTrackSec,
	}

	silences, err := s.detector.Detect(ctx, rec.Path, rec.Duration, segParams)
	if err != nil {
		s.emitter.Emit(sse.NewAnalysisFailedEvent(recordingID, err.Error()))
		return nil, fmt.Errorf("silence detection: %w", err)
	}

	ts := segmentation.Reconcile(rec.ID, rec.Duration, silences, segParams.MinTrackSec)

	windows := make([]domain.SilenceWindow, len(silences))
	for i, sil := range silences {
		windows[i] = domain.SilenceWindow{Start: sil.Start, End: sil.End}
	}

	session, err := s.store.Sessions.GetByIndex(ctx, "recording", recordingID)
	switch {
	case err == nil:
		// Re-analysis: keep the session identity, advance the revision
		// so stale clients notice.
		lock := s.sessionLock(session.ID)
		lock.Lock()
		defer lock.Unlock()

		ts.Revision = session.TrackSet.Revision + 1
		session.TrackSet = ts
		session.Params = params
		session.Silences = windows
		session.Mapping = nil
		session.Touch()
		if err := s.store.Sessions.Update(ctx, session.ID, session); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}

	case stderrors.Is(err, store.ErrNotFound):
		sessionID, err := id.Generate("as")
		if err != nil {
			return nil, fmt.Errorf("generate session id: %w", err)
		}
		now := time.Now()
		session = &domain.AnalysisSession{
			ID:          sessionID,
			RecordingID: recordingID,
			Params:      params,
			TrackSet:    ts,
			Silences:    windows,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.Sessions.Create(ctx, session.ID, session); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}

	default:
		return nil, fmt.Errorf("load session: %w", err)
	}

	rec.MarkAnalyzed()
	if err := s.store.Recordings.Update(ctx, rec.ID, rec); err != nil {
		s.logger.Warn("failed to mark recording analyzed",
			slog.String("recording_id", rec.ID),
			slog.Any("error", err))
	}

	s.logger.Info("analysis completed",
		slog.String("recording_id", recordingID),
		slog.String("session_id", session.ID),
		slog.Int("silences", len(silences)),
		slog.Int("tracks", len(session.TrackSet.Tracks)),
	)
	s.emitter.Emit(sse.NewAnalysisCompletedEvent(recordingID, session.ID, len(session.TrackSet.Tracks)))

	return session, nil
}

// GetSession returns one analysis session.
func (s *AnalysisService) GetSession(ctx context.Context, sessionID string) (*domain.AnalysisSession, error) {
	return s.store.Sessions.Get(ctx, sessionID)
}

// GetSessionByRecording returns the session attached to a recording.
func (s *AnalysisService) GetSessionByRecording(ctx context.Context, recordingID string) (*domain.AnalysisSession, error) {
	return s.store.Sessions.GetByIndex(ctx, "recording", recordingID)
}

// withTrackSet loads a session under its lock, verifies the caller's
// revision, applies the edit, and persists. All boundary edits funnel
// through here.
func (s *AnalysisService) withTrackSet(ctx context.Context, sessionID string, revision int, fn func(*domain.TrackSet) error) (*domain.AnalysisSession, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrackSet == nil {
		return nil, errors.Conflict("session has no track set; run analysis first")
	}
	if revision != session.TrackSet.Revision {
		return nil, errors.Conflictf("edit is based on revision %d but the track set is at revision %d", revision, session.TrackSet.Revision)
	}

	if err := fn(session.TrackSet); err != nil {
		return nil, err
	}

	session.Touch()
	if err := s.store.Sessions.Update(ctx, sessionID, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// SplitTrack splits the track containing the given time.
func (s *AnalysisService) SplitTrack(ctx context.Context, sessionID string, revision int, at float64) (*domain.AnalysisSession, error) {
	return s.withTrackSet(ctx, sessionID, revision, func(ts *domain.TrackSet) error {
		return ts.Split(at)
	})
}

// DeleteTrack removes a track from the set.
func (s *AnalysisService) DeleteTrack(ctx context.Context, sessionID string, revision, number int) (*domain.AnalysisSession, error) {
	return s.withTrackSet(ctx, sessionID, revision, func(ts *domain.TrackSet) error {
		return ts.Delete(number)
	})
}

// ResizeTrack moves a track's boundaries.
func (s *AnalysisService) ResizeTrack(ctx context.Context, sessionID string, revision, number int, start, end float64) (*domain.AnalysisSession, error) {
	return s.withTrackSet(ctx, sessionID, revision, func(ts *domain.TrackSet) error {
		return ts.Resize(number, start, end)
	})
}

// SetTrackIgnored sets a track's ignored flag.
func (s *AnalysisService) SetTrackIgnored(ctx context.Context, sessionID string, revision, number int, ignored bool) (*domain.AnalysisSession, error) {
	return s.withTrackSet(ctx, sessionID, revision, func(ts *domain.TrackSet) error {
		return ts.SetIgnored(number, ignored)
	})
}

// ToggleTrackIgnored flips a track's ignored flag and reports the new
// state. Both the checkbox and the waveform click go through this one
// operation so a double submission cannot silently toggle twice.
func (s *AnalysisService) ToggleTrackIgnored(ctx context.Context, sessionID string, revision, number int) (*domain.AnalysisSession, bool, error) {
	var state bool
	session, err := s.withTrackSet(ctx, sessionID, revision, func(ts *domain.TrackSet) error {
		var err error
		state, err = ts.ToggleIgnored(number)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return session, state, nil
}

// SplitByCatalog replaces the track set with boundaries derived from
// the catalog tracklist durations. The fallback for recordings with no
// usable inter-track silence.
func (s *AnalysisService) SplitByCatalog(ctx context.Context, sessionID string, revision, releaseID int) (*domain.AnalysisSession, error) {
	release, err := s.catalog.GetRelease(ctx, releaseID, false)
	if err != nil {
		return nil, err
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrackSet == nil {
		return nil, errors.Conflict("session has no track set; run analysis first")
	}
	if revision != session.TrackSet.Revision {
		return nil, errors.Conflictf("edit is based on revision %d but the track set is at revision %d", revision, session.TrackSet.Revision)
	}

	rec, err := s.store.Recordings.Get(ctx, session.RecordingID)
	if err != nil {
		return nil, err
	}

	durations, err := segmentation.CatalogDurations(release.Tracklist)
	if err != nil {
		return nil, err
	}

	ts, err := segmentation.SplitByDurations(rec.ID, rec.Duration, durations)
	if err != nil {
		return nil, err
	}

	ts.Revision = session.TrackSet.Revision + 1
	session.TrackSet = ts
	session.Mapping = nil
	session.Touch()
	if err := s.store.Sessions.Update(ctx, sessionID, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	s.logger.Info("track set rebuilt from catalog durations",
		slog.String("session_id", sessionID),
		slog.Int("release_id", releaseID),
		slog.Int("tracks", len(ts.Tracks)),
	)
	return session, nil
}

// ReconcileCounts compares detected active tracks against the catalog
// tracklist length.
func (s *AnalysisService) ReconcileCounts(ctx context.Context, sessionID string, releaseID int) (*mapping.CountReport, error) {
	session, err := s.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrackSet == nil {
		return nil, errors.Conflict("session has no track set; run analysis first")
	}

	release, err := s.catalog.GetRelease(ctx, releaseID, false)
	if err != nil {
		return nil, err
	}

	report := mapping.ReconcileCounts(session.TrackSet, release)
	return &report, nil
}

// ConfirmMapping pairs active tracks with the catalog tracklist and
// stores the result on the session. Returns duration warnings for the
// UI; warnings never block confirmation.
func (s *AnalysisService) ConfirmMapping(ctx context.Context, sessionID string, revision, releaseID int, reversed bool) (*domain.AnalysisSession, []mapping.DurationWarning, error) {
	release, err := s.catalog.GetRelease(ctx, releaseID, false)
	if err != nil {
		return nil, nil, err
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.TrackSet == nil {
		return nil, nil, errors.Conflict("session has no track set; run analysis first")
	}
	if revision != session.TrackSet.Revision {
		return nil, nil, errors.Conflictf("mapping is based on revision %d but the track set is at revision %d", revision, session.TrackSet.Revision)
	}

	m, err := mapping.Build(session.TrackSet, release, reversed)
	if err != nil {
		return nil, nil, err
	}
	warnings := mapping.CompareDurations(m)

	session.Mapping = m
	session.Touch()
	if err := s.store.Sessions.Update(ctx, sessionID, session); err != nil {
		return nil, nil, fmt.Errorf("update session: %w", err)
	}

	s.logger.Info("mapping confirmed",
		slog.String("session_id", sessionID),
		slog.Int("release_id", releaseID),
		slog.Bool("reversed", reversed),
		slog.Int("pairs", len(m.Pairs)),
		slog.Int("duration_warnings", len(warnings)),
	)
	return session, warnings, nil
}

// fillParams substitutes effective settings for zero-valued knobs.
func (s *AnalysisService) fillParams(ctx context.Context, params domain.AnalysisParams) (domain.AnalysisParams, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return params, err
	}
	if params.SilenceThresholdDB == 0 {
		params.SilenceThresholdDB = settings.SilenceThresholdDB
	}
	if params.MinSilenceSec == 0 {
		params.MinSilenceSec = settings.MinSilenceSec
	}
	if params.MinTrackSec == 0 {
		params.MinTrackSec = settings.MinTrackSec
	}

	if params.SilenceThresholdDB >= 0 {
		return params, errors.Validationf("silence threshold must be negative dBFS, got %g", params.SilenceThresholdDB)
	}
	if params.MinSilenceSec <= 0 || params.MinTrackSec <= 0 {
		return params, errors.Validation("silence and track length minimums must be positive")
	}
	return params, nil
}
