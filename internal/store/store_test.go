package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylflow/vinylflow-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), slog.New(slog.DiscardHandler), NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordingCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &domain.Recording{
		ID:               "rec-abc",
		OriginalFilename: "side-a.wav",
		Path:             "/data/uploads/side-a.wav",
		Duration:         1226.5,
		Status:           domain.RecordingStatusUploaded,
		UploadedAt:       time.Now(),
	}

	require.NoError(t, s.Recordings.Create(ctx, rec.ID, rec))

	got, err := s.Recordings.Get(ctx, "rec-abc")
	require.NoError(t, err)
	assert.Equal(t, "side-a.wav", got.OriginalFilename)
	assert.Equal(t, 1226.5, got.Duration)

	got.Status = domain.RecordingStatusAnalyzed
	require.NoError(t, s.Recordings.Update(ctx, got.ID, got))

	got, err = s.Recordings.Get(ctx, "rec-abc")
	require.NoError(t, err)
	assert.Equal(t, domain.RecordingStatusAnalyzed, got.Status)

	require.NoError(t, s.Recordings.Delete(ctx, "rec-abc"))
	_, err = s.Recordings.Get(ctx, "rec-abc")
	assert.ErrorIs(t, err, ErrNotFound)

	// Idempotent delete.
	require.NoError(t, s.Recordings.Delete(ctx, "rec-abc"))
}

func TestCreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &domain.Recording{ID: "rec-1"}
	require.NoError(t, s.Recordings.Create(ctx, rec.ID, rec))
	assert.ErrorIs(t, s.Recordings.Create(ctx, rec.ID, rec), ErrAlreadyExists)
}

func TestSessionRecordingIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &domain.AnalysisSession{
		ID:          "sess-1",
		RecordingID: "rec-1",
		TrackSet:    domain.NewTrackSet("rec-1", 100, []domain.Track{{Start: 0, End: 100}}),
	}
	require.NoError(t, s.Sessions.Create(ctx, sess.ID, sess))

	got, err := s.Sessions.GetByIndex(ctx, "recording", "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)

	// A second session for the same recording conflicts.
	dup := &domain.AnalysisSession{ID: "sess-2", RecordingID: "rec-1"}
	err = s.Sessions.Create(ctx, dup.ID, dup)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// Deleting the session frees the index key.
	require.NoError(t, s.Sessions.Delete(ctx, "sess-1"))
	require.NoError(t, s.Sessions.Create(ctx, dup.ID, dup))
}

func TestJobsList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"job-1", "job-2", "job-3"} {
		job := &domain.ExportJob{ID: id, SessionID: "sess-1", Status: domain.ExportStatusPending}
		require.NoError(t, s.Jobs.Create(ctx, id, job))
	}

	var ids []string
	for job, err := range s.Jobs.List(ctx) {
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	assert.ElementsMatch(t, []string{"job-1", "job-2", "job-3"}, ids)
}

func TestReleaseCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rel := &domain.Release{ID: 249504, Artist: "Nirvana", Title: "Nevermind", FetchedAt: time.Now()}
	require.NoError(t, s.Releases.Create(ctx, ReleaseKey(rel.ID), rel))

	got, err := s.Releases.Get(ctx, ReleaseKey(249504))
	require.NoError(t, err)
	assert.Equal(t, "Nevermind", got.Title)
}

func TestServerSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetServerSettings(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	settings := domain.NewServerSettings("/exports", 8, -40, 1.5, 30)
	require.NoError(t, s.UpdateServerSettings(ctx, settings))

	got, err := s.GetServerSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/exports", got.OutputDir)
	assert.Equal(t, 8, got.FlacCompression)
}
