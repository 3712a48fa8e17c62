package history

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylflow/vinylflow-server/internal/store"
)

func newTestLedger(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(id string, completedAt time.Time) *Entry {
	return &Entry{
		ID:          id,
		RecordingID: "rec-1",
		ReleaseID:   249504,
		Artist:      "Nirvana",
		Album:       "Nevermind",
		Year:        1991,
		Label:       "DGC",
		TrackCount:  6,
		OutputDir:   "/exports/Nirvana - Nevermind",
		CompletedAt: completedAt,
	}
}

func TestAddAndGet(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Millisecond)
	require.NoError(t, s.Add(ctx, entry("job-1", now)))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Nirvana", got.Artist)
	assert.Equal(t, 6, got.TrackCount)
	assert.True(t, got.CompletedAt.Equal(now))
}

func TestAddIsWriteOnce(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, entry("job-1", time.Now())))
	err := s.Add(ctx, entry("job-1", time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetMissing(t *testing.T) {
	s := newTestLedger(t)
	_, err := s.Get(context.Background(), "job-nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"job-1", "job-2", "job-3"} {
		require.NoError(t, s.Add(ctx, entry(id, base.Add(time.Duration(i)*time.Minute))))
	}

	entries, err := s.Recent(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "job-3", entries[0].ID)
	assert.Equal(t, "job-2", entries[1].ID)

	entries, err = s.Recent(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "job-1", entries[0].ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAllWalksOldestFirst(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"job-1", "job-2"} {
		require.NoError(t, s.Add(ctx, entry(id, base.Add(time.Duration(i)*time.Minute))))
	}

	var ids []string
	err := s.All(ctx, func(e *Entry) error {
		ids = append(ids, e.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"job-1", "job-2"}, ids)
}
