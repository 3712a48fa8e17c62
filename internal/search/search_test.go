package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylflow/vinylflow-server/internal/store/history"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(Options{
		DataPath: t.TempDir(),
		Logger:   slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func seedIndex(t *testing.T, idx *Index) {
	t.Helper()
	now := time.Now()
	docs := []*Document{
		{ID: "job-1", Artist: "Miles Davis", Album: "Kind of Blue", Label: "Columbia", Year: 1959, TrackCount: 5, CompletedAt: now.Add(-2 * time.Hour).UnixMilli()},
		{ID: "job-2", Artist: "John Coltrane", Album: "Blue Train", Label: "Blue Note", Year: 1958, TrackCount: 5, CompletedAt: now.Add(-time.Hour).UnixMilli()},
		{ID: "job-3", Artist: "Nirvana", Album: "Nevermind", Label: "DGC", Year: 1991, TrackCount: 12, CompletedAt: now.UnixMilli()},
	}
	require.NoError(t, idx.IndexDocuments(docs))
}

func TestSearchByArtist(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	res, err := idx.Search(context.Background(), Params{Query: "coltrane", Limit: 10})
	require.NoError(t, err)

	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "job-2", res.Hits[0].ID)
	assert.Equal(t, "John Coltrane", res.Hits[0].Artist)
	assert.Equal(t, 1958, res.Hits[0].Year)
}

func TestSearchByAlbumPrefix(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	res, err := idx.Search(context.Background(), Params{Query: "neverm", Limit: 10})
	require.NoError(t, err)

	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "job-3", res.Hits[0].ID)
}

func TestSearchYearRange(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	res, err := idx.Search(context.Background(), Params{MinYear: 1958, MaxYear: 1959, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, uint64(2), res.Total)
}

func TestSearchRecentSort(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	res, err := idx.Search(context.Background(), Params{SortBy: "recent", Limit: 10})
	require.NoError(t, err)

	require.Len(t, res.Hits, 3)
	assert.Equal(t, "job-3", res.Hits[0].ID)
	assert.Equal(t, "job-1", res.Hits[2].ID)
}

func TestDeleteDocument(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	require.NoError(t, idx.DeleteDocument("job-1"))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestRebuildEmptiesIndex(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	require.NoError(t, idx.Rebuild())

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestFromEntry(t *testing.T) {
	now := time.Now()
	e := &history.Entry{
		ID:          "job-9",
		RecordingID: "rec-9",
		Artist:      "Portishead",
		Album:       "Dummy",
		Label:       "Go! Beat",
		Year:        1994,
		TrackCount:  11,
		CompletedAt: now,
	}

	doc := FromEntry(e)
	assert.Equal(t, "job-9", doc.ID)
	assert.Equal(t, "Portishead", doc.Artist)
	assert.Equal(t, now.UnixMilli(), doc.CompletedAt)
}
