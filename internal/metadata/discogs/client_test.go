package discogs

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("test-token", "VinylFlowTest/1.0", 100, slog.New(slog.DiscardHandler))
	c.baseURL = srv.URL
	return c
}

const releaseJSON = `{
	"id": 249504,
	"title": "Nevermind",
	"year": 1991,
	"artists": [{"name": "Nirvana (2)", "join": ""}],
	"labels": [{"name": "DGC", "catno": "DGC-24425"}],
	"genres": ["Rock"],
	"styles": ["Grunge"],
	"notes": "Recorded at [l=Sound City]. <b>Remastered</b> edition.",
	"images": [
		{"type": "secondary", "uri": "https://img.example/back.jpg"},
		{"type": "primary", "uri": "https://img.example/front.jpg"}
	],
	"tracklist": [
		{"position": "", "type_": "heading", "title": "Side B", "duration": ""},
		{"position": "B1", "type_": "track", "title": "Polly", "duration": "2:57"},
		{"position": "B2", "type_": "track", "title": "Untitled", "duration": ""},
		{"position": "A1", "type_": "track", "title": "Smells Like Teen Spirit", "duration": "5:01"}
	]
}`

func TestGetRelease(t *testing.T) {
	var gotAuth, gotAgent string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		require.Equal(t, "/releases/249504", r.URL.Path)
		w.Write([]byte(releaseJSON))
	}))

	rel, err := client.GetRelease(context.Background(), 249504)
	require.NoError(t, err)

	assert.Equal(t, "Discogs token=test-token", gotAuth)
	assert.Equal(t, "VinylFlowTest/1.0", gotAgent)

	assert.Equal(t, 249504, rel.ID)
	assert.Equal(t, "Nirvana", rel.Artist)
	assert.Equal(t, "Nevermind", rel.Title)
	assert.Equal(t, 1991, rel.Year)
	assert.Equal(t, "DGC", rel.Label)
	assert.Equal(t, "DGC-24425", rel.CatalogNumber)
	assert.Equal(t, "https://img.example/front.jpg", rel.CoverURL)
	assert.Equal(t, "Recorded at Sound City. **Remastered** edition.", rel.Notes)

	// The heading row is dropped, durations parse where present, and
	// the API's display order comes back sorted into side order.
	require.Len(t, rel.Tracklist, 3)
	assert.Equal(t, "A1", rel.Tracklist[0].Position)
	assert.Equal(t, "Smells Like Teen Spirit", rel.Tracklist[0].Title)
	require.NotNil(t, rel.Tracklist[0].DurationSec)
	assert.Equal(t, float64(301), *rel.Tracklist[0].DurationSec)
	assert.Equal(t, "B2", rel.Tracklist[2].Position)
	assert.Nil(t, rel.Tracklist[2].DurationSec)
}

func TestGetReleaseNotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetRelease(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/database/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "release", q.Get("type"))
		assert.Equal(t, "Nirvana", q.Get("artist"))
		assert.Equal(t, "Nevermind", q.Get("release_title"))
		assert.Equal(t, "25", q.Get("per_page"))

		w.Write([]byte(`{"results": [
			{"id": 249504, "title": "Nirvana - Nevermind", "year": "1991",
			 "label": ["DGC"], "catno": "DGC-24425", "country": "US",
			 "format": ["Vinyl", "LP"], "thumb": "t.jpg", "cover_image": "c.jpg"}
		]}`))
	}))

	results, err := client.Search(context.Background(), SearchParams{
		Artist: "Nirvana",
		Title:  "Nevermind",
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 249504, results[0].ID)
	assert.Equal(t, "DGC", results[0].Label)
	assert.Equal(t, "Vinyl", results[0].Format)
	assert.Equal(t, "1991", results[0].Year)
}

func TestSearchRateLimited(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.Search(context.Background(), SearchParams{Query: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestJoinArtists(t *testing.T) {
	assert.Equal(t, "Miles Davis", joinArtists([]rawArtist{{Name: "Miles Davis"}}))
	assert.Equal(t, "Ella Fitzgerald, Louis Armstrong", joinArtists([]rawArtist{
		{Name: "Ella Fitzgerald", Join: ","},
		{Name: "Louis Armstrong"},
	}))
	assert.Equal(t, "Isaac Hayes & David Porter", joinArtists([]rawArtist{
		{Name: "Isaac Hayes", Join: "&"},
		{Name: "David Porter"},
	}))
}
