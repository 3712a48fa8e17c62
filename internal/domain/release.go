package domain

import "time"

// ReleaseTrack is one catalog tracklist entry. DurationSec is nil when
// the catalog omits the duration; DurationRaw keeps the original string.
type ReleaseTrack struct {
	Position    string   `json:"position"` // e.g. "A1", "B3"
	Title       string   `json:"title"`
	DurationRaw string   `json:"duration_raw,omitempty"`
	DurationSec *float64 `json:"duration_sec,omitempty"`
}

// Release is a Discogs release as used for reconciliation and tagging.
type Release struct {
	ID            int            `json:"id"`
	Artist        string         `json:"artist"`
	Title         string         `json:"title"`
	Year          int            `json:"year,omitempty"`
	Label         string         `json:"label,omitempty"`
	CatalogNumber string         `json:"catalog_number,omitempty"`
	Genres        []string       `json:"genres,omitempty"`
	Styles        []string       `json:"styles,omitempty"`
	CoverURL      string         `json:"cover_url,omitempty"`
	CoverBlurHash string         `json:"cover_blurhash,omitempty"`
	Notes         string         `json:"notes,omitempty"` // markdown
	Tracklist     []ReleaseTrack `json:"tracklist"`
	FetchedAt     time.Time      `json:"fetched_at"`
}

// AlbumFolder returns the "Artist - Title" directory name before
// filesystem sanitization.
func (r *Release) AlbumFolder() string {
	return r.Artist + " - " + r.Title
}
