// Package search provides full-text search over the digitization
// ledger using Bleve, so a growing collection stays findable by
// artist, album, or label.
package search

import (
	"github.com/vinylflow/vinylflow-server/internal/store/history"
)

// Document is the shape indexed for each completed digitization.
type Document struct {
	ID          string `json:"id"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Label       string `json:"label,omitempty"`
	Year        int    `json:"year,omitempty"`
	TrackCount  int    `json:"track_count"`
	CompletedAt int64  `json:"completed_at"` // Unix millis
}

// FromEntry converts a ledger entry into an indexable document.
func FromEntry(e *history.Entry) *Document {
	return &Document{
		ID:          e.ID,
		Artist:      e.Artist,
		Album:       e.Album,
		Label:       e.Label,
		Year:        e.Year,
		TrackCount:  e.TrackCount,
		CompletedAt: e.CompletedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names, so
// fields line up with the index mapping regardless of Go naming.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":           d.ID,
		"artist":       d.Artist,
		"album":        d.Album,
		"track_count":  d.TrackCount,
		"completed_at": d.CompletedAt,
	}
	if d.Label != "" {
		m["label"] = d.Label
	}
	if d.Year > 0 {
		m["year"] = d.Year
	}
	return m
}
