package domain

import "time"

// RecordingStatus represents the lifecycle state of an uploaded capture.
type RecordingStatus string

const (
	RecordingStatusUploaded RecordingStatus = "uploaded"
	RecordingStatusAnalyzed RecordingStatus = "analyzed"
)

// Recording is an uploaded side-long WAV capture of a vinyl record.
// The stored filename is a UUID so concurrent uploads of identically
// named captures cannot collide.
type Recording struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
	Path             string `json:"path"`
	SizeBytes        int64  `json:"size_bytes"`

	// Probed stream properties
	Duration   float64 `json:"duration"` // seconds
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`

	Status RecordingStatus `json:"status"`

	UploadedAt time.Time  `json:"uploaded_at"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`
}

// MarkAnalyzed records a completed boundary analysis.
func (r *Recording) MarkAnalyzed() {
	r.Status = RecordingStatusAnalyzed
	now := time.Now()
	r.AnalyzedAt = &now
}
