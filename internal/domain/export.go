package domain

import "time"

// ExportStatus represents the state of an export job.
type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "pending"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusCompleted ExportStatus = "completed"
	ExportStatusFailed    ExportStatus = "failed"
	ExportStatusCanceled  ExportStatus = "canceled"
)

// TrackResultStatus represents the state of a single track extraction.
type TrackResultStatus string

const (
	TrackResultPending    TrackResultStatus = "pending"
	TrackResultExtracting TrackResultStatus = "extracting"
	TrackResultDone       TrackResultStatus = "done"
	TrackResultFailed     TrackResultStatus = "failed"
	TrackResultSkipped    TrackResultStatus = "skipped" // canceled before scheduling
)

// TrackResult is the outcome of extracting one mapped track.
type TrackResult struct {
	Number   int     `json:"number"`   // track number in the set
	Position string  `json:"position"` // catalog position, e.g. "A1"
	Title    string  `json:"title"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`

	Path   string            `json:"path,omitempty"`
	Status TrackResultStatus `json:"status"`
	Error  string            `json:"error,omitempty"`
}

// ExportJob represents one album export: every mapped track extracted
// from the side capture into tagged FLACs. Tracks run concurrently; a
// single track failure fails the job only after the remaining scheduled
// tracks have finished.
type ExportJob struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	RecordingID string `json:"recording_id"`
	ReleaseID   int    `json:"release_id"`

	// Album metadata stamped into the output tags
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Year     int    `json:"year,omitempty"`
	Label    string `json:"label,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`

	OutputDir string `json:"output_dir"`
	Reversed  bool   `json:"reversed"`

	// Job state
	Status   ExportStatus  `json:"status"`
	Progress float64       `json:"progress"` // 0..1
	Error    string        `json:"error,omitempty"`
	Tracks   []TrackResult `json:"tracks"`

	// Timestamps
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MarkRunning transitions the job to running state.
func (j *ExportJob) MarkRunning() {
	j.Status = ExportStatusRunning
	now := time.Now()
	j.StartedAt = &now
	j.Progress = 0
}

// MarkCompleted transitions the job to completed state.
func (j *ExportJob) MarkCompleted() {
	j.Status = ExportStatusCompleted
	j.Progress = 1
	now := time.Now()
	j.CompletedAt = &now
}

// MarkFailed transitions the job to failed state with an error message.
func (j *ExportJob) MarkFailed(err string) {
	j.Status = ExportStatusFailed
	j.Error = err
	now := time.Now()
	j.CompletedAt = &now
}

// MarkCanceled transitions the job to canceled state. Tracks still
// pending are marked skipped.
func (j *ExportJob) MarkCanceled() {
	j.Status = ExportStatusCanceled
	now := time.Now()
	j.CompletedAt = &now
	for i := range j.Tracks {
		if j.Tracks[i].Status == TrackResultPending {
			j.Tracks[i].Status = TrackResultSkipped
		}
	}
}

// SetProgress updates the job's progress fraction.
func (j *ExportJob) SetProgress(frac float64) {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	j.Progress = frac
}

// FinishedTracks counts tracks that reached a terminal state.
func (j *ExportJob) FinishedTracks() int {
	n := 0
	for _, t := range j.Tracks {
		switch t.Status {
		case TrackResultDone, TrackResultFailed, TrackResultSkipped:
			n++
		}
	}
	return n
}

// FailedTracks counts tracks whose extraction failed.
func (j *ExportJob) FailedTracks() int {
	n := 0
	for _, t := range j.Tracks {
		if t.Status == TrackResultFailed {
			n++
		}
	}
	return n
}
