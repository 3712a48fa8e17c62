package domain

import "time"

// AnalysisParams are the silence detection knobs for one analysis run.
// Zero values fall back to the configured defaults.
type AnalysisParams struct {
	SilenceThresholdDB float64 `json:"silence_threshold_db"`
	MinSilenceSec      float64 `json:"min_silence_sec"`
	MinTrackSec        float64 `json:"min_track_sec"`
}

// MappingPair links one active track to one catalog track. Start and
// End copy the track span at confirmation time so exports read from
// the mapping alone.
type MappingPair struct {
	TrackNumber int      `json:"track_number"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	Position    string   `json:"position"`
	Title       string   `json:"title"`
	DurationSec *float64 `json:"duration_sec,omitempty"`
}

// ExportMapping is a confirmed positional pairing of active tracks to
// catalog tracks. It records the track set revision it was built from;
// any later edit makes it stale.
type ExportMapping struct {
	ReleaseID int           `json:"release_id"`
	Revision  int           `json:"revision"`
	Reversed  bool          `json:"reversed"`
	Pairs     []MappingPair `json:"pairs"`
}

// SilenceWindow is one detected stretch of silence, kept on the session
// so the UI can render it alongside the waveform.
type SilenceWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// AnalysisSession holds the editing state for one recording: the current
// track set and, once confirmed, the export mapping.
type AnalysisSession struct {
	ID          string          `json:"id"`
	RecordingID string          `json:"recording_id"`
	Params      AnalysisParams  `json:"params"`
	TrackSet    *TrackSet       `json:"track_set"`
	Mapping     *ExportMapping  `json:"mapping,omitempty"`
	Silences    []SilenceWindow `json:"silences,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MappingValid reports whether the confirmed mapping still matches the
// current track set.
func (s *AnalysisSession) MappingValid() bool {
	return s.Mapping != nil && s.TrackSet != nil && s.Mapping.Revision == s.TrackSet.Revision
}

// Touch updates the modification timestamp.
func (s *AnalysisSession) Touch() {
	s.UpdatedAt = time.Now()
}
