package domain

import "time"

// ServerSettings contains the runtime-adjustable knobs exposed through
// the config API. Stored as a single key in Badger; values here override
// the static config defaults.
type ServerSettings struct {
	OutputDir          string    `json:"output_dir"`
	FlacCompression    int       `json:"flac_compression"`
	SilenceThresholdDB float64   `json:"silence_threshold_db"`
	MinSilenceSec      float64   `json:"min_silence_sec"`
	MinTrackSec        float64   `json:"min_track_sec"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewServerSettings creates settings with the given defaults.
func NewServerSettings(outputDir string, flacCompression int, thresholdDB, minSilenceSec, minTrackSec float64) *ServerSettings {
	return &ServerSettings{
		OutputDir:          outputDir,
		FlacCompression:    flacCompression,
		SilenceThresholdDB: thresholdDB,
		MinSilenceSec:      minSilenceSec,
		MinTrackSec:        minTrackSec,
		UpdatedAt:          time.Now(),
	}
}
