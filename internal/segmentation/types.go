package segmentation

// SilenceInterval is one stretch of audio below the detection threshold,
// in seconds from the start of the recording.
type SilenceInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the interval length in seconds.
func (s SilenceInterval) Duration() float64 {
	return s.End - s.Start
}

// Params are the silence detection knobs. Zero values fall back to the
// defaults, which work for most clean vinyl captures.
type Params struct {
	// ThresholdDB is the level below which audio counts as silence.
	ThresholdDB float64
	// MinSilenceSec is the shortest gap treated as a track break.
	MinSilenceSec float64
	// MinTrackSec is the shortest span kept as its own track.
	MinTrackSec float64
}

const (
	DefaultThresholdDB   = -40.0
	DefaultMinSilenceSec = 1.5
	DefaultMinTrackSec   = 30.0
)

// WithDefaults fills unset fields with the default detection values.
func (p Params) WithDefaults() Params {
	if p.ThresholdDB == 0 {
		p.ThresholdDB = DefaultThresholdDB
	}
	if p.MinSilenceSec <= 0 {
		p.MinSilenceSec = DefaultMinSilenceSec
	}
	if p.MinTrackSec <= 0 {
		p.MinTrackSec = DefaultMinTrackSec
	}
	return p
}
