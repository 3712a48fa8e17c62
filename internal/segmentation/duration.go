package segmentation

import (
	"strconv"
	"strings"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/errors"
)

// ParseDuration converts a catalog duration string into seconds.
// Accepted forms are "M:SS" and "H:MM:SS"; minute and second fields
// after the first must be two digits in 0..59.
func ParseDuration(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.UnparseableDurationf("empty duration")
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errors.UnparseableDurationf("unrecognized duration %q", raw)
	}

	var total float64
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, errors.UnparseableDurationf("unrecognized duration %q", raw)
		}
		if i > 0 && (n > 59 || len(part) != 2) {
			return 0, errors.UnparseableDurationf("unrecognized duration %q", raw)
		}
		total = total*60 + float64(n)
	}
	return total, nil
}

// CatalogDurations parses every duration in a release tracklist,
// all or nothing. A missing duration fails with
// DurationDataUnavailable and a malformed one with UnparseableDuration,
// so a half-usable tracklist never produces a partial split.
func CatalogDurations(tracks []domain.ReleaseTrack) ([]float64, error) {
	durations := make([]float64, len(tracks))
	for i, t := range tracks {
		if strings.TrimSpace(t.DurationRaw) == "" {
			return nil, errors.DurationDataUnavailablef("track %s has no duration", t.Position)
		}
		sec, err := ParseDuration(t.DurationRaw)
		if err != nil {
			return nil, err
		}
		durations[i] = sec
	}
	return durations, nil
}

// SplitByDurations replaces detection entirely, carving the recording
// into one contiguous track per catalog duration starting at zero. The
// final track is stretched or truncated to end exactly at the total
// duration, absorbing any drift between the catalog times and the
// actual capture.
func SplitByDurations(recordingID string, totalDuration float64, durations []float64) (*domain.TrackSet, error) {
	if len(durations) == 0 {
		return nil, errors.Validationf("no durations to split by")
	}

	tracks := make([]domain.Track, len(durations))
	cursor := 0.0
	for i, d := range durations {
		if d <= 0 {
			return nil, errors.UnparseableDurationf("track %d has non-positive duration", i+1)
		}
		tracks[i] = domain.Track{Start: cursor, End: cursor + d, DurationBased: true}
		cursor += d
	}

	last := &tracks[len(tracks)-1]
	if last.Start >= totalDuration {
		return nil, errors.Validationf("catalog durations exceed the recording length")
	}
	last.End = totalDuration

	return domain.NewTrackSet(recordingID, totalDuration, tracks), nil
}
