package segmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/errors"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"3:45", 225},
		{"0:59", 59},
		{"12:00", 720},
		{"1:02:03", 3723},
		{" 4:20 ", 260},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDuration(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDurationRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "225", "3:60", "3:5", "1:2:03", "abc", "-1:30", "3:45:12:00"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseDuration(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrUnparseableDuration))
		})
	}
}

func TestCatalogDurations(t *testing.T) {
	tracks := []domain.ReleaseTrack{
		{Position: "A1", DurationRaw: "3:45"},
		{Position: "A2", DurationRaw: "5:10"},
	}

	got, err := CatalogDurations(tracks)
	require.NoError(t, err)
	assert.Equal(t, []float64{225, 310}, got)
}

func TestCatalogDurationsMissingEntry(t *testing.T) {
	tracks := []domain.ReleaseTrack{
		{Position: "A1", DurationRaw: "3:45"},
		{Position: "A2"},
	}

	_, err := CatalogDurations(tracks)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDurationDataUnavailable))
}

func TestCatalogDurationsMalformedEntry(t *testing.T) {
	tracks := []domain.ReleaseTrack{
		{Position: "A1", DurationRaw: "3:45"},
		{Position: "A2", DurationRaw: "five minutes"},
	}

	_, err := CatalogDurations(tracks)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnparseableDuration))
}

func TestSplitByDurations(t *testing.T) {
	ts, err := SplitByDurations("rec-1", 150, []float64{60, 90})
	require.NoError(t, err)

	assert.Equal(t, [][2]float64{
		{0, 60},
		{60, 150},
	}, spansOf(ts))
	for _, tr := range ts.Tracks {
		assert.True(t, tr.DurationBased)
		assert.False(t, tr.Ignored)
	}
}

func TestSplitByDurationsLastTrackAbsorbsDrift(t *testing.T) {
	// Catalog shorter than the capture: the last track stretches.
	ts, err := SplitByDurations("rec-1", 155, []float64{60, 90})
	require.NoError(t, err)
	assert.Equal(t, float64(155), ts.Tracks[1].End)

	// Catalog longer than the capture: the last track truncates.
	ts, err = SplitByDurations("rec-1", 145, []float64{60, 90})
	require.NoError(t, err)
	assert.Equal(t, float64(145), ts.Tracks[1].End)
}

func TestSplitByDurationsRejectsImpossibleCatalog(t *testing.T) {
	_, err := SplitByDurations("rec-1", 150, []float64{160, 30})
	require.Error(t, err)

	// Cumulative overshoot rejects the whole catalog rather than
	// collapsing the tail into zero-length tracks.
	_, err = SplitByDurations("rec-1", 150, []float64{100, 100, 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = SplitByDurations("rec-1", 150, nil)
	require.Error(t, err)

	_, err = SplitByDurations("rec-1", 150, []float64{60, 0})
	require.Error(t, err)
}
