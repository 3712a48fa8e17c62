package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/errors"
)

func sec(v float64) *float64 { return &v }

func threeTrackSet() *domain.TrackSet {
	return domain.NewTrackSet("rec-1", 700, []domain.Track{
		{Start: 0, End: 225},
		{Start: 225, End: 480},
		{Start: 480, End: 700},
	})
}

func sideARelease() *domain.Release {
	return &domain.Release{
		ID:     123456,
		Artist: "Example Artist",
		Title:  "Example Album",
		Tracklist: []domain.ReleaseTrack{
			{Position: "A1", Title: "Opener", DurationRaw: "3:45", DurationSec: sec(225)},
			{Position: "A2", Title: "Middle", DurationRaw: "4:15", DurationSec: sec(255)},
			{Position: "A3", Title: "Closer", DurationRaw: "3:40", DurationSec: sec(220)},
		},
	}
}

func TestReconcileCounts(t *testing.T) {
	ts := threeTrackSet()
	rel := sideARelease()

	report := ReconcileCounts(ts, rel)
	assert.Equal(t, CountReport{Detected: 3, Catalog: 3, Delta: 0, Status: CountMatch}, report)

	require.NoError(t, ts.SetIgnored(2, true))
	report = ReconcileCounts(ts, rel)
	assert.Equal(t, CountReport{Detected: 2, Catalog: 3, Delta: -1, Status: CountFewerDetected}, report)

	require.NoError(t, ts.SetIgnored(2, false))
	require.NoError(t, ts.Split(100))
	report = ReconcileCounts(ts, rel)
	assert.Equal(t, CountMoreDetected, report.Status)
	assert.Equal(t, 1, report.Delta)
}

func TestBuild(t *testing.T) {
	ts := threeTrackSet()
	rel := sideARelease()

	m, err := Build(ts, rel, false)
	require.NoError(t, err)

	assert.Equal(t, rel.ID, m.ReleaseID)
	assert.Equal(t, ts.Revision, m.Revision)
	assert.False(t, m.Reversed)
	require.Len(t, m.Pairs, 3)

	assert.Equal(t, 1, m.Pairs[0].TrackNumber)
	assert.Equal(t, "A1", m.Pairs[0].Position)
	assert.Equal(t, "Opener", m.Pairs[0].Title)
	assert.Equal(t, float64(0), m.Pairs[0].Start)
	assert.Equal(t, float64(225), m.Pairs[0].End)
	assert.Equal(t, 3, m.Pairs[2].TrackNumber)
	assert.Equal(t, "A3", m.Pairs[2].Position)
}

func TestBuildReversed(t *testing.T) {
	m, err := Build(threeTrackSet(), sideARelease(), true)
	require.NoError(t, err)

	require.Len(t, m.Pairs, 3)
	assert.Equal(t, 3, m.Pairs[0].TrackNumber)
	assert.Equal(t, "A1", m.Pairs[0].Position)
	assert.Equal(t, 2, m.Pairs[1].TrackNumber)
	assert.Equal(t, "A2", m.Pairs[1].Position)
	assert.Equal(t, 1, m.Pairs[2].TrackNumber)
	assert.Equal(t, "A3", m.Pairs[2].Position)
}

func TestBuildSkipsIgnoredTracks(t *testing.T) {
	ts := threeTrackSet()
	require.NoError(t, ts.SetIgnored(2, true))

	rel := sideARelease()
	rel.Tracklist = rel.Tracklist[:2]

	m, err := Build(ts, rel, false)
	require.NoError(t, err)

	require.Len(t, m.Pairs, 2)
	assert.Equal(t, 1, m.Pairs[0].TrackNumber)
	assert.Equal(t, 3, m.Pairs[1].TrackNumber)
}

func TestBuildLengthMismatch(t *testing.T) {
	ts := threeTrackSet()
	rel := sideARelease()
	rel.Tracklist = rel.Tracklist[:2]

	_, err := Build(ts, rel, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMappingLengthMismatch))
}

func TestBuildDeterministic(t *testing.T) {
	first, err := Build(threeTrackSet(), sideARelease(), true)
	require.NoError(t, err)
	second, err := Build(threeTrackSet(), sideARelease(), true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompareDurationsWithinTolerance(t *testing.T) {
	m, err := Build(threeTrackSet(), sideARelease(), false)
	require.NoError(t, err)

	// A2 runs 255s in the catalog but 255s detected; A3 is 220s both ways.
	warnings := CompareDurations(m)
	assert.Empty(t, warnings)
}

func TestCompareDurationsFlagsDrift(t *testing.T) {
	ts := domain.NewTrackSet("rec-1", 700, []domain.Track{
		{Start: 0, End: 200},
		{Start: 200, End: 480},
		{Start: 480, End: 700},
	})

	m, err := Build(ts, sideARelease(), false)
	require.NoError(t, err)

	warnings := CompareDurations(m)
	require.Len(t, warnings, 2)
	assert.Equal(t, 1, warnings[0].TrackNumber)
	assert.Equal(t, float64(225), warnings[0].Expected)
	assert.Equal(t, float64(200), warnings[0].Actual)
}

func TestCompareDurationsSpotsMergedTracks(t *testing.T) {
	// A first track that runs as long as A1 and A2 together.
	m := &domain.ExportMapping{
		ReleaseID: 123456,
		Pairs: []domain.MappingPair{
			{TrackNumber: 1, Start: 0, End: 480, Position: "A1", DurationSec: sec(225)},
			{TrackNumber: 2, Start: 480, End: 700, Position: "A2", DurationSec: sec(255)},
		},
	}

	warnings := CompareDurations(m)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Message, "may contain both A1 and A2")
}