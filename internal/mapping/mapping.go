package mapping

import (
	"fmt"
	"math"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/errors"
)

// durationTolerance is how far a track may drift from its catalog
// duration before it is worth flagging, in seconds.
const durationTolerance = 5.0

// Build pairs the active tracks of a set positionally with a release
// tracklist. With reversed set, the last active track pairs with the
// first catalog track, for sides captured in reverse or mislabeled
// sides. Counts must match exactly; anything else fails with
// MappingLengthMismatch. Pairs come out in catalog order and the same
// inputs always produce the same mapping.
func Build(ts *domain.TrackSet, release *domain.Release, reversed bool) (*domain.ExportMapping, error) {
	active := ts.Active()
	if len(active) != len(release.Tracklist) {
		return nil, errors.MappingLengthMismatchf(
			"%d active tracks cannot map to %d catalog tracks", len(active), len(release.Tracklist))
	}
	if len(active) == 0 {
		return nil, errors.Validation("no active tracks to map")
	}

	if reversed {
		rev := make([]domain.Track, len(active))
		for i, t := range active {
			rev[len(active)-1-i] = t
		}
		active = rev
	}

	pairs := make([]domain.MappingPair, len(active))
	for i, t := range active {
		ct := release.Tracklist[i]
		pair := domain.MappingPair{
			TrackNumber: t.Number,
			Start:       t.Start,
			End:         t.End,
			Position:    ct.Position,
			Title:       ct.Title,
		}
		if ct.DurationSec != nil {
			d := *ct.DurationSec
			pair.DurationSec = &d
		}
		pairs[i] = pair
	}

	return &domain.ExportMapping{
		ReleaseID: release.ID,
		Revision:  ts.Revision,
		Reversed:  reversed,
		Pairs:     pairs,
	}, nil
}

// DurationWarning flags one pair whose track length disagrees with the
// catalog.
type DurationWarning struct {
	TrackNumber int     `json:"track_number"`
	Position    string  `json:"position"`
	Expected    float64 `json:"expected"`
	Actual      float64 `json:"actual"`
	Message     string  `json:"message"`
}

// CompareDurations checks each mapped track against its catalog
// duration. A track close to the combined length of its catalog track
// and the next one probably holds two songs that detection failed to
// separate, which gets its own message.
func CompareDurations(m *domain.ExportMapping) []DurationWarning {
	var warnings []DurationWarning
	for i, p := range m.Pairs {
		if p.DurationSec == nil {
			continue
		}
		actual := p.End - p.Start
		expected := *p.DurationSec
		if math.Abs(actual-expected) <= durationTolerance {
			continue
		}

		w := DurationWarning{
			TrackNumber: p.TrackNumber,
			Position:    p.Position,
			Expected:    expected,
			Actual:      actual,
			Message: fmt.Sprintf("track %d runs %.0fs but %s is listed at %.0fs",
				p.TrackNumber, actual, p.Position, expected),
		}

		if i+1 < len(m.Pairs) && m.Pairs[i+1].DurationSec != nil {
			merged := expected + *m.Pairs[i+1].DurationSec
			if math.Abs(actual-merged) <= durationTolerance {
				w.Message = fmt.Sprintf("track %d may contain both %s and %s",
					p.TrackNumber, p.Position, m.Pairs[i+1].Position)
			}
		}

		warnings = append(warnings, w)
	}
	return warnings
}
