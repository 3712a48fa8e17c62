package domain

import (
	"fmt"
	"sort"

	"github.com/vinylflow/vinylflow-server/internal/errors"
)

// Track is a single span of a side capture, bounded by start and end
// positions in seconds. Ignored tracks keep their place in the numbering
// but are excluded from export and mapping. Adjusted and DurationBased
// record provenance only; nothing depends on them.
type Track struct {
	Number        int     `json:"number"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Ignored       bool    `json:"ignored,omitempty"`
	Adjusted      bool    `json:"adjusted,omitempty"`
	DurationBased bool    `json:"duration_based,omitempty"`
}

// Duration returns the track length in seconds.
func (t Track) Duration() float64 {
	return t.End - t.Start
}

// Contains reports whether the instant falls inside [start, end).
func (t Track) Contains(at float64) bool {
	return at >= t.Start && at < t.End
}

// TrackSet is the editable set of track boundaries for one recording.
// Tracks are kept sorted by start position and never overlap. Detection
// produces a contiguous set; deleting a track may leave a gap in the
// timeline, which is accepted as the consequence of an explicit
// deletion. Revision increments on every change so that a confirmed
// export mapping can be detected as stale.
type TrackSet struct {
	RecordingID string  `json:"recording_id"`
	Duration    float64 `json:"duration"`
	Tracks      []Track `json:"tracks"`
	Revision    int     `json:"revision"`
}

// NewTrackSet builds a track set from already ordered, non-overlapping
// spans. Numbers are assigned positionally.
func NewTrackSet(recordingID string, duration float64, tracks []Track) *TrackSet {
	ts := &TrackSet{
		RecordingID: recordingID,
		Duration:    duration,
		Tracks:      tracks,
	}
	ts.renumber()
	ts.assertOrdered()
	return ts
}

// Active returns the non-ignored tracks in time order.
func (ts *TrackSet) Active() []Track {
	active := make([]Track, 0, len(ts.Tracks))
	for _, t := range ts.Tracks {
		if !t.Ignored {
			active = append(active, t)
		}
	}
	return active
}

// ActiveCount returns the number of non-ignored tracks.
func (ts *TrackSet) ActiveCount() int {
	n := 0
	for _, t := range ts.Tracks {
		if !t.Ignored {
			n++
		}
	}
	return n
}

// find returns the index of the track with the given number.
func (ts *TrackSet) find(number int) (int, error) {
	for i, t := range ts.Tracks {
		if t.Number == number {
			return i, nil
		}
	}
	return 0, errors.NotFoundf("track %d not found", number)
}

// Split divides the track containing the given instant. The instant
// must fall strictly inside a track span; hitting a boundary, a gap, or
// anywhere outside the timeline fails without mutating anything. Both
// halves come out active, even when the source track was ignored.
func (ts *TrackSet) Split(at float64) error {
	for i, t := range ts.Tracks {
		if !t.Contains(at) {
			continue
		}
		if at == t.Start {
			// Would produce an empty left half.
			return errors.OutOfRangeSplitf("split at %.3fs coincides with a track boundary", at)
		}

		left := Track{Start: t.Start, End: at, Adjusted: true}
		right := Track{Start: at, End: t.End, Adjusted: true}

		ts.Tracks = append(ts.Tracks[:i], append([]Track{left, right}, ts.Tracks[i+1:]...)...)
		ts.renumber()
		ts.bump()
		return nil
	}
	return errors.OutOfRangeSplitf("no track contains %.3fs", at)
}

// Delete removes a track. The vacated span stays unowned; neighbors do
// not grow to fill it.
func (ts *TrackSet) Delete(number int) error {
	i, err := ts.find(number)
	if err != nil {
		return err
	}

	ts.Tracks = append(ts.Tracks[:i], ts.Tracks[i+1:]...)
	ts.renumber()
	ts.bump()
	return nil
}

// Resize moves a track's boundaries, clamping them to the recording.
// A boundary shared with a neighbor moves the neighbor's edge along
// with it; a boundary facing a gap may move freely up to the neighbor.
func (ts *TrackSet) Resize(number int, start, end float64) error {
	i, err := ts.find(number)
	if err != nil {
		return err
	}
	t := ts.Tracks[i]

	// Clamp to the timeline before validating.
	if start < 0 {
		start = 0
	}
	if end > ts.Duration {
		end = ts.Duration
	}
	if start >= end {
		return errors.Validationf("start %.3fs must be before end %.3fs", start, end)
	}

	if i > 0 {
		prev := &ts.Tracks[i-1]
		if prev.End == t.Start {
			// Shared edge: the neighbor's end follows.
			if start <= prev.Start {
				return errors.Validationf("resize would consume track %d", prev.Number)
			}
		} else if start < prev.End {
			return errors.Validationf("resize would overlap track %d", prev.Number)
		}
	}
	if i < len(ts.Tracks)-1 {
		next := &ts.Tracks[i+1]
		if next.Start == t.End {
			if end >= next.End {
				return errors.Validationf("resize would consume track %d", next.Number)
			}
		} else if end > next.Start {
			return errors.Validationf("resize would overlap track %d", next.Number)
		}
	}

	// Apply after validation so a rejected resize leaves no partial edit.
	if i > 0 && ts.Tracks[i-1].End == t.Start {
		ts.Tracks[i-1].End = start
		ts.Tracks[i-1].Adjusted = true
	}
	if i < len(ts.Tracks)-1 && ts.Tracks[i+1].Start == t.End {
		ts.Tracks[i+1].Start = end
		ts.Tracks[i+1].Adjusted = true
	}
	ts.Tracks[i].Start = start
	ts.Tracks[i].End = end
	ts.Tracks[i].Adjusted = true

	ts.bump()
	return nil
}

// SetIgnored flips a track's ignored flag. Numbering is untouched; the
// track keeps its slot.
func (ts *TrackSet) SetIgnored(number int, ignored bool) error {
	i, err := ts.find(number)
	if err != nil {
		return err
	}

	ts.Tracks[i].Ignored = ignored
	ts.bump()
	return nil
}

// ToggleIgnored flips a track's ignored flag regardless of its current
// state and returns the new state. Checkbox and waveform-click entry
// points both funnel here so a single logical action can never
// double-toggle.
func (ts *TrackSet) ToggleIgnored(number int) (bool, error) {
	i, err := ts.find(number)
	if err != nil {
		return false, err
	}

	ts.Tracks[i].Ignored = !ts.Tracks[i].Ignored
	ts.bump()
	return ts.Tracks[i].Ignored, nil
}

// renumber sorts tracks by start position and assigns numbers 1..N.
func (ts *TrackSet) renumber() {
	sort.Slice(ts.Tracks, func(i, j int) bool {
		return ts.Tracks[i].Start < ts.Tracks[j].Start
	})
	for i := range ts.Tracks {
		ts.Tracks[i].Number = i + 1
	}
}

// bump records a change, invalidating mappings built against the previous
// revision, and re-checks the ordering invariant.
func (ts *TrackSet) bump() {
	ts.Revision++
	ts.assertOrdered()
}

// assertOrdered panics when tracks are out of order, overlapping, or
// empty spans. These states can only come from a bug in an edit
// operation, never from user input.
func (ts *TrackSet) assertOrdered() {
	for i, t := range ts.Tracks {
		if t.Start >= t.End {
			panic(fmt.Sprintf("trackset %s: track %d has non-positive span %.3f-%.3f", ts.RecordingID, t.Number, t.Start, t.End))
		}
		if i > 0 && ts.Tracks[i-1].End > t.Start {
			panic(fmt.Sprintf("trackset %s: tracks %d and %d overlap", ts.RecordingID, ts.Tracks[i-1].Number, t.Number))
		}
	}
}
