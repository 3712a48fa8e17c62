package segmentation

import (
	"fmt"

	"github.com/vinylflow/vinylflow-server/internal/domain"
)

// edgeEpsilon is how close a silence interval has to sit to the start
// or end of the recording to count as leading or trailing silence.
const edgeEpsilon = 0.01

// Reconcile turns detected silence intervals into a contiguous track
// set covering the recording. Each interior silence contributes one
// boundary at its midpoint, so the quiet groove between songs is split
// evenly between the outgoing and incoming track. Leading and trailing
// silence trims the first and last track instead of producing a
// near-empty one. Spans shorter than minTrackSec are folded into the
// track that follows them; a short final span folds backwards.
func Reconcile(recordingID string, totalDuration float64, silences []SilenceInterval, minTrackSec float64) *domain.TrackSet {
	lo := 0.0
	hi := totalDuration

	var points []float64
	for _, s := range silences {
		switch {
		case s.Start <= edgeEpsilon:
			if s.End > lo {
				lo = s.End
			}
		case s.End >= totalDuration-edgeEpsilon:
			if s.Start < hi {
				hi = s.Start
			}
		default:
			points = append(points, s.Start+s.Duration()/2)
		}
	}

	if lo >= hi {
		// The whole recording fell below the threshold. Rather than
		// produce nothing, hand back a single track covering everything
		// and let the operator sort it out.
		return domain.NewTrackSet(recordingID, totalDuration, []domain.Track{
			{Start: 0, End: totalDuration},
		})
	}

	spans := buildSpans(lo, hi, points)
	spans = mergeShortSpans(spans, minTrackSec)

	if len(spans) == 0 {
		panic(fmt.Sprintf("segmentation: no tracks for recording %s over %.3fs", recordingID, totalDuration))
	}

	tracks := make([]domain.Track, len(spans))
	for i, sp := range spans {
		tracks[i] = domain.Track{Start: sp.start, End: sp.end}
	}
	return domain.NewTrackSet(recordingID, totalDuration, tracks)
}

type span struct {
	start, end float64
}

// buildSpans slices [lo, hi] at each split point, skipping points that
// fall outside the usable range or would produce an empty span.
func buildSpans(lo, hi float64, points []float64) []span {
	var spans []span
	prev := lo
	for _, p := range points {
		if p <= prev || p >= hi {
			continue
		}
		spans = append(spans, span{start: prev, end: p})
		prev = p
	}
	spans = append(spans, span{start: prev, end: hi})
	return spans
}

// mergeShortSpans folds every span shorter than minTrackSec into the
// span after it, which keeps a short intro attached to the song it
// leads into. A short final span has nothing following, so it folds
// into the span before it. A lone short span is kept as is.
func mergeShortSpans(spans []span, minTrackSec float64) []span {
	var out []span
	var carry *span

	for i, sp := range spans {
		if carry != nil {
			sp.start = carry.start
			carry = nil
		}
		last := i == len(spans)-1
		if sp.end-sp.start < minTrackSec && !last {
			carry = &sp
			continue
		}
		out = append(out, sp)
	}

	// Fold a surviving short tail into its predecessor.
	if n := len(out); n >= 2 && out[n-1].end-out[n-1].start < minTrackSec {
		out[n-2].end = out[n-1].end
		out = out[:n-1]
	}
	return out
}
