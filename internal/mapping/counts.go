// Package mapping pairs detected tracks with catalog tracklists for
// export, and reports how well the two agree.
package mapping

import "github.com/vinylflow/vinylflow-server/internal/domain"

// CountStatus classifies the relationship between detected and catalog
// track counts.
type CountStatus string

const (
	CountMatch         CountStatus = "match"
	CountFewerDetected CountStatus = "fewer_detected"
	CountMoreDetected  CountStatus = "more_detected"
)

// CountReport compares the active tracks in a set against a catalog
// tracklist. Ignored tracks are not counted; they will not be exported.
type CountReport struct {
	Detected int         `json:"detected"`
	Catalog  int         `json:"catalog"`
	Delta    int         `json:"delta"`
	Status   CountStatus `json:"status"`
}

// ReconcileCounts builds a count report for a track set against a
// release. It only observes; fixing a mismatch is the operator's job,
// by editing boundaries or splitting by catalog durations.
func ReconcileCounts(ts *domain.TrackSet, release *domain.Release) CountReport {
	report := CountReport{
		Detected: ts.ActiveCount(),
		Catalog:  len(release.Tracklist),
	}
	report.Delta = report.Detected - report.Catalog

	switch {
	case report.Delta == 0:
		report.Status = CountMatch
	case report.Delta < 0:
		report.Status = CountFewerDetected
	default:
		report.Status = CountMoreDetected
	}
	return report
}
