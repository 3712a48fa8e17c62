package discogs

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/vinylflow/vinylflow-server/internal/domain"
)

var (
	sideAndNumber = regexp.MustCompile(`^([A-Z]+)(\d+)$`)
	bareLetter    = regexp.MustCompile(`^[A-Z]$`)
)

// repeatedLetter reports whether pos is the same letter two or more
// times, like "AA" or "CCC".
func repeatedLetter(pos string) bool {
	if len(pos) < 2 {
		return false
	}
	first := pos[0]
	if first < 'A' || first > 'Z' {
		return false
	}
	for i := 1; i < len(pos); i++ {
		if pos[i] != first {
			return false
		}
	}
	return true
}

// NormalizeTracklist rewrites the quirkier position styles Discogs
// carries into the conventional side-and-number form, in place.
//
// Three cases come up in practice. Repeated letters stand for the nth
// track on a side, so "AA" becomes "A2". Bare letters repeated across
// rows ("A", "A", "B") get numbered within their side. A tracklist
// that is entirely numeric ("1".."6") is assumed to be a single disc
// with the first half on side A and the rest on side B.
func NormalizeTracklist(tracks []domain.ReleaseTrack) {
	if len(tracks) == 0 {
		return
	}

	if allNumeric(tracks) {
		half := (len(tracks) + 1) / 2
		for i := range tracks {
			if i < half {
				tracks[i].Position = fmt.Sprintf("A%d", i+1)
			} else {
				tracks[i].Position = fmt.Sprintf("B%d", i-half+1)
			}
		}
		return
	}

	for i := range tracks {
		if pos := tracks[i].Position; repeatedLetter(pos) {
			tracks[i].Position = fmt.Sprintf("%c%d", pos[0], len(pos))
		}
	}

	// Number bare letters by their order of appearance on each side.
	seen := make(map[string]int)
	hasBare := false
	for _, t := range tracks {
		if bareLetter.MatchString(t.Position) {
			hasBare = true
			seen[t.Position]++
		}
	}
	if !hasBare {
		return
	}
	counter := make(map[string]int)
	for i := range tracks {
		pos := tracks[i].Position
		if !bareLetter.MatchString(pos) {
			continue
		}
		counter[pos]++
		tracks[i].Position = fmt.Sprintf("%s%d", pos, counter[pos])
	}
}

func allNumeric(tracks []domain.ReleaseTrack) bool {
	for _, t := range tracks {
		if _, err := strconv.Atoi(t.Position); err != nil {
			return false
		}
	}
	return true
}

// SortTracklist orders tracks by side letter, then by track number
// within the side. The release API sometimes returns the tracklist in
// display order rather than side order, and track pairing is
// positional, so sorting here keeps titles on the right spans.
// Positions that never normalized into side-and-number form keep
// their relative order after the sortable ones.
func SortTracklist(tracks []domain.ReleaseTrack) {
	sort.SliceStable(tracks, func(i, j int) bool {
		si, ni, oki := splitPosition(tracks[i].Position)
		sj, nj, okj := splitPosition(tracks[j].Position)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if si != sj {
			return si < sj
		}
		return ni < nj
	})
}

// splitPosition breaks "B12" into side "B" and index 12.
func splitPosition(pos string) (side string, index int, ok bool) {
	m := sideAndNumber.FindStringSubmatch(pos)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// ValidPosition reports whether a position is already in the
// side-and-number form exports expect.
func ValidPosition(pos string) bool {
	return sideAndNumber.MatchString(pos)
}
