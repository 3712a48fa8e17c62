package discogs

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/segmentation"
	"github.com/vinylflow/vinylflow-server/internal/textutil"
)

// GetRelease fetches a release and converts it to the domain shape,
// with tracklist positions normalized and durations parsed where
// present.
func (c *Client) GetRelease(ctx context.Context, id int) (*domain.Release, error) {
	body, err := c.doRequest(ctx, "/releases/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, wrapError("getRelease", id, err)
	}

	var raw rawRelease
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, wrapError("getRelease", id, fmt.Errorf("parse response: %w", err))
	}

	return rawToRelease(&raw), nil
}

func rawToRelease(raw *rawRelease) *domain.Release {
	rel := &domain.Release{
		ID:       raw.ID,
		Artist:   textutil.CleanArtist(joinArtists(raw.Artists)),
		Title:    raw.Title,
		Year:     raw.Year,
		Genres:   raw.Genres,
		Styles:   raw.Styles,
		CoverURL: selectCoverURL(raw.Images),
		Notes:    cleanNotes(raw.Notes),
	}
	if len(raw.Labels) > 0 {
		rel.Label = raw.Labels[0].Name
		rel.CatalogNumber = raw.Labels[0].CatNo
	}

	for _, t := range raw.Tracklist {
		// Headings and index rows are layout, not tracks.
		if t.Type != "" && t.Type != "track" {
			continue
		}
		track := domain.ReleaseTrack{
			Position:    strings.ToUpper(strings.TrimSpace(t.Position)),
			Title:       strings.TrimSpace(t.Title),
			DurationRaw: strings.TrimSpace(t.Duration),
		}
		if track.DurationRaw != "" {
			if sec, err := segmentation.ParseDuration(track.DurationRaw); err == nil {
				track.DurationSec = &sec
			}
		}
		rel.Tracklist = append(rel.Tracklist, track)
	}
	NormalizeTracklist(rel.Tracklist)
	SortTracklist(rel.Tracklist)

	return rel
}

var (
	bbcodeValueTag = regexp.MustCompile(`\[[a-z]+=([^\]]*)\]`)
	bbcodeBareTag  = regexp.MustCompile(`\[/?[a-z]+\]`)
)

// cleanNotes strips the BBCode style markup Discogs allows in release
// notes, keeping the linked text, and converts any embedded HTML to
// markdown.
func cleanNotes(notes string) string {
	notes = bbcodeValueTag.ReplaceAllString(notes, "$1")
	notes = bbcodeBareTag.ReplaceAllString(notes, "")
	if strings.Contains(notes, "<") {
		if md, err := htmltomarkdown.ConvertString(notes); err == nil {
			notes = md
		}
	}
	return strings.TrimSpace(notes)
}
