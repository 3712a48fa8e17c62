package search

import (
	"context"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a ledger search.
type Params struct {
	Query string

	// Filters
	MinYear int
	MaxYear int

	// Pagination
	Limit  int
	Offset int

	// Sorting: "relevance", "recent", "artist"
	SortBy string

	Highlight bool
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:     20,
		SortBy:    "relevance",
		Highlight: true,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single search result.
type Hit struct {
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	Artist      string            `json:"artist"`
	Album       string            `json:"album"`
	Label       string            `json:"label,omitempty"`
	Year        int               `json:"year,omitempty"`
	TrackCount  int               `json:"track_count,omitempty"`
	CompletedAt int64             `json:"completed_at,omitempty"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Search executes a search over the ledger index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchQuery := buildSearchQuery(params)
	req := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	switch params.SortBy {
	case "recent":
		req.SortBy([]string{"-completed_at"})
	case "artist":
		req.SortBy([]string{"artist", "album"})
	default:
		req.SortBy([]string{"-_score"})
	}

	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("artist")
		req.Highlight.AddField("album")
	}

	req.Fields = []string{"artist", "album", "label", "year", "track_count", "completed_at"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, match := range res.Hits {
		hit := Hit{
			ID:          match.ID,
			Score:       match.Score,
			Artist:      fieldString(match.Fields, "artist"),
			Album:       fieldString(match.Fields, "album"),
			Label:       fieldString(match.Fields, "label"),
			Year:        fieldInt(match.Fields, "year"),
			TrackCount:  fieldInt(match.Fields, "track_count"),
			CompletedAt: int64(fieldFloat(match.Fields, "completed_at")),
		}

		if len(match.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(match.Fragments))
			for field, fragments := range match.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, hit)
	}

	return result, nil
}

// buildSearchQuery assembles the Bleve query from params.
func buildSearchQuery(params Params) query.Query {
	var base query.Query

	text := strings.TrimSpace(params.Query)
	if text == "" {
		base = bleve.NewMatchAllQuery()
	} else {
		artistMatch := bleve.NewMatchQuery(text)
		artistMatch.SetField("artist")
		artistMatch.SetBoost(2.0)

		albumMatch := bleve.NewMatchQuery(text)
		albumMatch.SetField("album")
		albumMatch.SetBoost(2.0)

		labelMatch := bleve.NewMatchQuery(text)
		labelMatch.SetField("label")

		// Prefix matching keeps results appearing while typing.
		artistPrefix := bleve.NewPrefixQuery(strings.ToLower(text))
		artistPrefix.SetField("artist")

		albumPrefix := bleve.NewPrefixQuery(strings.ToLower(text))
		albumPrefix.SetField("album")

		base = bleve.NewDisjunctionQuery(artistMatch, albumMatch, labelMatch, artistPrefix, albumPrefix)
	}

	if params.MinYear == 0 && params.MaxYear == 0 {
		return base
	}

	var min, max *float64
	if params.MinYear > 0 {
		v := float64(params.MinYear)
		min = &v
	}
	if params.MaxYear > 0 {
		v := float64(params.MaxYear)
		max = &v
	}
	inclusive := true
	yearRange := bleve.NewNumericRangeInclusiveQuery(min, max, &inclusive, &inclusive)
	yearRange.SetField("year")

	return bleve.NewConjunctionQuery(base, yearRange)
}

func fieldString(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func fieldFloat(fields map[string]any, name string) float64 {
	if v, ok := fields[name].(float64); ok {
		return v
	}
	return 0
}

func fieldInt(fields map[string]any, name string) int {
	return int(fieldFloat(fields, name))
}
