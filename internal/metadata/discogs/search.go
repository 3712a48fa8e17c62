package discogs

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/url"
	"strconv"
)

// Search queries the Discogs release database.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	query := url.Values{}
	query.Set("type", "release")

	if params.Query != "" {
		query.Set("q", params.Query)
	}
	if params.Artist != "" {
		query.Set("artist", params.Artist)
	}
	if params.Title != "" {
		query.Set("release_title", params.Title)
	}
	if params.CatNo != "" {
		query.Set("catno", params.CatNo)
	}
	if params.Barcode != "" {
		query.Set("barcode", params.Barcode)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultNumResults
	}
	if limit > maxNumResults {
		limit = maxNumResults
	}
	query.Set("per_page", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, "/database/search", query)
	if err != nil {
		return nil, wrapError("search", 0, err)
	}

	var resp struct {
		Results []rawSearchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("search", 0, fmt.Errorf("parse response: %w", err))
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		sr := SearchResult{
			ID:       r.ID,
			Title:    r.Title,
			Year:     r.Year,
			CatNo:    r.CatNo,
			Country:  r.Country,
			ThumbURL: r.Thumb,
			CoverURL: r.Cover,
		}
		if len(r.Label) > 0 {
			sr.Label = r.Label[0]
		}
		if len(r.Format) > 0 {
			sr.Format = r.Format[0]
		}
		results = append(results, sr)
	}

	return results, nil
}
