package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vinylflow/vinylflow-server/internal/search"
	"github.com/vinylflow/vinylflow-server/internal/store/history"
)

func (s *Server) registerHistoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/history",
		Summary:     "List digitization history",
		Description: "Lists completed digitizations, newest first",
		Tags:        []string{"History"},
	}, s.handleListHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHistoryEntry",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/{id}",
		Summary:     "Get history entry",
		Tags:        []string{"History"},
	}, s.handleGetHistoryEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/search",
		Summary:     "Search digitization history",
		Description: "Full-text search over digitized albums by artist, album, or label",
		Tags:        []string{"History"},
	}, s.handleSearchHistory)
}

// === DTOs ===

// HistoryEntryResponse is one completed digitization.
type HistoryEntryResponse struct {
	ID          string    `json:"id" doc:"Export job ID"`
	RecordingID string    `json:"recording_id"`
	ReleaseID   int       `json:"release_id,omitempty"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	Year        int       `json:"year,omitempty"`
	Label       string    `json:"label,omitempty"`
	TrackCount  int       `json:"track_count"`
	OutputDir   string    `json:"output_dir"`
	CompletedAt time.Time `json:"completed_at"`
}

func toHistoryEntryResponse(e *history.Entry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:          e.ID,
		RecordingID: e.RecordingID,
		ReleaseID:   e.ReleaseID,
		Artist:      e.Artist,
		Album:       e.Album,
		Year:        e.Year,
		Label:       e.Label,
		TrackCount:  e.TrackCount,
		OutputDir:   e.OutputDir,
		CompletedAt: e.CompletedAt,
	}
}

// ListHistoryInput paginates the ledger.
type ListHistoryInput struct {
	Limit  int `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max entries (default 20)"`
	Offset int `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
}

// ListHistoryOutput wraps ledger entries for huma.
type ListHistoryOutput struct {
	Body struct {
		Entries []HistoryEntryResponse `json:"entries"`
		Total   int                    `json:"total" doc:"Total digitizations in the ledger"`
	}
}

// HistoryEntryOutput wraps one ledger entry for huma.
type HistoryEntryOutput struct {
	Body HistoryEntryResponse
}

// SearchHistoryInput contains ledger search parameters.
type SearchHistoryInput struct {
	Query   string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	MinYear int    `query:"min_year" validate:"omitempty,gte=1900" doc:"Earliest release year"`
	MaxYear int    `query:"max_year" validate:"omitempty,gte=1900" doc:"Latest release year"`
	Limit   int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset  int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
	SortBy  string `query:"sort_by" enum:"relevance,recent,artist" doc:"Sort order (default relevance)"`
}

// SearchHistoryOutput wraps search hits for huma.
type SearchHistoryOutput struct {
	Body search.Result
}

// === Handlers ===

func (s *Server) handleListHistory(ctx context.Context, input *ListHistoryInput) (*ListHistoryOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 20
	}

	entries, err := s.services.History.Recent(ctx, limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list history", err)
	}
	total, err := s.services.History.Count(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to count history", err)
	}

	out := &ListHistoryOutput{}
	out.Body.Entries = make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out.Body.Entries[i] = toHistoryEntryResponse(e)
	}
	out.Body.Total = total
	return out, nil
}

func (s *Server) handleGetHistoryEntry(ctx context.Context, input *JobIDInput) (*HistoryEntryOutput, error) {
	entry, err := s.services.History.Get(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("history entry not found", err)
	}
	return &HistoryEntryOutput{Body: toHistoryEntryResponse(entry)}, nil
}

func (s *Server) handleSearchHistory(ctx context.Context, input *SearchHistoryInput) (*SearchHistoryOutput, error) {
	params := search.DefaultParams()
	params.Query = input.Query
	params.MinYear = input.MinYear
	params.MaxYear = input.MaxYear
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	if input.SortBy != "" {
		params.SortBy = input.SortBy
	}

	result, err := s.services.History.Search(ctx, params)
	if err != nil {
		return nil, huma.Error500InternalServerError("history search failed", err)
	}
	return &SearchHistoryOutput{Body: *result}, nil
}
