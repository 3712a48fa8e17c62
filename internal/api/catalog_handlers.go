package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/metadata/discogs"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search Discogs",
		Description: "Searches the Discogs database for release candidates",
		Tags:        []string{"Catalog"},
	}, s.handleCatalogSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRelease",
		Method:      http.MethodGet,
		Path:        "/api/v1/releases/{id}",
		Summary:     "Get release",
		Description: "Returns a Discogs release with its tracklist, cached locally",
		Tags:        []string{"Catalog"},
	}, s.handleGetRelease)

	// Cover bytes are streamed straight off disk.
	s.router.Get("/api/v1/releases/{id}/cover", s.handleServeCover)
}

// === DTOs ===

// CatalogSearchInput contains Discogs search parameters.
type CatalogSearchInput struct {
	Query   string `query:"q" validate:"omitempty,max=200" doc:"Free-text query"`
	Artist  string `query:"artist" validate:"omitempty,max=200" doc:"Artist filter"`
	Title   string `query:"title" validate:"omitempty,max=200" doc:"Title filter"`
	CatNo   string `query:"catno" validate:"omitempty,max=50" doc:"Catalog number filter"`
	Barcode string `query:"barcode" validate:"omitempty,max=50" doc:"Barcode filter"`
	Limit   int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 25)"`
}

// CatalogSearchOutput wraps search results for huma.
type CatalogSearchOutput struct {
	Body struct {
		Results []discogs.SearchResult `json:"results"`
	}
}

// GetReleaseInput identifies a release, optionally bypassing the cache.
type GetReleaseInput struct {
	ID      int  `path:"id" doc:"Discogs release ID"`
	Refresh bool `query:"refresh" doc:"Bypass the local cache"`
}

// ReleaseResponse is the API shape of a cached release.
type ReleaseResponse struct {
	ID            int                   `json:"id"`
	Artist        string                `json:"artist"`
	Title         string                `json:"title"`
	Year          int                   `json:"year,omitempty"`
	Label         string                `json:"label,omitempty"`
	CatalogNumber string                `json:"catalog_number,omitempty"`
	Genres        []string              `json:"genres,omitempty"`
	Styles        []string              `json:"styles,omitempty"`
	CoverURL      string                `json:"cover_url,omitempty"`
	CoverBlurHash string                `json:"cover_blurhash,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Tracklist     []domain.ReleaseTrack `json:"tracklist"`
	FetchedAt     time.Time             `json:"fetched_at"`
	HasCover      bool                  `json:"has_cover" doc:"True when cover art is stored locally"`
}

// ReleaseOutput wraps a release for huma.
type ReleaseOutput struct {
	Body ReleaseResponse
}

// === Handlers ===

func (s *Server) handleCatalogSearch(ctx context.Context, input *CatalogSearchInput) (*CatalogSearchOutput, error) {
	results, err := s.services.Catalog.Search(ctx, discogs.SearchParams{
		Query:   input.Query,
		Artist:  input.Artist,
		Title:   input.Title,
		CatNo:   input.CatNo,
		Barcode: input.Barcode,
		Limit:   input.Limit,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("catalog search failed", err)
	}

	out := &CatalogSearchOutput{}
	out.Body.Results = results
	return out, nil
}

func (s *Server) handleGetRelease(ctx context.Context, input *GetReleaseInput) (*ReleaseOutput, error) {
	release, err := s.services.Catalog.GetRelease(ctx, input.ID, input.Refresh)
	if err != nil {
		return nil, huma.Error500InternalServerError("release lookup failed", err)
	}

	_, hasCover := s.services.Catalog.CoverPath(release.ID)
	return &ReleaseOutput{Body: ReleaseResponse{
		ID:            release.ID,
		Artist:        release.Artist,
		Title:         release.Title,
		Year:          release.Year,
		Label:         release.Label,
		CatalogNumber: release.CatalogNumber,
		Genres:        release.Genres,
		Styles:        release.Styles,
		CoverURL:      release.CoverURL,
		CoverBlurHash: release.CoverBlurHash,
		Notes:         release.Notes,
		Tracklist:     release.Tracklist,
		FetchedAt:     release.FetchedAt,
		HasCover:      hasCover,
	}}, nil
}

// handleServeCover streams locally stored cover art.
// GET /api/v1/releases/{id}/cover
func (s *Server) handleServeCover(w http.ResponseWriter, r *http.Request) {
	releaseID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "release id must be a number", http.StatusBadRequest)
		return
	}

	path, ok := s.services.Catalog.CoverPath(releaseID)
	if !ok {
		http.Error(w, "cover not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", CacheOneWeek)
	http.ServeFile(w, r, path)
}
