package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/errors"
	"github.com/vinylflow/vinylflow-server/internal/media/covers"
	"github.com/vinylflow/vinylflow-server/internal/media/images"
	"github.com/vinylflow/vinylflow-server/internal/metadata/discogs"
	"github.com/vinylflow/vinylflow-server/internal/store"
)

// CatalogService looks up releases on Discogs, caching fetched releases
// so repeated reconciliation and export reads stay off the rate-limited
// API.
type CatalogService struct {
	store    *store.Store
	client   *discogs.Client
	covers   *covers.Downloader
	images   *images.Storage
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service. The client may be
// nil when no Discogs token is configured; lookups then fail with a
// validation error.
func NewCatalogService(
	store *store.Store,
	client *discogs.Client,
	coverDownloader *covers.Downloader,
	imageStorage *images.Storage,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		store:    store,
		client:   client,
		covers:   coverDownloader,
		images:   imageStorage,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Search queries the Discogs database for release candidates.
func (s *CatalogService) Search(ctx context.Context, params discogs.SearchParams) ([]discogs.SearchResult, error) {
	if s.client == nil {
		return nil, errors.Validation("catalog search requires a configured Discogs token")
	}
	if strings.TrimSpace(params.Query) == "" && params.Artist == "" && params.Title == "" && params.CatNo == "" && params.Barcode == "" {
		return nil, errors.Validation("search needs a query, artist, title, catalog number, or barcode")
	}

	results, err := s.client.Search(ctx, params)
	if err != nil {
		return nil, mapDiscogsError(err)
	}
	return results, nil
}

// GetRelease returns a release, from the cache when fresh. With refresh
// set the cached copy is bypassed. A stale cached copy is served when
// the API is unreachable.
func (s *CatalogService) GetRelease(ctx context.Context, releaseID int, refresh bool) (*domain.Release, error) {
	key := store.ReleaseKey(releaseID)

	cached, cacheErr := s.store.Releases.Get(ctx, key)
	if cacheErr == nil && !refresh && time.Since(cached.FetchedAt) < s.cacheTTL {
		return cached, nil
	}

	if s.client == nil {
		if cacheErr == nil {
			return cached, nil
		}
		return nil, errors.Validation("release lookup requires a configured Discogs token")
	}

	release, err := s.client.GetRelease(ctx, releaseID)
	if err != nil {
		if cacheErr == nil {
			s.logger.Warn("serving stale cached release, Discogs fetch failed",
				slog.Int("release_id", releaseID),
				slog.Any("error", err))
			return cached, nil
		}
		return nil, mapDiscogsError(err)
	}

	// Keep the blurhash across refreshes until the new cover lands.
	if cacheErr == nil {
		release.CoverBlurHash = cached.CoverBlurHash
	}

	if cacheErr == nil {
		err = s.store.Releases.Update(ctx, key, release)
	} else {
		err = s.store.Releases.Create(ctx, key, release)
	}
	if err != nil {
		return nil, fmt.Errorf("cache release: %w", err)
	}

	s.logger.Info("release fetched",
		slog.Int("release_id", releaseID),
		slog.String("artist", release.Artist),
		slog.String("title", release.Title),
		slog.Int("tracks", len(release.Tracklist)),
	)

	if release.CoverURL != "" && s.covers != nil {
		go s.fetchCover(release)
	}

	return release, nil
}

// CoverPath returns the stored cover file for a release.
func (s *CatalogService) CoverPath(releaseID int) (string, bool) {
	if s.images == nil {
		return "", false
	}
	key := store.ReleaseKey(releaseID)
	if !s.images.Exists(key) {
		return "", false
	}
	return s.images.Path(key), true
}

// fetchCover downloads the release cover and stores its blurhash.
// Runs detached from the request; cover art is cosmetic and must not
// delay release lookups.
func (s *CatalogService) fetchCover(release *domain.Release) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	key := store.ReleaseKey(release.ID)
	result := s.covers.Download(ctx, key, release.CoverURL)
	if !result.Success {
		s.logger.Warn("cover download failed",
			slog.Int("release_id", release.ID),
			slog.Any("error", result.Error))
		return
	}

	hash, err := images.ComputeBlurHash(s.images.Path(key))
	if err != nil {
		s.logger.Warn("blurhash computation failed",
			slog.Int("release_id", release.ID),
			slog.Any("error", err))
		return
	}

	release.CoverBlurHash = hash
	if err := s.store.Releases.Update(ctx, key, release); err != nil {
		s.logger.Warn("failed to store cover blurhash",
			slog.Int("release_id", release.ID),
			slog.Any("error", err))
	}
}

// mapDiscogsError converts client sentinel errors to API error codes.
func mapDiscogsError(err error) error {
	switch {
	case stderrors.Is(err, discogs.ErrNotFound):
		return errors.Wrap(err, errors.CodeNotFound, "release not found on Discogs")
	case stderrors.Is(err, discogs.ErrRateLimited):
		return errors.Wrap(err, errors.CodeRateLimited, "Discogs rate limit hit, retry shortly")
	case stderrors.Is(err, discogs.ErrUnauthorized):
		return errors.Wrap(err, errors.CodeValidation, "Discogs rejected the configured token")
	case stderrors.Is(err, discogs.ErrBadRequest):
		return errors.Wrap(err, errors.CodeValidation, "Discogs rejected the request")
	default:
		return errors.Wrap(err, errors.CodeUnavailable, "Discogs request failed")
	}
}
