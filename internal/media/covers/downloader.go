// Package covers downloads release cover art and stores it locally.
package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vinylflow/vinylflow-server/internal/media/images"
)

const (
	// maxCoverSize limits download size to prevent memory exhaustion.
	maxCoverSize = 10 * 1024 * 1024 // 10MB

	// downloadTimeout is the maximum time for a cover download.
	downloadTimeout = 30 * time.Second
)

// DownloadResult contains the result of a cover download operation.
type DownloadResult struct {
	Success bool   // Whether the download and storage succeeded
	Width   int    // Stored image width
	Height  int    // Stored image height
	Size    int64  // Stored file size in bytes
	Resized bool   // Whether the image was scaled down before storage
	Source  string // Source identifier (e.g., "discogs")
	Error   error  // Error if Success is false
}

// Downloader fetches release covers over HTTP and stores them.
type Downloader struct {
	httpClient *http.Client
	storage    *images.Storage
	logger     *slog.Logger
}

// NewDownloader creates a new cover downloader.
func NewDownloader(storage *images.Storage, logger *slog.Logger) *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: downloadTimeout,
		},
		storage: storage,
		logger:  logger,
	}
}

// Download fetches a cover from the URL and stores it for the given
// release ID. Oversized images are scaled down before storage.
func (d *Downloader) Download(ctx context.Context, releaseID, url string) *DownloadResult {
	result := &DownloadResult{Source: DetectSource(url)}

	if url == "" {
		result.Error = errors.New("empty cover URL")
		return result
	}

	downloadCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Errorf("create request: %w", err)
		return result
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("download: %w", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("download failed: status %d", resp.StatusCode)
		return result
	}

	// Read with size limit
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		result.Error = fmt.Errorf("read data: %w", err)
		return result
	}

	stored, width, height, resized, err := images.Downscale(data)
	if err != nil {
		d.logger.Warn("failed to process cover, storing as-is",
			"release_id", releaseID,
			"url", url,
			"error", err,
		)
		// The bytes may still render even if Go can't decode them.
		stored = data
	} else {
		result.Width = width
		result.Height = height
		result.Resized = resized
	}

	result.Size = int64(len(stored))

	if err := d.storage.Save(releaseID, stored); err != nil {
		result.Error = fmt.Errorf("store: %w", err)
		return result
	}

	result.Success = true
	d.logger.Info("downloaded cover",
		"release_id", releaseID,
		"source", result.Source,
		"size", result.Size,
		"width", result.Width,
		"height", result.Height,
		"resized", result.Resized,
	)

	return result
}

// DetectSource determines the cover source from a URL.
func DetectSource(url string) string {
	switch {
	case strings.Contains(url, "discogs.com"):
		return "discogs"
	default:
		return "unknown"
	}
}
