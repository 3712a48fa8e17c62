package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/logger"
	"github.com/vinylflow/vinylflow-server/internal/media"
	"github.com/vinylflow/vinylflow-server/internal/media/covers"
	"github.com/vinylflow/vinylflow-server/internal/media/images"
	"github.com/vinylflow/vinylflow-server/internal/segmentation"
)

// ProvideToolchain provides the ffmpeg toolchain used for probing,
// previews, and track extraction.
func ProvideToolchain(i do.Injector) (*media.Toolchain, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return media.NewToolchain(cfg.Export.FFmpegPath, log.Logger), nil
}

// ProvideDetector provides the silence detector.
func ProvideDetector(i do.Injector) (*segmentation.Detector, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return segmentation.NewDetector(cfg.Export.FFmpegPath, log.Logger), nil
}

// ProvideCoverStorage provides on-disk storage for release cover art.
func ProvideCoverStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return images.NewStorage(filepath.Join(cfg.Storage.DataPath, "covers"))
}

// ProvideCoverDownloader provides the cover art downloader.
func ProvideCoverDownloader(i do.Injector) (*covers.Downloader, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return covers.NewDownloader(storage, log.Logger), nil
}
