package providers

import (
	"github.com/samber/do/v2"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/logger"
	"github.com/vinylflow/vinylflow-server/internal/media"
	"github.com/vinylflow/vinylflow-server/internal/media/covers"
	"github.com/vinylflow/vinylflow-server/internal/media/images"
	"github.com/vinylflow/vinylflow-server/internal/segmentation"
	"github.com/vinylflow/vinylflow-server/internal/service"
)

// ProvideSettingsService provides the runtime settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewSettingsService(storeHandle.Store, cfg, log.Logger), nil
}

// ProvideRecordingService provides the capture upload service.
func ProvideRecordingService(i do.Injector) (*service.RecordingService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	toolchain := do.MustInvoke[*media.Toolchain](i)

	return service.NewRecordingService(
		storeHandle.Store,
		toolchain,
		sseHandle.Manager,
		cfg.Storage,
		cfg.Cleanup,
		log.Logger,
	)
}

// ProvideCatalogService provides the Discogs catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clientHandle := do.MustInvoke[*DiscogsClientHandle](i)
	downloader := do.MustInvoke[*covers.Downloader](i)
	storage := do.MustInvoke[*images.Storage](i)

	return service.NewCatalogService(
		storeHandle.Store,
		clientHandle.Client,
		downloader,
		storage,
		cfg.Discogs.CacheTTL,
		log.Logger,
	), nil
}

// ProvideAnalysisService provides the segmentation and mapping service.
func ProvideAnalysisService(i do.Injector) (*service.AnalysisService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	detector := do.MustInvoke[*segmentation.Detector](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	settings := do.MustInvoke[*service.SettingsService](i)

	return service.NewAnalysisService(
		storeHandle.Store,
		detector,
		catalog,
		settings,
		sseHandle.Manager,
		log.Logger,
	), nil
}

// ProvideHistoryService provides the digitization history service.
func ProvideHistoryService(i do.Injector) (*service.HistoryService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	ledgerHandle := do.MustInvoke[*LedgerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	return service.NewHistoryService(ledgerHandle.Store, indexHandle.Index, log.Logger), nil
}

// ExportServiceHandle wraps the export service with shutdown capability.
type ExportServiceHandle struct {
	*service.ExportService
}

// Shutdown implements do.Shutdownable.
func (h *ExportServiceHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideExportService provides the export service with its worker running.
func ProvideExportService(i do.Injector) (*ExportServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	toolchain := do.MustInvoke[*media.Toolchain](i)
	historySvc := do.MustInvoke[*service.HistoryService](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	settings := do.MustInvoke[*service.SettingsService](i)

	svc := service.NewExportService(
		storeHandle.Store,
		historySvc,
		catalog,
		settings,
		toolchain,
		sseHandle.Manager,
		cfg.Export,
		log.Logger,
	)
	svc.Start()

	return &ExportServiceHandle{ExportService: svc}, nil
}

// ProvideInboxService provides the drop-folder import service.
func ProvideInboxService(i do.Injector) (*service.InboxService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	recordings := do.MustInvoke[*service.RecordingService](i)

	return service.NewInboxService(recordings, cfg.Inbox, log.Logger), nil
}
