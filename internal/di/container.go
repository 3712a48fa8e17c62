// Package di provides dependency injection configuration for the VinylFlow server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/di/providers"
	"github.com/vinylflow/vinylflow-server/internal/logger"
	"github.com/vinylflow/vinylflow-server/internal/media"
	"github.com/vinylflow/vinylflow-server/internal/media/covers"
	"github.com/vinylflow/vinylflow-server/internal/media/images"
	"github.com/vinylflow/vinylflow-server/internal/segmentation"
	"github.com/vinylflow/vinylflow-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideLedger)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Media layer
	do.Provide(injector, providers.ProvideToolchain)
	do.Provide(injector, providers.ProvideDetector)
	do.Provide(injector, providers.ProvideCoverStorage)
	do.Provide(injector, providers.ProvideCoverDownloader)
	do.Provide(injector, providers.ProvideDiscogsClient)

	// Business services
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideRecordingService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideAnalysisService)
	do.Provide(injector, providers.ProvideHistoryService)
	do.Provide(injector, providers.ProvideExportService)
	do.Provide(injector, providers.ProvideInboxService)

	// Workers
	do.Provide(injector, providers.ProvideCleanupJob)
	do.Provide(injector, providers.ProvideInboxWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.LedgerHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*media.Toolchain](injector)
	_ = do.MustInvoke[*segmentation.Detector](injector)
	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*covers.Downloader](injector)
	_ = do.MustInvoke[*providers.DiscogsClientHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.SettingsService](injector)
	_ = do.MustInvoke[*service.RecordingService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.AnalysisService](injector)
	_ = do.MustInvoke[*service.HistoryService](injector)
	_ = do.MustInvoke[*providers.ExportServiceHandle](injector)
	_ = do.MustInvoke[*service.InboxService](injector)

	// Workers
	_ = do.MustInvoke[*providers.CleanupJobHandle](injector)
	_ = do.MustInvoke[*providers.InboxWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Bring the search index back in sync with the ledger if needed
	providers.EnsureHistoryIndexed(injector)

	return nil
}
