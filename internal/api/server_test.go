package api

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/media"
	"github.com/vinylflow/vinylflow-server/internal/search"
	"github.com/vinylflow/vinylflow-server/internal/service"
	"github.com/vinylflow/vinylflow-server/internal/sse"
	"github.com/vinylflow/vinylflow-server/internal/store"
	"github.com/vinylflow/vinylflow-server/internal/store/history"
)

// testServer bundles the API server with the stores the tests seed.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	dataDir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			UploadPath: filepath.Join(dataDir, "uploads"),
			CachePath:  filepath.Join(dataDir, "cache"),
		},
		Analysis: config.AnalysisConfig{
			SilenceThresholdDB: -40,
			MinSilence:         1500 * time.Millisecond,
			MinTrackLength:     30 * time.Second,
		},
		Export: config.ExportConfig{
			OutputPath:      filepath.Join(dataDir, "exports"),
			FlacCompression: 8,
			MaxConcurrent:   2,
		},
		Cleanup: config.CleanupConfig{
			UploadTTL: 24 * time.Hour,
			Interval:  6 * time.Hour,
		},
	}

	manager := sse.NewManager(logger)
	st, err := store.New(filepath.Join(dataDir, "db"), logger, manager)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ledger, err := history.Open(filepath.Join(dataDir, "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	index, err := search.NewIndex(search.Options{DataPath: dataDir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	toolchain := media.NewToolchain("", logger)
	recordingSvc, err := service.NewRecordingService(st, toolchain, manager, cfg.Storage, cfg.Cleanup, logger)
	require.NoError(t, err)

	settingsSvc := service.NewSettingsService(st, cfg, logger)
	catalogSvc := service.NewCatalogService(st, nil, nil, nil, 24*time.Hour, logger)
	analysisSvc := service.NewAnalysisService(st, nil, catalogSvc, settingsSvc, manager, logger)
	historySvc := service.NewHistoryService(ledger, index, logger)
	exportSvc := service.NewExportService(st, historySvc, catalogSvc, settingsSvc, toolchain, manager, cfg.Export, logger)
	t.Cleanup(exportSvc.Stop)

	services := &Services{
		Recording: recordingSvc,
		Analysis:  analysisSvc,
		Catalog:   catalogSvc,
		Export:    exportSvc,
		History:   historySvc,
		Settings:  settingsSvc,
	}

	srv := NewServer(st, services, sse.NewHandler(manager, logger), manager, "test", logger)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
		store:  st,
	}
}

// seedSession stores a recording with a two-track session over a 200
// second capture and a cached two-track release, and returns the
// session ID.
func (ts *testServer) seedSession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	rec := &domain.Recording{
		ID:               "rec_test",
		OriginalFilename: "side-a.wav",
		Path:             "/tmp/side-a.wav",
		Duration:         200,
		Status:           domain.RecordingStatusAnalyzed,
		UploadedAt:       time.Now(),
	}
	require.NoError(t, ts.store.Recordings.Create(ctx, rec.ID, rec))

	session := &domain.AnalysisSession{
		ID:          "as_test",
		RecordingID: rec.ID,
		TrackSet: domain.NewTrackSet(rec.ID, 200, []domain.Track{
			{Start: 0, End: 100},
			{Start: 100, End: 200},
		}),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, ts.store.Sessions.Create(ctx, session.ID, session))

	release := &domain.Release{
		ID:     123,
		Artist: "Neu!",
		Title:  "Neu! 75",
		Tracklist: []domain.ReleaseTrack{
			{Position: "A1", Title: "Isi", DurationRaw: "1:40"},
			{Position: "A2", Title: "Seeland", DurationRaw: "1:40"},
		},
		FetchedAt: time.Now(),
	}
	require.NoError(t, ts.store.Releases.Create(ctx, store.ReleaseKey(release.ID), release))

	return session.ID
}
