// Package service implements the application's business logic on top of
// the store, the media toolchain, and the catalog client.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vinylflow/vinylflow-server/internal/config"
	"github.com/vinylflow/vinylflow-server/internal/domain"
	apperrors "github.com/vinylflow/vinylflow-server/internal/errors"
	"github.com/vinylflow/vinylflow-server/internal/store"
)

// SettingsService mediates between static config defaults and the
// runtime-adjustable settings stored in Badger.
type SettingsService struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store *store.Store, cfg *config.Config, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Get returns the effective server settings. When nothing has been
// stored yet, the config defaults apply.
func (s *SettingsService) Get(ctx context.Context) (*domain.ServerSettings, error) {
	settings, err := s.store.GetServerSettings(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.defaults(), nil
		}
		return nil, fmt.Errorf("get server settings: %w", err)
	}
	return settings, nil
}

// Update validates and persists new server settings.
func (s *SettingsService) Update(ctx context.Context, settings *domain.ServerSettings) (*domain.ServerSettings, error) {
	if settings.OutputDir == "" {
		return nil, apperrors.Validation("output directory cannot be empty")
	}
	if settings.FlacCompression < 0 || settings.FlacCompression > 12 {
		return nil, apperrors.Validationf("flac compression level must be 0-12, got %d", settings.FlacCompression)
	}
	if settings.SilenceThresholdDB >= 0 {
		return nil, apperrors.Validationf("silence threshold must be negative dBFS, got %g", settings.SilenceThresholdDB)
	}
	if settings.MinSilenceSec <= 0 {
		return nil, apperrors.Validation("min silence duration must be positive")
	}
	if settings.MinTrackSec <= 0 {
		return nil, apperrors.Validation("min track length must be positive")
	}

	settings.UpdatedAt = time.Now()
	if err := s.store.UpdateServerSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("update server settings: %w", err)
	}

	s.logger.Info("server settings updated",
		slog.String("output_dir", settings.OutputDir),
		slog.Int("flac_compression", settings.FlacCompression),
	)
	return settings, nil
}

// defaults builds settings from the static config.
func (s *SettingsService) defaults() *domain.ServerSettings {
	return domain.NewServerSettings(
		s.cfg.Export.OutputPath,
		s.cfg.Export.FlacCompression,
		s.cfg.Analysis.SilenceThresholdDB,
		s.cfg.Analysis.MinSilence.Seconds(),
		s.cfg.Analysis.MinTrackLength.Seconds(),
	)
}
