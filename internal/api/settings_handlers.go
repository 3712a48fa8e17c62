package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vinylflow/vinylflow-server/internal/domain"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getConfig",
		Method:      http.MethodGet,
		Path:        "/api/v1/config",
		Summary:     "Get settings",
		Description: "Returns the runtime-adjustable server settings",
		Tags:        []string{"Settings"},
	}, s.handleGetConfig)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateConfig",
		Method:      http.MethodPut,
		Path:        "/api/v1/config",
		Summary:     "Update settings",
		Description: "Replaces the runtime-adjustable server settings",
		Tags:        []string{"Settings"},
	}, s.handleUpdateConfig)
}

// === DTOs ===

// SettingsResponse carries the runtime-adjustable knobs.
type SettingsResponse struct {
	OutputDir          string  `json:"output_dir" doc:"Export output directory"`
	FlacCompression    int     `json:"flac_compression" doc:"FLAC compression level, 0-12"`
	SilenceThresholdDB float64 `json:"silence_threshold_db" doc:"Default silence threshold in dBFS"`
	MinSilenceSec      float64 `json:"min_silence_sec" doc:"Default minimum silence length"`
	MinTrackSec        float64 `json:"min_track_sec" doc:"Default minimum track length"`
}

// SettingsOutput wraps settings for huma.
type SettingsOutput struct {
	Body SettingsResponse
}

// UpdateConfigInput replaces the settings wholesale.
type UpdateConfigInput struct {
	Body SettingsResponse
}

func toSettingsResponse(settings *domain.ServerSettings) SettingsResponse {
	return SettingsResponse{
		OutputDir:          settings.OutputDir,
		FlacCompression:    settings.FlacCompression,
		SilenceThresholdDB: settings.SilenceThresholdDB,
		MinSilenceSec:      settings.MinSilenceSec,
		MinTrackSec:        settings.MinTrackSec,
	}
}

// === Handlers ===

func (s *Server) handleGetConfig(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Get(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get settings", err)
	}
	return &SettingsOutput{Body: toSettingsResponse(settings)}, nil
}

func (s *Server) handleUpdateConfig(ctx context.Context, input *UpdateConfigInput) (*SettingsOutput, error) {
	updated, err := s.services.Settings.Update(ctx, domain.NewServerSettings(
		input.Body.OutputDir,
		input.Body.FlacCompression,
		input.Body.SilenceThresholdDB,
		input.Body.MinSilenceSec,
		input.Body.MinTrackSec,
	))
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to update settings", err)
	}
	return &SettingsOutput{Body: toSettingsResponse(updated)}, nil
}
