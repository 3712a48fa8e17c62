package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vinylflow/vinylflow-server/internal/domain"
)

func (s *Server) registerExportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createExportJob",
		Method:      http.MethodPost,
		Path:        "/api/v1/export",
		Summary:     "Start export",
		Description: "Queues an album export for a session with a confirmed, current mapping",
		Tags:        []string{"Export"},
	}, s.handleCreateExport)

	huma.Register(s.api, huma.Operation{
		OperationID: "listExportJobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List export jobs",
		Tags:        []string{"Export"},
	}, s.handleListJobs)

	huma.Register(s.api, huma.Operation{
		OperationID: "getExportJob",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{id}",
		Summary:     "Get export job",
		Tags:        []string{"Export"},
	}, s.handleGetJob)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelExportJob",
		Method:      http.MethodDelete,
		Path:        "/api/v1/jobs/{id}",
		Summary:     "Cancel export job",
		Description: "Cancels a pending or running job. Tracks not yet scheduled are skipped; tracks mid-extraction are interrupted.",
		Tags:        []string{"Export"},
	}, s.handleCancelJob)
}

// === DTOs ===

// CreateExportInput starts an export for a session.
type CreateExportInput struct {
	Body struct {
		SessionID string `json:"session_id" validate:"required" doc:"Analysis session ID"`
	}
}

// TrackResultResponse is the extraction state of one mapped track.
type TrackResultResponse struct {
	Number   int     `json:"number"`
	Position string  `json:"position"`
	Title    string  `json:"title"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Path     string  `json:"path,omitempty"`
	Status   string  `json:"status"`
	Error    string  `json:"error,omitempty"`
}

// ExportJobResponse is the API shape of one export job.
type ExportJobResponse struct {
	ID          string                `json:"id"`
	SessionID   string                `json:"session_id"`
	RecordingID string                `json:"recording_id"`
	ReleaseID   int                   `json:"release_id"`
	Artist      string                `json:"artist"`
	Album       string                `json:"album"`
	Year        int                   `json:"year,omitempty"`
	Label       string                `json:"label,omitempty"`
	OutputDir   string                `json:"output_dir"`
	Reversed    bool                  `json:"reversed"`
	Status      string                `json:"status"`
	Progress    float64               `json:"progress" doc:"Completed fraction, 0..1"`
	Error       string                `json:"error,omitempty"`
	Tracks      []TrackResultResponse `json:"tracks"`
	CreatedAt   time.Time             `json:"created_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

func toExportJobResponse(job *domain.ExportJob) ExportJobResponse {
	resp := ExportJobResponse{
		ID:          job.ID,
		SessionID:   job.SessionID,
		RecordingID: job.RecordingID,
		ReleaseID:   job.ReleaseID,
		Artist:      job.Artist,
		Album:       job.Album,
		Year:        job.Year,
		Label:       job.Label,
		OutputDir:   job.OutputDir,
		Reversed:    job.Reversed,
		Status:      string(job.Status),
		Progress:    job.Progress,
		Error:       job.Error,
		Tracks:      make([]TrackResultResponse, len(job.Tracks)),
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
	for i, t := range job.Tracks {
		resp.Tracks[i] = TrackResultResponse{
			Number:   t.Number,
			Position: t.Position,
			Title:    t.Title,
			Start:    t.Start,
			End:      t.End,
			Path:     t.Path,
			Status:   string(t.Status),
			Error:    t.Error,
		}
	}
	return resp
}

// ExportJobOutput wraps a job for huma.
type ExportJobOutput struct {
	Body ExportJobResponse
}

// ListJobsOutput wraps the job list for huma.
type ListJobsOutput struct {
	Body struct {
		Jobs []ExportJobResponse `json:"jobs"`
	}
}

// JobIDInput is the path parameter for job endpoints.
type JobIDInput struct {
	ID string `path:"id" doc:"Export job ID"`
}

// === Handlers ===

func (s *Server) handleCreateExport(ctx context.Context, input *CreateExportInput) (*ExportJobOutput, error) {
	job, err := s.services.Export.CreateJob(ctx, input.Body.SessionID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to create export job", err)
	}
	return &ExportJobOutput{Body: toExportJobResponse(job)}, nil
}

func (s *Server) handleListJobs(ctx context.Context, _ *struct{}) (*ListJobsOutput, error) {
	jobs, err := s.services.Export.ListJobs(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list jobs", err)
	}

	out := &ListJobsOutput{}
	out.Body.Jobs = make([]ExportJobResponse, len(jobs))
	for i, job := range jobs {
		out.Body.Jobs[i] = toExportJobResponse(job)
	}
	return out, nil
}

func (s *Server) handleGetJob(ctx context.Context, input *JobIDInput) (*ExportJobOutput, error) {
	job, err := s.services.Export.GetJob(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("job not found", err)
	}
	return &ExportJobOutput{Body: toExportJobResponse(job)}, nil
}

func (s *Server) handleCancelJob(ctx context.Context, input *JobIDInput) (*MessageOutput, error) {
	if err := s.services.Export.Cancel(ctx, input.ID); err != nil {
		return nil, huma.Error500InternalServerError("failed to cancel job", err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Cancellation requested"}}, nil
}
