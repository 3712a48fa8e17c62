package api

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	domainerrors "github.com/vinylflow/vinylflow-server/internal/errors"
	"github.com/vinylflow/vinylflow-server/internal/http/response"
)

func (s *Server) registerRecordingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecordings",
		Method:      http.MethodGet,
		Path:        "/api/v1/recordings",
		Summary:     "List recordings",
		Description: "Lists uploaded side captures, newest first",
		Tags:        []string{"Recordings"},
	}, s.handleListRecordings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecording",
		Method:      http.MethodGet,
		Path:        "/api/v1/recordings/{id}",
		Summary:     "Get recording",
		Tags:        []string{"Recordings"},
	}, s.handleGetRecording)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecording",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recordings/{id}",
		Summary:     "Delete recording",
		Description: "Deletes a capture, its caches, and its analysis session",
		Tags:        []string{"Recordings"},
	}, s.handleDeleteRecording)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecordingPeaks",
		Method:      http.MethodGet,
		Path:        "/api/v1/recordings/{id}/peaks",
		Summary:     "Get waveform peaks",
		Description: "Returns downsampled amplitude buckets for waveform rendering",
		Tags:        []string{"Recordings"},
	}, s.handleGetPeaks)

	// Streaming endpoints stay on chi directly: multipart intake and
	// range-served audio don't fit huma's typed bodies.
	s.router.Post("/api/v1/recordings", s.handleUploadRecording)
	s.router.Get("/api/v1/recordings/{id}/audio", s.handleStreamAudio)
	s.router.Get("/api/v1/recordings/{id}/preview", s.handleTrackPreview)
}

// === DTOs ===

// RecordingResponse is the API shape of one capture.
type RecordingResponse struct {
	ID               string     `json:"id" doc:"Recording ID"`
	OriginalFilename string     `json:"original_filename" doc:"Filename at upload time"`
	SizeBytes        int64      `json:"size_bytes" doc:"File size in bytes"`
	DurationSec      float64    `json:"duration_sec" doc:"Capture length in seconds"`
	SampleRate       int        `json:"sample_rate" doc:"Sample rate in Hz"`
	Channels         int        `json:"channels" doc:"Channel count"`
	Codec            string     `json:"codec" doc:"Audio codec"`
	Status           string     `json:"status" doc:"uploaded or analyzed"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	AnalyzedAt       *time.Time `json:"analyzed_at,omitempty"`
}

func toRecordingResponse(rec *domain.Recording) RecordingResponse {
	return RecordingResponse{
		ID:               rec.ID,
		OriginalFilename: rec.OriginalFilename,
		SizeBytes:        rec.SizeBytes,
		DurationSec:      rec.Duration,
		SampleRate:       rec.SampleRate,
		Channels:         rec.Channels,
		Codec:            rec.Codec,
		Status:           string(rec.Status),
		UploadedAt:       rec.UploadedAt,
		AnalyzedAt:       rec.AnalyzedAt,
	}
}

// ListRecordingsOutput wraps the recording list for huma.
type ListRecordingsOutput struct {
	Body struct {
		Recordings []RecordingResponse `json:"recordings"`
	}
}

// RecordingIDInput is the path parameter for recording endpoints.
type RecordingIDInput struct {
	ID string `path:"id" doc:"Recording ID"`
}

// RecordingOutput wraps a single recording for huma.
type RecordingOutput struct {
	Body RecordingResponse
}

// PeaksOutput wraps waveform peaks for huma.
type PeaksOutput struct {
	Body struct {
		Peaks   []float64 `json:"peaks" doc:"Normalized amplitude per bucket, 0..1"`
		Buckets int       `json:"buckets" doc:"Number of buckets"`
	}
}

// === Handlers ===

func (s *Server) handleListRecordings(ctx context.Context, _ *struct{}) (*ListRecordingsOutput, error) {
	recs, err := s.services.Recording.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list recordings", err)
	}

	out := &ListRecordingsOutput{}
	out.Body.Recordings = make([]RecordingResponse, len(recs))
	for i, rec := range recs {
		out.Body.Recordings[i] = toRecordingResponse(rec)
	}
	return out, nil
}

func (s *Server) handleGetRecording(ctx context.Context, input *RecordingIDInput) (*RecordingOutput, error) {
	rec, err := s.services.Recording.Get(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("recording not found", err)
	}
	return &RecordingOutput{Body: toRecordingResponse(rec)}, nil
}

func (s *Server) handleDeleteRecording(ctx context.Context, input *RecordingIDInput) (*MessageOutput, error) {
	if err := s.services.Recording.Delete(ctx, input.ID); err != nil {
		return nil, huma.Error404NotFound("recording not found", err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Recording deleted"}}, nil
}

func (s *Server) handleGetPeaks(ctx context.Context, input *RecordingIDInput) (*PeaksOutput, error) {
	peaks, err := s.services.Recording.Peaks(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to compute peaks", err)
	}

	out := &PeaksOutput{}
	out.Body.Peaks = peaks
	out.Body.Buckets = len(peaks)
	return out, nil
}

// handleUploadRecording accepts a multipart WAV upload.
// POST /api/v1/recordings, field name "file".
func (s *Server) handleUploadRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	// 32 MB in memory; larger uploads spill to temp files.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	rec, err := s.services.Recording.Upload(ctx, header.Filename, file, "upload")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, toRecordingResponse(rec), s.logger)
}

// handleStreamAudio serves the original capture with HTTP Range support
// for waveform seeking.
// GET /api/v1/recordings/{id}/audio
func (s *Server) handleStreamAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordingID := chi.URLParam(r, "id")
	if recordingID == "" {
		response.BadRequest(w, "Recording ID is required", s.logger)
		return
	}

	path, err := s.services.Recording.Path(ctx, recordingID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", audioContentType(path))
	w.Header().Set("Cache-Control", CacheOneDay)

	// http.ServeFile handles Range requests, Content-Length, and
	// If-Range conditionals.
	http.ServeFile(w, r, path)
}

// handleTrackPreview serves a short MP3 excerpt of one track.
// GET /api/v1/recordings/{id}/preview?track=N
// or an explicit span: ?start=12.5&end=42.5
func (s *Server) handleTrackPreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordingID := chi.URLParam(r, "id")
	if recordingID == "" {
		response.BadRequest(w, "Recording ID is required", s.logger)
		return
	}

	start, end, err := s.previewSpan(r, recordingID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	path, err := s.services.Recording.Preview(ctx, recordingID, start, end)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", CacheNoStore)
	http.ServeFile(w, r, path)
}

// previewSpan resolves the requested preview to a start/end span,
// either from an explicit range or from a track number in the
// recording's current track set.
func (s *Server) previewSpan(r *http.Request, recordingID string) (float64, float64, error) {
	q := r.URL.Query()

	if trackStr := q.Get("track"); trackStr != "" {
		number, err := strconv.Atoi(trackStr)
		if err != nil {
			return 0, 0, domainerrors.Validation("track must be a number")
		}

		session, err := s.services.Analysis.GetSessionByRecording(r.Context(), recordingID)
		if err != nil {
			return 0, 0, err
		}
		if session.TrackSet == nil {
			return 0, 0, domainerrors.Conflict("recording has no track set; run analysis first")
		}
		for _, t := range session.TrackSet.Tracks {
			if t.Number == number {
				return t.Start, t.End, nil
			}
		}
		return 0, 0, domainerrors.NotFoundf("track %d not found", number)
	}

	start, err := strconv.ParseFloat(q.Get("start"), 64)
	if err != nil {
		return 0, 0, domainerrors.Validation("start and end, or track, are required")
	}
	end, err := strconv.ParseFloat(q.Get("end"), 64)
	if err != nil {
		return 0, 0, domainerrors.Validation("start and end, or track, are required")
	}
	return start, end, nil
}

// audioContentType maps a capture file extension to its MIME type.
func audioContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".aiff", ".aif":
		return "audio/aiff"
	default:
		return "application/octet-stream"
	}
}
