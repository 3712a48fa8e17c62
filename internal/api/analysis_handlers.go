package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vinylflow/vinylflow-server/internal/domain"
	"github.com/vinylflow/vinylflow-server/internal/mapping"
)

func (s *Server) registerAnalysisRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "analyzeRecording",
		Method:      http.MethodPost,
		Path:        "/api/v1/recordings/{id}/analyze",
		Summary:     "Analyze recording",
		Description: "Runs silence detection and builds the initial track set. Re-running replaces the track set and drops any confirmed mapping.",
		Tags:        []string{"Analysis"},
	}, s.handleAnalyze)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get analysis session",
		Tags:        []string{"Analysis"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSessionByRecording",
		Method:      http.MethodGet,
		Path:        "/api/v1/recordings/{id}/session",
		Summary:     "Get session for recording",
		Tags:        []string{"Analysis"},
	}, s.handleGetSessionByRecording)

	huma.Register(s.api, huma.Operation{
		OperationID: "splitTrack",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/split",
		Summary:     "Split track",
		Description: "Splits the track containing the given instant into two active tracks",
		Tags:        []string{"Editing"},
	}, s.handleSplitTrack)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTrack",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/delete",
		Summary:     "Delete track",
		Description: "Removes a track; the vacated span stays unowned",
		Tags:        []string{"Editing"},
	}, s.handleDeleteTrack)

	huma.Register(s.api, huma.Operation{
		OperationID: "resizeTrack",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/resize",
		Summary:     "Resize track",
		Description: "Moves a track's boundaries; a shared boundary moves the neighbor's edge along",
		Tags:        []string{"Editing"},
	}, s.handleResizeTrack)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleTrackIgnored",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/ignore",
		Summary:     "Toggle track ignored",
		Description: "Flips a track's ignored flag and reports the new state",
		Tags:        []string{"Editing"},
	}, s.handleToggleIgnored)

	huma.Register(s.api, huma.Operation{
		OperationID: "splitByCatalog",
		Method:      http.MethodPost,
		Path:        "/api/v1/recordings/{id}/analyze/durations",
		Summary:     "Split by catalog durations",
		Description: "Replaces the track set with boundaries derived from a release tracklist. The fallback for quiet-groove records with no usable inter-track silence.",
		Tags:        []string{"Analysis"},
	}, s.handleSplitByCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "reconcileCounts",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/reconcile",
		Summary:     "Reconcile track counts",
		Description: "Compares detected active tracks against a release tracklist",
		Tags:        []string{"Mapping"},
	}, s.handleReconcileCounts)

	huma.Register(s.api, huma.Operation{
		OperationID: "confirmMapping",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/mapping",
		Summary:     "Confirm export mapping",
		Description: "Pairs active tracks with the release tracklist, positionally or reversed. Duration warnings are advisory and never block confirmation.",
		Tags:        []string{"Mapping"},
	}, s.handleConfirmMapping)
}

// === DTOs ===

// TrackResponse is the API shape of one track span.
type TrackResponse struct {
	Number        int     `json:"number"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	DurationSec   float64 `json:"duration_sec"`
	Ignored       bool    `json:"ignored"`
	Adjusted      bool    `json:"adjusted,omitempty"`
	DurationBased bool    `json:"duration_based,omitempty"`
}

// TrackSetResponse is the API shape of the editable track set.
type TrackSetResponse struct {
	Revision    int             `json:"revision"`
	DurationSec float64         `json:"duration_sec"`
	Tracks      []TrackResponse `json:"tracks"`
	ActiveCount int             `json:"active_count"`
}

// SilenceResponse is one detected silence window.
type SilenceResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// MappingResponse is the confirmed export mapping.
type MappingResponse struct {
	ReleaseID int                  `json:"release_id"`
	Revision  int                  `json:"revision"`
	Reversed  bool                 `json:"reversed"`
	Stale     bool                 `json:"stale" doc:"True when the track set changed after confirmation"`
	Pairs     []domain.MappingPair `json:"pairs"`
}

// SessionResponse is the API shape of an analysis session.
type SessionResponse struct {
	ID          string                `json:"id"`
	RecordingID string                `json:"recording_id"`
	Params      domain.AnalysisParams `json:"params"`
	TrackSet    *TrackSetResponse     `json:"track_set,omitempty"`
	Mapping     *MappingResponse      `json:"mapping,omitempty"`
	Silences    []SilenceResponse     `json:"silences,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func toSessionResponse(session *domain.AnalysisSession) SessionResponse {
	resp := SessionResponse{
		ID:          session.ID,
		RecordingID: session.RecordingID,
		Params:      session.Params,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}

	if ts := session.TrackSet; ts != nil {
		tsr := &TrackSetResponse{
			Revision:    ts.Revision,
			DurationSec: ts.Duration,
			Tracks:      make([]TrackResponse, len(ts.Tracks)),
			ActiveCount: ts.ActiveCount(),
		}
		for i, t := range ts.Tracks {
			tsr.Tracks[i] = TrackResponse{
				Number:        t.Number,
				Start:         t.Start,
				End:           t.End,
				DurationSec:   t.Duration(),
				Ignored:       t.Ignored,
				Adjusted:      t.Adjusted,
				DurationBased: t.DurationBased,
			}
		}
		resp.TrackSet = tsr
	}

	if m := session.Mapping; m != nil {
		resp.Mapping = &MappingResponse{
			ReleaseID: m.ReleaseID,
			Revision:  m.Revision,
			Reversed:  m.Reversed,
			Stale:     !session.MappingValid(),
			Pairs:     m.Pairs,
		}
	}

	for _, sil := range session.Silences {
		resp.Silences = append(resp.Silences, SilenceResponse{Start: sil.Start, End: sil.End})
	}

	return resp
}

// SessionOutput wraps a session for huma.
type SessionOutput struct {
	Body SessionResponse
}

// AnalyzeInput starts silence detection on a recording. Zero-valued
// knobs fall back to the configured defaults.
type AnalyzeInput struct {
	ID   string `path:"id" doc:"Recording ID"`
	Body struct {
		SilenceThresholdDB float64 `json:"silence_threshold_db,omitempty" doc:"Silence threshold in dBFS, e.g. -40"`
		MinSilenceSec      float64 `json:"min_silence_sec,omitempty" minimum:"0" doc:"Minimum silence length in seconds"`
		MinTrackSec        float64 `json:"min_track_sec,omitempty" minimum:"0" doc:"Minimum track length in seconds"`
	}
}

// SessionIDInput is the path parameter for session endpoints.
type SessionIDInput struct {
	ID string `path:"id" doc:"Session ID"`
}

// SplitTrackInput places a new boundary inside an existing track.
type SplitTrackInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Revision int     `json:"revision" doc:"Track set revision this edit is based on"`
		At       float64 `json:"at" minimum:"0" doc:"Split position in seconds"`
	}
}

// DeleteTrackInput removes a track from the set.
type DeleteTrackInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Revision int `json:"revision" doc:"Track set revision this edit is based on"`
		Number   int `json:"number" minimum:"1" doc:"Track number"`
	}
}

// ResizeTrackInput moves a track's boundaries.
type ResizeTrackInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Revision int     `json:"revision" doc:"Track set revision this edit is based on"`
		Number   int     `json:"number" minimum:"1" doc:"Track number"`
		Start    float64 `json:"start" doc:"New start in seconds"`
		End      float64 `json:"end" doc:"New end in seconds"`
	}
}

// ToggleIgnoredInput flips a track's ignored flag.
type ToggleIgnoredInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Revision int `json:"revision" doc:"Track set revision this edit is based on"`
		Number   int `json:"number" minimum:"1" doc:"Track number"`
	}
}

// ToggleIgnoredOutput reports the session and the track's new state.
type ToggleIgnoredOutput struct {
	Body struct {
		Session SessionResponse `json:"session"`
		Ignored bool            `json:"ignored" doc:"New ignored state"`
	}
}

// SplitByCatalogInput rebuilds the track set from catalog durations.
type SplitByCatalogInput struct {
	ID   string `path:"id" doc:"Recording ID"`
	Body struct {
		Revision  int `json:"revision" doc:"Track set revision this edit is based on"`
		ReleaseID int `json:"release_id" minimum:"1" doc:"Discogs release ID"`
	}
}

// ReconcileCountsInput compares track counts against a release.
type ReconcileCountsInput struct {
	ID      string `path:"id" doc:"Session ID"`
	Release int    `query:"release" minimum:"1" doc:"Discogs release ID"`
}

// ReconcileCountsOutput wraps the count report for huma.
type ReconcileCountsOutput struct {
	Body mapping.CountReport
}

// ConfirmMappingInput pairs active tracks with a release tracklist.
type ConfirmMappingInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Revision  int  `json:"revision" doc:"Track set revision the mapping is built from"`
		ReleaseID int  `json:"release_id" minimum:"1" doc:"Discogs release ID"`
		Reversed  bool `json:"reversed,omitempty" doc:"Pair the last audio track with the first catalog track"`
	}
}

// ConfirmMappingOutput carries the session and duration warnings.
type ConfirmMappingOutput struct {
	Body struct {
		Session  SessionResponse           `json:"session"`
		Warnings []mapping.DurationWarning `json:"warnings,omitempty" doc:"Advisory duration mismatches"`
	}
}

// === Handlers ===

func (s *Server) handleAnalyze(ctx context.Context, input *AnalyzeInput) (*SessionOutput, error) {
	params := domain.AnalysisParams{
		SilenceThresholdDB: input.Body.SilenceThresholdDB,
		MinSilenceSec:      input.Body.MinSilenceSec,
		MinTrackSec:        input.Body.MinTrackSec,
	}

	session, err := s.services.Analysis.Analyze(ctx, input.ID, params)
	if err != nil {
		return nil, huma.Error500InternalServerError("analysis failed", err)
	}
	return &SessionOutput{Body: toSessionResponse(session)}, nil
}

func (s *Server) handleGetSession(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
	session, err := s.services.Analysis.GetSession(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("session not found", err)
	}
	return &SessionOutput{Body: toSessionResponse(session)}, nil
}

func (s *Server) handleGetSessionByRecording(ctx context.Context, input *RecordingIDInput) (*SessionOutput, error) {
	session, err := s.services.Analysis.GetSessionByRecording(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("no session for recording", err)
	}
	return &SessionOutput{Body: toSessionResponse(session)}, nil
}

func (s *Server) handleSplitTrack(ctx context.Context, input *SplitTrackInput) (*SessionOutput, error) {
	session, err := s.services.Analysis.SplitTrack(ctx, input.ID, input.Body.Revision, input.Body.At)
	if err != nil {
		return nil, huma.Error500InternalServerError("split failed", err)
	}
	return &SessionOutput{Body: toSessionResponse(session)}, nil
}

func (s *Server) handleDeleteTrack(ctx context.Context, input *DeleteTrackInput) (*SessionOutput, error) {
	session, err := s.services.Analysis.DeleteTrack(ctx, input.ID, input.Body.Revision, input.Body.Number)
	if err != nil {
		return nil, huma.Error500InternalServerError("delete failed", err)
	}
	return &SessionOutput{Body: toSessionResponse(session)}, nil
}

func (s *Server) handleResizeTrack(ctx context.Context, input *ResizeTrackInput) (*SessionOutput, error) {
	session, err := s.services.Analysis.ResizeTrack(ctx, input.ID, input.Body.Revision, input.Body.Number, input.Body.Start, input.Body.End)
	if err != nil {
		return nil, huma.Error500InternalServerError("resize failed", err)
	}
	return &SessionOutput{Body: toSessionResponse(session)}, nil
}

func (s *Server) handleToggleIgnored(ctx context.Context, input *ToggleIgnoredInput) (*ToggleIgnoredOutput, error) {
	session, ignored, err := s.services.Analysis.ToggleTrackIgnored(ctx, input.ID, input.Body.Revision, input.Body.Number)
	if err != nil {
		return nil, huma.Error500InternalServerError("toggle failed", err)
	}

	out := &ToggleIgnoredOutput{}
	out.Body.Session = toSessionResponse(session)
	out.Body.Ignored = ignored
	return out, nil
}

func (s *Server) handleSplitByCatalog(ctx context.Context, input *SplitByCatalogInput) (*SessionOutput, error) {
	session, err := s.services.Analysis.GetSessionByRecording(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("no session for recording", err)
	}

	session, err = s.services.Analysis.SplitByCatalog(ctx, session.ID, input.Body.Revision, input.Body.ReleaseID)
	if err != nil {
		return nil, huma.Error500InternalServerError("duration split failed", err)
	}
	return &SessionOutput{Body: toSessionResponse(session)}, nil
}

func (s *Server) handleReconcileCounts(ctx context.Context, input *ReconcileCountsInput) (*ReconcileCountsOutput, error) {
	report, err := s.services.Analysis.ReconcileCounts(ctx, input.ID, input.Release)
	if err != nil {
		return nil, huma.Error500InternalServerError("reconcile failed", err)
	}
	return &ReconcileCountsOutput{Body: *report}, nil
}

func (s *Server) handleConfirmMapping(ctx context.Context, input *ConfirmMappingInput) (*ConfirmMappingOutput, error) {
	session, warnings, err := s.services.Analysis.ConfirmMapping(ctx, input.ID, input.Body.Revision, input.Body.ReleaseID, input.Body.Reversed)
	if err != nil {
		return nil, huma.Error500InternalServerError("mapping failed", err)
	}

	out := &ConfirmMappingOutput{}
	out.Body.Session = toSessionResponse(session)
	out.Body.Warnings = warnings
	return out, nil
}
