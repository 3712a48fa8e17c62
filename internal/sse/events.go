// Package sse implements Server-Sent Events for pushing digitization
// progress to connected browsers.
package sse

import (
	"time"
)

// The UI drives everything over request/response; SSE only carries
// server-to-client notifications (upload completion, analysis results,
// export progress), so connections are one-way.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventRecordingUploaded fires once an uploaded or inbox-detected
	// recording has been probed and stored.
	EventRecordingUploaded EventType = "recording.uploaded"
	// EventRecordingDeleted fires when a recording is removed.
	EventRecordingDeleted EventType = "recording.deleted"

	// EventAnalysisCompleted fires when silence detection finishes and
	// a session holds the initial track boundaries.
	EventAnalysisCompleted EventType = "analysis.completed"
	// EventAnalysisFailed fires when silence detection fails.
	EventAnalysisFailed EventType = "analysis.failed"

	// EventExportStarted fires when an export job begins running.
	EventExportStarted EventType = "export.started"
	// EventExportTrack fires after each track finishes extracting,
	// successfully or not.
	EventExportTrack EventType = "export.track"
	// EventExportCompleted fires when every track has been written.
	EventExportCompleted EventType = "export.completed"
	// EventExportFailed fires when a job aborts.
	EventExportFailed EventType = "export.failed"
	// EventExportCanceled fires when a job is canceled by the user.
	EventExportCanceled EventType = "export.canceled"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`
}

// RecordingUploadedEventData is the payload for recording.uploaded.
// Source is "upload" for HTTP uploads and "inbox" for files picked up
// from the watched folder.
type RecordingUploadedEventData struct {
	RecordingID string  `json:"recording_id"`
	Filename    string  `json:"filename"`
	DurationSec float64 `json:"duration_sec"`
	Source      string  `json:"source"`
}

// RecordingDeletedEventData is the payload for recording.deleted.
type RecordingDeletedEventData struct {
	DeletedAt   time.Time `json:"deleted_at"`
	RecordingID string    `json:"recording_id"`
}

// AnalysisCompletedEventData is the payload for analysis.completed.
type AnalysisCompletedEventData struct {
	RecordingID string `json:"recording_id"`
	SessionID   string `json:"session_id"`
	TrackCount  int    `json:"track_count"`
}

// AnalysisFailedEventData is the payload for analysis.failed.
type AnalysisFailedEventData struct {
	RecordingID string `json:"recording_id"`
	Error       string `json:"error"`
}

// ExportStartedEventData is the payload for export.started.
type ExportStartedEventData struct {
	JobID      string `json:"job_id"`
	SessionID  string `json:"session_id"`
	TrackTotal int    `json:"track_total"`
}

// ExportTrackEventData is the payload for export.track.
// Status is "completed" or "failed"; Error is set only on failure.
type ExportTrackEventData struct {
	JobID       string `json:"job_id"`
	TrackNumber int    `json:"track_number"`
	TrackTotal  int    `json:"track_total"`
	Position    string `json:"position"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// ExportCompletedEventData is the payload for export.completed.
type ExportCompletedEventData struct {
	JobID      string `json:"job_id"`
	OutputDir  string `json:"output_dir"`
	TrackCount int    `json:"track_count"`
	Failed     int    `json:"failed"`
}

// ExportFailedEventData is the payload for export.failed.
type ExportFailedEventData struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// ExportCanceledEventData is the payload for export.canceled.
type ExportCanceledEventData struct {
	JobID string `json:"job_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewRecordingUploadedEvent creates a recording.uploaded event.
func NewRecordingUploadedEvent(recordingID, filename string, durationSec float64, source string) Event {
	return Event{
		Type: EventRecordingUploaded,
		Data: RecordingUploadedEventData{
			RecordingID: recordingID,
			Filename:    filename,
			DurationSec: durationSec,
			Source:      source,
		},
		Timestamp: time.Now(),
	}
}

// NewRecordingDeletedEvent creates a recording.deleted event.
func NewRecordingDeletedEvent(recordingID string, deletedAt time.Time) Event {
	return Event{
		Type: EventRecordingDeleted,
		Data: RecordingDeletedEventData{
			RecordingID: recordingID,
			DeletedAt:   deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewAnalysisCompletedEvent creates an analysis.completed event.
func NewAnalysisCompletedEvent(recordingID, sessionID string, trackCount int) Event {
	return Event{
		Type: EventAnalysisCompleted,
		Data: AnalysisCompletedEventData{
			RecordingID: recordingID,
			SessionID:   sessionID,
			TrackCount:  trackCount,
		},
		Timestamp: time.Now(),
	}
}

// NewAnalysisFailedEvent creates an analysis.failed event.
func NewAnalysisFailedEvent(recordingID, errMsg string) Event {
	return Event{
		Type: EventAnalysisFailed,
		Data: AnalysisFailedEventData{
			RecordingID: recordingID,
			Error:       errMsg,
		},
		Timestamp: time.Now(),
	}
}

// NewExportStartedEvent creates an export.started event.
func NewExportStartedEvent(jobID, sessionID string, trackTotal int) Event {
	return Event{
		Type: EventExportStarted,
		Data: ExportStartedEventData{
			JobID:      jobID,
			SessionID:  sessionID,
			TrackTotal: trackTotal,
		},
		Timestamp: time.Now(),
	}
}

// NewExportTrackEvent creates an export.track event.
func NewExportTrackEvent(jobID string, trackNumber, trackTotal int, position, title, status, errMsg string) Event {
	return Event{
		Type: EventExportTrack,
		Data: ExportTrackEventData{
			JobID:       jobID,
			TrackNumber: trackNumber,
			TrackTotal:  trackTotal,
			Position:    position,
			Title:       title,
			Status:      status,
			Error:       errMsg,
		},
		Timestamp: time.Now(),
	}
}

// NewExportCompletedEvent creates an export.completed event.
func NewExportCompletedEvent(jobID, outputDir string, trackCount, failed int) Event {
	return Event{
		Type: EventExportCompleted,
		Data: ExportCompletedEventData{
			JobID:      jobID,
			OutputDir:  outputDir,
			TrackCount: trackCount,
			Failed:     failed,
		},
		Timestamp: time.Now(),
	}
}

// NewExportFailedEvent creates an export.failed event.
func NewExportFailedEvent(jobID, errMsg string) Event {
	return Event{
		Type: EventExportFailed,
		Data: ExportFailedEventData{
			JobID: jobID,
			Error: errMsg,
		},
		Timestamp: time.Now(),
	}
}

// NewExportCanceledEvent creates an export.canceled event.
func NewExportCanceledEvent(jobID string) Event {
	return Event{
		Type:      EventExportCanceled,
		Data:      ExportCanceledEventData{JobID: jobID},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
