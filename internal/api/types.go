package api

import (
	"encoding/json"
	"time"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StartJobRequest asks the daemon to start a transcode.
type StartJobRequest struct {
	RequestID              string `json:"requestId"`
	SourceURI              string `json:"sourceUri"`
	Quality                string `json:"quality,omitempty"`
	TargetPath             string `json:"targetPath,omitempty"`
	KeepOriginalResolution *bool  `json:"keepOriginalResolution,omitempty"`
	Debug                  bool   `json:"debug,omitempty"`
}

// StartJobResponse reports the accepted job.
type StartJobResponse struct {
	RequestID  string `json:"requestId"`
	OutputPath string `json:"outputPath"`
}

// Job describes a job in a transport-friendly format.
type Job struct {
	RequestID  string       `json:"requestId"`
	SourceURI  string       `json:"sourceUri"`
	OutputPath string       `json:"outputPath"`
	State      string       `json:"state"`
	Progress   float64      `json:"progress"`
	Quality    string       `json:"quality"`
	Engine     string       `json:"engine"`
	Debug      bool         `json:"debug,omitempty"`
	Video      *TrackTarget `json:"video,omitempty"`
	Audio      *TrackTarget `json:"audio,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  string       `json:"createdAt,omitempty"`
	UpdatedAt  string       `json:"updatedAt,omitempty"`
}

// TrackTarget summarizes a derived output track. Unknown numeric attributes are zero.
type TrackTarget struct {
	MimeType       string `json:"mimeType"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Bitrate        int    `json:"bitrate,omitempty"`
	FrameRate      int    `json:"frameRate,omitempty"`
	IFrameInterval int    `json:"iFrameInterval,omitempty"`
	Rotation       int    `json:"rotation"`
	ChannelCount   int    `json:"channelCount,omitempty"`
	SampleRate     int    `json:"sampleRate,omitempty"`
	DurationUs     int64  `json:"durationUs,omitempty"`
}

// JobListResponse wraps live and recently finished jobs.
type JobListResponse struct {
	Jobs   []Job `json:"jobs"`
	Recent []Job `json:"recent,omitempty"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// CancelResponse acknowledges a cancel request. Cancelling an unknown id is
// not an error; Live reports whether a job was found.
type CancelResponse struct {
	RequestID string `json:"requestId"`
	Live      bool   `json:"live"`
}

// Event is a lifecycle envelope as served to clients.
type Event struct {
	Sequence  uint64          `json:"seq"`
	Name      string          `json:"name"`
	Version   int             `json:"version"`
	RequestID string          `json:"requestId,omitempty"`
	Timestamp string          `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// EventStreamResponse wraps a batch of events and the cursor for the next fetch.
type EventStreamResponse struct {
	Events []Event `json:"events"`
	Next   uint64  `json:"next"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	LockFilePath string             `json:"lockFilePath"`
	ScratchDir   string             `json:"scratchDir"`
	Engine       string             `json:"engine"`
	ActiveJobs   int                `json:"activeJobs"`
	LastEvent    uint64             `json:"lastEvent"`
	StartedAt    string             `json:"startedAt,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// ErrorResponse is the body of every non-2xx HTTP response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// FormatTime renders t for API payloads; the zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// LogEvent is a daemon log line as served to clients.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp string            `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Engine    string            `json:"engine,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse wraps a batch of log lines and the cursor for the next fetch.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// NotificationResponse reports the outcome of a test notification.
type NotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
