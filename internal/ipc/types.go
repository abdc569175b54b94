package ipc

import "vidpress/internal/api"

// StartRequest asks the daemon to acquire its lock and start serving.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon and cancels live jobs.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// DependencyStatus describes availability of an external dependency.
type DependencyStatus = api.DependencyStatus

// StatusResponse mirrors the HTTP status payload.
type StatusResponse = api.DaemonStatus

// Job mirrors the HTTP job DTO.
type Job = api.Job

// JobStartRequest starts a transcode.
type JobStartRequest = api.StartJobRequest

// JobStartResponse reports the accepted job or the rejection. Rejections are
// carried in the response so clients keep the error code and hint, which
// net/rpc would flatten into a plain string.
type JobStartResponse struct {
	RequestID  string `json:"requestId"`
	OutputPath string `json:"outputPath,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

// JobCancelRequest cancels a job by request id.
type JobCancelRequest struct {
	RequestID string `json:"requestId"`
}

// JobCancelResponse acknowledges a cancel.
type JobCancelResponse = api.CancelResponse

// JobListRequest lists live jobs, optionally with recently finished ones.
type JobListRequest struct {
	Recent bool `json:"recent"`
}

// JobListResponse contains job snapshots.
type JobListResponse = api.JobListResponse

// JobDescribeRequest fetches one job.
type JobDescribeRequest struct {
	RequestID string `json:"requestId"`
}

// JobDescribeResponse contains a single job.
type JobDescribeResponse struct {
	Job Job `json:"job"`
}

// EventsRequest fetches lifecycle events after a cursor. WaitMillis turns the
// call into a long poll.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	WaitMillis int    `json:"waitMillis"`
	RequestID  string `json:"requestId,omitempty"`
}

// EventsResponse returns lifecycle envelopes and the next cursor.
type EventsResponse = api.EventStreamResponse

// LogTailRequest fetches daemon log lines after a cursor.
type LogTailRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"waitMillis"`
	Tail       bool   `json:"tail"`
	RequestID  string `json:"requestId,omitempty"`
	Component  string `json:"component,omitempty"`
}

// LogTailResponse returns log lines and the next cursor.
type LogTailResponse = api.LogStreamResponse

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
