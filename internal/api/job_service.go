package api

import (
	"context"
	"strings"

	"vidpress/internal/jobs"
	"vidpress/internal/profile"
	"vidpress/internal/services"
)

// Supervisor is the subset of jobs.Supervisor the API layer drives.
type Supervisor interface {
	Start(ctx context.Context, requestID, sourceURI string, opts jobs.Options) (string, error)
	Cancel(requestID string)
	Jobs() []jobs.Job
	Recent() []jobs.Job
	Job(requestID string) (jobs.Job, bool)
}

// Defaults fill request options the caller left unset.
type Defaults struct {
	Quality                string
	KeepOriginalResolution bool
}

// JobService translates transport requests into supervisor calls and returns DTOs.
type JobService struct {
	sup      Supervisor
	defaults Defaults
}

// NewJobService constructs a JobService around the supervisor.
func NewJobService(sup Supervisor, defaults Defaults) *JobService {
	if sup == nil {
		return nil
	}
	return &JobService{sup: sup, defaults: defaults}
}

// Start validates and starts a job. Errors keep their services marker so
// transports can map them to status codes.
func (s *JobService) Start(ctx context.Context, req StartJobRequest) (StartJobResponse, error) {
	if s == nil {
		return StartJobResponse{}, services.Wrap(services.ErrConfiguration, "api", "start", "job service unavailable", nil)
	}
	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		return StartJobResponse{}, services.Wrap(services.ErrValidation, "api", "start", "requestId is required", nil)
	}
	source := strings.TrimSpace(req.SourceURI)
	if source == "" {
		return StartJobResponse{}, services.Wrap(services.ErrValidation, "api", "start", "sourceUri is required", nil)
	}
	quality := strings.TrimSpace(req.Quality)
	if quality == "" {
		quality = s.defaults.Quality
	}
	keep := s.defaults.KeepOriginalResolution
	if req.KeepOriginalResolution != nil {
		keep = *req.KeepOriginalResolution
	}
	opts := jobs.Options{
		Quality:                profile.ParseQuality(quality),
		TargetPath:             req.TargetPath,
		KeepOriginalResolution: keep,
		DebugEnabled:           req.Debug,
	}
	out, err := s.sup.Start(services.WithRequestID(ctx, requestID), requestID, source, opts)
	if err != nil {
		return StartJobResponse{}, err
	}
	return StartJobResponse{RequestID: requestID, OutputPath: out}, nil
}

// Cancel forwards a cancel and reports whether a live job existed.
func (s *JobService) Cancel(requestID string) CancelResponse {
	requestID = strings.TrimSpace(requestID)
	if s == nil {
		return CancelResponse{RequestID: requestID}
	}
	live := false
	if job, ok := s.sup.Job(requestID); ok && !job.State.Terminal() {
		live = true
	}
	s.sup.Cancel(requestID)
	return CancelResponse{RequestID: requestID, Live: live}
}

// List returns live jobs and, when requested, recently finished ones.
func (s *JobService) List(includeRecent bool) JobListResponse {
	if s == nil {
		return JobListResponse{Jobs: []Job{}}
	}
	resp := JobListResponse{Jobs: FromJobs(s.sup.Jobs())}
	if includeRecent {
		resp.Recent = FromJobs(s.sup.Recent())
	}
	return resp
}

// Describe fetches one job.
func (s *JobService) Describe(requestID string) (Job, error) {
	if s != nil {
		if job, ok := s.sup.Job(strings.TrimSpace(requestID)); ok {
			return FromJob(job), nil
		}
	}
	return Job{}, services.Wrap(services.ErrNotFound, "api", "describe", requestID, nil)
}
