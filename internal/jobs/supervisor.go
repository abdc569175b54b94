package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidpress/internal/engine"
	"vidpress/internal/events"
	"vidpress/internal/logging"
	"vidpress/internal/media/inspect"
	"vidpress/internal/profile"
	"vidpress/internal/services"
)

const (
	defaultOutputExtension = "mp4"
	defaultHistorySize     = 100
	outputPrefix           = "transcoded_"
)

// Inspector reads source track metadata.
type Inspector interface {
	Inspect(ctx context.Context, uri string) (inspect.Source, error)
}

// Publisher forwards lifecycle events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// Recorder observes job outcomes for metrics.
type Recorder interface {
	JobStarted(engineName string)
	JobProgress(engineName string, percent float64)
	JobFinished(engineName string, state State, elapsed time.Duration)
	StartRejected(code string)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Supervisor) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Supervisor) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScratchDir sets where generated output paths are placed.
func WithScratchDir(dir string) Option {
	return func(s *Supervisor) {
		if strings.TrimSpace(dir) != "" {
			s.scratchDir = dir
		}
	}
}

// WithOutputExtension sets the container extension of generated output paths.
func WithOutputExtension(ext string) Option {
	return func(s *Supervisor) {
		if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
			s.outputExt = ext
		}
	}
}

// WithHistorySize bounds how many finished jobs remain visible to Job.
func WithHistorySize(n int) Option {
	return func(s *Supervisor) {
		if n >= 0 {
			s.historySize = n
		}
	}
}

// Supervisor owns the live job set. It starts transforms on the engine,
// filters engine callbacks per job and republishes them as events.
type Supervisor struct {
	engine    engine.Engine
	inspector Inspector
	publisher Publisher
	recorder  Recorder
	logger    *slog.Logger

	scratchDir  string
	outputExt   string
	historySize int
	now         func() time.Time
	newID       func() string

	baseCtx context.Context
	stopAll context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	live    map[string]*entry
	history []Job
	closed  bool
}

type entry struct {
	job             Job
	filter          *filter
	cancel          context.CancelFunc
	cancelRequested bool
	eventCtx        context.Context
	sampler         *logging.ProgressSampler
	logger          *slog.Logger
}

// New builds a supervisor around an engine and inspector.
func New(eng engine.Engine, inspector Inspector, opts ...Option) (*Supervisor, error) {
	if eng == nil {
		return nil, errors.New("jobs: engine required")
	}
	if inspector == nil {
		return nil, errors.New("jobs: inspector required")
	}
	s := &Supervisor{
		engine:      eng,
		inspector:   inspector,
		publisher:   events.NewPublisher(nil, nil),
		recorder:    noopRecorder{},
		logger:      logging.NewNop(),
		scratchDir:  os.TempDir(),
		outputExt:   defaultOutputExtension,
		historySize: defaultHistorySize,
		now:         time.Now,
		newID:       uuid.NewString,
		live:        make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "jobs")
	s.baseCtx, s.stopAll = context.WithCancel(context.Background())
	return s, nil
}

// Start validates the request, derives the output profile synchronously and
// launches the transform in the background. It returns the output path.
// Source problems are reported here and register no job; engine failures are
// only reported as onFailure events.
func (s *Supervisor) Start(ctx context.Context, requestID, sourceURI string, opts Options) (string, error) {
	requestID = strings.TrimSpace(requestID)
	logger := logging.WithContext(services.WithRequestID(ctx, requestID), s.logger)

	if requestID == "" {
		return "", s.reject(logger, services.Wrap(services.ErrValidation, "jobs", "start", "request id required", nil))
	}
	if s.isLive(requestID) {
		return "", s.reject(logger, duplicateError(requestID))
	}
	outputPath := s.outputPath(opts.TargetPath)

	source, err := s.inspector.Inspect(ctx, sourceURI)
	if err != nil {
		if !errors.Is(err, services.ErrSourceRead) {
			err = services.Wrap(services.ErrSourceRead, "jobs", "inspect", sourceURI, err)
		}
		return "", s.reject(logger, err)
	}
	derived, err := profile.Derive(source, profile.Options{
		Quality:                opts.Quality,
		KeepOriginalResolution: opts.KeepOriginalResolution,
	})
	if err != nil {
		return "", s.reject(logger, err)
	}

	now := s.now()
	jobCtx := services.WithEngine(services.WithRequestID(s.baseCtx, requestID), s.engine.Name())
	jobCtx, cancel := context.WithCancel(jobCtx)
	e := &entry{
		job: Job{
			RequestID:  requestID,
			SourceURI:  sourceURI,
			OutputPath: outputPath,
			State:      StatePending,
			Quality:    opts.Quality,
			Engine:     s.engine.Name(),
			Debug:      opts.DebugEnabled,
			Video:      derived.Video,
			Audio:      derived.Audio,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		cancel:   cancel,
		eventCtx: context.WithoutCancel(jobCtx),
		sampler:  logging.NewProgressSampler(10),
		logger:   logging.WithContext(jobCtx, s.logger),
	}
	e.filter = &filter{requestID: requestID, entry: e, target: s}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		cancel()
		return "", s.reject(logger, services.Wrap(services.ErrTransient, "jobs", "start", "supervisor is shutting down", nil))
	case s.live[requestID] != nil:
		s.mu.Unlock()
		cancel()
		return "", s.reject(logger, duplicateError(requestID))
	}
	s.live[requestID] = e
	s.wg.Add(1)
	s.mu.Unlock()

	e.logger.Info("job accepted",
		logging.String(logging.FieldEventType, "job_accepted"),
		logging.String("source", sourceURI),
		logging.String("output", outputPath),
		logging.String("quality", opts.Quality.String()),
		logging.Bool("keep_resolution", opts.KeepOriginalResolution),
	)
	for _, line := range derived.Trace {
		e.logger.Debug("profile decision", logging.String(logging.FieldDecisionType, "profile"), logging.String("detail", line))
		if opts.DebugEnabled {
			s.publisher.Publish(jobCtx, events.Debug(requestID, line))
		}
	}
	s.recorder.JobStarted(e.job.Engine)

	req := engine.Request{
		ID:         requestID,
		SourceURI:  sourceURI,
		SourcePath: source.Path,
		OutputPath: outputPath,
		Video:      derived.Video,
		Audio:      derived.Audio,
	}
	go s.run(jobCtx, e, req)
	return outputPath, nil
}

// Cancel asks the engine to stop the live job for requestID. Unknown and
// finished ids are ignored.
func (s *Supervisor) Cancel(requestID string) {
	requestID = strings.TrimSpace(requestID)
	s.mu.Lock()
	e := s.live[requestID]
	if e == nil {
		s.mu.Unlock()
		return
	}
	e.cancelRequested = true
	// The engine cancels by id, so it must run while e still owns the id;
	// otherwise a replacement job started under the same id could be hit.
	s.engine.Cancel(requestID)
	s.mu.Unlock()

	e.logger.Info("job cancel requested", logging.String(logging.FieldEventType, "job_cancel_requested"))
	e.cancel()
}

// Jobs returns snapshots of the live jobs ordered by creation time.
func (s *Supervisor) Jobs() []Job {
	s.mu.Lock()
	out := make([]Job, 0, len(s.live))
	for _, e := range s.live {
		out = append(out, e.job)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RequestID < out[j].RequestID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Recent returns finished jobs, newest first.
func (s *Supervisor) Recent() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, len(s.history))
	for i, job := range s.history {
		out[len(s.history)-1-i] = job
	}
	return out
}

// Job looks up a live job, falling back to recently finished ones.
func (s *Supervisor) Job(requestID string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.live[requestID]; ok {
		return e.job, true
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].RequestID == requestID {
			return s.history[i], true
		}
	}
	return Job{}, false
}

// Active returns the number of live jobs.
func (s *Supervisor) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// EngineName identifies the transform engine.
func (s *Supervisor) EngineName() string { return s.engine.Name() }

// Close stops accepting jobs, cancels the live ones and waits for their
// transforms to return or ctx to end.
func (s *Supervisor) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ids := make([]string, 0, len(s.live))
	for id := range s.live {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Cancel(id)
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.stopAll()
		return nil
	case <-ctx.Done():
		s.stopAll()
		return ctx.Err()
	}
}

func (s *Supervisor) run(ctx context.Context, e *entry, req engine.Request) {
	defer s.wg.Done()
	s.engine.Transform(ctx, req, e.filter)

	s.mu.Lock()
	live := s.live[req.ID] == e
	requested := e.cancelRequested
	s.mu.Unlock()
	if !live {
		return
	}
	if requested {
		s.finished(e, StateCancelled, nil)
		return
	}
	s.finished(e, StateFailed, services.Wrap(services.ErrEngine, "jobs", "transform", "engine exited without terminal status", nil))
}

func (s *Supervisor) started(e *entry) {
	s.mu.Lock()
	if !s.isCurrentLocked(e) || e.job.State != StatePending {
		s.mu.Unlock()
		return
	}
	e.job.State = StateRunning
	e.job.UpdatedAt = s.now()
	s.mu.Unlock()

	e.logger.Info("job started", logging.String(logging.FieldEventType, "job_started"), logging.String(logging.FieldJobState, string(StateRunning)))
	s.publisher.Publish(e.eventCtx, events.Started(e.job.RequestID))
}

func (s *Supervisor) progressed(e *entry, fraction float64) {
	percent := clampPercent(fraction * 100)
	s.mu.Lock()
	if !s.isCurrentLocked(e) {
		s.mu.Unlock()
		return
	}
	if e.job.State == StatePending {
		e.job.State = StateRunning
	}
	e.job.Progress = percent
	e.job.UpdatedAt = s.now()
	shouldLog := e.sampler.ShouldLog(percent)
	engineName := e.job.Engine
	s.mu.Unlock()

	if shouldLog {
		e.logger.Info("job progress", logging.Float64(logging.FieldProgressPercent, percent))
	}
	s.recorder.JobProgress(engineName, percent)
	s.publisher.Publish(e.eventCtx, events.Progress(e.job.RequestID, percent))
}

// finished applies the first terminal outcome for a live entry. Later and
// stale terminal callbacks are ignored.
func (s *Supervisor) finished(e *entry, state State, cause error) {
	s.mu.Lock()
	if !s.isCurrentLocked(e) {
		s.mu.Unlock()
		e.logger.Debug("terminal callback ignored", logging.String(logging.FieldJobState, string(state)))
		return
	}
	from := e.job.State
	if from == StatePending && state == StateCompleted {
		from = StateRunning
	}
	if err := ValidateTransition(from, state); err != nil {
		s.mu.Unlock()
		logging.WarnWithContext(e.logger, "unexpected job transition", "job_transition_invalid",
			logging.Error(err),
			logging.String(logging.FieldImpact, "callback ignored"),
		)
		return
	}
	delete(s.live, e.job.RequestID)
	e.job.State = state
	e.job.UpdatedAt = s.now()
	if state == StateCompleted {
		e.job.Progress = 100
	}
	if cause != nil {
		e.job.Error = cause.Error()
	}
	snapshot := e.job
	s.rememberLocked(snapshot)
	s.mu.Unlock()

	e.cancel()
	s.recorder.JobFinished(snapshot.Engine, state, snapshot.Elapsed())

	ctx := e.eventCtx
	attrs := []logging.Attr{
		logging.String(logging.FieldJobState, string(state)),
		logging.Duration("elapsed", snapshot.Elapsed()),
	}
	switch state {
	case StateCompleted:
		e.logger.Info("job completed", logging.Args(append(attrs,
			logging.String(logging.FieldEventType, "job_completed"),
			logging.String("output", snapshot.OutputPath))...)...)
		s.publisher.Publish(ctx, events.Completed(snapshot.RequestID, snapshot.OutputPath))
	case StateCancelled:
		e.logger.Info("job cancelled", logging.Args(append(attrs, logging.String(logging.FieldEventType, "job_cancelled"))...)...)
		s.publisher.Publish(ctx, events.Cancelled(snapshot.RequestID))
	default:
		logging.ErrorWithContext(e.logger, "job failed", "job_failed", append(attrs,
			logging.Error(cause),
			logging.String(logging.FieldErrorCode, services.Code(cause)),
			logging.String(logging.FieldErrorHint, services.Hint(cause)),
		)...)
		s.publisher.Publish(ctx, events.Failed(snapshot.RequestID, cause))
	}
}

func (s *Supervisor) dropped(e *entry, callbackID, callback string) {
	e.logger.Debug("foreign engine callback dropped",
		logging.String("callback", callback),
		logging.String("callback_request_id", callbackID),
	)
}

func (s *Supervisor) isCurrentLocked(e *entry) bool {
	return s.live[e.job.RequestID] == e
}

func (s *Supervisor) isLive(requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[requestID]
	return ok
}

func (s *Supervisor) rememberLocked(job Job) {
	if s.historySize == 0 {
		return
	}
	if len(s.history) == s.historySize {
		copy(s.history, s.history[1:])
		s.history = s.history[:s.historySize-1]
	}
	s.history = append(s.history, job)
}

func (s *Supervisor) outputPath(target string) string {
	if target = strings.TrimSpace(target); target != "" {
		return target
	}
	return filepath.Join(s.scratchDir, fmt.Sprintf("%s%s.%s", outputPrefix, s.newID(), s.outputExt))
}

func (s *Supervisor) reject(logger *slog.Logger, err error) error {
	s.recorder.StartRejected(services.Code(err))
	logging.WarnWithContext(logger, "job start rejected", "job_rejected",
		logging.Error(err),
		logging.String(logging.FieldErrorCode, services.Code(err)),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
		logging.String(logging.FieldImpact, "no job was registered"),
	)
	return err
}

func duplicateError(requestID string) error {
	return services.Wrap(services.ErrDuplicateRequest, "jobs", "start", requestID+" is already running", nil)
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0 || math.IsNaN(p):
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

type noopRecorder struct{}

func (noopRecorder) JobStarted(string)                        {}
func (noopRecorder) JobProgress(string, float64)              {}
func (noopRecorder) JobFinished(string, State, time.Duration) {}
func (noopRecorder) StartRejected(string)                     {}
