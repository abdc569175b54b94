package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"vidpress/internal/api"
	"vidpress/internal/config"
	"vidpress/internal/deps"
	"vidpress/internal/events"
	"vidpress/internal/jobs"
	"vidpress/internal/logging"
	"vidpress/internal/notifications"
	"vidpress/internal/preflight"
)

const drainTimeout = 10 * time.Second

// Daemon owns the job supervisor, the HTTP API and the single-instance lock.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	supervisor *jobs.Supervisor
	jobs       *api.JobService
	events     *events.Hub
	logStream  *logging.StreamHub
	notifier   notifications.Service

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	mu        sync.Mutex
	startedAt time.Time
	cancel    context.CancelFunc
	api       *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	ScratchDir   string
	Engine       string
	ActiveJobs   int
	LastEvent    uint64
	StartedAt    time.Time
	Dependencies []deps.Status
}

// Option customizes optional daemon collaborators.
type Option func(*Daemon)

// WithLogStream exposes hub through the /api/logs endpoint.
func WithLogStream(hub *logging.StreamHub) Option {
	return func(d *Daemon) { d.logStream = hub }
}

// WithNotifier overrides the notifier used by TestNotification.
func WithNotifier(n notifications.Service) Option {
	return func(d *Daemon) {
		if n != nil {
			d.notifier = n
		}
	}
}

// New constructs a daemon around an already wired supervisor and event hub.
func New(cfg *config.Config, sup *jobs.Supervisor, hub *events.Hub, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || sup == nil || hub == nil {
		return nil, errors.New("daemon requires config, supervisor, and event hub")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		supervisor: sup,
		events:     hub,
		lockPath:   cfg.Paths.LockPath,
		lock:       flock.New(cfg.Paths.LockPath),
		jobs: api.NewJobService(sup, api.Defaults{
			Quality:                cfg.Transcode.DefaultQuality,
			KeepOriginalResolution: cfg.Transcode.KeepOriginalResolution,
		}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}
	return d, nil
}

// Start acquires the daemon lock, runs preflight checks and starts the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vidpress daemon instance is already running")
	}

	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "jobs depending on this check will fail"),
			logging.String(logging.FieldErrorHint, "run `vidpress status` for details"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	if err := srv.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.api = srv
	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("vidpress daemon started",
		logging.String("lock", d.lockPath),
		logging.String("engine", d.supervisor.EngineName()),
		logging.String("scratch_dir", d.cfg.Paths.ScratchDir),
	)
	return nil
}

// Stop cancels live jobs, shuts down the HTTP API and releases the lock.
// The supervisor stays usable so the daemon can be started again.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	for _, job := range d.supervisor.Jobs() {
		d.supervisor.Cancel(job.RequestID)
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.api = nil
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next daemon start may report a stale lock"),
		)
	}
	d.running.Store(false)
	d.logger.Info("vidpress daemon stopped")
}

// Close stops the daemon and waits for in-flight jobs to settle.
func (d *Daemon) Close() error {
	d.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	return d.supervisor.Close(ctx)
}

// Jobs returns the request-facing job service.
func (d *Daemon) Jobs() *api.JobService {
	return d.jobs
}

// Events returns the lifecycle event buffer.
func (d *Daemon) Events() *events.Hub {
	return d.events
}

// LogStream returns the in-memory log hub, or nil when none is wired.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logStream
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	startedAt := d.startedAt
	d.mu.Unlock()
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		ScratchDir:   d.cfg.Paths.ScratchDir,
		Engine:       d.supervisor.EngineName(),
		ActiveJobs:   d.supervisor.Active(),
		LastEvent:    d.events.Last(),
		StartedAt:    startedAt,
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
	}
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// StatusDTO converts a status snapshot for transport.
func StatusDTO(status Status) api.DaemonStatus {
	out := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		LockFilePath: status.LockFilePath,
		ScratchDir:   status.ScratchDir,
		Engine:       status.Engine,
		ActiveJobs:   status.ActiveJobs,
		LastEvent:    status.LastEvent,
		StartedAt:    api.FormatTime(status.StartedAt),
		Dependencies: make([]api.DependencyStatus, 0, len(status.Dependencies)),
	}
	for _, dep := range status.Dependencies {
		out.Dependencies = append(out.Dependencies, api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}
