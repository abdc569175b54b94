package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"vidpress/internal/engine"
	"vidpress/internal/logging"
	"vidpress/internal/services"
)

var commandContext = exec.CommandContext

const stderrTailBytes = 8 << 10

// Option configures the engine.
type Option func(*Engine)

// WithBinary overrides the ffmpeg executable.
func WithBinary(binary string) Option {
	return func(e *Engine) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithPreset sets the libx264 preset.
func WithPreset(preset string) Option {
	return func(e *Engine) {
		if preset != "" {
			e.preset = preset
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine transcodes with the ffmpeg CLI, one process per request.
type Engine struct {
	binary string
	preset string
	logger *slog.Logger
	runs   engine.Runs
}

// New constructs an ffmpeg engine using defaults.
func New(opts ...Option) *Engine {
	e := &Engine{binary: "ffmpeg", preset: DefaultPreset, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "engine.ffmpeg")
	return e
}

// Name identifies the engine in logs and status output.
func (e *Engine) Name() string { return "ffmpeg" }

// Cancel stops the process for requestID, if one is running.
func (e *Engine) Cancel(requestID string) {
	if e.runs.Cancel(requestID) {
		e.logger.Debug("ffmpeg cancel requested", logging.String(logging.FieldRequestID, requestID))
	}
}

// Active returns the number of running ffmpeg processes.
func (e *Engine) Active() int { return e.runs.Active() }

// Transform runs ffmpeg for req and blocks until it exits. Partial output is
// removed on cancellation or failure.
func (e *Engine) Transform(ctx context.Context, req engine.Request, l engine.Listener) {
	if l == nil {
		l = nopListener{}
	}
	tracks := req.Tracks()
	logger := e.logger.With(logging.String(logging.FieldRequestID, req.ID))

	runCtx, done := e.runs.Begin(ctx, req.ID)
	fail := func(operation string, err error) {
		interrupted := runCtx.Err() != nil
		if cancelled := done(); cancelled || interrupted {
			removePartial(logger, req.OutputPath)
			logger.Info("ffmpeg cancelled before start", logging.String(logging.FieldEventType, "engine_cancelled"))
			l.OnCancelled(req.ID, tracks)
			return
		}
		l.OnError(req.ID, services.Wrap(services.ErrEngine, "ffmpeg", operation, req.ID, err), tracks)
	}

	args, err := BuildArgs(req, e.preset)
	if err != nil {
		fail("build args", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		fail("prepare output", err)
		return
	}

	cmd := commandContext(runCtx, e.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		fail("stdout pipe", err)
		return
	}
	stderr := &tailBuffer{limit: stderrTailBytes}
	cmd.Stderr = stderr

	logger.Debug("ffmpeg starting", logging.Args(logging.String("output", req.OutputPath), logging.Any("args", args))...)
	if err := cmd.Start(); err != nil {
		fail("start", err)
		return
	}
	l.OnStarted(req.ID)

	parser := &progressParser{durationUs: req.DurationUs()}
	last := -1.0
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		fraction, ok := parser.Feed(scanner.Text())
		if !ok || fraction <= last {
			continue
		}
		last = fraction
		l.OnProgress(req.ID, fraction)
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	cancelled := done()
	if cancelled || (waitErr != nil && ctx.Err() != nil) {
		removePartial(logger, req.OutputPath)
		logger.Info("ffmpeg cancelled", logging.String(logging.FieldEventType, "engine_cancelled"))
		l.OnCancelled(req.ID, tracks)
		return
	}
	if waitErr != nil {
		removePartial(logger, req.OutputPath)
		detail := stderr.LastLine()
		if detail == "" {
			detail = waitErr.Error()
		}
		l.OnError(req.ID, services.Wrap(services.ErrEngine, "ffmpeg", "transcode", detail, waitErr), tracks)
		return
	}
	if scanErr != nil {
		removePartial(logger, req.OutputPath)
		l.OnError(req.ID, services.Wrap(services.ErrEngine, "ffmpeg", "read progress", req.ID, scanErr), tracks)
		return
	}
	if info, err := os.Stat(req.OutputPath); err != nil || info.Size() == 0 {
		if err == nil {
			err = errors.New("empty output")
		}
		removePartial(logger, req.OutputPath)
		l.OnError(req.ID, services.Wrap(services.ErrEngine, "ffmpeg", "verify output", req.OutputPath, err), tracks)
		return
	}
	if last < 1 {
		l.OnProgress(req.ID, 1)
	}
	l.OnCompleted(req.ID, tracks)
}

func removePartial(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove partial output",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "partial_output_cleanup_failed"),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("remove %s manually", path)),
			logging.String(logging.FieldImpact, "scratch space is not reclaimed"),
		)
	}
}

type nopListener struct{}

func (nopListener) OnStarted(string)                          {}
func (nopListener) OnProgress(string, float64)                {}
func (nopListener) OnCompleted(string, []engine.TrackInfo)    {}
func (nopListener) OnCancelled(string, []engine.TrackInfo)    {}
func (nopListener) OnError(string, error, []engine.TrackInfo) {}

var _ engine.Engine = (*Engine)(nil)
