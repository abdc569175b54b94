package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"vidpress/internal/config"
	"vidpress/internal/daemon"
	"vidpress/internal/deps"
	"vidpress/internal/engine/ffmpeg"
	"vidpress/internal/events"
	"vidpress/internal/ipc"
	"vidpress/internal/jobs"
	"vidpress/internal/logging"
	"vidpress/internal/media/inspect"
	"vidpress/internal/metrics"
	"vidpress/internal/notifications"
)

// PIDFileName is written to the log directory while the daemon runs.
const PIDFileName = "vidpress.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the vidpress daemon runtime loop and blocks until the context is
// canceled or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("vidpress-%s.log", runID))
	logHub := logging.NewStreamHub(4096)

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
		Hub:         logHub,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(signalCtx, logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update vidpress.log link: %v\n", err)
	}
	pidPath := filepath.Join(cfg.Paths.LogDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := build(cfg, logger, logHub)
	if err != nil {
		return err
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and the api_bind address"),
			logging.String(logging.FieldImpact, "daemon will not accept transcode requests until started"),
		)
	}

	<-signalCtx.Done()
	logger.Info("vidpress daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// build wires the ffmpeg engine, event fanout and job supervisor into a daemon.
func build(cfg *config.Config, logger *slog.Logger, logHub *logging.StreamHub) (*daemon.Daemon, error) {
	notifier := notifications.NewService(cfg)
	hub := events.NewHub(cfg.Events.BufferSize)
	publisher := events.NewPublisher(events.Fanout{
		hub,
		events.LogSink{Logger: logging.NewComponentLogger(logger, "events")},
		metrics.EventCounter{},
		notifications.Sink{Service: notifier},
	}, logger)

	eng := ffmpeg.New(
		ffmpeg.WithBinary(cfg.FFmpegBinary()),
		ffmpeg.WithPreset(cfg.Engine.X264Preset),
		ffmpeg.WithLogger(logger),
	)
	sup, err := jobs.New(eng, inspect.New(cfg.FFprobeBinary(), logger),
		jobs.WithPublisher(publisher),
		jobs.WithRecorder(metrics.NewJobObserver()),
		jobs.WithLogger(logger),
		jobs.WithScratchDir(cfg.Paths.ScratchDir),
		jobs.WithOutputExtension(cfg.OutputExtension()),
	)
	if err != nil {
		return nil, fmt.Errorf("create supervisor: %w", err)
	}

	d, err := daemon.New(cfg, sup, hub, logger,
		daemon.WithLogStream(logHub),
		daemon.WithNotifier(notifier),
	)
	if err != nil {
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "vidpress.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpegBinary := cfg.FFmpegBinary()
	ffprobeBinary := cfg.FFprobeBinary()
	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary},
		{Name: "FFprobe", Command: ffprobeBinary},
	})
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", statuses[0].Available),
		logging.String("ffmpeg_binary", ffmpegBinary),
		logging.Bool("ffprobe_available", statuses[1].Available),
		logging.String("ffprobe_binary", ffprobeBinary),
		logging.String("x264_preset", cfg.Engine.X264Preset),
		logging.Bool("ntfy_configured", cfg.Notifications.NtfyTopic != ""),
		logging.Bool("api_auth_enabled", cfg.Paths.APIToken != ""),
	}
	if statuses[0].Available {
		if version, err := deps.Version(ctx, ffmpegBinary); err == nil {
			attrs = append(attrs, logging.String("ffmpeg_version", version))
		}
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
