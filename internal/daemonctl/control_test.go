package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"vidpress/internal/api"
	"vidpress/internal/ipc"
	"vidpress/internal/testsupport"
)

func TestLaunchArgs(t *testing.T) {
	got := launchArgs(LaunchOptions{SocketPath: " /tmp/v.sock ", ConfigPath: "/etc/v.toml", LogLevel: "debug"})
	want := []string{"daemon", "--socket", "/tmp/v.sock", "--config", "/etc/v.toml", "--log-level", "debug"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("launchArgs = %v, want %v", got, want)
	}
	if got := launchArgs(LaunchOptions{}); !reflect.DeepEqual(got, []string{"daemon"}) {
		t.Fatalf("bare launchArgs = %v", got)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestInterpretStart(t *testing.T) {
	tests := []struct {
		name     string
		resp     *ipc.StartResponse
		launched bool
		want     StartState
	}{
		{"started", &ipc.StartResponse{Started: true}, false, StartStateStarted},
		{"already running", &ipc.StartResponse{Message: "daemon already running"}, false, StartStateAlreadyRunning},
		{"already running after launch", &ipc.StartResponse{Message: "daemon already running"}, true, StartStateStarted},
		{"lock held", &ipc.StartResponse{Message: "another vidpress daemon instance is already running"}, false, StartStateRequested},
		{"nil", nil, false, StartStateRequested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interpretStart(tt.resp, tt.launched)
			if got.State != tt.want {
				t.Fatalf("state = %s, want %s", got.State, tt.want)
			}
		})
	}
}

func TestDaemonUnavailableWithoutSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")

	alive, pid, err := ProcessInfo(socket)
	if err != nil || alive || pid != 0 {
		t.Fatalf("ProcessInfo = %v %d %v", alive, pid, err)
	}
	if err := WaitForShutdown(socket, time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
	if _, err := StopAndTerminate(socket, nil, time.Second); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
	if _, err := WaitForClient(socket, 300*time.Millisecond); err == nil {
		t.Fatal("expected WaitForClient to time out")
	}
}

func TestForceKillProcessRefusesSelf(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "vidpress.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := ForceKillProcess(pidPath, "", 0); err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal, got %v", err)
	}
	if _, err := ForceKillProcess(filepath.Join(t.TempDir(), "none.pid"), "", 0); err == nil {
		t.Fatal("expected error without pid")
	}
}

func TestBuildDependencySummary(t *testing.T) {
	summary := BuildDependencySummary([]api.DependencyStatus{
		{Name: "FFmpeg", Available: true},
		{Name: "FFprobe"},
		{Name: "libx264", Optional: true},
	})
	if summary.Total != 3 || summary.Available != 1 || summary.MissingRequired != 1 || summary.MissingOptional != 1 {
		t.Fatalf("unexpected summary %#v", summary)
	}
	if summary.Severity != "error" {
		t.Fatalf("severity = %s, want error", summary.Severity)
	}
	if empty := BuildDependencySummary(nil); empty.Severity != "info" {
		t.Fatalf("empty severity = %s", empty.Severity)
	}
	if got := Severity(api.DependencyStatus{Optional: true}); got != "warn" {
		t.Fatalf("optional severity = %s", got)
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	snapshot, err := BuildStatusSnapshot(context.Background(), cfg.Paths.SocketPath, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snapshot.Daemon.Running {
		t.Fatal("expected daemon to be reported as not running")
	}
	if len(snapshot.Daemon.Dependencies) == 0 {
		t.Fatal("expected local dependency checks")
	}
	labels := make(map[string]StatusLine)
	for _, line := range snapshot.SystemChecks {
		labels[line.Label] = line
	}
	if labels["Vidpress"].Severity != "warn" {
		t.Fatalf("unexpected daemon line %#v", labels["Vidpress"])
	}
	if labels["Scratch"].Severity != "ok" {
		t.Fatalf("unexpected scratch line %#v", labels["Scratch"])
	}
	if labels["Notifications"].Severity != "info" {
		t.Fatalf("unexpected notifications line %#v", labels["Notifications"])
	}
	if _, err := BuildStatusSnapshot(context.Background(), cfg.Paths.SocketPath, nil); err == nil {
		t.Fatal("expected error without config")
	}
}
