package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"vidpress/internal/logging"
	"vidpress/internal/testsupport"
)

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), PIDFileName)
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != strconv.Itoa(os.Getpid()) {
		t.Fatalf("unexpected pid file contents %q", got)
	}
	if err := writePIDFile(""); err != nil {
		t.Fatalf("empty path should be ignored: %v", err)
	}
}

func TestEnsureCurrentLogPointerReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "vidpress-1.log")
	second := filepath.Join(dir, "vidpress-2.log")
	for _, path := range []string{first, second} {
		if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
			t.Fatalf("write log: %v", err)
		}
	}

	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "vidpress.log"))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(data) != "vidpress-2.log" {
		t.Fatalf("pointer resolves to %q, want vidpress-2.log", data)
	}
}

func TestBuildWiresFFmpegEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAPI())
	hub := logging.NewStreamHub(16)
	d, err := build(cfg, logging.NewNop(), hub)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	status := d.Status(context.Background())
	if status.Engine != "ffmpeg" {
		t.Fatalf("engine = %q, want ffmpeg", status.Engine)
	}
	if status.Running {
		t.Fatal("daemon should not be running before Start")
	}
	if d.LogStream() != hub {
		t.Fatal("expected log stream to be wired")
	}
	if d.Jobs() == nil || d.Events() == nil {
		t.Fatal("expected job service and event hub")
	}
}
