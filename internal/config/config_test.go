package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidpress/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("VIDPRESS_NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantScratch := filepath.Join(tempHome, ".local", "share", "vidpress", "scratch")
	if cfg.Paths.ScratchDir != wantScratch {
		t.Fatalf("unexpected scratch dir: got %q want %q", cfg.Paths.ScratchDir, wantScratch)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7491" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if cfg.Transcode.DefaultQuality != "low" {
		t.Fatalf("expected low default quality, got %q", cfg.Transcode.DefaultQuality)
	}
	if cfg.OutputExtension() != "mp4" {
		t.Fatalf("expected mp4 output extension, got %q", cfg.OutputExtension())
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected empty ntfy topic, got %q", cfg.Notifications.NtfyTopic)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ScratchDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.SocketPath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vidpress.toml")

	type payload struct {
		Paths struct {
			ScratchDir string `toml:"scratch_dir"`
		} `toml:"paths"`
		Engine struct {
			FFmpegBinary string `toml:"ffmpeg_binary"`
			X264Preset   string `toml:"x264_preset"`
		} `toml:"engine"`
		Transcode struct {
			DefaultQuality  string `toml:"default_quality"`
			OutputExtension string `toml:"output_extension"`
		} `toml:"transcode"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.ScratchDir = filepath.Join(tempDir, "scratch")
	custom.Engine.FFmpegBinary = " /opt/ffmpeg/bin/ffmpeg "
	custom.Engine.X264Preset = "Fast"
	custom.Transcode.DefaultQuality = "HIGH"
	custom.Transcode.OutputExtension = ".MKV"
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "warning"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.ScratchDir != custom.Paths.ScratchDir {
		t.Fatalf("expected scratch dir override, got %q", cfg.Paths.ScratchDir)
	}
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected trimmed ffmpeg binary, got %q", cfg.FFmpegBinary())
	}
	if cfg.Engine.X264Preset != "fast" {
		t.Fatalf("expected normalized preset, got %q", cfg.Engine.X264Preset)
	}
	if cfg.OutputExtension() != "mkv" {
		t.Fatalf("expected normalized extension, got %q", cfg.OutputExtension())
	}
	if cfg.Transcode.DefaultQuality != "high" {
		t.Fatalf("expected normalized quality, got %q", cfg.Transcode.DefaultQuality)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "vidpress.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestNtfyTopicFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIDPRESS_NTFY_TOPIC", " https://ntfy.sh/vidpress ")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/vidpress" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestAPITokenFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIDPRESS_API_TOKEN", "secret")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("expected api token from env, got %q", cfg.Paths.APIToken)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "default_quality") {
		t.Fatalf("sample config missing transcode section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.ScratchDir, "vidpress") {
		t.Fatalf("expected scratch dir to contain vidpress, got %q", cfg.Paths.ScratchDir)
	}

	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !exists || loaded.Transcode.DefaultQuality != "low" {
		t.Fatalf("unexpected sample load result: exists=%v quality=%q", exists, loaded.Transcode.DefaultQuality)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"x264 preset":      func(c *config.Config) { c.Engine.X264Preset = "ludicrous" },
		"quality":          func(c *config.Config) { c.Transcode.DefaultQuality = "ultra" },
		"extension":        func(c *config.Config) { c.Transcode.OutputExtension = "avi" },
		"request timeout":  func(c *config.Config) { c.Notifications.RequestTimeout = -1 },
		"log format":       func(c *config.Config) { c.Logging.Format = "xml" },
		"log level":        func(c *config.Config) { c.Logging.Level = "trace" },
		"api bind":         func(c *config.Config) { c.Paths.APIBind = "localhost" },
		"scratch required": func(c *config.Config) { c.Paths.ScratchDir = "" },
		"event buffer":     func(c *config.Config) { c.Events.BufferSize = 1 << 20 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Paths.APIBind = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty api bind disables the HTTP API and should validate: %v", err)
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	cfg := config.Default()
	cfg.Transcode.DefaultQuality = "medium"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "encoded.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Transcode.DefaultQuality != "medium" {
		t.Fatalf("expected medium, got %q", loaded.Transcode.DefaultQuality)
	}
}
