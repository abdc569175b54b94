package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
)

var (
	validQualities   = []string{"very_low", "low", "medium", "high", "very_high"}
	validX264Presets = []string{"ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow"}
	validLogFormats  = []string{"console", "json"}
	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validContainers  = []string{"mp4", "m4v", "mov", "mkv"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Events.BufferSize > maxEventBufferSize {
		return fmt.Errorf("events.buffer_size must be at most %d", maxEventBufferSize)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q must be host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if !slices.Contains(validX264Presets, c.Engine.X264Preset) {
		return fmt.Errorf("engine.x264_preset %q is not a recognized x264 preset", c.Engine.X264Preset)
	}
	return nil
}

// Unknown request qualities fall back to low at runtime, but a typo in the
// configured default is reported up front.
func (c *Config) validateTranscode() error {
	if !slices.Contains(validQualities, c.Transcode.DefaultQuality) {
		return fmt.Errorf("transcode.default_quality must be one of %s, got %q", strings.Join(validQualities, ", "), c.Transcode.DefaultQuality)
	}
	if !slices.Contains(validContainers, c.Transcode.OutputExtension) {
		return fmt.Errorf("transcode.output_extension must be one of %s, got %q", strings.Join(validContainers, ", "), c.Transcode.OutputExtension)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %s, got %q", strings.Join(validLogFormats, ", "), c.Logging.Format)
	}
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.Logging.Level)
	}
	return nil
}
