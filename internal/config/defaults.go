package config

const (
	defaultConfigPath           = "~/.config/vidpress/config.toml"
	defaultScratchDir           = "~/.local/share/vidpress/scratch"
	defaultLogDir               = "~/.local/share/vidpress/logs"
	defaultSocketPath           = "~/.local/share/vidpress/vidpress.sock"
	defaultLockPath             = "~/.local/share/vidpress/vidpress.lock"
	defaultAPIBind              = "127.0.0.1:7491"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultX264Preset           = "medium"
	defaultQuality              = "low"
	defaultOutputExtension      = "mp4"
	defaultNotifyRequestTimeout = 10
	defaultEventBufferSize      = 1024
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultNtfyTopicEnv         = "VIDPRESS_NTFY_TOPIC"
	defaultAPITokenEnv          = "VIDPRESS_API_TOKEN"
	maxEventBufferSize          = 65536
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
			LockPath:   defaultLockPath,
			APIBind:    defaultAPIBind,
		},
		Engine: Engine{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			X264Preset:    defaultX264Preset,
		},
		Transcode: Transcode{
			DefaultQuality:  defaultQuality,
			OutputExtension: defaultOutputExtension,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Success:        true,
			Failure:        true,
			Cancelled:      false,
		},
		Events: Events{
			BufferSize: defaultEventBufferSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
