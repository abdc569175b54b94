package ffmpeg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"vidpress/internal/engine"
	"vidpress/internal/media"
)

// DefaultPreset is the libx264 preset used when none is configured.
const DefaultPreset = "medium"

// CommandBuilder assembles ffmpeg arguments for one transform.
type CommandBuilder struct {
	args []string
}

// NewCommandBuilder starts a command that reads input without auto-rotating
// frames; rotation is carried as stream metadata instead.
func NewCommandBuilder(input string) *CommandBuilder {
	return &CommandBuilder{
		args: []string{"-hide_banner", "-nostdin", "-y", "-noautorotate", "-i", input},
	}
}

// Add appends raw arguments.
func (b *CommandBuilder) Add(args ...string) *CommandBuilder {
	b.args = append(b.args, args...)
	return b
}

// Args returns a copy of the assembled arguments.
func (b *CommandBuilder) Args() []string {
	out := make([]string, len(b.args))
	copy(out, b.args)
	return out
}

// BuildArgs renders the ffmpeg invocation for req. The output path is always
// the final argument.
func BuildArgs(req engine.Request, preset string) ([]string, error) {
	if strings.TrimSpace(req.SourcePath) == "" {
		return nil, errors.New("source path required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return nil, errors.New("output path required")
	}
	if req.Video == nil && req.Audio == nil {
		return nil, errors.New("no output tracks")
	}
	if preset == "" {
		preset = DefaultPreset
	}

	b := NewCommandBuilder(req.SourcePath)
	if req.Video != nil {
		addVideo(b, *req.Video, preset)
	} else {
		b.Add("-vn")
	}
	if req.Audio != nil {
		b.Add("-map", "0:a:0", "-c:a", "copy")
	} else {
		b.Add("-an")
	}
	if faststart(req.OutputPath) {
		b.Add("-movflags", "+faststart")
	}
	b.Add("-progress", "pipe:1", "-nostats", req.OutputPath)
	return b.Args(), nil
}

func addVideo(b *CommandBuilder, v media.TrackFormat, preset string) {
	b.Add("-map", "0:v:0", "-c:v", "libx264", "-preset", preset)
	if bitrate, ok := v.Bitrate.Get(); ok && bitrate > 0 {
		rate := strconv.Itoa(bitrate)
		b.Add("-b:v", rate, "-maxrate", rate, "-bufsize", strconv.Itoa(bitrate*2))
	}
	w, wok := v.Width.Get()
	h, hok := v.Height.Get()
	if wok && hok && w > 0 && h > 0 {
		b.Add("-vf", fmt.Sprintf("scale=%d:%d", w, h))
	}
	fps, fpsOK := v.FrameRate.Get()
	if fpsOK && fps > 0 {
		b.Add("-r", strconv.Itoa(fps))
		if interval, ok := v.IFrameInterval.Get(); ok && interval > 0 {
			b.Add("-g", strconv.Itoa(fps*interval))
		}
	}
	b.Add("-pix_fmt", "yuv420p")
	if rotation, ok := v.Rotation.Get(); ok {
		b.Add("-metadata:s:v:0", "rotate="+strconv.Itoa(rotation))
	}
}

func faststart(output string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(output), ".")) {
	case "mp4", "m4v", "mov":
		return true
	default:
		return false
	}
}
