package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 5 * time.Second

var commandContext = exec.CommandContext

// Version runs "<binary> -version" and returns the first output line,
// e.g. "ffmpeg version 7.1 Copyright ...".
func Version(ctx context.Context, binary string) (string, error) {
	out, err := run(ctx, binary, "-hide_banner", "-version")
	if err != nil {
		// -hide_banner is rejected by some ffprobe builds when combined with -version.
		out, err = run(ctx, binary, "-version")
		if err != nil {
			return "", err
		}
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("%s -version produced no output", binary)
}

// CheckEncoder reports whether ffmpeg was built with the named encoder.
func CheckEncoder(ctx context.Context, ffmpegBinary, encoder string) Status {
	status := Status{
		Name:        encoder,
		Command:     ffmpegBinary,
		Description: "Required video encoder",
	}
	out, err := run(ctx, ffmpegBinary, "-hide_banner", "-encoders")
	if err != nil {
		status.Detail = fmt.Sprintf("list encoders: %v", err)
		return status
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == encoder {
			status.Available = true
			return status
		}
	}
	status.Detail = fmt.Sprintf("%s not built with %s", ffmpegBinary, encoder)
	return status
}

func run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, exec.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	cmd := commandContext(ctx, binary, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}
	return out, nil
}
