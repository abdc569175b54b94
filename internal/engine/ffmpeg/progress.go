package ffmpeg

import (
	"strconv"
	"strings"
)

// progressParser folds `-progress` key=value lines into a completion fraction.
type progressParser struct {
	durationUs int64
	outTimeUs  int64
	ended      bool
}

// Feed consumes one line and reports whether a progress block finished along
// with the fraction at that point.
func (p *progressParser) Feed(line string) (float64, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return 0, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
		// ffmpeg reports microseconds under both keys.
		if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
			p.outTimeUs = us
		}
		return 0, false
	case "progress":
		if value == "end" {
			p.ended = true
			return 1, true
		}
		return p.Fraction(), true
	default:
		return 0, false
	}
}

// Fraction returns the current completion in [0, 1].
func (p *progressParser) Fraction() float64 {
	if p.ended {
		return 1
	}
	if p.durationUs <= 0 {
		return 0
	}
	f := float64(p.outTimeUs) / float64(p.durationUs)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// tailBuffer keeps the last limit bytes written to it, for stderr diagnostics.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; t.limit > 0 && over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

// LastLine returns the final non-empty line captured.
func (t *tailBuffer) LastLine() string {
	lines := strings.Split(strings.TrimSpace(string(t.buf)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
