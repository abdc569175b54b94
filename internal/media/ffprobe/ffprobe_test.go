package ffprobe

import (
	"context"
	"math"
	"os"
	"os/exec"
	"strings"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
     "avg_frame_rate": "30000/1001", "r_frame_rate": "30/1", "bit_rate": "8000000", "duration": "12.5",
     "side_data_list": [{"side_data_type": "Display Matrix", "rotation": -90}]},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2,
     "bit_rate": "128000", "tags": {"language": "eng"}}
  ],
  "format": {"filename": "in.mp4", "nb_streams": 2, "duration": "12.500000", "size": "13000000", "bit_rate": "8320000", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(result.Streams))
	}
	if result.BitRate() != 8320000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
	if result.DurationSeconds() != 12.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}

	video := result.Streams[0]
	rate, ok := video.FrameRate()
	if !ok || math.Abs(rate-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate: %v %v", rate, ok)
	}
	if rot, ok := video.RotationDegrees(); !ok || rot != 90 {
		t.Fatalf("unexpected rotation: %d %v", rot, ok)
	}

	audio := result.Streams[1]
	if audio.SampleRateHz() != 48000 || audio.BitRateBps() != 128000 {
		t.Fatalf("unexpected audio helpers: %d %d", audio.SampleRateHz(), audio.BitRateBps())
	}
	if _, ok := audio.RotationDegrees(); ok {
		t.Fatal("audio stream should not report rotation")
	}
}

func TestFrameRateFallsBackToRFrameRate(t *testing.T) {
	s := Stream{AvgFrameRate: "0/0", RFrameRate: "25/1"}
	if rate, ok := s.FrameRate(); !ok || rate != 25 {
		t.Fatalf("unexpected fallback rate: %v %v", rate, ok)
	}
	if _, ok := (Stream{AvgFrameRate: "0/0"}).FrameRate(); ok {
		t.Fatal("expected unknown frame rate")
	}
}

func TestRotateTagWinsOverSideData(t *testing.T) {
	s := Stream{
		Tags:     map[string]string{"rotate": "-90"},
		SideData: []SideData{{Type: "Display Matrix", Rotation: 180}},
	}
	if rot, ok := s.RotationDegrees(); !ok || rot != 270 {
		t.Fatalf("unexpected rotation: %d %v", rot, ok)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", BitRate: "nope"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
	if (Stream{BitRate: "-5"}).BitRateBps() != 0 {
		t.Fatal("expected negative bitrate to clamp to 0")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	orig := commandContext
	t.Cleanup(func() { commandContext = orig })

	var gotArgs []string
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = append([]string{name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess", "--")
		cmd.Env = append(os.Environ(), "VIDPRESS_FFPROBE_HELPER=1")
		return cmd
	}

	result, err := Inspect(context.Background(), "", "/media/in.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(result.Streams) != 2 {
		t.Fatalf("expected streams from helper, got %d", len(result.Streams))
	}
	if gotArgs[0] != "ffprobe" || gotArgs[len(gotArgs)-1] != "/media/in.mp4" {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "-show_streams") {
		t.Fatalf("expected -show_streams in %v", gotArgs)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("VIDPRESS_FFPROBE_HELPER") != "1" {
		return
	}
	_, _ = os.Stdout.WriteString(sampleJSON)
	os.Exit(0)
}
