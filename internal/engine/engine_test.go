package engine

import (
	"context"
	"testing"

	"vidpress/internal/media"
)

func TestRequestTracksAndDuration(t *testing.T) {
	video := media.TrackFormat{MimeType: media.VideoCodecAVC, Duration: media.Some[int64](3_000_000)}
	audio := media.TrackFormat{MimeType: "audio/opus", Duration: media.Some[int64](4_000_000)}

	req := Request{Video: &video, Audio: &audio}
	tracks := req.Tracks()
	if len(tracks) != 2 || tracks[0].Kind != media.KindVideo || tracks[1].MimeType != "audio/opus" {
		t.Fatalf("unexpected tracks %+v", tracks)
	}
	if req.DurationUs() != 3_000_000 {
		t.Fatalf("expected video duration, got %d", req.DurationUs())
	}

	audioOnly := Request{Audio: &audio}
	if audioOnly.DurationUs() != 4_000_000 || len(audioOnly.Tracks()) != 1 {
		t.Fatalf("unexpected audio-only request %+v", audioOnly)
	}
	if (Request{}).DurationUs() != 0 {
		t.Fatal("expected unknown duration")
	}
}

func TestRunsCancel(t *testing.T) {
	var runs Runs
	ctx, done := runs.Begin(context.Background(), "job-1")
	if runs.Active() != 1 {
		t.Fatalf("expected one active run, got %d", runs.Active())
	}
	if !runs.Cancel("job-1") {
		t.Fatal("expected cancel to find run")
	}
	<-ctx.Done()
	if !done() {
		t.Fatal("done should report the cancel")
	}
	if runs.Active() != 0 {
		t.Fatalf("expected no active runs, got %d", runs.Active())
	}
	if runs.Cancel("job-1") {
		t.Fatal("cancel after done should be a no-op")
	}
}

func TestRunsDoneWithoutCancel(t *testing.T) {
	var runs Runs
	ctx, done := runs.Begin(context.Background(), "job-2")
	if done() {
		t.Fatal("done should not report a cancel")
	}
	if ctx.Err() == nil {
		t.Fatal("done should release the run context")
	}
	if runs.Cancel("unknown") {
		t.Fatal("unknown id should not cancel")
	}
}

func TestRunsReusedIDKeepsNewestEntry(t *testing.T) {
	var runs Runs
	_, doneOld := runs.Begin(context.Background(), "dup")
	ctxNew, doneNew := runs.Begin(context.Background(), "dup")
	doneOld()
	if runs.Active() != 1 {
		t.Fatalf("old done must not remove the newer run, active=%d", runs.Active())
	}
	runs.Cancel("dup")
	<-ctxNew.Done()
	if !doneNew() {
		t.Fatal("expected newer run to be cancelled")
	}
}
