package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vidpress/internal/api"
	"vidpress/internal/events"
	"vidpress/internal/jobs"
	"vidpress/internal/media"
	"vidpress/internal/profile"
	"vidpress/internal/services"
)

type fakeSupervisor struct {
	started []jobs.Options
	sources []string
	err     error
	jobs    map[string]jobs.Job
	cancels []string
}

func (f *fakeSupervisor) Start(_ context.Context, requestID, sourceURI string, opts jobs.Options) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.started = append(f.started, opts)
	f.sources = append(f.sources, sourceURI)
	return "/scratch/transcoded_" + requestID + ".mp4", nil
}

func (f *fakeSupervisor) Cancel(requestID string) { f.cancels = append(f.cancels, requestID) }

func (f *fakeSupervisor) Jobs() []jobs.Job {
	out := make([]jobs.Job, 0, len(f.jobs))
	for _, job := range f.jobs {
		if !job.State.Terminal() {
			out = append(out, job)
		}
	}
	return out
}

func (f *fakeSupervisor) Recent() []jobs.Job {
	out := make([]jobs.Job, 0, len(f.jobs))
	for _, job := range f.jobs {
		if job.State.Terminal() {
			out = append(out, job)
		}
	}
	return out
}

func (f *fakeSupervisor) Job(requestID string) (jobs.Job, bool) {
	job, ok := f.jobs[requestID]
	return job, ok
}

func TestStartAppliesDefaults(t *testing.T) {
	sup := &fakeSupervisor{}
	svc := api.NewJobService(sup, api.Defaults{Quality: "high", KeepOriginalResolution: true})

	resp, err := svc.Start(context.Background(), api.StartJobRequest{RequestID: " req-1 ", SourceURI: "/videos/in.mkv"})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if resp.RequestID != "req-1" || resp.OutputPath != "/scratch/transcoded_req-1.mp4" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(sup.started) != 1 {
		t.Fatalf("expected one start, got %d", len(sup.started))
	}
	opts := sup.started[0]
	if opts.Quality != profile.QualityHigh {
		t.Fatalf("expected default quality high, got %s", opts.Quality)
	}
	if !opts.KeepOriginalResolution {
		t.Fatal("expected keepOriginalResolution default to apply")
	}
}

func TestStartExplicitOptionsOverrideDefaults(t *testing.T) {
	sup := &fakeSupervisor{}
	svc := api.NewJobService(sup, api.Defaults{Quality: "high", KeepOriginalResolution: true})
	keep := false

	_, err := svc.Start(context.Background(), api.StartJobRequest{
		RequestID:              "req-2",
		SourceURI:              "/videos/in.mkv",
		Quality:                "very_low",
		TargetPath:             "/out/custom.mp4",
		KeepOriginalResolution: &keep,
		Debug:                  true,
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	opts := sup.started[0]
	if opts.Quality != profile.QualityVeryLow || opts.KeepOriginalResolution || !opts.DebugEnabled || opts.TargetPath != "/out/custom.mp4" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestStartValidatesInput(t *testing.T) {
	svc := api.NewJobService(&fakeSupervisor{}, api.Defaults{})
	cases := map[string]api.StartJobRequest{
		"missing id":     {SourceURI: "/videos/in.mkv"},
		"missing source": {RequestID: "req"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), req)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestStartPropagatesSupervisorErrors(t *testing.T) {
	marker := services.Wrap(services.ErrDuplicateRequest, "jobs", "start", "req", nil)
	svc := api.NewJobService(&fakeSupervisor{err: marker}, api.Defaults{})
	_, err := svc.Start(context.Background(), api.StartJobRequest{RequestID: "req", SourceURI: "/in.mkv"})
	if services.Code(err) != "duplicate_request" {
		t.Fatalf("expected duplicate_request code, got %q (%v)", services.Code(err), err)
	}
}

func TestCancelReportsLiveness(t *testing.T) {
	sup := &fakeSupervisor{jobs: map[string]jobs.Job{
		"live": {RequestID: "live", State: jobs.StateRunning},
		"done": {RequestID: "done", State: jobs.StateCompleted},
	}}
	svc := api.NewJobService(sup, api.Defaults{})

	if resp := svc.Cancel("live"); !resp.Live {
		t.Fatalf("expected live cancel, got %+v", resp)
	}
	if resp := svc.Cancel("done"); resp.Live {
		t.Fatalf("expected finished job to report not live, got %+v", resp)
	}
	if resp := svc.Cancel("missing"); resp.Live {
		t.Fatalf("expected unknown job to report not live, got %+v", resp)
	}
	if len(sup.cancels) != 3 {
		t.Fatalf("expected every cancel forwarded, got %v", sup.cancels)
	}
}

func TestDescribeAndList(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sup := &fakeSupervisor{jobs: map[string]jobs.Job{
		"a": {
			RequestID: "a",
			State:     jobs.StateRunning,
			Progress:  42,
			Quality:   profile.QualityMedium,
			Engine:    "ffmpeg",
			Video: &media.TrackFormat{
				MimeType: media.VideoCodecAVC,
				Width:    media.Some(960),
				Height:   media.Some(540),
				Bitrate:  media.Some(1_500_000),
			},
			CreatedAt: created,
		},
		"b": {RequestID: "b", State: jobs.StateFailed, Error: "boom"},
	}}
	svc := api.NewJobService(sup, api.Defaults{})

	job, err := svc.Describe("a")
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if job.State != "running" || job.Quality != "medium" || job.Progress != 42 {
		t.Fatalf("unexpected job dto: %+v", job)
	}
	if job.Video == nil || job.Video.Width != 960 || job.Video.Bitrate != 1_500_000 || job.Video.FrameRate != 0 {
		t.Fatalf("unexpected video target: %+v", job.Video)
	}
	if job.Audio != nil {
		t.Fatalf("expected nil audio target, got %+v", job.Audio)
	}
	if job.CreatedAt != "2026-01-02T03:04:05.000Z" {
		t.Fatalf("unexpected created timestamp %q", job.CreatedAt)
	}

	if _, err := svc.Describe("missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	list := svc.List(false)
	if len(list.Jobs) != 1 || list.Recent != nil {
		t.Fatalf("unexpected list without recent: %+v", list)
	}
	list = svc.List(true)
	if len(list.Recent) != 1 || list.Recent[0].Error != "boom" {
		t.Fatalf("unexpected recent list: %+v", list.Recent)
	}
}

func TestFromEnvelopesPreservesPayload(t *testing.T) {
	env, err := events.Encode(events.Completed("req", "/out.mp4"))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	env.Sequence = 7
	out := api.FromEnvelopes([]events.Envelope{env})
	if len(out) != 1 {
		t.Fatalf("expected one event, got %d", len(out))
	}
	got := out[0]
	if got.Sequence != 7 || got.Name != "onSuccess" || got.Version != events.PayloadVersion || got.RequestID != "req" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if string(got.Payload) != string(env.Payload) {
		t.Fatalf("payload changed: %s vs %s", got.Payload, env.Payload)
	}
}
