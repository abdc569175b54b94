package testsupport

import (
	"context"
	"sync"

	"vidpress/internal/engine"
	"vidpress/internal/media"
	"vidpress/internal/media/inspect"
)

// SampleURI is the source the Inspector returned by NewInspector knows about.
const SampleURI = "/videos/sample.mkv"

// Engine is a scripted engine: every transform reports started, then waits
// until Release is called or its context is cancelled.
type Engine struct {
	mu       sync.Mutex
	release  chan struct{}
	requests []engine.Request
}

// NewEngine returns a blocking scripted engine.
func NewEngine() *Engine {
	return &Engine{release: make(chan struct{})}
}

func (e *Engine) Name() string { return "scripted" }

func (e *Engine) Transform(ctx context.Context, req engine.Request, l engine.Listener) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	release := e.release
	e.mu.Unlock()

	l.OnStarted(req.ID)
	select {
	case <-release:
		l.OnProgress(req.ID, 1)
		l.OnCompleted(req.ID, req.Tracks())
	case <-ctx.Done():
		l.OnCancelled(req.ID, req.Tracks())
	}
}

func (e *Engine) Cancel(string) {}

// Release completes every current and future transform.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.release:
	default:
		close(e.release)
	}
}

// Requests returns the transform requests seen so far.
func (e *Engine) Requests() []engine.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.Request(nil), e.requests...)
}

// Inspector serves canned sources by URI.
type Inspector map[string]inspect.Source

// NewInspector knows SampleURI as a 1080p HEVC source with stereo audio.
func NewInspector() Inspector {
	return Inspector{SampleURI: SampleSource(SampleURI)}
}

func (i Inspector) Inspect(_ context.Context, uri string) (inspect.Source, error) {
	src, ok := i[uri]
	if !ok {
		return inspect.Source{}, inspect.ErrTrackNotFound
	}
	return src, nil
}

// SampleSource describes a 10 second 1920x1080 30fps video at 8 Mbps with
// a stereo AAC track.
func SampleSource(uri string) inspect.Source {
	return inspect.Source{
		URI:  uri,
		Path: uri,
		Container: inspect.Tracks{
			{
				MimeType:  "video/hevc",
				Width:     media.Some(1920),
				Height:    media.Some(1080),
				FrameRate: media.Some(30),
				Duration:  media.Some[int64](10_000_000),
			},
			{
				MimeType:     "audio/mp4a-latm",
				ChannelCount: media.Some(2),
				SampleRate:   media.Some(48000),
				Duration:     media.Some[int64](10_000_000),
			},
		},
		BitrateHint: 8_000_000,
	}
}

var _ engine.Engine = (*Engine)(nil)
