package engine

import (
	"context"
	"sync"

	"vidpress/internal/media"
)

// TrackInfo identifies an output track in terminal callbacks.
type TrackInfo struct {
	Kind     media.Kind `json:"kind"`
	MimeType string     `json:"mimeType"`
}

// Request is one transform: read SourcePath, write OutputPath with the given
// targets. A nil target drops that track from the output.
type Request struct {
	ID         string
	SourceURI  string
	SourcePath string
	OutputPath string
	Video      *media.TrackFormat
	Audio      *media.TrackFormat
}

// Tracks lists the output tracks the request produces.
func (r Request) Tracks() []TrackInfo {
	tracks := make([]TrackInfo, 0, 2)
	if r.Video != nil {
		tracks = append(tracks, TrackInfo{Kind: media.KindVideo, MimeType: r.Video.MimeType})
	}
	if r.Audio != nil {
		tracks = append(tracks, TrackInfo{Kind: media.KindAudio, MimeType: r.Audio.MimeType})
	}
	return tracks
}

// DurationUs returns the expected output duration in microseconds, preferring
// the video track. Zero means unknown.
func (r Request) DurationUs() int64 {
	if r.Video != nil {
		if d, ok := r.Video.Duration.Get(); ok && d > 0 {
			return d
		}
	}
	if r.Audio != nil {
		if d, ok := r.Audio.Duration.Get(); ok && d > 0 {
			return d
		}
	}
	return 0
}

// Listener receives transform lifecycle callbacks. Every callback carries the
// request id so one listener may observe several transforms. Implementations
// must tolerate calls from any goroutine.
type Listener interface {
	OnStarted(requestID string)
	// OnProgress reports completion as a fraction in [0, 1].
	OnProgress(requestID string, fraction float64)
	OnCompleted(requestID string, tracks []TrackInfo)
	OnCancelled(requestID string, tracks []TrackInfo)
	OnError(requestID string, cause error, tracks []TrackInfo)
}

// Engine performs transforms. Transform blocks until the transform ends and
// reports exactly one terminal callback. Cancel stops a running transform by
// id and is a no-op for unknown ids; it must not invoke listener callbacks
// before returning.
type Engine interface {
	Name() string
	Transform(ctx context.Context, req Request, l Listener)
	Cancel(requestID string)
}

// Runs tracks cancel functions for in-flight transforms by request id.
type Runs struct {
	mu      sync.Mutex
	running map[string]*run
}

type run struct {
	cancel    context.CancelFunc
	cancelled bool
}

// Begin registers a transform and returns its context. done must be called
// when the transform ends; it reports whether Cancel was requested.
func (r *Runs) Begin(ctx context.Context, id string) (context.Context, func() bool) {
	runCtx, cancel := context.WithCancel(ctx)
	entry := &run{cancel: cancel}

	r.mu.Lock()
	if r.running == nil {
		r.running = make(map[string]*run)
	}
	r.running[id] = entry
	r.mu.Unlock()

	return runCtx, func() bool {
		r.mu.Lock()
		if r.running[id] == entry {
			delete(r.running, id)
		}
		cancelled := entry.cancelled
		r.mu.Unlock()
		cancel()
		return cancelled
	}
}

// Cancel stops the transform registered under id and reports whether one was found.
func (r *Runs) Cancel(id string) bool {
	r.mu.Lock()
	entry, ok := r.running[id]
	if ok {
		entry.cancelled = true
	}
	r.mu.Unlock()
	if ok {
		entry.cancel()
	}
	return ok
}

// Active returns the number of in-flight transforms.
func (r *Runs) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}
