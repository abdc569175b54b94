package jobs

import "vidpress/internal/engine"

// callbackTarget receives engine callbacks that passed a job's filter.
type callbackTarget interface {
	started(e *entry)
	progressed(e *entry, fraction float64)
	finished(e *entry, state State, cause error)
	dropped(e *entry, callbackID, callback string)
}

// filter scopes an engine listener to one job. Callbacks carrying another
// request id are discarded; staleness (the entry is no longer live) is
// decided by the target.
type filter struct {
	requestID string
	entry     *entry
	target    callbackTarget
}

func (f *filter) accept(id, callback string) bool {
	if id == f.requestID {
		return true
	}
	f.target.dropped(f.entry, id, callback)
	return false
}

func (f *filter) OnStarted(id string) {
	if f.accept(id, "started") {
		f.target.started(f.entry)
	}
}

func (f *filter) OnProgress(id string, fraction float64) {
	if f.accept(id, "progress") {
		f.target.progressed(f.entry, fraction)
	}
}

func (f *filter) OnCompleted(id string, _ []engine.TrackInfo) {
	if f.accept(id, "completed") {
		f.target.finished(f.entry, StateCompleted, nil)
	}
}

func (f *filter) OnCancelled(id string, _ []engine.TrackInfo) {
	if f.accept(id, "cancelled") {
		f.target.finished(f.entry, StateCancelled, nil)
	}
}

func (f *filter) OnError(id string, cause error, _ []engine.TrackInfo) {
	if f.accept(id, "error") {
		f.target.finished(f.entry, StateFailed, cause)
	}
}

var _ engine.Listener = (*filter)(nil)
