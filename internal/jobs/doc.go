// Package jobs supervises asynchronous transcode jobs keyed by a
// caller-supplied request id.
//
// Supervisor.Start inspects the source and derives its output profile before
// returning, so unreadable sources and duplicate ids are rejected
// synchronously and never leave a job behind. The transform then runs on its
// own goroutine; engine callbacks pass through a per-job filter that discards
// foreign ids and callbacks for entries that are no longer live, and the
// first terminal callback removes the job and publishes exactly one terminal
// event. Cancel is idempotent.
package jobs
