package metrics

import (
	"context"
	"time"

	"vidpress/internal/events"
	"vidpress/internal/jobs"
)

// jobObserver implements jobs.Recorder using the Prometheus metrics declared
// in this package.
type jobObserver struct{}

// NewJobObserver creates a recorder for the job supervisor.
func NewJobObserver() jobs.Recorder {
	return jobObserver{}
}

func (jobObserver) JobStarted(engine string) {
	JobsStartedTotal.WithLabelValues(engine).Inc()
	JobsActive.WithLabelValues(engine).Inc()
}

func (jobObserver) JobProgress(engine string, _ float64) {
	JobProgressUpdatesTotal.WithLabelValues(engine).Inc()
}

func (jobObserver) JobFinished(engine string, state jobs.State, elapsed time.Duration) {
	JobsActive.WithLabelValues(engine).Dec()
	JobsFinishedTotal.WithLabelValues(engine, string(state)).Inc()
	JobDuration.WithLabelValues(engine, string(state)).Observe(elapsed.Seconds())
}

func (jobObserver) StartRejected(code string) {
	JobsRejectedTotal.WithLabelValues(code).Inc()
}

// EventCounter is an events.Sink that counts delivered envelopes by name.
type EventCounter struct{}

func (EventCounter) Deliver(_ context.Context, env events.Envelope) error {
	EventsPublishedTotal.WithLabelValues(string(env.Name)).Inc()
	return nil
}
