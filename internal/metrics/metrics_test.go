package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"vidpress/internal/events"
	"vidpress/internal/jobs"
)

func TestJobMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"JobsStartedTotal", JobsStartedTotal},
		{"JobsFinishedTotal", JobsFinishedTotal},
		{"JobsRejectedTotal", JobsRejectedTotal},
		{"JobsActive", JobsActive},
		{"JobDuration", JobDuration},
		{"JobProgressUpdatesTotal", JobProgressUpdatesTotal},
		{"EventsPublishedTotal", EventsPublishedTotal},
		{"NotificationsSentTotal", NotificationsSentTotal},
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestJobObserverRecordsLifecycle(t *testing.T) {
	obs := NewJobObserver()
	engine := "observer-test"

	obs.JobStarted(engine)
	if got := testutil.ToFloat64(JobsActive.WithLabelValues(engine)); got != 1 {
		t.Fatalf("active gauge %v, want 1", got)
	}
	obs.JobProgress(engine, 50)
	obs.JobFinished(engine, jobs.StateCompleted, 3*time.Second)

	if got := testutil.ToFloat64(JobsActive.WithLabelValues(engine)); got != 0 {
		t.Fatalf("active gauge %v, want 0", got)
	}
	if got := testutil.ToFloat64(JobsStartedTotal.WithLabelValues(engine)); got != 1 {
		t.Fatalf("started counter %v, want 1", got)
	}
	if got := testutil.ToFloat64(JobsFinishedTotal.WithLabelValues(engine, "completed")); got != 1 {
		t.Fatalf("finished counter %v, want 1", got)
	}
	if got := testutil.ToFloat64(JobProgressUpdatesTotal.WithLabelValues(engine)); got != 1 {
		t.Fatalf("progress counter %v, want 1", got)
	}
}

func TestStartRejectedCountsByCode(t *testing.T) {
	before := testutil.ToFloat64(JobsRejectedTotal.WithLabelValues("duplicate_request"))
	NewJobObserver().StartRejected("duplicate_request")
	if got := testutil.ToFloat64(JobsRejectedTotal.WithLabelValues("duplicate_request")); got != before+1 {
		t.Fatalf("rejected counter %v, want %v", got, before+1)
	}
}

func TestEventCounter(t *testing.T) {
	env, err := events.Encode(events.Cancelled("r1"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	before := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("onCancelled"))
	if err := (EventCounter{}).Deliver(context.Background(), env); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("onCancelled")); got != before+1 {
		t.Fatalf("event counter %v, want %v", got, before+1)
	}
}
