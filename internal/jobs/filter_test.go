package jobs

import (
	"errors"
	"testing"
)

type recordingTarget struct {
	calls []string
}

func (r *recordingTarget) started(*entry) { r.calls = append(r.calls, "started") }

func (r *recordingTarget) progressed(*entry, float64) { r.calls = append(r.calls, "progress") }

func (r *recordingTarget) finished(_ *entry, state State, _ error) {
	r.calls = append(r.calls, string(state))
}

func (r *recordingTarget) dropped(*entry, string, string) { r.calls = append(r.calls, "dropped") }

func TestFilterRoutesMatchingCallbacks(t *testing.T) {
	target := &recordingTarget{}
	f := &filter{requestID: "job-1", entry: &entry{}, target: target}

	f.OnStarted("job-1")
	f.OnProgress("job-1", 0.1)
	f.OnCompleted("job-1", nil)
	f.OnCancelled("job-1", nil)
	f.OnError("job-1", errors.New("x"), nil)

	want := []string{"started", "progress", "completed", "cancelled", "failed"}
	if len(target.calls) != len(want) {
		t.Fatalf("calls %v, want %v", target.calls, want)
	}
	for i := range want {
		if target.calls[i] != want[i] {
			t.Fatalf("calls %v, want %v", target.calls, want)
		}
	}
}

func TestFilterDropsForeignIDs(t *testing.T) {
	target := &recordingTarget{}
	f := &filter{requestID: "job-1", entry: &entry{}, target: target}

	f.OnStarted("job-2")
	f.OnProgress("", 0.5)
	f.OnCompleted("JOB-1", nil)

	for _, call := range target.calls {
		if call != "dropped" {
			t.Fatalf("foreign callback reached target: %v", target.calls)
		}
	}
	if len(target.calls) != 3 {
		t.Fatalf("expected three drops, got %v", target.calls)
	}
}

func TestValidateTransition(t *testing.T) {
	allowed := [][2]State{
		{StatePending, StateRunning},
		{StatePending, StateCancelled},
		{StatePending, StateFailed},
		{StateRunning, StateRunning},
		{StateRunning, StateCompleted},
		{StateRunning, StateCancelled},
		{StateRunning, StateFailed},
	}
	for _, tr := range allowed {
		if err := ValidateTransition(tr[0], tr[1]); err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", tr[0], tr[1], err)
		}
	}
	denied := [][2]State{
		{StatePending, StateCompleted},
		{StateCompleted, StateRunning},
		{StateCancelled, StateFailed},
		{StateFailed, StateCompleted},
		{"bogus", StateRunning},
	}
	for _, tr := range denied {
		if err := ValidateTransition(tr[0], tr[1]); err == nil {
			t.Fatalf("%s -> %s should be rejected", tr[0], tr[1])
		}
	}
	if StateRunning.Terminal() || !StateCancelled.Terminal() {
		t.Fatal("unexpected terminal classification")
	}
}
