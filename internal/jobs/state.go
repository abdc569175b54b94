package jobs

import "fmt"

// State is a job lifecycle state.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// validTransitions maps from-state to allowed to-states.
var validTransitions = map[State]map[State]bool{
	StatePending: {
		StateRunning:   true, // engine reported start
		StateCancelled: true, // cancelled before any callback
		StateFailed:    true, // engine failed before start
	},
	StateRunning: {
		StateRunning:   true, // progress
		StateCompleted: true,
		StateCancelled: true,
		StateFailed:    true,
	},
	StateCompleted: {},
	StateCancelled: {},
	StateFailed:    {},
}

// ValidateTransition checks if a state transition is allowed.
func ValidateTransition(from, to State) error {
	allowed, ok := validTransitions[from]
	if !ok {
		return fmt.Errorf("unknown source state: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// Terminal reports whether the state ends the job.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}
