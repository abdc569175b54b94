package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"vidpress/internal/events"
)

// Sink forwards terminal lifecycle envelopes to a notification service.
// Non-terminal events are ignored.
type Sink struct {
	Service Service
}

func (s Sink) Deliver(ctx context.Context, env events.Envelope) error {
	if s.Service == nil {
		return nil
	}
	var event Event
	switch env.Name {
	case events.KindCompleted:
		event = EventJobCompleted
	case events.KindFailed:
		event = EventJobFailed
	case events.KindCancelled:
		event = EventJobCancelled
	default:
		return nil
	}
	var payload Payload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Name, err)
	}
	return s.Service.Publish(ctx, event, payload)
}

var _ events.Sink = Sink{}
