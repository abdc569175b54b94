package events

import (
	"context"
	"errors"
	"log/slog"

	"vidpress/internal/logging"
)

// Sink receives encoded envelopes. Delivery is best effort.
type Sink interface {
	Deliver(ctx context.Context, env Envelope) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, env Envelope) error

func (f SinkFunc) Deliver(ctx context.Context, env Envelope) error { return f(ctx, env) }

// Publisher forwards lifecycle events to a sink. Publish never fails: an
// unavailable sink drops the event and logs a warning.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
}

// NewPublisher builds a publisher. A nil sink discards every event.
func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logging.NewComponentLogger(logger, "events")}
}

// Publish encodes and forwards evt.
func (p *Publisher) Publish(ctx context.Context, evt Event) {
	if p == nil || p.sink == nil {
		return
	}
	env, err := Encode(evt)
	if err == nil {
		err = p.sink.Deliver(ctx, env)
	}
	if err != nil {
		logging.WarnWithContext(p.logger, "event dropped", "event_dropped",
			logging.String("event", string(evt.Kind)),
			logging.String(logging.FieldRequestID, evt.RequestID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "subscribers miss this event; job state is unaffected"),
		)
	}
}

// Fanout delivers to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Deliver(ctx context.Context, env Envelope) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Deliver(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes envelopes to a logger at debug level.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(ctx context.Context, env Envelope) error {
	if s.Logger == nil {
		return nil
	}
	logging.WithContext(ctx, s.Logger).Debug("lifecycle event",
		logging.String(logging.FieldEventType, string(env.Name)),
		logging.String(logging.FieldRequestID, env.RequestID),
		logging.String("payload", string(env.Payload)),
	)
	return nil
}
