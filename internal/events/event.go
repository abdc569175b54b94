package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// PayloadVersion is the current envelope payload schema version.
const PayloadVersion = 1

// Kind names a lifecycle event as callers subscribe to it.
type Kind string

const (
	KindStarted   Kind = "onStart"
	KindProgress  Kind = "onProgress"
	KindCompleted Kind = "onSuccess"
	KindCancelled Kind = "onCancelled"
	KindFailed    Kind = "onFailure"
	KindDebug     Kind = "onDebug"
)

// Terminal reports whether the kind ends a job.
func (k Kind) Terminal() bool {
	return k == KindCompleted || k == KindCancelled || k == KindFailed
}

// Event is one lifecycle notification for a request.
type Event struct {
	Kind      Kind
	RequestID string
	// Progress is a percentage in [0, 100].
	Progress   float64
	OutputPath string
	// Error is nil when a failure carries no message.
	Error   *string
	Message string
	Time    time.Time
}

// Started builds an onStart event.
func Started(requestID string) Event { return Event{Kind: KindStarted, RequestID: requestID} }

// Progress builds an onProgress event.
func Progress(requestID string, percent float64) Event {
	return Event{Kind: KindProgress, RequestID: requestID, Progress: percent}
}

// Completed builds an onSuccess event.
func Completed(requestID, outputPath string) Event {
	return Event{Kind: KindCompleted, RequestID: requestID, OutputPath: outputPath}
}

// Cancelled builds an onCancelled event.
func Cancelled(requestID string) Event { return Event{Kind: KindCancelled, RequestID: requestID} }

// Failed builds an onFailure event. A nil err yields a null error payload.
func Failed(requestID string, err error) Event {
	evt := Event{Kind: KindFailed, RequestID: requestID}
	if err != nil {
		msg := err.Error()
		evt.Error = &msg
	}
	return evt
}

// Debug builds an onDebug event. RequestID is kept for routing but is not
// part of the payload.
func Debug(requestID, message string) Event {
	return Event{Kind: KindDebug, RequestID: requestID, Message: message}
}

// Envelope is the stable wire shape of a published event.
type Envelope struct {
	Sequence  uint64          `json:"seq,omitempty"`
	Name      Kind            `json:"name"`
	Version   int             `json:"version"`
	RequestID string          `json:"requestId,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

type startPayload struct {
	RequestID string `json:"requestId"`
}

type progressPayload struct {
	RequestID string  `json:"requestId"`
	Progress  float64 `json:"progress"`
}

type successPayload struct {
	RequestID  string `json:"requestId"`
	OutputPath string `json:"outputPath"`
}

type failurePayload struct {
	RequestID string  `json:"requestId"`
	Error     *string `json:"error"`
}

type debugPayload struct {
	Message string `json:"message"`
}

// Encode renders the event into its versioned envelope.
func Encode(evt Event) (Envelope, error) {
	var payload any
	switch evt.Kind {
	case KindStarted, KindCancelled:
		payload = startPayload{RequestID: evt.RequestID}
	case KindProgress:
		payload = progressPayload{RequestID: evt.RequestID, Progress: evt.Progress}
	case KindCompleted:
		payload = successPayload{RequestID: evt.RequestID, OutputPath: evt.OutputPath}
	case KindFailed:
		payload = failurePayload{RequestID: evt.RequestID, Error: evt.Error}
	case KindDebug:
		payload = debugPayload{Message: evt.Message}
	default:
		return Envelope{}, fmt.Errorf("unknown event kind %q", evt.Kind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", evt.Kind, err)
	}
	ts := evt.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return Envelope{
		Name:      evt.Kind,
		Version:   PayloadVersion,
		RequestID: evt.RequestID,
		Timestamp: ts.UTC(),
		Payload:   data,
	}, nil
}

// Field decodes one payload field, returning nil when absent.
func (e Envelope) Field(key string) any {
	var fields map[string]any
	if err := json.Unmarshal(e.Payload, &fields); err != nil {
		return nil
	}
	return fields[key]
}
