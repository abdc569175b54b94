package daemon

import (
	"context"
	"errors"
	"strings"
	"time"

	"vidpress/internal/api"
	"vidpress/internal/logging"
)

const (
	defaultFetchLimit = 200
	maxFetchLimit     = 1000
	maxWait           = 30 * time.Second
)

// EventQuery selects lifecycle events after a cursor. A positive Wait turns
// the fetch into a long poll bounded by Wait.
type EventQuery struct {
	Since     uint64
	Limit     int
	Wait      time.Duration
	RequestID string
}

// LogQuery selects daemon log lines after a cursor. Tail returns the most
// recent lines instead and ignores Since.
type LogQuery struct {
	Since     uint64
	Limit     int
	Wait      time.Duration
	Tail      bool
	RequestID string
	Component string
}

// FetchEvents serves the lifecycle event buffer to HTTP and IPC clients. A
// long poll that times out returns an empty batch, not an error.
func (d *Daemon) FetchEvents(ctx context.Context, q EventQuery) (api.EventStreamResponse, error) {
	ctx, cancel := waitContext(ctx, q.Wait)
	defer cancel()
	envs, next, err := d.events.Fetch(ctx, q.Since, clampLimit(q.Limit), q.Wait > 0)
	if err != nil && !isWaitExpired(err) {
		return api.EventStreamResponse{}, err
	}
	converted := api.FromEnvelopes(envs)
	if q.RequestID != "" {
		filtered := converted[:0]
		for _, evt := range converted {
			if evt.RequestID == q.RequestID {
				filtered = append(filtered, evt)
			}
		}
		converted = filtered
	}
	return api.EventStreamResponse{Events: converted, Next: max(next, q.Since)}, nil
}

// FetchLogs serves the in-memory log hub.
func (d *Daemon) FetchLogs(ctx context.Context, q LogQuery) (api.LogStreamResponse, error) {
	hub := d.logStream
	if hub == nil {
		return api.LogStreamResponse{Events: []api.LogEvent{}, Next: q.Since}, nil
	}
	limit := clampLimit(q.Limit)

	var (
		raw  []logging.LogEvent
		next uint64
	)
	if q.Tail {
		raw, next = hub.Tail(limit)
	} else {
		waitCtx, cancel := waitContext(ctx, q.Wait)
		defer cancel()
		var err error
		raw, next, err = hub.Fetch(waitCtx, q.Since, limit, q.Wait > 0)
		if err != nil && !isWaitExpired(err) {
			return api.LogStreamResponse{}, err
		}
	}

	converted := api.FromLogEvents(raw)
	filtered := converted[:0]
	for _, evt := range converted {
		if q.RequestID != "" && evt.RequestID != q.RequestID {
			continue
		}
		if q.Component != "" && !strings.EqualFold(q.Component, evt.Component) {
			continue
		}
		filtered = append(filtered, evt)
	}
	return api.LogStreamResponse{Events: filtered, Next: max(next, q.Since)}, nil
}

func waitContext(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, min(wait, maxWait))
}

func isWaitExpired(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultFetchLimit
	case limit > maxFetchLimit:
		return maxFetchLimit
	default:
		return limit
	}
}
