package events

import (
	"context"
	"sync"
)

// DefaultHubCapacity bounds the hub when no capacity is configured.
const DefaultHubCapacity = 1024

// Hub keeps the most recent envelopes in sequence order so clients can poll
// or long-poll for new lifecycle events.
type Hub struct {
	mu       sync.Mutex
	capacity int
	buffer   []Envelope
	nextSeq  uint64
	notify   chan struct{}
}

// NewHub constructs a bounded hub.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultHubCapacity
	}
	return &Hub{capacity: capacity, notify: make(chan struct{})}
}

// Deliver stores env under the next sequence number and wakes waiters.
func (h *Hub) Deliver(_ context.Context, env Envelope) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	h.nextSeq++
	env.Sequence = h.nextSeq
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, env)
	close(h.notify)
	h.notify = make(chan struct{})
	h.mu.Unlock()
	return nil
}

// Fetch returns up to limit envelopes with sequence greater than since, and
// the cursor to pass as since on the next call. With wait set it blocks until something newer
// than since arrives or ctx ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Envelope, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	for {
		h.mu.Lock()
		out, next := h.snapshotLocked(since, limit)
		notify := h.notify
		h.mu.Unlock()

		if len(out) > 0 || !wait {
			return out, next, nil
		}
		select {
		case <-ctx.Done():
			return nil, next, ctx.Err()
		case <-notify:
		}
	}
}

// Last returns the latest assigned sequence number.
func (h *Hub) Last() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextSeq
}

func (h *Hub) snapshotLocked(since uint64, limit int) ([]Envelope, uint64) {
	start := len(h.buffer)
	for i, env := range h.buffer {
		if env.Sequence > since {
			start = i
			break
		}
	}
	if start == len(h.buffer) {
		return nil, h.nextSeq
	}
	end := start + limit
	if end > len(h.buffer) {
		end = len(h.buffer)
	}
	out := make([]Envelope, end-start)
	copy(out, h.buffer[start:end])
	return out, out[len(out)-1].Sequence
}
