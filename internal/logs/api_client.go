package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vidpress/internal/api"
)

var ErrAPIUnavailable = errors.New("vidpress API unavailable")

type StreamClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

// LogQuery mirrors the /api/logs query parameters.
type LogQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	Component string
	RequestID string
}

// EventQuery mirrors the /api/events query parameters.
type EventQuery struct {
	Since     uint64
	Limit     int
	Wait      bool
	RequestID string
}

// NewStreamClient returns nil when bind is empty so callers can fall back to IPC.
func NewStreamClient(bind, token string) (*StreamClient, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &StreamClient{
		base:  base,
		token: strings.TrimSpace(token),
		// No timeout: follow mode blocks until the caller cancels.
		http: &http.Client{},
	}, nil
}

// FetchLogs returns one batch of log lines.
func (c *StreamClient) FetchLogs(ctx context.Context, q LogQuery) (api.LogStreamResponse, error) {
	values := url.Values{}
	setCursor(values, q.Since, q.Limit)
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if v := strings.TrimSpace(q.Component); v != "" {
		values.Set("component", v)
	}
	if v := strings.TrimSpace(q.RequestID); v != "" {
		values.Set("requestId", v)
	}

	var payload api.LogStreamResponse
	err := c.get(ctx, "/api/logs", values, &payload)
	return payload, err
}

// FetchEvents returns one batch of lifecycle events.
func (c *StreamClient) FetchEvents(ctx context.Context, q EventQuery) (api.EventStreamResponse, error) {
	values := url.Values{}
	setCursor(values, q.Since, q.Limit)
	if q.Wait {
		values.Set("wait", "1")
	}
	if v := strings.TrimSpace(q.RequestID); v != "" {
		values.Set("requestId", v)
	}

	var payload api.EventStreamResponse
	err := c.get(ctx, "/api/events", values, &payload)
	return payload, err
}

func setCursor(values url.Values, since uint64, limit int) {
	if since > 0 {
		values.Set("since", strconv.FormatUint(since, 10))
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
}

func (c *StreamClient) get(ctx context.Context, path string, values url.Values, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsAPIUnavailable reports whether err means the API could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
