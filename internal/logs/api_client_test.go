package logs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidpress/internal/api"
)

func TestStreamClientFetchLogs(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/logs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(api.LogStreamResponse{
			Events: []api.LogEvent{{Sequence: 7, Message: "job started", RequestID: "req-1"}},
			Next:   7,
		})
	}))
	t.Cleanup(srv.Close)

	client, err := NewStreamClient(srv.URL, "tok")
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	resp, err := client.FetchLogs(context.Background(), LogQuery{Since: 3, Limit: 50, Follow: true, RequestID: "req-1"})
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if resp.Next != 7 || len(resp.Events) != 1 || resp.Events[0].Message != "job started" {
		t.Fatalf("unexpected response %#v", resp)
	}
	if gotQuery != "follow=1&limit=50&requestId=req-1&since=3" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestStreamClientFetchEventsReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "missing or invalid bearer token", Code: "unauthorized"})
	}))
	t.Cleanup(srv.Close)

	client, err := NewStreamClient(srv.Listener.Addr().String(), "")
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	_, err = client.FetchEvents(context.Background(), EventQuery{Wait: true})
	if err == nil || IsAPIUnavailable(err) {
		t.Fatalf("expected API error, got %v", err)
	}
	if got := err.Error(); got != "/api/events returned status 401: missing or invalid bearer token" {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestStreamClientUnavailable(t *testing.T) {
	client, err := NewStreamClient("", "")
	if err != nil || client != nil {
		t.Fatalf("expected nil client for empty bind, got %v %v", client, err)
	}
	if _, err := client.FetchLogs(context.Background(), LogQuery{}); !errors.Is(err, ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable, got %v", err)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	closed, err := NewStreamClient(addr, "")
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	if _, err := closed.FetchEvents(context.Background(), EventQuery{}); !IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
