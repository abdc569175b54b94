// Package logs streams daemon logs and lifecycle events over the HTTP API.
//
// The CLI prefers this client when paths.api_bind is configured because the
// HTTP handlers long-poll with the daemon's own limits; callers fall back to
// the IPC socket when IsAPIUnavailable reports a connection failure.
package logs
