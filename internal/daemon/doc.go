// Package daemon coordinates the long-running vidpress process.
//
// A Daemon wraps an already wired job supervisor and lifecycle event hub with
// a flock-based single-instance lock, startup preflight logging, dependency
// status reporting and the optional HTTP API. The API is a gorilla/mux router:
// /api routes sit behind bearer-token auth when a token is configured, while
// /health and the Prometheus /metrics endpoint stay open.
//
// Keep orchestration here. Profile derivation, engine control and event
// encoding live in their own packages; the daemon only starts, stops and
// exposes them.
package daemon
