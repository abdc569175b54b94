// Package logging assembles structured slog loggers and formatting helpers used
// across vidpress services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so supervisor and engine code
// can tag log lines with request identifiers and engine names. The StreamHub
// keeps a bounded tail of recent log lines for the daemon's log endpoints.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
