// Package api defines wire-format types and converters shared by the HTTP
// API, the IPC server and the CLI. It translates supervisor snapshots and
// lifecycle envelopes into transport-friendly DTOs so clients never couple to
// internal types.
//
// DTOs use camelCase JSON tags. Job states and quality tiers are exposed as
// lowercase strings, timestamps as RFC3339 with milliseconds, and event
// payloads are passed through as json.RawMessage to avoid double-encoding.
//
// JobService is the single place request defaults are applied: an empty
// quality falls back to the configured default, and an unset
// keepOriginalResolution falls back to the configured flag.
package api
