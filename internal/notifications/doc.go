// Package notifications delivers terminal job outcomes via ntfy.
//
// NewService publishes to the topic configured in config.toml and degrades to
// a no-op when notifications are disabled. Each outcome (success, failure,
// cancellation) can be switched off independently. Sink adapts the service to
// the lifecycle event publisher so the supervisor never talks to ntfy
// directly.
package notifications
