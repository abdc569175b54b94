// Package events turns job lifecycle transitions into named, versioned
// envelopes and forwards them to sinks.
//
// Publisher is best effort: a failing sink is logged and the event dropped.
// Hub is the in-memory sink that backs `vidpress events` and the HTTP
// `/api/events` long-poll; Fanout and LogSink combine it with the
// notification and logging sinks.
package events
