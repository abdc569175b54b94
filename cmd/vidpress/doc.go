// Package main hosts the vidpress CLI entrypoint and command graph.
//
// The Cobra command tree translates terminal invocations into IPC calls
// against the daemon: submitting and cancelling transcode jobs, listing job
// state, following lifecycle events and tailing logs. It also runs the daemon
// itself (the hidden `daemon` command), probes local files without a daemon,
// and scaffolds configuration.
//
// Keep this package lean: new behavior belongs in the internal packages first
// and is only surfaced here through commands or flags.
package main
