// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships
// the matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. Most
// responses alias the HTTP API types in package api so both transports stay
// in lockstep. Job start rejections travel inside JobStartResponse rather
// than as RPC errors so the CLI can show the error code and hint.
//
// Reuse these types when adding new RPC endpoints to keep the protocol stable
// and compatible with existing command implementations.
package ipc
