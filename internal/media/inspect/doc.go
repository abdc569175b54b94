// Package inspect is the format inspector: it reads a source container's
// tracks (via ffprobe) and selects the first audio or video track for profile
// derivation.
package inspect
