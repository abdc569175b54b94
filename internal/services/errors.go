package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceRead marks a source that could not be opened or lacks the tracks a job needs.
	ErrSourceRead = errors.New("source read failure")
	// ErrDuplicateRequest marks a start for a request id that already has a live job.
	ErrDuplicateRequest = errors.New("duplicate request")
	// ErrEngine marks a failure reported by the transform engine.
	ErrEngine = errors.New("engine failure")

	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Code returns a short machine-readable identifier for the marker carried by err.
// HTTP and IPC responses expose it so clients can branch without string matching.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceRead):
		return "source_read_failure"
	case errors.Is(err, ErrDuplicateRequest):
		return "duplicate_request"
	case errors.Is(err, ErrEngine):
		return "engine_failure"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "internal"
	}
}

// Hint suggests a next step for the operator based on the error marker.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrSourceRead):
		return "verify the source exists, is readable, and contains an audio or video track"
	case errors.Is(err, ErrDuplicateRequest):
		return "wait for the running job to finish or cancel it before reusing the request id"
	case errors.Is(err, ErrEngine):
		return "inspect the engine log output for the failing input"
	case errors.Is(err, ErrConfiguration):
		return "check the vidpress config file"
	case errors.Is(err, ErrExternalTool):
		return "confirm ffmpeg and ffprobe are installed and on PATH"
	default:
		return "check logs for details"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
