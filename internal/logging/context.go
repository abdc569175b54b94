package logging

import (
	"context"
	"log/slog"

	"vidpress/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for job request identifiers.
	FieldRequestID = "request_id"
	// FieldEngine is the standardized structured logging key for the transform engine name.
	FieldEngine = "engine"
	// FieldSurface identifies the caller surface (cli, http, ipc) that started an operation.
	FieldSurface = "surface"
	// FieldJobState is the standardized structured logging key for job lifecycle states.
	FieldJobState = "job_state"
	// FieldEventType classifies a log line for filtering (e.g. job_started).
	FieldEventType = "event_type"
	// FieldErrorHint carries operator guidance for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldErrorCode carries the machine-readable error classification.
	FieldErrorCode = "error_code"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType tags profile derivation decisions.
	FieldDecisionType = "decision_type"
	// FieldProgressPercent is the standardized key for job progress percentages.
	FieldProgressPercent = "progress_percent"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	if name, ok := services.EngineFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEngine, name))
	}
	if surface, ok := services.ComponentFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSurface, surface))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
