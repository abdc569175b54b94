// Package services defines shared utilities consumed by the job supervisor,
// the transform engines, and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp request identifiers, engine names, and the
//     calling surface for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (source read, duplicate request, engine) with errors.Is.
//   - Code and Hint helpers that turn markers into stable identifiers and
//     operator guidance for API responses and warnings.
package services
