// Package metrics declares the Prometheus collectors exported on the daemon's
// /metrics endpoint and the adapters that feed them from the job supervisor,
// the event publisher and the HTTP API.
package metrics
