package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics
var (
	JobsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpress_jobs_started_total",
			Help: "Total number of transcode jobs accepted",
		},
		[]string{"engine"},
	)

	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpress_jobs_finished_total",
			Help: "Total number of transcode jobs that reached a terminal state",
		},
		[]string{"engine", "state"},
	)

	JobsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpress_jobs_rejected_total",
			Help: "Total number of start requests rejected before a job was registered",
		},
		[]string{"code"},
	)

	JobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vidpress_jobs_active",
			Help: "Number of live transcode jobs",
		},
		[]string{"engine"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidpress_job_duration_seconds",
			Help:    "Wall time from job acceptance to terminal state",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400, 3600},
		},
		[]string{"engine", "state"},
	)

	JobProgressUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpress_job_progress_updates_total",
			Help: "Total number of progress callbacks received from engines",
		},
		[]string{"engine"},
	)
)

// Event metrics
var (
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpress_events_published_total",
			Help: "Total number of lifecycle events delivered to sinks",
		},
		[]string{"name"},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpress_notifications_sent_total",
			Help: "Total number of ntfy notifications attempted",
		},
		[]string{"status"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpress_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidpress_http_request_duration_seconds",
			Help:    "HTTP API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidpress_http_requests_in_flight",
			Help: "Number of HTTP API requests currently being processed",
		},
	)
)
