// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB report queries in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 600}, // report queries may spill to disk
		},
		[]string{"operation", "report_type"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "report_type", "error_type"},
	)

	// Tenant Router Metrics
	TenantHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenant_handles",
			Help: "Number of cached tenant database handles",
		},
	)

	TenantRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_model_registrations_total",
			Help: "Total number of tenant schema registrations",
		},
	)

	TenantResolveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_resolve_errors_total",
			Help: "Total number of failed tenant resolutions",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Report Job Metrics
	ReportJobsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_jobs_submitted_total",
			Help: "Total number of report jobs accepted",
		},
		[]string{"report_type", "format"},
	)

	ReportJobsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_jobs_rejected_total",
			Help: "Total number of report submissions rejected before a job started",
		},
		[]string{"reason"}, // reason: "invalid_filter", "too_many_rows", "queue_full", "store"
	)

	ReportJobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_jobs_finished_total",
			Help: "Total number of report jobs that reached a terminal state",
		},
		[]string{"report_type", "format", "result"}, // result: "complete", "error"
	)

	ReportJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_job_duration_seconds",
			Help:    "Wall time from job start to terminal state",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 900},
		},
		[]string{"report_type", "format"},
	)

	ReportJobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "report_jobs_running",
			Help: "Number of report jobs currently executing",
		},
	)

	ReportQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "report_queue_depth",
			Help: "Number of report jobs waiting for a worker",
		},
	)

	ReportRowsExported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_rows_exported_total",
			Help: "Total number of dataset rows written to artifacts",
		},
		[]string{"format"},
	)

	ReportArtifactBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_artifact_bytes",
			Help:    "Size of generated artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB .. 256MiB
		},
		[]string{"format"},
	)

	// Artifact Storage Metrics
	ArtifactUploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artifact_upload_duration_seconds",
			Help:    "Duration of artifact uploads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	ArtifactUploadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_upload_errors_total",
			Help: "Total number of failed artifact uploads",
		},
		[]string{"backend", "error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a report query metric.
func RecordDBQuery(operation, reportType string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, reportType).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, reportType, classifyError(err)).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordJobSubmitted counts an accepted report job.
func RecordJobSubmitted(reportType, format string) {
	ReportJobsSubmitted.WithLabelValues(reportType, format).Inc()
}

// RecordJobRejected counts a submission refused before its job started.
func RecordJobRejected(reason string) {
	ReportJobsRejected.WithLabelValues(reason).Inc()
}

// RecordJobFinished records the terminal state and duration of a job.
func RecordJobFinished(reportType, format string, duration time.Duration, err error) {
	result := "complete"
	if err != nil {
		result = "error"
	}
	ReportJobsFinished.WithLabelValues(reportType, format, result).Inc()
	ReportJobDuration.WithLabelValues(reportType, format).Observe(duration.Seconds())
}

// RecordExport records the rows and bytes of a bundled artifact.
func RecordExport(format string, rows, size int) {
	ReportRowsExported.WithLabelValues(format).Add(float64(rows))
	ReportArtifactBytes.WithLabelValues(format).Observe(float64(size))
}

// RecordUpload records an artifact upload.
func RecordUpload(backend string, duration time.Duration, err error) {
	ArtifactUploadDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		ArtifactUploadErrors.WithLabelValues(backend, classifyError(err)).Inc()
	}
}

// classifyError maps an error onto a small, bounded label set.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "circuit breaker"), strings.Contains(msg, "too many requests"):
		return "circuit_open"
	case strings.Contains(msg, "connection"), strings.Contains(msg, "database is closed"):
		return "connection"
	case strings.Contains(msg, "syntax"), strings.Contains(msg, "binder error"), strings.Contains(msg, "parser error"):
		return "query"
	case strings.Contains(msg, "permission"), strings.Contains(msg, "access denied"), strings.Contains(msg, "forbidden"):
		return "permission"
	default:
		return "other"
	}
}
