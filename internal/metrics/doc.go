// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package metrics provides Prometheus instrumentation for Citadel Reports.

All collectors are registered on the default registry with promauto and
exposed at /metrics by the API router.

# Available Metrics

Report jobs:
  - report_jobs_submitted_total{report_type,format}
  - report_jobs_rejected_total{reason}
  - report_jobs_finished_total{report_type,format,result}
  - report_job_duration_seconds{report_type,format}
  - report_jobs_running, report_queue_depth
  - report_rows_exported_total{format}, report_artifact_bytes{format}

Store:
  - duckdb_query_duration_seconds{operation,report_type}
  - duckdb_query_errors_total{operation,report_type,error_type}
  - tenant_handles, tenant_model_registrations_total, tenant_resolve_errors_total

Artifacts:
  - artifact_upload_duration_seconds{backend}
  - artifact_upload_errors_total{backend,error_type}
  - circuit_breaker_* (state, requests, consecutive failures, transitions)

HTTP:
  - api_requests_total, api_request_duration_seconds, api_active_requests,
    api_rate_limit_hits_total
*/
package metrics
