// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Command server runs the Citadel Reports service.

It builds the report pipeline and serves it over HTTP:

 1. Configuration: koanf v2, defaults then config.yaml then environment
 2. Logging: zerolog, JSON unless LOG_FORMAT=console
 3. Root store: DuckDB, connection retried with exponential backoff
 4. Tenant router and keyed mutex
 5. Job tracker: in memory or badger (REPORT_JOB_STORE)
 6. Artifact storage: filesystem or S3 (ARTIFACT_BACKEND) behind a circuit breaker
 7. Report registry, bundler, runner and service
 8. HTTP API: chi with CORS, rate limiting and optional JWT auth

Long-lived components run under a suture tree:

	RootSupervisor ("citadel-reports")
	├── WorkSupervisor ("work-layer")
	│   └── report-runner
	└── APISupervisor ("api-layer")
	    └── http-server

SIGINT or SIGTERM cancels the root context. The HTTP server drains for up
to 10s, then services that did not stop are reported.

Example:

	export DUCKDB_PATH=/data/citadel.duckdb
	export ARTIFACT_BACKEND=s3
	export S3_BUCKET=citadel-reports
	export ARTIFACT_PUBLIC_ROOT=https://reports.example.com/
	export JWT_SECRET=$(openssl rand -base64 32)
	./citadel-reports
*/
package main
