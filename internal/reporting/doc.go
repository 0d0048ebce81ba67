// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package reporting ties the pipeline together.

Submit compiles the filter, runs the pdf capacity preflight, derives the
artifact key and URL, and hands a task to the job runner. The task
resolves the tenant, executes the plan, bundles the dataset and uploads
the artifact, recording each stage in the tracker. Callers poll Status
with the URL returned by Submit.

Errors that IsClientError accepts belong to the caller (HTTP 400).
jobs.ErrQueueFull means the service is saturated (HTTP 503). IsFatal
errors stop the runner so its supervisor restarts it.
*/
package reporting
