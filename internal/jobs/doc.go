// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package jobs tracks and runs asynchronous report jobs.

A job is identified by the public URL of the artifact it will produce.
The Tracker records one Status per URL:

	unknown   never seen; reported with OverloadMessage
	running   accepted, with the current stage
	complete  artifact uploaded
	error     failed, with a message

Statuses are kept in a Store: MemoryStore for a single process lifetime
or BadgerStore when polling must survive a restart. Entries are never
evicted.

The Runner is a suture.Service with a fixed worker pool, a bounded queue
and a start-rate limiter. Submit rejects with ErrQueueFull before the job
is recorded, so a rejected job never shows as running. Job errors
selected by RunnerConfig.Fatal stop Serve so the supervisor restarts the
runner; jobs already queued are kept.
*/
package jobs
