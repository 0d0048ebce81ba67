// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package tenant routes tenant context ids to isolated logical databases.

All tenants share one DuckDB root connection opened by Connect. Each tenant
context gets its own schema, tenant_<sanitized id>, holding the signage
domain tables (screens, files, playlists, channels, statistics and the
screen issue and status histories).

Router.Resolve creates the schema and registers the models the first time a
context is seen and returns the cached Handle afterwards. Concurrent first
resolutions of the same context are serialized with a keyed mutex so
registration runs once. Failures wrap ErrResolve; callers treat that as
fatal.
*/
package tenant
