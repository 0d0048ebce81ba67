// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package report compiles report filters into query plans and executes them
against a tenant's DuckDB schema.

# Pipeline

A request flows through three steps:

 1. Compile: the Variant for the report type normalizes the time window,
    maps the primary and secondary filters onto the source table and
    appends its projection. Nothing touches the store here, so every
    filter error is raised before a job is accepted.
 2. Render: the Plan's stage list (Match, Lookup, TagMembership, Bucket,
    Project, Group, Sort) becomes one parameterized SELECT.
 3. Execute: rows are scanned into Records and mapped onto a Dataset
    whose column plan was fixed at compile time.

# Report Types

	videos             plays per video
	plays              one row per play, newest first
	screens            live screens, optional "Last Played"
	screenIssues       screens with an unresolved issue
	playsByVideoTime   video × date play counts
	playsByScreenTime  screen × date play counts
	dailyStream        screen × date streamed time (HH:MM:SS)

The pivot types emit a dense grid: one column per local date in the
window and one row per entity seen in range, with missing cells filled
with zero.

# Usage

	reg := report.NewRegistry(report.NewExecutor(cfg.Database.QueryTimeout))
	plan, err := reg.Compile(filter, exportCfg)
	if err != nil {
	    return err // ErrInvalidRange, ErrUnsupportedFilter, ...
	}
	ds, err := reg.Execute(ctx, handle, plan)
*/
package report
