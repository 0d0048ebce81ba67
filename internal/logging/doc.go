// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

// Package logging provides zerolog-based structured logging for Citadel Reports.
//
// A single global logger is configured at startup from LoggingConfig and
// shared by every package. JSON output is the default; console output is
// available for local development.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//
//	logging.Info().Str("format", "csv").Msg("Report submitted")
//	logging.Error().Err(err).Msg("Upload failed")
//
// # Context Fields
//
// Request and correlation IDs are attached by the HTTP middleware. The job
// runner adds the job URL and tenant before a report is generated, so every
// line logged through Ctx carries them:
//
//	ctx = logging.ContextWithJob(ctx, job.URL)
//	logging.Ctx(ctx).Info().Str("stage", "bundling").Msg("Job progressed")
//
// # slog Adapter
//
// The supervisor tree logs through sutureslog, which expects *slog.Logger.
// NewSlogLogger bridges slog records into the same zerolog stream.
package logging
