// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

// Package services adapts blocking components to suture.Service.
//
// The report runner already implements Serve(ctx) error and is added to
// the tree directly; the HTTP server needs HTTPServerService to turn
// ListenAndServe and Shutdown into a context-driven Serve.
package services
