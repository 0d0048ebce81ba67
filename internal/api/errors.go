// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package api

import "errors"

// Error codes returned in the "code" field.
const (
	codeInvalidBody   = "INVALID_BODY"
	codeInvalidReport = "INVALID_REPORT"
	codeForbidden     = "FORBIDDEN_CONTEXT"
	codeOverloaded    = "OVERLOADED"
	codeInternal      = "INTERNAL_ERROR"
	codeMissingURL    = "MISSING_URL"
	codeInvalidURL    = "INVALID_URL"
	codeRateLimited   = "RATE_LIMITED"
	codeBodyTooLarge  = "BODY_TOO_LARGE"
)

// ErrInvalidURLParam is returned when the url query parameter is not base64.
var ErrInvalidURLParam = errors.New("url parameter must be base64 encoded")
