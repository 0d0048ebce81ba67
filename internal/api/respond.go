// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/citadel-reports/internal/logging"
	"github.com/tomtom215/citadel-reports/internal/validation"
)

// Response status values.
const (
	statusOK      = "ok"
	statusRunning = "running"
	statusError   = "error"
)

// response is the body of every JSON reply on /report.
type response struct {
	Status  string                  `json:"status"`
	URL     string                  `json:"url,omitempty"`
	Stage   string                  `json:"stage,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Code    string                  `json:"code,omitempty"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// respondJSON writes v with no caching; report status changes between polls.
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes an error envelope. Server errors are logged with the
// cause; the client only sees message.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, response{Status: statusError, Code: code, Error: message})
}

// respondValidationError writes a 400 listing every failed field.
func respondValidationError(w http.ResponseWriter, err error) {
	body := response{Status: statusError, Code: validation.ErrorCode, Error: err.Error()}
	var ve *validation.RequestValidationError
	if errors.As(err, &ve) {
		body.Details = ve.Fields
	}
	respondJSON(w, http.StatusBadRequest, body)
}

// sanitizeLogValue escapes control characters so request data cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
