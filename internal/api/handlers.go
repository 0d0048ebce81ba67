// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package api

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/citadel-reports/internal/auth"
	"github.com/tomtom215/citadel-reports/internal/jobs"
	"github.com/tomtom215/citadel-reports/internal/report"
	"github.com/tomtom215/citadel-reports/internal/reporting"
	"github.com/tomtom215/citadel-reports/internal/validation"
)

// maxBodyBytes bounds POST /report bodies. Precomputed screen lists are
// the only large field.
const maxBodyBytes = 8 << 20

// retryAfterSeconds is suggested to clients when the queue is full.
const retryAfterSeconds = "30"

// ReportService is what the handlers need from the reporting service.
type ReportService interface {
	Submit(ctx context.Context, req reporting.Request) (*reporting.Submission, error)
	Status(ctx context.Context, url string) (jobs.Status, error)
}

// Handler serves the report API.
type Handler struct {
	svc     ReportService
	version string
}

// NewHandler creates a Handler.
func NewHandler(svc ReportService, version string) *Handler {
	return &Handler{svc: svc, version: version}
}

// SubmitReport handles POST /report. The reply carries the artifact URL
// while generation continues in the background.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "request body too large", nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, codeInvalidBody, "could not read request body", nil)
		return
	}
	var body submitRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidBody, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if err := validation.ValidateStruct(&body); err != nil {
		respondValidationError(w, err)
		return
	}

	user := string(body.User)
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		if !claims.AllowsContext(body.DatabaseContext) {
			respondError(w, r, http.StatusForbidden, codeForbidden, "token does not grant access to this database context", nil)
			return
		}
		if user == "" {
			user = claims.Username
		}
	}

	sub, err := h.svc.Submit(r.Context(), reporting.Request{
		User:   user,
		Tenant: body.DatabaseContext,
		Filter: body.Filter.toFilter(),
		Export: body.ExportConfig.toExportConfig(),
	})
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, response{Status: statusOK, URL: sub.URL})
	case reporting.IsClientError(err):
		respondError(w, r, http.StatusBadRequest, codeInvalidReport, err.Error(), nil)
	case errors.Is(err, jobs.ErrQueueFull):
		w.Header().Set("Retry-After", retryAfterSeconds)
		respondError(w, r, http.StatusServiceUnavailable, codeOverloaded, jobs.OverloadMessage, err)
	default:
		respondError(w, r, http.StatusInternalServerError, codeInternal, "report could not be queued", err)
	}
}

// ReportStatus handles GET /report?url=<base64>.
func (h *Handler) ReportStatus(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("url")
	if encoded == "" {
		respondError(w, r, http.StatusBadRequest, codeMissingURL, "url parameter is required", nil)
		return
	}
	url, err := decodeURLParam(encoded)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidURL, err.Error(), nil)
		return
	}

	st, err := h.svc.Status(r.Context(), url)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "job status unavailable", err)
		return
	}

	switch st.State {
	case jobs.StateComplete:
		respondJSON(w, http.StatusOK, response{Status: statusOK})
	case jobs.StateRunning:
		respondJSON(w, http.StatusOK, response{Status: statusRunning, Stage: st.Stage})
	default:
		respondJSON(w, http.StatusOK, response{Status: statusError, Error: st.Error})
	}
}

// decodeURLParam accepts standard or URL-safe base64, padded or not.
func decodeURLParam(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil && len(b) > 0 {
			return string(b), nil
		}
	}
	return "", ErrInvalidURLParam
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

type metaResponse struct {
	Version     string              `json:"version"`
	ReportTypes []report.ReportType `json:"report_types"`
}

// Meta handles GET /meta.
func (h *Handler) Meta(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, metaResponse{Version: h.version, ReportTypes: report.ReportTypes})
}
