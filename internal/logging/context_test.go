// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package logging

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()

	if len(id1) != 8 {
		t.Errorf("expected 8-character correlation ID, got %d", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique correlation IDs")
	}
}

func TestGenerateRequestID(t *testing.T) {
	t.Parallel()

	if id := GenerateRequestID(); len(id) != 36 {
		t.Errorf("expected 36-character request ID, got %q", id)
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" ||
		JobFromContext(ctx) != "" || TenantFromContext(ctx) != "" {
		t.Fatal("empty context should carry no values")
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithJob(ctx, "https://cdn.example.com/report.csv")
	ctx = ContextWithTenant(ctx, "acme")

	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("correlation id = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q", got)
	}
	if got := JobFromContext(ctx); got != "https://cdn.example.com/report.csv" {
		t.Errorf("job = %q", got)
	}
	if got := TenantFromContext(ctx); got != "acme" {
		t.Errorf("tenant = %q", got)
	}
}

func TestContextWithNewCorrelationID(t *testing.T) {
	t.Parallel()

	ctx := ContextWithNewCorrelationID(context.Background())
	if len(CorrelationIDFromContext(ctx)) != 8 {
		t.Errorf("expected generated correlation id, got %q", CorrelationIDFromContext(ctx))
	}
}

func TestCtx(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithCorrelationID(context.Background(), "corr0001")
	ctx = ContextWithJob(ctx, "u1")
	ctx = ContextWithTenant(ctx, "acme")

	Ctx(ctx).Info().Msg("stage changed")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"corr0001"`, `"job_url":"u1"`, `"tenant":"acme"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
	if strings.Contains(out, "request_id") {
		t.Errorf("request_id should be omitted when unset: %s", out)
	}
}

func TestCtxWith(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithRequestID(context.Background(), "req-9")
	l := CtxWith(ctx).Str("format", "pdf").Logger()
	l.Info().Msg("bundled")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-9"`) || !strings.Contains(out, `"format":"pdf"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
