// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	jobKey           contextKey = "job"
	tenantKey        contextKey = "tenant"
)

// GenerateCorrelationID creates a new unique correlation ID.
// Returns the first 8 characters of a UUID for readability.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID creates a new unique request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID returns a new context with the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns a context with a newly generated correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext retrieves the correlation ID from context.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// ContextWithRequestID returns a new context with the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext retrieves the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithJob tags ctx with the URL of the report job being processed.
// Correlation IDs started on the request path survive into the worker.
func ContextWithJob(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, jobKey, url)
}

// JobFromContext retrieves the job URL from context.
func JobFromContext(ctx context.Context) string {
	url, _ := ctx.Value(jobKey).(string)
	return url
}

// ContextWithTenant tags ctx with a tenant context id.
func ContextWithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

// TenantFromContext retrieves the tenant context id.
func TenantFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantKey).(string)
	return tenant
}

// Ctx returns a logger with the context values (correlation_id, request_id,
// job_url, tenant) added as fields.
//
//	logging.Ctx(ctx).Info().Msg("Report uploaded")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := CtxWith(ctx).Logger()
	return &l
}

// CtxWith returns a logger context builder with context values pre-populated.
//
//	logger := logging.CtxWith(ctx).Str("format", "pdf").Logger()
func CtxWith(ctx context.Context) zerolog.Context {
	logCtx := Logger().With()

	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if url := JobFromContext(ctx); url != "" {
		logCtx = logCtx.Str("job_url", url)
	}
	if tenant := TenantFromContext(ctx); tenant != "" {
		logCtx = logCtx.Str("tenant", tenant)
	}

	return logCtx
}

// WithComponent creates a child logger with a component field.
//
//	runnerLogger := logging.WithComponent("runner")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
