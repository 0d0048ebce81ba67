// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/citadel-reports/internal/logging"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// Middleware enforces bearer-token authentication. A nil manager disables
// it and every request passes through.
type Middleware struct {
	jwt *JWTManager
}

// NewMiddleware creates the middleware.
func NewMiddleware(jwt *JWTManager) *Middleware {
	return &Middleware{jwt: jwt}
}

// Enabled reports whether requests are authenticated.
func (m *Middleware) Enabled() bool { return m != nil && m.jwt != nil }

// Authenticate rejects requests without a valid bearer token and stores
// the claims in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="citadel-reports"`)
			http.Error(w, "Unauthorized: bearer token required", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Rejected bearer token")
			w.Header().Set("WWW-Authenticate", `Bearer realm="citadel-reports", error="invalid_token"`)
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ContextWithClaims returns ctx carrying claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok && c != nil
}
