// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is set on generated tokens and required on validated ones.
const Issuer = "citadel-reports"

// ErrNoSecret is returned when a JWT manager is built without a secret.
var ErrNoSecret = errors.New("JWT_SECRET is required but was empty")

// Claims identifies the caller of a report request.
type Claims struct {
	Username string `json:"username"`

	// Contexts restricts the database contexts the caller may report on.
	// Empty means any context.
	Contexts []string `json:"contexts,omitempty"`

	jwt.RegisteredClaims
}

// AllowsContext reports whether the claims permit reporting on tenantCtx.
func (c *Claims) AllowsContext(tenantCtx string) bool {
	return len(c.Contexts) == 0 || slices.Contains(c.Contexts, tenantCtx)
}

// JWTManager signs and validates HS256 tokens.
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

// NewJWTManager creates a manager for secret.
func NewJWTManager(secret string) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &JWTManager{secret: []byte(secret), now: time.Now}, nil
}

// GenerateToken issues a token for username valid for ttl.
func (m *JWTManager) GenerateToken(username string, contexts []string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		Username: username,
		Contexts: contexts,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature, algorithm, issuer and time claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
