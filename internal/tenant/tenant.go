// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/citadel-reports/internal/keymutex"
	"github.com/tomtom215/citadel-reports/internal/logging"
	"github.com/tomtom215/citadel-reports/internal/metrics"
)

// ErrResolve is returned when a tenant handle cannot be obtained. It is
// fatal for the job runner.
var ErrResolve = errors.New("tenant: resolve failed")

// Handle is a tenant-scoped view of the shared root connection.
type Handle struct {
	context string
	schema  string
	db      *sql.DB
}

// Context returns the tenant context id the handle was resolved for.
func (h *Handle) Context() string { return h.context }

// Schema returns the unquoted schema name.
func (h *Handle) Schema() string { return h.schema }

// Table returns the schema-qualified, quoted name of table.
func (h *Handle) Table(table string) string {
	return quoteIdent(h.schema) + "." + quoteIdent(table)
}

// QueryContext runs a read query on the root connection.
func (h *Handle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return h.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the root connection.
func (h *Handle) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return h.db.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement on the root connection.
func (h *Handle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return h.db.ExecContext(ctx, query, args...)
}

// Router maps tenant context ids to cached handles on one root connection.
type Router struct {
	db     *sql.DB
	locks  *keymutex.KeyedMutex
	models []Model

	mu      sync.RWMutex
	handles map[string]*Handle

	registrations int
}

// NewRouter creates a router over the root connection. First resolutions
// of a context are serialized through locks.
func NewRouter(db *sql.DB, locks *keymutex.KeyedMutex) *Router {
	return &Router{
		db:      db,
		locks:   locks,
		models:  Models,
		handles: make(map[string]*Handle),
	}
}

// Resolve returns the handle for tenantCtx, creating the schema and
// registering every model on first use. Any failure wraps ErrResolve.
func (r *Router) Resolve(ctx context.Context, tenantCtx string) (*Handle, error) {
	if h := r.cached(tenantCtx); h != nil {
		return h, nil
	}
	if strings.TrimSpace(tenantCtx) == "" {
		metrics.TenantResolveErrors.Inc()
		return nil, fmt.Errorf("%w: empty context", ErrResolve)
	}

	key := "tenant:" + tenantCtx
	if !r.locks.TryLock(key) {
		logging.Ctx(ctx).Debug().Str("tenant", tenantCtx).Msg("Waiting for tenant registration")
		if err := r.locks.Lock(ctx, key); err != nil {
			metrics.TenantResolveErrors.Inc()
			return nil, fmt.Errorf("%w: %s: %w", ErrResolve, tenantCtx, err)
		}
	}
	defer r.locks.Unlock(key)

	// Another caller may have finished registration while we waited.
	if h := r.cached(tenantCtx); h != nil {
		return h, nil
	}

	h := &Handle{context: tenantCtx, schema: SchemaName(tenantCtx), db: r.db}
	start := time.Now()
	if err := r.register(ctx, h); err != nil {
		metrics.TenantResolveErrors.Inc()
		return nil, fmt.Errorf("%w: %s: %w", ErrResolve, tenantCtx, err)
	}

	r.mu.Lock()
	r.handles[tenantCtx] = h
	r.registrations++
	n := len(r.handles)
	r.mu.Unlock()

	metrics.TenantHandles.Set(float64(n))
	metrics.TenantRegistrations.Inc()
	logging.Ctx(ctx).Info().
		Str("tenant", tenantCtx).
		Str("schema", h.schema).
		Dur("took", time.Since(start)).
		Msg("Tenant models registered")

	return h, nil
}

func (r *Router) cached(tenantCtx string) *Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[tenantCtx]
}

// register creates the tenant schema and every model table in one
// transaction.
func (r *Router) register(ctx context.Context, h *Handle) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	schema := quoteIdent(h.schema)
	if _, err := tx.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		return fmt.Errorf("create schema %s: %w", h.schema, err)
	}
	for _, m := range r.models {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(m.DDL, schema)); err != nil {
			return fmt.Errorf("register model %s: %w", m.Name, err)
		}
		for _, idx := range m.Indexes {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(idx, schema)); err != nil {
				return fmt.Errorf("index model %s: %w", m.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

// Len returns the number of cached handles.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Registrations returns how many model registrations have run.
func (r *Router) Registrations() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registrations
}

// SchemaName maps a tenant context id to a DuckDB schema name. Ids that
// need sanitizing get a hash suffix so distinct ids never share a schema.
func SchemaName(tenantCtx string) string {
	lower := strings.ToLower(tenantCtx)
	var b strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := "tenant_" + b.String()
	if b.String() != tenantCtx {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tenantCtx))
		name = fmt.Sprintf("%s_%08x", name, h.Sum32())
	}
	return name
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
