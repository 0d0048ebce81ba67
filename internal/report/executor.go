// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/citadel-reports/internal/logging"
	"github.com/tomtom215/citadel-reports/internal/metrics"
)

// Querier is the slice of a tenant handle the executor needs.
type Querier interface {
	Tabler
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Record is one result row keyed by projected field name.
type Record map[string]any

// Executor runs compiled plans against a tenant store.
type Executor struct {
	timeout time.Duration
	now     func() time.Time
}

// NewExecutor creates an executor. Each query is bounded by timeout; zero
// means no bound beyond the caller's context.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout, now: time.Now}
}

// WithClock replaces the executor's clock. Used for "days ago" columns.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// Now returns the executor's current time.
func (e *Executor) Now() time.Time { return e.now() }

// Query renders p and scans every row into a Record.
func (e *Executor) Query(ctx context.Context, q Querier, p *Plan) ([]Record, error) {
	query, args, err := Render(p, q)
	if err != nil {
		return nil, fmt.Errorf("render %s plan: %w", p.Type, err)
	}

	var records []Record
	err = e.run(ctx, q, "select", p.Type, query, args, func(rows *sql.Rows) error {
		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			rec := make(Record, len(cols))
			for i, c := range cols {
				rec[c] = normalizeValue(values[i])
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of rows p yields, or the number of distinct
// values of the projected field distinct when it is set.
func (e *Executor) Count(ctx context.Context, q Querier, p *Plan, distinct string) (int, error) {
	inner, args, err := Render(p, q)
	if err != nil {
		return 0, fmt.Errorf("render %s plan: %w", p.Type, err)
	}
	agg := "COUNT(*)"
	if distinct != "" {
		agg = "COUNT(DISTINCT c." + quote(distinct) + ")"
	}
	query := "SELECT " + agg + " FROM (" + inner + ") AS c"

	var n int64
	err = e.run(ctx, q, "count", p.Type, query, args, func(rows *sql.Rows) error {
		if rows.Next() {
			if err := rows.Scan(&n); err != nil {
				return err
			}
		}
		return rows.Err()
	})
	return int(n), err
}

func (e *Executor) run(ctx context.Context, q Querier, op string, t ReportType, query string, args []any, scan func(*sql.Rows) error) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	err := func() error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		return scan(rows)
	}()
	elapsed := time.Since(start)
	metrics.RecordDBQuery(op, string(t), elapsed, err)

	if err != nil {
		logging.Ctx(ctx).Debug().Str("query", query).Err(err).Msg("Report query failed")
		return fmt.Errorf("%s %s query: %w", op, t, err)
	}
	logging.Ctx(ctx).Debug().
		Str("report_type", string(t)).
		Str("operation", op).
		Dur("took", elapsed).
		Msg("Report query finished")
	return nil
}

// normalizeValue maps driver values onto the small set of types the
// variants handle.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	default:
		return v
	}
}

func recString(r Record, key string) string {
	s, _ := r[key].(string)
	return s
}

func recInt(r Record, key string) int64 {
	switch x := r[key].(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func recFloat(r Record, key string) float64 {
	switch x := r[key].(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	default:
		return 0
	}
}

func recTime(r Record, key string) (time.Time, bool) {
	t, ok := r[key].(time.Time)
	return t, ok
}
