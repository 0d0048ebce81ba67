// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"context"
	"fmt"
)

// Variant implements one report type.
type Variant interface {
	Type() ReportType

	// Compile validates the filter and builds the plan. It never touches
	// the store.
	Compile(f Filter, cfg ExportConfig) (*Plan, error)

	// Columns returns the output column plan for a compiled plan.
	Columns(p *Plan) []string

	// Execute runs the plan and maps records into dataset rows.
	Execute(ctx context.Context, ex *Executor, q Querier, p *Plan) (*Dataset, error)

	// CountRows returns how many dataset rows Execute would produce.
	CountRows(ctx context.Context, ex *Executor, q Querier, p *Plan) (int, error)
}

// Registry dispatches to the variant for a report type.
type Registry struct {
	exec     *Executor
	variants map[ReportType]Variant
}

// NewRegistry returns a registry holding every report type.
func NewRegistry(exec *Executor) *Registry {
	r := &Registry{exec: exec, variants: make(map[ReportType]Variant)}
	for _, v := range []Variant{
		videosReport{},
		playsReport{},
		screensReport{},
		screenIssuesReport{},
		playsByVideoTimeReport(),
		playsByScreenTimeReport(),
		dailyStreamReport(),
	} {
		r.variants[v.Type()] = v
	}
	return r
}

// Variant returns the implementation of t.
func (r *Registry) Variant(t ReportType) (Variant, error) {
	v, ok := r.variants[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedReport, t)
	}
	return v, nil
}

// Compile builds the plan for f.
func (r *Registry) Compile(f Filter, cfg ExportConfig) (*Plan, error) {
	v, err := r.Variant(f.Type)
	if err != nil {
		return nil, err
	}
	p, err := v.Compile(f, cfg)
	if err != nil {
		return nil, err
	}
	p.Columns = v.Columns(p)
	return p, nil
}

// Execute runs a compiled plan.
func (r *Registry) Execute(ctx context.Context, q Querier, p *Plan) (*Dataset, error) {
	v, err := r.Variant(p.Type)
	if err != nil {
		return nil, err
	}
	ds, err := v.Execute(ctx, r.exec, q, p)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%s dataset: %w", p.Type, err)
	}
	return ds, nil
}

// CountRows returns the row count a plan will produce.
func (r *Registry) CountRows(ctx context.Context, q Querier, p *Plan) (int, error) {
	v, err := r.Variant(p.Type)
	if err != nil {
		return 0, err
	}
	return v.CountRows(ctx, r.exec, q, p)
}
