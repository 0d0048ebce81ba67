// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"context"
	"sort"
	"time"
)

const (
	colStatus      = "Status"
	colDeviceModel = "Device Model"
	colVersion     = "Version"
	colLocation    = "Location"
	colPIN         = "PIN"
	colLastPlayed  = "Last Played"
)

// screensReport lists live screens.
type screensReport struct{}

func (screensReport) Type() ReportType { return TypeScreens }

func (screensReport) Compile(f Filter, cfg ExportConfig) (*Plan, error) {
	p, err := compileScreens(f, cfg, false)
	if err != nil {
		return nil, err
	}
	if cfg.IncludeInternalIDs() {
		p.LastPlayed = lastPlayedPlan(p)
	}
	return p, nil
}

func (screensReport) Columns(p *Plan) []string {
	cols := []string{colScreenName, colStatus, colDeviceModel, colVersion, colLocation, colPIN}
	if p.Config.IncludeInternalIDs() {
		cols = append(cols, colScreenID, colLastPlayed)
	}
	return cols
}

func (screensReport) Execute(ctx context.Context, ex *Executor, q Querier, p *Plan) (*Dataset, error) {
	records, err := ex.Query(ctx, q, p)
	if err != nil {
		return nil, err
	}
	since, err := queryLastPlayed(ctx, ex, q, p)
	if err != nil {
		return nil, err
	}

	now := ex.Now()
	ds := NewDataset(p.Columns)
	for _, r := range records {
		var location any
		if valid, _ := r["location_valid"].(bool); valid {
			location = r["location_summary"]
		}
		ds.AppendRecord(map[string]any{
			colScreenName:  r["name"],
			colStatus:      r["status"],
			colDeviceModel: r["device_model"],
			colVersion:     r["version"],
			colLocation:    location,
			colPIN:         r["pin"],
			colScreenID:    r["search_token"],
			colLastPlayed:  lastPlayedText(now, since, recString(r, "id")),
		})
	}
	return ds, nil
}

func (screensReport) CountRows(ctx context.Context, ex *Executor, q Querier, p *Plan) (int, error) {
	return ex.Count(ctx, q, p, "")
}

// queryLastPlayed runs the plan's LastPlayed sub-plan, keyed by screen id.
func queryLastPlayed(ctx context.Context, ex *Executor, q Querier, p *Plan) (map[string]time.Time, error) {
	if p.LastPlayed == nil {
		return nil, nil
	}
	records, err := ex.Query(ctx, q, p.LastPlayed)
	if err != nil {
		return nil, err
	}
	since := make(map[string]time.Time, len(records))
	for _, r := range records {
		if t, ok := recTime(r, "since"); ok {
			since[recString(r, "screen_id")] = t
		}
	}
	return since, nil
}

func lastPlayedText(now time.Time, since map[string]time.Time, screenID string) string {
	t, ok := since[screenID]
	if !ok {
		return ""
	}
	return daysAgo(now, t)
}

// screenIssuesReport lists screens with an open issue.
type screenIssuesReport struct{}

func (screenIssuesReport) Type() ReportType { return TypeScreenIssues }

func (screenIssuesReport) Compile(f Filter, cfg ExportConfig) (*Plan, error) {
	p, err := compileScreens(f, cfg, true)
	if err != nil {
		return nil, err
	}
	p.LastPlayed = lastPlayedPlan(p)
	return p, nil
}

func (screenIssuesReport) Columns(*Plan) []string {
	return []string{colScreenID, colScreenName, colStatus, colPIN, colLastPlayed}
}

// Execute uses the precomputed screen list when the caller supplied one
// and queries the store otherwise.
func (screenIssuesReport) Execute(ctx context.Context, ex *Executor, q Querier, p *Plan) (*Dataset, error) {
	ds := NewDataset(p.Columns)
	now := ex.Now()

	if len(p.Config.Screens) > 0 {
		for _, s := range p.Config.Screens {
			last := ""
			if t, ok := earliestNotPlaying(s.Issues); ok {
				last = daysAgo(now, t)
			}
			ds.AppendRecord(map[string]any{
				colScreenID:   s.SearchToken,
				colScreenName: s.Name,
				colStatus:     s.Status,
				colPIN:        s.PIN,
				colLastPlayed: last,
			})
		}
		return ds, nil
	}

	records, err := ex.Query(ctx, q, p)
	if err != nil {
		return nil, err
	}
	since, err := queryLastPlayed(ctx, ex, q, p)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		ds.AppendRecord(map[string]any{
			colScreenID:   r["search_token"],
			colScreenName: r["name"],
			colStatus:     r["status"],
			colPIN:        r["pin"],
			colLastPlayed: lastPlayedText(now, since, recString(r, "id")),
		})
	}
	return ds, nil
}

func (screenIssuesReport) CountRows(ctx context.Context, ex *Executor, q Querier, p *Plan) (int, error) {
	if len(p.Config.Screens) > 0 {
		return len(p.Config.Screens), nil
	}
	return ex.Count(ctx, q, p, "")
}

// earliestNotPlaying returns the oldest unresolved notplaying issue.
func earliestNotPlaying(issues []Issue) (time.Time, bool) {
	var open []time.Time
	for _, is := range issues {
		if is.Type == issueNotPlaying && is.ResolvedAt == nil && !is.When.IsZero() {
			open = append(open, is.When)
		}
	}
	if len(open) == 0 {
		return time.Time{}, false
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Before(open[j]) })
	return open[0], true
}
