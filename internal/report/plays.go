// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"context"
	"math"
)

const (
	colPlayedAt    = "Played At"
	colScreenName  = "Screen Name"
	colScreenIP    = "Screen IP"
	colStatisticID = "Statistic ID"
	colScreenID    = "Screen ID"
)

// playsReport lists individual plays, newest first.
type playsReport struct{}

func (playsReport) Type() ReportType { return TypePlays }

func (playsReport) Compile(f Filter, cfg ExportConfig) (*Plan, error) {
	p, err := compileStatistics(f, cfg, playTagTargets, lookupFiles, lookupScreens)
	if err != nil {
		return nil, err
	}
	p.Stages = append(p.Stages,
		Project{Fields: []Field{
			{As: "id", Ref: Src("id")},
			{As: "when", Ref: Src("when_at")},
			{As: "file_name", Ref: Column{Alias: "f", Name: "name"}},
			{As: "duration", Ref: Column{Alias: "f", Name: "duration_seconds"}, ZeroIfNull: true},
			{As: "file_size", Ref: Column{Alias: "f", Name: "size"}},
			{As: "screen_name", Ref: Column{Alias: "sc", Name: "name"}},
			{As: "screen_ip", Ref: Column{Alias: "sc", Name: "ip"}},
			{As: "search_token", Ref: Column{Alias: "sc", Name: "search_token"}},
		}},
		Sort{By: []SortKey{{Field: "when", Desc: true}, {Field: "id"}}},
	)
	return p, nil
}

func (playsReport) Columns(p *Plan) []string {
	cols := []string{colPlayedAt, colVideoName, colDuration, colScreenName, colScreenIP, colFileSize}
	if p.Config.IncludeInternalIDs() {
		cols = append(cols, colStatisticID, colScreenID)
	}
	return cols
}

func (playsReport) Execute(ctx context.Context, ex *Executor, q Querier, p *Plan) (*Dataset, error) {
	records, err := ex.Query(ctx, q, p)
	if err != nil {
		return nil, err
	}
	loc := p.Window.Location
	ds := NewDataset(p.Columns)
	for _, r := range records {
		var playedAt any
		if when, ok := recTime(r, "when"); ok {
			playedAt = when.In(loc).Format(playedAtLayout)
		}
		ds.AppendRecord(map[string]any{
			colPlayedAt:    playedAt,
			colVideoName:   r["file_name"],
			colDuration:    int64(math.Round(recFloat(r, "duration"))),
			colScreenName:  r["screen_name"],
			colScreenIP:    r["screen_ip"],
			colFileSize:    r["file_size"],
			colStatisticID: r["id"],
			colScreenID:    r["search_token"],
		})
	}
	return ds, nil
}

func (playsReport) CountRows(ctx context.Context, ex *Executor, q Querier, p *Plan) (int, error) {
	return ex.Count(ctx, q, p, "")
}
