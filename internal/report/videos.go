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
	colVideoName = "Video Name"
	colFileSize  = "File Size (bytes)"
	colDuration  = "Duration (seconds)"
	colPlays     = "Plays"
)

// videosReport counts plays per video.
type videosReport struct{}

func (videosReport) Type() ReportType { return TypeVideos }

func (videosReport) Compile(f Filter, cfg ExportConfig) (*Plan, error) {
	p, err := compileStatistics(f, cfg, contentTagTargets, lookupFiles)
	if err != nil {
		return nil, err
	}
	p.Stages = append(p.Stages,
		Project{Fields: []Field{
			{As: "file_id", Ref: Src("file")},
			{As: "name", Ref: Column{Alias: "f", Name: "name"}, Agg: AggAny},
			{As: "size", Ref: Column{Alias: "f", Name: "size"}, Agg: AggAny},
			{As: "duration", Ref: Column{Alias: "f", Name: "duration_seconds"}, Agg: AggAny},
			{As: "plays", Agg: AggCount},
		}},
		Group{By: []Column{Src("file")}},
		Sort{By: []SortKey{{Field: "plays", Desc: true}, {Field: "name"}, {Field: "file_id"}}},
	)
	return p, nil
}

func (videosReport) Columns(*Plan) []string {
	return []string{colVideoName, colFileSize, colDuration, colPlays}
}

func (v videosReport) Execute(ctx context.Context, ex *Executor, q Querier, p *Plan) (*Dataset, error) {
	records, err := ex.Query(ctx, q, p)
	if err != nil {
		return nil, err
	}
	ds := NewDataset(p.Columns)
	for _, r := range records {
		ds.AppendRecord(map[string]any{
			colVideoName: r["name"],
			colFileSize:  r["size"],
			colDuration:  int64(math.Round(recFloat(r, "duration"))),
			colPlays:     recInt(r, "plays"),
		})
	}
	return ds, nil
}

func (videosReport) CountRows(ctx context.Context, ex *Executor, q Querier, p *Plan) (int, error) {
	return ex.Count(ctx, q, p, "")
}
