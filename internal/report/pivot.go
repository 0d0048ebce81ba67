// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"context"
	"fmt"
	"sort"
)

const colVideoID = "Video ID"

// MaxPivotDays bounds the date columns of a pivot report.
const MaxPivotDays = 366

// pivotReport builds an entity × date grid.
type pivotReport struct {
	typ      ReportType
	entity   string // leading column
	idColumn string // internal id column, empty when the report has none
	key      Column
	name     Column
	ident    Column
	lookups  []Lookup
	targets  []TagTarget
	value    Field
	cell     func(total float64) any
}

func playsByVideoTimeReport() pivotReport {
	return pivotReport{
		typ:      TypePlaysByVideoTime,
		entity:   colVideoName,
		idColumn: colVideoID,
		key:      Src("file"),
		name:     Column{Alias: "f", Name: "name"},
		ident:    Src("file"),
		lookups:  []Lookup{lookupFiles},
		targets:  contentTagTargets,
		value:    Field{As: "value", Agg: AggCount},
		cell:     countCell,
	}
}

func playsByScreenTimeReport() pivotReport {
	return pivotReport{
		typ:      TypePlaysByScreenTime,
		entity:   colScreenName,
		idColumn: colScreenID,
		key:      Src("screen"),
		name:     Column{Alias: "sc", Name: "name"},
		ident:    Column{Alias: "sc", Name: "search_token"},
		lookups:  []Lookup{lookupScreens},
		targets:  screenTagTargets,
		value:    Field{As: "value", Agg: AggCount},
		cell:     countCell,
	}
}

func dailyStreamReport() pivotReport {
	return pivotReport{
		typ:     TypeDailyStream,
		entity:  colScreenName,
		key:     Src("screen"),
		name:    Column{Alias: "sc", Name: "name"},
		ident:   Column{Alias: "sc", Name: "search_token"},
		lookups: []Lookup{lookupScreens, lookupFiles},
		targets: screenTagTargets,
		value: Field{
			As:         "value",
			Ref:        Column{Alias: "f", Name: "duration_seconds"},
			Agg:        AggSum,
			ZeroIfNull: true,
		},
		cell: func(total float64) any { return formatClock(total) },
	}
}

func countCell(total float64) any { return int64(total) }

func (v pivotReport) Type() ReportType { return v.typ }

func (v pivotReport) Compile(f Filter, cfg ExportConfig) (*Plan, error) {
	p, err := compileStatistics(f, cfg, v.targets, v.lookups...)
	if err != nil {
		return nil, err
	}
	if n := p.Window.DayCount(); n > MaxPivotDays {
		return nil, fmt.Errorf("%w: %d days exceeds the %d day limit for %s",
			ErrInvalidRange, n, MaxPivotDays, v.typ)
	}
	p.Buckets = dayWindows(p.Window)
	p.Stages = append(p.Stages,
		Bucket{Field: "when_at", Windows: p.Buckets},
		Project{Fields: []Field{
			{As: "key", Ref: v.key},
			{As: "name", Ref: v.name, Agg: AggAny},
			{As: "ident", Ref: v.ident, Agg: AggAny},
			{As: "bucket", Ref: Column{Alias: BucketAlias, Name: BucketIndex}},
			v.value,
		}},
		Group{By: []Column{v.key, {Alias: BucketAlias, Name: BucketIndex}}},
		Sort{By: []SortKey{{Field: "key"}, {Field: "bucket"}}},
	)
	return p, nil
}

func (v pivotReport) withID(p *Plan) bool {
	return v.idColumn != "" && p.Config.IncludeInternalIDs()
}

func (v pivotReport) Columns(p *Plan) []string {
	cols := []string{v.entity}
	if v.withID(p) {
		cols = append(cols, v.idColumn)
	}
	for _, w := range p.Buckets {
		cols = append(cols, FormatDate(w.Date, p.Window.Location, p.Filter.TZLocale))
	}
	return cols
}

type pivotRow struct {
	key   string
	name  any
	ident any
	cells []any
}

// Execute collects the distinct entities present, then emits one row per
// entity with a cell for every date in range, zero-filled.
func (v pivotReport) Execute(ctx context.Context, ex *Executor, q Querier, p *Plan) (*Dataset, error) {
	records, err := ex.Query(ctx, q, p)
	if err != nil {
		return nil, err
	}

	days := len(p.Buckets)
	zero := v.cell(0)
	byKey := make(map[string]*pivotRow)
	var rows []*pivotRow
	for _, r := range records {
		key := recString(r, "key")
		row, ok := byKey[key]
		if !ok {
			row = &pivotRow{key: key, name: r["name"], ident: r["ident"], cells: make([]any, days)}
			for i := range row.cells {
				row.cells[i] = zero
			}
			byKey[key] = row
			rows = append(rows, row)
		}
		idx := int(recInt(r, "bucket"))
		if idx < 0 || idx >= days {
			return nil, fmt.Errorf("%s: bucket %d outside %d day range", v.typ, idx, days)
		}
		row.cells[idx] = v.cell(recFloat(r, "value"))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ni, nj := CellText(rows[i].name), CellText(rows[j].name)
		if ni != nj {
			return ni < nj
		}
		return rows[i].key < rows[j].key
	})

	ds := NewDataset(p.Columns)
	withID := v.withID(p)
	for _, row := range rows {
		values := make([]any, 0, len(p.Columns))
		values = append(values, row.name)
		if withID {
			values = append(values, row.ident)
		}
		values = append(values, row.cells...)
		if err := ds.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func (v pivotReport) CountRows(ctx context.Context, ex *Executor, q Querier, p *Plan) (int, error) {
	return ex.Count(ctx, q, p, "key")
}
