// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"fmt"
	"strconv"
	"time"
)

// Placeholder is rendered for absent or falsy cells.
const Placeholder = "---"

// Dataset is an ordered column list plus positional rows aligned to it.
type Dataset struct {
	Columns []string
	Rows    [][]any
}

// NewDataset creates an empty dataset with the given columns.
func NewDataset(columns []string) *Dataset {
	return &Dataset{Columns: columns}
}

// Len returns the row count.
func (d *Dataset) Len() int { return len(d.Rows) }

// AppendRow appends a positional row.
func (d *Dataset) AppendRow(values ...any) error {
	if len(values) != len(d.Columns) {
		return fmt.Errorf("row has %d values, dataset has %d columns", len(values), len(d.Columns))
	}
	d.Rows = append(d.Rows, values)
	return nil
}

// AppendRecord appends a keyed row, ordering its values by the column
// list. Keys missing from rec become nil; keys outside the column list are
// dropped.
func (d *Dataset) AppendRecord(rec map[string]any) {
	row := make([]any, len(d.Columns))
	for i, c := range d.Columns {
		row[i] = rec[c]
	}
	d.Rows = append(d.Rows, row)
}

// Validate checks that every row matches the column count.
func (d *Dataset) Validate() error {
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(d.Columns))
		}
	}
	return nil
}

// CellText renders a cell for text formats. nil, "" and false become the
// placeholder; numeric zero stays "0".
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return Placeholder
	case string:
		if x == "" {
			return Placeholder
		}
		return x
	case bool:
		if !x {
			return Placeholder
		}
		return "true"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		if x.IsZero() {
			return Placeholder
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
