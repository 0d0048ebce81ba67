// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package export

import (
	"bytes"

	"github.com/tealeg/xlsx/v3"

	"github.com/tomtom215/citadel-reports/internal/report"
)

func writeXLSX(ds *report.Dataset, cfg report.ExportConfig) ([]byte, error) {
	book := xlsx.NewFile()
	sheet, err := book.AddSheet(SheetName)
	if err != nil {
		return nil, err
	}
	defer sheet.Close()

	if cfg.GenerateHeaders {
		row := sheet.AddRow()
		for _, c := range ds.Columns {
			row.AddCell().SetString(c)
		}
	}
	for _, values := range ds.Rows {
		row := sheet.AddRow()
		for _, v := range values {
			setCell(row.AddCell(), v)
		}
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// setCell writes numbers as numeric cells and everything else as text.
func setCell(cell *xlsx.Cell, v any) {
	switch x := v.(type) {
	case int64:
		cell.SetInt64(x)
	case int:
		cell.SetInt(x)
	case int32:
		cell.SetInt64(int64(x))
	case float64:
		cell.SetFloat(x)
	default:
		cell.SetString(report.CellText(v))
	}
}
