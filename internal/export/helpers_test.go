// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package export

import (
	"math"

	"github.com/go-pdf/fpdf"
)

func newTestWriter() *pdfWriter {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfSmallFontSize)
	width, height := pdf.GetPageSize()
	return &pdfWriter{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		width: width,
		limit: height - pdfYPadding,
	}
}

// expectedLeadWidth is the lead column width of a four column table.
func expectedLeadWidth(pageWidth float64) float64 {
	return math.Round((pageWidth-2*pdfPadding)/4) * 1.75
}
