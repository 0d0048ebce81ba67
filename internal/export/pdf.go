// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package export

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/tomtom215/citadel-reports/internal/report"
)

// Layout constants, in points.
const (
	pdfPadding         = 32.0
	pdfYPadding        = 48.0
	pdfSmallPadding    = 4.0
	pdfImageHeight     = 64.0
	pdfImageWidth      = 128.0
	pdfLabelWidth      = 120.0
	pdfFontSize        = 10.0
	pdfSmallFontSize   = 8.0
	pdfCellRightBuffer = 8.0

	pdfFont     = "Helvetica"
	brandingKey = "branding"
	ellipsis    = "..."
)

// pdfWriter lays out one document top-down. y is the baseline of the next
// line of text.
type pdfWriter struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	y     float64
	width float64
	limit float64
}

func writePDF(ds *report.Dataset, meta Meta, branding []byte) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pdfPadding, pdfYPadding, pdfPadding)
	pdf.SetCreationDate(meta.Generated)
	pdf.SetModificationDate(meta.Generated)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("Citadel Reports", true)
	pdf.SetTitle(fmt.Sprintf("%s report", meta.Filter.Type), true)

	width, height := pdf.GetPageSize()
	w := &pdfWriter{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		width: width,
		limit: height - pdfYPadding,
	}

	w.newPage()
	if len(branding) > 0 {
		w.drawBranding(branding)
	}
	w.writeMeta(ds, meta)

	w.writeRow(ds.Columns, true)
	text := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, v := range row {
			text[i] = report.CellText(v)
		}
		w.writeRow(text, false)
		if w.y >= w.limit {
			w.newPage()
			w.writeRow(ds.Columns, true)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) newPage() {
	w.pdf.AddPage()
	w.y = pdfYPadding
}

// drawBranding places the image in the top-right corner, scaled down to
// fit the image box with its aspect ratio kept.
func (w *pdfWriter) drawBranding(png []byte) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	info := w.pdf.RegisterImageOptionsReader(brandingKey, opts, bytes.NewReader(png))
	if info == nil || w.pdf.Err() {
		return
	}
	iw, ih := info.Width(), info.Height()
	scale := math.Min(1, math.Min(pdfImageHeight/ih, pdfImageWidth/iw))
	iw, ih = iw*scale, ih*scale

	x := w.width - iw - pdfPadding
	y := math.Max(pdfSmallPadding, w.y-ih/2)
	w.pdf.ImageOptions(brandingKey, x, y, iw, ih, false, opts, 0, "")
}

func (w *pdfWriter) writeMeta(ds *report.Dataset, meta Meta) {
	f := meta.Filter
	loc := meta.Window.Location
	if loc == nil {
		loc = f.Location()
	}

	w.writeProperty("Report generated", report.FormatDateTime(meta.Generated, loc, f.TZLocale))
	if !meta.Window.IsZero() {
		w.writeProperty("Report results range", fmt.Sprintf("%s - %s",
			report.FormatDate(meta.Window.Start, loc, f.TZLocale),
			report.FormatDate(meta.Window.End, loc, f.TZLocale)))
	}
	w.writeProperty("Report type", string(f.Type))
	if f.Primary != nil && f.Primary.Name != "" {
		w.writeProperty("Report filtered by", fmt.Sprintf("%s [%s]", f.Primary.Name, f.PrimaryKind))
	}
	w.writeProperty("Timezone", loc.String())
	if meta.User != "" {
		w.writeProperty("User", meta.User)
	}
	w.writeProperty("Records exported", fmt.Sprintf("%d records", ds.Len()))

	w.y += pdfSmallPadding
	w.pdf.SetDrawColor(215, 215, 215)
	w.pdf.SetLineWidth(1)
	w.pdf.Line(pdfPadding, w.y, w.width-pdfPadding, w.y)
	w.y += pdfPadding
}

func (w *pdfWriter) writeProperty(label, value string) {
	w.pdf.SetFont(pdfFont, "B", pdfFontSize)
	w.pdf.Text(pdfPadding, w.y, w.tr(label+":"))
	w.pdf.SetFont(pdfFont, "", pdfFontSize)
	w.pdf.Text(pdfPadding+pdfLabelWidth, w.y, w.tr(value))
	w.y += w.lineHeight() + pdfSmallPadding
}

func (w *pdfWriter) lineHeight() float64 {
	_, h := w.pdf.GetFontSize()
	return h
}

// columnWidths gives the lead column 1.75 shares and splits the rest.
func (w *pdfWriter) columnWidths(n int) (lead, rest float64) {
	rowWidth := w.width - 2*pdfPadding
	if n <= 1 {
		return rowWidth, 0
	}
	lead = math.Round(rowWidth/float64(n)) * 1.75
	rest = math.Round((rowWidth - lead) / float64(n-1))
	return lead, rest
}

func (w *pdfWriter) writeRow(cells []string, header bool) {
	style := ""
	if header {
		style = "B"
	}
	w.pdf.SetFont(pdfFont, style, pdfSmallFontSize)
	w.pdf.SetTextColor(0, 0, 0)

	lead, rest := w.columnWidths(len(cells))
	x := pdfPadding
	for i, cell := range cells {
		width := rest
		if i == 0 {
			width = lead
		}
		text := w.tr(cell)
		if text == "" {
			text = report.Placeholder
		}
		if header {
			text = w.firstLine(text, width)
		} else {
			text = w.truncate(text, width-pdfCellRightBuffer)
		}
		w.pdf.Text(x, w.y, text)
		x += width
	}

	w.y += w.lineHeight() + pdfSmallPadding
	if header {
		w.y += pdfSmallPadding
	}
}

// firstLine breaks text at spaces and returns the first line that fits
// width. A single word wider than width is kept whole.
func (w *pdfWriter) firstLine(text string, width float64) string {
	words := strings.Split(text, " ")
	line := words[0]
	for _, word := range words[1:] {
		next := line + " " + word
		if w.pdf.GetStringWidth(next) > width {
			break
		}
		line = next
	}
	return line
}

// truncate drops trailing characters until text fits width, then marks
// the cut with an ellipsis. text is already cp1252, one byte per character.
func (w *pdfWriter) truncate(text string, width float64) string {
	if w.pdf.GetStringWidth(text) <= width {
		return text
	}
	b := []byte(text)
	for len(b) > 0 && w.pdf.GetStringWidth(string(b)) > width {
		b = b[:len(b)-1]
	}
	return string(b) + ellipsis
}
