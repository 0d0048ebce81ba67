// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package export

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/citadel-reports/internal/metrics"
	"github.com/tomtom215/citadel-reports/internal/report"
)

// MaxPDFRows is the largest dataset the pdf layout accepts.
const MaxPDFRows = 2048

// SheetName names the single worksheet of an xlsx export.
const SheetName = "Citadel Export"

var (
	// ErrTooManyRows is returned when a pdf export exceeds MaxPDFRows.
	ErrTooManyRows = errors.New("too many rows for pdf export, choose csv or xlsx")

	// ErrUnsupportedFormat is returned for an unknown export format.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrInvalidDelimiter is returned when the csv delimiter is not a
	// single usable rune.
	ErrInvalidDelimiter = errors.New("invalid csv delimiter")
)

//go:embed assets/branding.png
var defaultBranding []byte

// Meta is the context printed in the pdf metadata block.
type Meta struct {
	Filter    report.Filter
	Window    report.Window
	User      string
	Generated time.Time
}

// CheckCapacity fails when rows cannot be laid out in format.
func CheckCapacity(format report.Format, rows int) error {
	if format == report.FormatPDF && rows > MaxPDFRows {
		return fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, rows, MaxPDFRows)
	}
	return nil
}

// ValidateConfig checks the parts of cfg that do not depend on data.
func ValidateConfig(cfg report.ExportConfig) error {
	if !cfg.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Format)
	}
	if cfg.Format == report.FormatCSV {
		if _, err := csvDelimiter(cfg.Delimiter); err != nil {
			return err
		}
	}
	return nil
}

// Bundler serializes datasets into export documents.
type Bundler struct {
	branding []byte
}

// NewBundler creates a bundler using the built-in branding image.
func NewBundler() *Bundler {
	return &Bundler{branding: defaultBranding}
}

// NewBundlerWithBranding creates a bundler that stamps png on pdf exports.
// A nil png disables the image.
func NewBundlerWithBranding(png []byte) *Bundler {
	return &Bundler{branding: png}
}

// Bundle serializes ds in cfg.Format. Capacity is checked before any
// output is produced.
func (b *Bundler) Bundle(ds *report.Dataset, cfg report.ExportConfig, meta Meta) ([]byte, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if err := CheckCapacity(cfg.Format, ds.Len()); err != nil {
		return nil, err
	}

	var (
		out []byte
		err error
	)
	switch cfg.Format {
	case report.FormatCSV:
		out, err = writeCSV(ds, cfg)
	case report.FormatXLSX:
		out, err = writeXLSX(ds, cfg)
	case report.FormatPDF:
		out, err = writePDF(ds, meta, b.branding)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", cfg.Format, err)
	}

	metrics.RecordExport(string(cfg.Format), ds.Len(), len(out))
	return out, nil
}
