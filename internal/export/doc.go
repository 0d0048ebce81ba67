// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package export serializes report datasets into downloadable documents.

Three formats are supported:

  - csv: encoding/csv with a configurable single-rune delimiter
  - xlsx: one worksheet named "Citadel Export" (tealeg/xlsx), numbers as
    numeric cells
  - pdf: A4 portrait table laid out with go-pdf/fpdf, with a branding
    image and a metadata block on the first page

Every format renders absent or falsy cells as report.Placeholder and keeps
the dataset's column order. Output is deterministic for a given dataset
and config; the pdf creation date is taken from Meta.Generated.

pdf exports are capped at MaxPDFRows. Callers run CheckCapacity before
accepting a job so the limit is reported synchronously; Bundle checks it
again before producing any output.
*/
package export
