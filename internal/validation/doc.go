// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package validation checks decoded API requests with go-playground/validator.

A single validator instance is shared; it reports fields by their JSON
names and adds two rules:

  - bcp47: a well-formed language tag (golang.org/x/text/language)
  - delimiter: one character usable as a csv separator

Failures come back as *RequestValidationError, whose Fields are rendered
into the VALIDATION_ERROR response body:

	if err := validation.ValidateStruct(&req); err != nil {
	    respondValidationError(w, err)
	    return
	}
*/
package validation
