// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package validation

import (
	"errors"
	"strings"
	"testing"
)

type sampleExport struct {
	Format    string `json:"format" validate:"required,oneof=csv xlsx pdf"`
	Delimiter string `json:"delimiter" validate:"omitempty,delimiter"`
}

type sampleRequest struct {
	User     string       `json:"user" validate:"max=256"`
	Context  string       `json:"databaseContext" validate:"required"`
	TZName   string       `json:"tzName" validate:"omitempty,timezone"`
	TZLocale string       `json:"tzLocale" validate:"omitempty,bcp47"`
	Offset   int          `json:"tzOffset" validate:"gte=-840,lte=720"`
	Export   sampleExport `json:"exportConfig"`
}

func validSample() sampleRequest {
	return sampleRequest{
		User:     "ops@example.com",
		Context:  "acme",
		TZName:   "Europe/Berlin",
		TZLocale: "de-DE",
		Offset:   -60,
		Export:   sampleExport{Format: "csv", Delimiter: ";"},
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*sampleRequest)
		wantField string
		wantMsg   string
	}{
		{"valid", func(*sampleRequest) {}, "", ""},
		{"missing context", func(r *sampleRequest) { r.Context = "" }, "databaseContext", "databaseContext is required"},
		{"bad timezone", func(r *sampleRequest) { r.TZName = "Mars/Olympus" }, "tzName", "IANA timezone"},
		{"bad locale", func(r *sampleRequest) { r.TZLocale = "not a locale" }, "tzLocale", "BCP 47"},
		{"offset too large", func(r *sampleRequest) { r.Offset = 900 }, "tzOffset", "less than or equal to 720"},
		{"unknown format", func(r *sampleRequest) { r.Export.Format = "docx" }, "exportConfig.format", "one of: csv xlsx pdf"},
		{"long delimiter", func(r *sampleRequest) { r.Export.Delimiter = ";;" }, "exportConfig.delimiter", "single character"},
		{"quote delimiter", func(r *sampleRequest) { r.Export.Delimiter = `"` }, "exportConfig.delimiter", "single character"},
		{"long user", func(r *sampleRequest) { r.User = strings.Repeat("u", 257) }, "user", "at most 256 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := validSample()
			tt.mutate(&req)

			err := ValidateStruct(&req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}

			var ve *RequestValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateStruct() = %v, want *RequestValidationError", err)
			}
			if len(ve.Fields) != 1 {
				t.Fatalf("got %d field errors %v, want 1", len(ve.Fields), ve.Fields)
			}
			if ve.Fields[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Fields[0].Field, tt.wantField)
			}
			if !strings.Contains(ve.Fields[0].Message, tt.wantMsg) {
				t.Errorf("Message = %q, want it to contain %q", ve.Fields[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	t.Parallel()

	req := validSample()
	req.Context = ""
	req.Export.Format = ""

	err := ValidateStruct(&req)
	var ve *RequestValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("ValidateStruct() = %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("got %d field errors, want 2", len(ve.Fields))
	}
	if !strings.Contains(ve.Error(), "; ") {
		t.Errorf("Error() = %q, want messages joined with '; '", ve.Error())
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}
