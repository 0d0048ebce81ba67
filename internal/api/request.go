// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package api

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/citadel-reports/internal/report"
)

var jsonNull = []byte("null")

// enumValue accepts either "csv" or {"value": "csv", "label": "CSV"}, the
// two shapes dashboard select widgets send.
type enumValue string

func (e *enumValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, jsonNull) {
		*e = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = enumValue(s)
		return nil
	}
	var obj struct {
		Value *string `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("expected a string or an object with a value: %w", err)
	}
	if obj.Value != nil {
		*e = enumValue(*obj.Value)
	} else {
		*e = ""
	}
	return nil
}

// userRef accepts "ops@example.com" or {"email": "ops@example.com"}.
type userRef string

func (u *userRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, jsonNull) {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = userRef(s)
		return nil
	}
	var obj struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("expected a string or a user object: %w", err)
	}
	if obj.Email != "" {
		*u = userRef(obj.Email)
	} else {
		*u = userRef(obj.Name)
	}
	return nil
}

// flexTime accepts an RFC 3339 string or epoch milliseconds.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, jsonNull) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid time %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	ms, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return errors.New("time must be an RFC 3339 string or epoch milliseconds")
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// resourceJSON identifies a filter target. Document stores send "_id".
type resourceJSON struct {
	ID    string `json:"id"`
	DocID string `json:"_id"`
	Name  string `json:"name" validate:"max=256"`
	Value string `json:"value"`
}

func (r *resourceJSON) toResource() *report.Resource {
	if r == nil {
		return nil
	}
	id := r.ID
	if id == "" {
		id = r.DocID
	}
	return &report.Resource{ID: id, Name: r.Name, Value: r.Value}
}

type filterJSON struct {
	Type      enumValue `json:"type" validate:"required"`
	StartTime flexTime  `json:"startTime"`
	EndTime   flexTime  `json:"endTime"`
	TZOffset  int       `json:"tzOffset" validate:"gte=-840,lte=720"`
	TZName    string    `json:"tzName" validate:"omitempty,timezone"`
	TZLocale  string    `json:"tzLocale" validate:"omitempty,bcp47"`

	PrimaryFilterType   enumValue     `json:"primaryFilterType"`
	PrimaryResource     *resourceJSON `json:"primaryResource" validate:"required_with=PrimaryFilterType"`
	SecondaryFilterType enumValue     `json:"secondaryFilterType"`
	SecondaryResource   *resourceJSON `json:"secondaryResource" validate:"required_with=SecondaryFilterType"`
}

func (f *filterJSON) toFilter() report.Filter {
	out := report.Filter{
		Type:      report.ReportType(f.Type),
		StartTime: f.StartTime.Time,
		EndTime:   f.EndTime.Time,
		TZOffset:  f.TZOffset,
		TZName:    f.TZName,
		TZLocale:  f.TZLocale,
	}
	if f.PrimaryFilterType != "" {
		out.PrimaryKind = report.FilterKind(f.PrimaryFilterType)
		out.Primary = f.PrimaryResource.toResource()
	}
	if f.SecondaryFilterType != "" {
		out.SecondaryKind = report.FilterKind(f.SecondaryFilterType)
		out.Secondary = f.SecondaryResource.toResource()
	}
	return out
}

type issueJSON struct {
	Type       string    `json:"type"`
	When       flexTime  `json:"when"`
	ResolvedAt *flexTime `json:"resolvedAt"`
}

type screenJSON struct {
	ID          string      `json:"id"`
	DocID       string      `json:"_id"`
	SearchToken string      `json:"searchToken"`
	Name        string      `json:"name"`
	Status      string      `json:"status"`
	PIN         string      `json:"pin"`
	Issues      []issueJSON `json:"issues"`
}

type exportConfigJSON struct {
	Format            enumValue    `json:"format" validate:"required,oneof=csv xlsx pdf"`
	Delimiter         string       `json:"delimiter" validate:"omitempty,delimiter"`
	GenerateHeaders   bool         `json:"generateHeaders"`
	ExportInternalIDs bool         `json:"exportInternalIDs"`
	Screens           []screenJSON `json:"screens"`
	Label             string       `json:"label" validate:"max=128,excludesall=/\\"`
}

func (c *exportConfigJSON) toExportConfig() report.ExportConfig {
	out := report.ExportConfig{
		Format:            report.Format(c.Format),
		Delimiter:         c.Delimiter,
		GenerateHeaders:   c.GenerateHeaders,
		ExportInternalIDs: c.ExportInternalIDs,
		Label:             c.Label,
	}
	for _, s := range c.Screens {
		id := s.ID
		if id == "" {
			id = s.DocID
		}
		summary := report.ScreenSummary{
			ID:          id,
			SearchToken: s.SearchToken,
			Name:        s.Name,
			Status:      s.Status,
			PIN:         s.PIN,
		}
		for _, is := range s.Issues {
			issue := report.Issue{Type: is.Type, When: is.When.Time}
			if is.ResolvedAt != nil && !is.ResolvedAt.IsZero() {
				resolved := is.ResolvedAt.Time
				issue.ResolvedAt = &resolved
			}
			summary.Issues = append(summary.Issues, issue)
		}
		out.Screens = append(out.Screens, summary)
	}
	return out
}

// submitRequest is the POST /report body.
type submitRequest struct {
	User            userRef          `json:"user" validate:"max=256"`
	DatabaseContext string           `json:"databaseContext" validate:"required,max=128"`
	Filter          filterJSON       `json:"filter"`
	ExportConfig    exportConfigJSON `json:"exportConfig"`
}
