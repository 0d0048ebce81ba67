// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // filter timezones are IANA names
)

// Compilation errors. All are raised before any data access.
var (
	ErrUnsupportedReport = errors.New("unsupported report type")
	ErrUnsupportedFilter = errors.New("unsupported filter for report type")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInvalidRange      = errors.New("invalid report range")
)

// ReportType selects a report variant.
type ReportType string

const (
	TypeVideos            ReportType = "videos"
	TypePlays             ReportType = "plays"
	TypeScreens           ReportType = "screens"
	TypePlaysByVideoTime  ReportType = "playsByVideoTime"
	TypePlaysByScreenTime ReportType = "playsByScreenTime"
	TypeScreenIssues      ReportType = "screenIssues"
	TypeDailyStream       ReportType = "dailyStream"
)

// ReportTypes lists every supported type in a stable order.
var ReportTypes = []ReportType{
	TypeVideos, TypePlays, TypeScreens,
	TypePlaysByVideoTime, TypePlaysByScreenTime,
	TypeScreenIssues, TypeDailyStream,
}

// TimeBounded reports whether the type is restricted to the filter range.
func (t ReportType) TimeBounded() bool {
	switch t {
	case TypeScreens, TypeScreenIssues:
		return false
	default:
		return true
	}
}

// FilterKind is the scope a primary or secondary filter applies.
type FilterKind string

const (
	KindVideo    FilterKind = "video"
	KindPlaylist FilterKind = "playlist"
	KindChannel  FilterKind = "channel"
	KindTag      FilterKind = "tag"
	KindScreen   FilterKind = "screen"
	KindStatus   FilterKind = "status"
)

// Format is an export document format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatXLSX || f == FormatPDF
}

// Extension returns the artifact file extension for f.
func (f Format) Extension() string { return string(f) }

// Resource identifies the entity a filter scopes to. Status filters use
// Name; every other kind uses ID.
type Resource struct {
	ID    string
	Name  string
	Value string
}

// Filter describes the statistics slice a report covers.
type Filter struct {
	Type      ReportType
	StartTime time.Time
	EndTime   time.Time

	// TZOffset is minutes behind UTC (positive west), as browsers report it.
	TZOffset int
	TZName   string
	TZLocale string

	PrimaryKind   FilterKind
	Primary       *Resource
	SecondaryKind FilterKind
	Secondary     *Resource
}

// Issue is one screen issue entry.
type Issue struct {
	Type       string
	When       time.Time
	ResolvedAt *time.Time
}

// ScreenSummary is a precomputed screen row supplied with a screenIssues
// export so the store is not queried again.
type ScreenSummary struct {
	ID          string
	SearchToken string
	Name        string
	Status      string
	PIN         string
	Issues      []Issue
}

// ExportConfig holds output preferences.
type ExportConfig struct {
	Format            Format
	Delimiter         string
	GenerateHeaders   bool
	ExportInternalIDs bool
	Screens           []ScreenSummary
	Label             string
}

// IncludeInternalIDs reports whether internal id columns are emitted.
// They never appear in pdf output.
func (c ExportConfig) IncludeInternalIDs() bool {
	return c.ExportInternalIDs && c.Format != FormatPDF
}

// Window is the normalized, day-aligned report range.
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// IsZero reports whether the window carries no range.
func (w Window) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// DayCount returns the number of local days in the window.
func (w Window) DayCount() int {
	if w.IsZero() {
		return 0
	}
	sy, sm, sd := w.Start.Date()
	ey, em, ed := w.End.Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours()/24) + 1
}

// Days returns local midnight for every date in the window, in order.
func (w Window) Days() []time.Time {
	if w.IsZero() {
		return nil
	}
	var days []time.Time
	y, m, d := w.Start.Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, w.Location)
		if day.After(w.End) {
			return days
		}
		days = append(days, day)
	}
}

// Location resolves the filter timezone. A loadable IANA name wins;
// otherwise the browser offset is used.
func (f Filter) Location() *time.Location {
	if f.TZName != "" {
		if loc, err := time.LoadLocation(f.TZName); err == nil {
			return loc
		}
	}
	if f.TZOffset == 0 {
		return time.UTC
	}
	east := -f.TZOffset
	sign := '+'
	if east < 0 {
		sign = '-'
		east = -east
	}
	return time.FixedZone(fmt.Sprintf("UTC%c%02d:%02d", sign, east/60, east%60), -f.TZOffset*60)
}

// Normalize computes the day-aligned window: the start floors to
// 00:00:00.000 and the end moves to 23:59:59, both local to the filter
// timezone. Time-bounded types require both ends.
func Normalize(f Filter) (Window, error) {
	loc := f.Location()
	if f.StartTime.IsZero() || f.EndTime.IsZero() {
		if f.Type.TimeBounded() {
			return Window{}, fmt.Errorf("%w: start and end time are required for %s", ErrInvalidRange, f.Type)
		}
		return Window{Location: loc}, nil
	}

	s := f.StartTime.In(loc)
	e := f.EndTime.In(loc)
	w := Window{
		Start:    time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc),
		End:      time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 0, loc),
		Location: loc,
	}
	if w.Start.After(w.End) {
		return Window{}, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidRange, w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
	}
	return w, nil
}
