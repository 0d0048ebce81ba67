// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"sort"
	"time"
)

// Table aliases used by stage descriptors. SourceAlias is the plan's base
// table; BucketAlias exposes the day bucket index as column "idx".
const (
	SourceAlias = "s"
	BucketAlias = "b"
	BucketIndex = "idx"
)

// Column references a column of the source table or of a lookup alias.
type Column struct {
	Alias string
	Name  string
}

// Src references a column of the plan's source table.
func Src(name string) Column { return Column{Alias: SourceAlias, Name: name} }

// TimeRange restricts Field to [From, To].
type TimeRange struct {
	Field string
	From  time.Time
	To    time.Time
}

// Predicate is the normalized row filter on the source table.
type Predicate struct {
	Range *TimeRange

	// Equals maps a field to the value it must equal.
	Equals map[string]string

	// Contains maps a list field to a value it must contain.
	Contains map[string]string

	// IsNull lists fields that must be unset (soft-delete markers).
	IsNull []string

	// UnresolvedIssue keeps only screens with an open issue entry.
	UnresolvedIssue bool
}

// EqualFields returns the Equals keys in a stable order.
func (p Predicate) EqualFields() []string { return sortedKeys(p.Equals) }

// ContainFields returns the Contains keys in a stable order.
func (p Predicate) ContainFields() []string { return sortedKeys(p.Contains) }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stage is one step of a plan. The set of stages is closed.
type Stage interface {
	stage()
}

// Match filters source rows by a predicate.
type Match struct {
	Predicate Predicate
}

// Lookup joins Table under alias As where As.ForeignField = source.LocalField.
// Rows without a match are kept.
type Lookup struct {
	Table        string
	As           string
	LocalField   string
	ForeignField string
}

// TagTarget is a tag-bearing table reached from the source row through
// LocalField. An empty Table means the source row carries the tags itself.
type TagTarget struct {
	Table      string
	LocalField string
}

// TagMembership keeps a source row only if at least one target carries Tag.
type TagMembership struct {
	Tag     string
	Targets []TagTarget
}

// DayWindow is one local day, [From, To).
type DayWindow struct {
	Index int
	Date  time.Time
	From  time.Time
	To    time.Time
}

// Bucket assigns each source row to the day window containing Field.
// Rows outside every window are dropped.
type Bucket struct {
	Field   string
	Windows []DayWindow
}

// Aggregate is the aggregation applied to a projected field.
type Aggregate int

const (
	AggNone Aggregate = iota
	AggAny
	AggCount
	AggSum
	AggMin
)

// Field is one projected output column.
type Field struct {
	As  string
	Ref Column
	Agg Aggregate

	// ZeroIfNull replaces a missing value with 0 before aggregation.
	ZeroIfNull bool
}

// Project selects the output fields.
type Project struct {
	Fields []Field
}

// Group aggregates rows sharing the By columns.
type Group struct {
	By []Column
}

// SortKey orders output rows by a projected field.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort orders the output.
type Sort struct {
	By []SortKey
}

func (Match) stage()         {}
func (Lookup) stage()        {}
func (TagMembership) stage() {}
func (Bucket) stage()        {}
func (Project) stage()       {}
func (Group) stage()         {}
func (Sort) stage()          {}

// Plan is a compiled report: the normalized predicate, the stage list and
// the output column plan.
type Plan struct {
	Type    ReportType
	Filter  Filter
	Config  ExportConfig
	Window  Window
	Source  string
	Stages  []Stage
	Columns []string

	// LastPlayed is a secondary plan yielding the earliest unresolved
	// notplaying issue per screen, for the "Last Played" column.
	LastPlayed *Plan

	// Buckets is set for pivot plans.
	Buckets []DayWindow
}

// dayWindows splits w into local-day buckets. Each window ends at the next
// local midnight so DST days are 23 or 25 hours long.
func dayWindows(w Window) []DayWindow {
	days := w.Days()
	windows := make([]DayWindow, len(days))
	for i, day := range days {
		next := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, day.Location())
		windows[i] = DayWindow{Index: i, Date: day, From: day, To: next}
	}
	return windows
}
