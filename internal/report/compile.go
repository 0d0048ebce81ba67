// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"fmt"

	"github.com/tomtom215/citadel-reports/internal/tenant"
)

// Issue type used for the "Last Played" column.
const issueNotPlaying = "notplaying"

// Joins shared by the statistics variants.
var (
	lookupFiles = Lookup{
		Table: tenant.TableFiles, As: "f", LocalField: "file", ForeignField: "id",
	}
	lookupScreens = Lookup{
		Table: tenant.TableScreens, As: "sc", LocalField: "screen", ForeignField: "id",
	}
)

// Tag-bearing join targets reachable from a statistic.
var (
	contentTagTargets = []TagTarget{
		{Table: tenant.TableFiles, LocalField: "file"},
		{Table: tenant.TablePlaylists, LocalField: "playlist"},
		{Table: tenant.TableChannels, LocalField: "channel"},
	}
	screenTagTargets = []TagTarget{
		{Table: tenant.TableScreens, LocalField: "screen"},
	}
	playTagTargets = append(append([]TagTarget{}, contentTagTargets...), screenTagTargets...)
	selfTagTargets = []TagTarget{{}}
)

// scope is what the primary and secondary filters resolve to.
type scope struct {
	equals   map[string]string
	contains map[string]string
	tag      string
}

// scopeRules says how each filter kind maps onto the source table.
type scopeRules struct {
	byID   map[FilterKind]string // equality on a foreign key
	byName map[FilterKind]string // equality on the resource name
	lists  map[FilterKind]string // membership in a list column
	tags   bool
}

var (
	statisticsRules = scopeRules{
		byID: map[FilterKind]string{
			KindVideo:    "file",
			KindPlaylist: "playlist",
			KindChannel:  "channel",
			KindScreen:   "screen",
		},
		tags: true,
	}
	screenRules = scopeRules{
		byName: map[FilterKind]string{KindStatus: "status"},
		lists:  map[FilterKind]string{KindChannel: "channels"},
		tags:   true,
	}
)

// compileScope applies the primary then the secondary filter. A secondary
// hitting the same field as the primary replaces its value.
func compileScope(f Filter, rules scopeRules) (scope, error) {
	sc := scope{equals: map[string]string{}, contains: map[string]string{}}
	if err := rules.apply(&sc, f.Type, f.PrimaryKind, f.Primary); err != nil {
		return scope{}, fmt.Errorf("primary filter: %w", err)
	}
	if err := rules.apply(&sc, f.Type, f.SecondaryKind, f.Secondary); err != nil {
		return scope{}, fmt.Errorf("secondary filter: %w", err)
	}
	return sc, nil
}

func (r scopeRules) apply(sc *scope, t ReportType, kind FilterKind, res *Resource) error {
	if kind == "" {
		return nil
	}

	if field, ok := r.byID[kind]; ok {
		id, err := resourceID(kind, res)
		if err != nil {
			return err
		}
		sc.equals[field] = id
		return nil
	}
	if field, ok := r.lists[kind]; ok {
		id, err := resourceID(kind, res)
		if err != nil {
			return err
		}
		sc.contains[field] = id
		return nil
	}
	if field, ok := r.byName[kind]; ok {
		if res == nil || res.Name == "" {
			return fmt.Errorf("%w: %s filter requires a name", ErrInvalidFilter, kind)
		}
		sc.equals[field] = res.Name
		return nil
	}
	if kind == KindTag && r.tags {
		id, err := resourceID(kind, res)
		if err != nil {
			return err
		}
		sc.tag = id
		return nil
	}
	return fmt.Errorf("%w: %q on %s", ErrUnsupportedFilter, kind, t)
}

func resourceID(kind FilterKind, res *Resource) (string, error) {
	if res == nil || res.ID == "" {
		return "", fmt.Errorf("%w: %s filter requires an id", ErrInvalidFilter, kind)
	}
	return res.ID, nil
}

func (sc scope) tagStage(targets []TagTarget) []Stage {
	if sc.tag == "" {
		return nil
	}
	return []Stage{TagMembership{Tag: sc.tag, Targets: targets}}
}

// compileStatistics builds the common head of a time-bounded plan:
// range match, lookups and tag membership.
func compileStatistics(f Filter, cfg ExportConfig, targets []TagTarget, lookups ...Lookup) (*Plan, error) {
	w, err := Normalize(f)
	if err != nil {
		return nil, err
	}
	sc, err := compileScope(f, statisticsRules)
	if err != nil {
		return nil, err
	}

	p := &Plan{Type: f.Type, Filter: f, Config: cfg, Window: w, Source: tenant.TableStatistics}
	p.Stages = append(p.Stages, Match{Predicate: Predicate{
		Range:  &TimeRange{Field: "when_at", From: w.Start, To: w.End},
		Equals: sc.equals,
	}})
	for _, l := range lookups {
		p.Stages = append(p.Stages, l)
	}
	p.Stages = append(p.Stages, sc.tagStage(targets)...)
	return p, nil
}

// compileScreens builds the head of a screen listing plan. Soft-deleted
// screens are always excluded.
func compileScreens(f Filter, cfg ExportConfig, unresolvedOnly bool) (*Plan, error) {
	w, err := Normalize(f)
	if err != nil {
		return nil, err
	}
	sc, err := compileScope(f, screenRules)
	if err != nil {
		return nil, err
	}

	p := &Plan{Type: f.Type, Filter: f, Config: cfg, Window: w, Source: tenant.TableScreens}
	p.Stages = append(p.Stages, Match{Predicate: Predicate{
		Equals:          sc.equals,
		Contains:        sc.contains,
		IsNull:          []string{"deleted"},
		UnresolvedIssue: unresolvedOnly,
	}})
	p.Stages = append(p.Stages, sc.tagStage(selfTagTargets)...)
	p.Stages = append(p.Stages,
		Project{Fields: []Field{
			{As: "id", Ref: Src("id")},
			{As: "name", Ref: Src("name")},
			{As: "search_token", Ref: Src("search_token")},
			{As: "status", Ref: Src("status")},
			{As: "device_model", Ref: Src("device_model")},
			{As: "version", Ref: Src("version")},
			{As: "location_summary", Ref: Src("location_summary")},
			{As: "location_valid", Ref: Src("location_valid")},
			{As: "pin", Ref: Src("pin")},
		}},
		Sort{By: []SortKey{{Field: "name"}, {Field: "id"}}},
	)
	return p, nil
}

// lastPlayedPlan yields, per screen, the earliest unresolved notplaying
// issue.
func lastPlayedPlan(parent *Plan) *Plan {
	return &Plan{
		Type:   parent.Type,
		Source: tenant.TableScreenIssues,
		Stages: []Stage{
			Match{Predicate: Predicate{
				Equals: map[string]string{"type": issueNotPlaying},
				IsNull: []string{"resolved_at"},
			}},
			Project{Fields: []Field{
				{As: "screen_id", Ref: Src("screen_id")},
				{As: "since", Ref: Src("when_at"), Agg: AggMin},
			}},
			Group{By: []Column{Src("screen_id")}},
			Sort{By: []SortKey{{Field: "screen_id"}}},
		},
	}
}
