// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/citadel-reports/internal/tenant"
)

// Tabler resolves a model name to a schema-qualified table reference.
type Tabler interface {
	Table(name string) string
}

// timestampLayout matches DuckDB's TIMESTAMP text form. Stored timestamps
// are naive UTC.
const timestampLayout = "2006-01-02 15:04:05.000000"

func tsArg(t time.Time) string { return t.UTC().Format(timestampLayout) }

var errNoProjection = errors.New("plan has no projection")

// stageSet is a plan's stages sorted by kind.
type stageSet struct {
	match   *Match
	lookups []Lookup
	tags    []TagMembership
	bucket  *Bucket
	project *Project
	group   *Group
	sort    *Sort
}

func collectStages(stages []Stage) (stageSet, error) {
	var set stageSet
	for _, st := range stages {
		switch s := st.(type) {
		case Match:
			if set.match != nil {
				return set, errors.New("plan has more than one match stage")
			}
			set.match = &s
		case Lookup:
			set.lookups = append(set.lookups, s)
		case TagMembership:
			set.tags = append(set.tags, s)
		case Bucket:
			if set.bucket != nil {
				return set, errors.New("plan has more than one bucket stage")
			}
			set.bucket = &s
		case Project:
			set.project = &s
		case Group:
			set.group = &s
		case Sort:
			set.sort = &s
		default:
			return set, fmt.Errorf("unknown stage %T", st)
		}
	}
	if set.project == nil {
		return set, errNoProjection
	}
	return set, nil
}

// sqlBuilder accumulates SQL text and positional arguments together so
// placeholders and args cannot drift apart.
type sqlBuilder struct {
	strings.Builder
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "?"
}

// Render translates a plan into one DuckDB SELECT statement.
func Render(p *Plan, t Tabler) (string, []any, error) {
	set, err := collectStages(p.Stages)
	if err != nil {
		return "", nil, err
	}

	var b sqlBuilder
	b.WriteString("SELECT ")
	for i, f := range set.project.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fieldExpr(f))
		b.WriteString(" AS ")
		b.WriteString(quote(f.As))
	}

	fmt.Fprintf(&b, " FROM %s AS %s", t.Table(p.Source), SourceAlias)
	for _, l := range set.lookups {
		fmt.Fprintf(&b, " LEFT JOIN %s AS %s ON %s.%s = %s.%s",
			t.Table(l.Table), l.As, l.As, l.ForeignField, SourceAlias, l.LocalField)
	}
	if set.bucket != nil {
		renderBucket(&b, set.bucket)
	}

	var conds []string
	if set.match != nil {
		conds = append(conds, renderPredicate(&b, set.match.Predicate, t)...)
	}
	for _, tm := range set.tags {
		conds = append(conds, renderTags(&b, tm, t))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if set.group != nil && len(set.group.By) > 0 {
		keys := make([]string, len(set.group.By))
		for i, c := range set.group.By {
			keys[i] = colRef(c)
		}
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(keys, ", "))
	}

	if set.sort != nil && len(set.sort.By) > 0 {
		keys := make([]string, len(set.sort.By))
		for i, k := range set.sort.By {
			pos := fieldPosition(set.project, k.Field)
			if pos == 0 {
				return "", nil, fmt.Errorf("sort on unprojected field %q", k.Field)
			}
			dir := "ASC"
			if k.Desc {
				dir = "DESC"
			}
			// Ordinals avoid alias and source column name clashes.
			keys[i] = fmt.Sprintf("%d %s NULLS LAST", pos, dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(keys, ", "))
	}

	return b.String(), b.args, nil
}

// renderPredicate writes the WHERE conditions. Arguments are appended as
// each condition is produced, in the order the conditions are joined.
func renderPredicate(b *sqlBuilder, p Predicate, t Tabler) []string {
	var conds []string
	if p.Range != nil {
		col := colRef(Src(p.Range.Field))
		conds = append(conds, fmt.Sprintf("%s BETWEEN CAST(%s AS TIMESTAMP) AND CAST(%s AS TIMESTAMP)",
			col, b.arg(tsArg(p.Range.From)), b.arg(tsArg(p.Range.To))))
	}
	for _, field := range p.EqualFields() {
		conds = append(conds, fmt.Sprintf("%s = %s", colRef(Src(field)), b.arg(p.Equals[field])))
	}
	for _, field := range p.ContainFields() {
		conds = append(conds, fmt.Sprintf("list_contains(%s, %s)", colRef(Src(field)), b.arg(p.Contains[field])))
	}
	for _, field := range p.IsNull {
		conds = append(conds, colRef(Src(field))+" IS NULL")
	}
	if p.UnresolvedIssue {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s AS i WHERE i.screen_id = %s.id AND i.resolved_at IS NULL)",
			t.Table(tenant.TableScreenIssues), SourceAlias))
	}
	return conds
}

// renderTags writes a join-then-exists condition: the row is kept when at
// least one target carries the tag.
func renderTags(b *sqlBuilder, tm TagMembership, t Tabler) string {
	parts := make([]string, len(tm.Targets))
	for i, target := range tm.Targets {
		if target.Table == "" {
			parts[i] = fmt.Sprintf("list_contains(%s.tags, %s)", SourceAlias, b.arg(tm.Tag))
			continue
		}
		alias := fmt.Sprintf("t%d", i)
		parts[i] = fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE %s.id = %s.%s AND list_contains(%s.tags, %s))",
			t.Table(target.Table), alias, alias, SourceAlias, target.LocalField, alias, b.arg(tm.Tag))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// renderBucket joins an inline table of day windows.
func renderBucket(b *sqlBuilder, bk *Bucket) {
	if len(bk.Windows) == 0 {
		fmt.Fprintf(b, " JOIN (SELECT 0 AS %s, NULL::TIMESTAMP AS lo, NULL::TIMESTAMP AS hi WHERE false) AS %s",
			BucketIndex, BucketAlias)
	} else {
		b.WriteString(" JOIN (VALUES ")
		for i, w := range bk.Windows {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "(%d, CAST(%s AS TIMESTAMP), CAST(%s AS TIMESTAMP))",
				w.Index, b.arg(tsArg(w.From)), b.arg(tsArg(w.To)))
		}
		fmt.Fprintf(b, ") AS %s(%s, lo, hi)", BucketAlias, BucketIndex)
	}
	col := colRef(Src(bk.Field))
	fmt.Fprintf(b, " ON %s >= %s.lo AND %s < %s.hi", col, BucketAlias, col, BucketAlias)
}

// fieldPosition returns the 1-based select position of a projected field,
// or 0.
func fieldPosition(p *Project, name string) int {
	for i, f := range p.Fields {
		if f.As == name {
			return i + 1
		}
	}
	return 0
}

func fieldExpr(f Field) string {
	expr := colRef(f.Ref)
	if f.ZeroIfNull {
		expr = "COALESCE(" + expr + ", 0)"
	}
	switch f.Agg {
	case AggAny:
		return "any_value(" + expr + ")"
	case AggCount:
		return "COUNT(*)"
	case AggSum:
		return "SUM(" + expr + ")"
	case AggMin:
		return "MIN(" + expr + ")"
	default:
		return expr
	}
}

func colRef(c Column) string {
	if c.Alias == "" {
		return quote(c.Name)
	}
	return c.Alias + "." + quote(c.Name)
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
