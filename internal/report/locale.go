// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
)

const defaultDateLayout = "1/2/2006"

// dateLayouts is keyed by "lang-REGION" first, then by language.
var dateLayouts = map[string]string{
	"en-US": "1/2/2006",
	"en-PH": "1/2/2006",
	"en-CA": "2006-01-02",
	"en":    "02/01/2006",
	"fr-CA": "2006-01-02",
	"fr":    "02/01/2006",
	"es":    "2/1/2006",
	"it":    "2/1/2006",
	"pt":    "02/01/2006",
	"el":    "2/1/2006",
	"de":    "2.1.2006",
	"fi":    "2.1.2006",
	"nb":    "2.1.2006",
	"da":    "2.1.2006",
	"ru":    "02.01.2006",
	"pl":    "2.01.2006",
	"tr":    "02.01.2006",
	"cs":    "2. 1. 2006",
	"uk":    "02.01.2006",
	"nl":    "2-1-2006",
	"sv":    "2006-01-02",
	"lt":    "2006-01-02",
	"ja":    "2006/1/2",
	"zh":    "2006/1/2",
	"ko":    "2006. 1. 2.",
}

// DateLayout returns the short date layout for a BCP-47 locale, falling
// back to en-US.
func DateLayout(locale string) string {
	if locale == "" {
		return defaultDateLayout
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return defaultDateLayout
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf != language.No {
		if layout, ok := dateLayouts[base.String()+"-"+region.String()]; ok {
			return layout
		}
	}
	if layout, ok := dateLayouts[base.String()]; ok {
		return layout
	}
	return defaultDateLayout
}

// FormatDate renders the local date of t in the given locale.
func FormatDate(t time.Time, loc *time.Location, locale string) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout(locale))
}

// FormatDateTime renders t as a locale date plus a 12-hour clock.
func FormatDateTime(t time.Time, loc *time.Location, locale string) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout(locale) + ", 3:04:05 PM")
}

// playedAtLayout renders play timestamps as M/D/YYYY hh:mm AM.
const playedAtLayout = "1/2/2006 03:04 PM"

// formatClock renders seconds as HH:MM:SS. Hours may exceed 24.
func formatClock(seconds float64) string {
	total := int64(math.Round(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// daysAgo renders the whole days between since and now.
func daysAgo(now, since time.Time) string {
	days := int64(math.Round(now.Sub(since).Hours() / 24))
	return fmt.Sprintf("%d days ago", days)
}
