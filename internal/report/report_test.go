// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package report

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/citadel-reports/internal/config"
	"github.com/tomtom215/citadel-reports/internal/keymutex"
	"github.com/tomtom215/citadel-reports/internal/tenant"
)

var fixedNow = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

// seedTenant returns a handle for a tenant holding two live screens, one
// deleted screen, two files and four plays.
func seedTenant(t *testing.T) *tenant.Handle {
	t.Helper()
	ctx := context.Background()

	db, err := tenant.Connect(ctx, &config.DatabaseConfig{
		Path:           ":memory:",
		MaxMemory:      "512MB",
		Threads:        2,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	h, err := tenant.NewRouter(db, keymutex.New()).Resolve(ctx, "acme")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	stmts := []string{
		`INSERT INTO %s VALUES
			('s1', 'Lobby', 'LOB1', 'BrightSign', '1111', '10.0.0.1', 'online', '8.1', 'Berlin', true, ['c1'], ['north'], NULL, NULL),
			('s2', 'Atrium', 'ATR1', 'Tizen', '2222', '10.0.0.2', 'offline', '7.0', 'Hamburg', false, ['c2'], ['south'], NULL, NULL),
			('s3', 'Basement', 'BAS1', 'Tizen', '3333', '10.0.0.3', 'online', '7.0', NULL, false, NULL, NULL, NULL, TIMESTAMP '2026-02-01 00:00:00')`,
		`INSERT INTO %s VALUES
			('s2', 'notplaying', TIMESTAMP '2026-03-01 10:00:00', NULL),
			('s2', 'notplaying', TIMESTAMP '2026-03-03 10:00:00', NULL),
			('s1', 'notplaying', TIMESTAMP '2026-02-20 10:00:00', TIMESTAMP '2026-02-21 10:00:00')`,
		`INSERT INTO %s VALUES
			('f1', 'Intro.mp4', 1000, 12.4, ['promo'], NULL),
			('f2', 'Menu.mp4', 2000, 30, NULL, NULL)`,
		`INSERT INTO %s VALUES
			('st1', 's1', 'f1', 'p1', 'c1', TIMESTAMP '2026-03-02 09:00:00'),
			('st2', 's1', 'f1', 'p1', 'c1', TIMESTAMP '2026-03-02 15:00:00'),
			('st3', 's2', 'f2', 'p2', 'c2', TIMESTAMP '2026-03-03 12:00:00'),
			('st4', 's2', 'f1', 'p2', 'c2', TIMESTAMP '2026-03-05 12:00:00')`,
	}
	tables := []string{tenant.TableScreens, tenant.TableScreenIssues, tenant.TableFiles, tenant.TableStatistics}
	for i, stmt := range stmts {
		if _, err := h.ExecContext(ctx, fmt.Sprintf(stmt, h.Table(tables[i]))); err != nil {
			t.Fatalf("seed %s: %v", tables[i], err)
		}
	}
	return h
}

func runReport(t *testing.T, h *tenant.Handle, f Filter, cfg ExportConfig) *Dataset {
	t.Helper()
	reg := NewRegistry(NewExecutor(time.Minute).WithClock(func() time.Time { return fixedNow }))
	p, err := reg.Compile(f, cfg)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	ds, err := reg.Execute(context.Background(), h, p)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	n, err := reg.CountRows(context.Background(), h, p)
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if n != ds.Len() {
		t.Errorf("CountRows() = %d, Execute produced %d rows", n, ds.Len())
	}
	return ds
}

func assertRows(t *testing.T, ds *Dataset, want [][]any) {
	t.Helper()
	if len(ds.Rows) != len(want) {
		t.Fatalf("got %d rows %v, want %d", len(ds.Rows), ds.Rows, len(want))
	}
	for i := range want {
		if !reflect.DeepEqual(ds.Rows[i], want[i]) {
			t.Errorf("row %d = %#v, want %#v", i, ds.Rows[i], want[i])
		}
	}
}

func TestReports_EndToEnd(t *testing.T) {
	h := seedTenant(t)
	csv := ExportConfig{Format: FormatCSV}
	withIDs := ExportConfig{Format: FormatCSV, ExportInternalIDs: true}

	t.Run("videos", func(t *testing.T) {
		ds := runReport(t, h, rangeFilter(TypeVideos), csv)
		assertRows(t, ds, [][]any{
			{"Intro.mp4", int64(1000), int64(12), int64(2)},
			{"Menu.mp4", int64(2000), int64(30), int64(1)},
		})
	})

	t.Run("plays newest first", func(t *testing.T) {
		ds := runReport(t, h, rangeFilter(TypePlays), withIDs)
		assertRows(t, ds, [][]any{
			{"3/3/2026 12:00 PM", "Menu.mp4", int64(30), "Atrium", "10.0.0.2", int64(2000), "st3", "ATR1"},
			{"3/2/2026 03:00 PM", "Intro.mp4", int64(12), "Lobby", "10.0.0.1", int64(1000), "st2", "LOB1"},
			{"3/2/2026 09:00 AM", "Intro.mp4", int64(12), "Lobby", "10.0.0.1", int64(1000), "st1", "LOB1"},
		})
	})

	t.Run("plays by content tag", func(t *testing.T) {
		f := withPrimary(rangeFilter(TypePlays), KindTag, &Resource{ID: "promo"})
		if got := runReport(t, h, f, csv).Len(); got != 2 {
			t.Errorf("promo plays = %d, want 2", got)
		}
	})

	t.Run("plays by screen tag", func(t *testing.T) {
		f := withPrimary(rangeFilter(TypePlays), KindTag, &Resource{ID: "south"})
		if got := runReport(t, h, f, csv).Len(); got != 1 {
			t.Errorf("south plays = %d, want 1", got)
		}
	})

	t.Run("screens by status", func(t *testing.T) {
		f := withPrimary(Filter{Type: TypeScreens}, KindStatus, &Resource{Name: "online"})
		ds := runReport(t, h, f, csv)
		assertRows(t, ds, [][]any{
			{"Lobby", "online", "BrightSign", "8.1", "Berlin", "1111"},
		})
	})

	t.Run("screens with last played", func(t *testing.T) {
		ds := runReport(t, h, Filter{Type: TypeScreens}, withIDs)
		assertRows(t, ds, [][]any{
			{"Atrium", "offline", "Tizen", "7.0", nil, "2222", "ATR1", "10 days ago"},
			{"Lobby", "online", "BrightSign", "8.1", "Berlin", "1111", "LOB1", ""},
		})
	})

	t.Run("screens by channel", func(t *testing.T) {
		f := withPrimary(Filter{Type: TypeScreens}, KindChannel, &Resource{ID: "c2"})
		ds := runReport(t, h, f, csv)
		if ds.Len() != 1 || ds.Rows[0][0] != "Atrium" {
			t.Errorf("rows = %v", ds.Rows)
		}
	})

	t.Run("screenIssues", func(t *testing.T) {
		ds := runReport(t, h, Filter{Type: TypeScreenIssues}, csv)
		assertRows(t, ds, [][]any{
			{"ATR1", "Atrium", "offline", "2222", "10 days ago"},
		})
	})

	t.Run("playsByVideoTime dense", func(t *testing.T) {
		ds := runReport(t, h, rangeFilter(TypePlaysByVideoTime), withIDs)
		assertRows(t, ds, [][]any{
			{"Intro.mp4", "f1", int64(2), int64(0), int64(0)},
			{"Menu.mp4", "f2", int64(0), int64(1), int64(0)},
		})
	})

	t.Run("playsByScreenTime", func(t *testing.T) {
		ds := runReport(t, h, rangeFilter(TypePlaysByScreenTime), csv)
		assertRows(t, ds, [][]any{
			{"Atrium", int64(0), int64(1), int64(0)},
			{"Lobby", int64(2), int64(0), int64(0)},
		})
	})

	t.Run("dailyStream", func(t *testing.T) {
		ds := runReport(t, h, rangeFilter(TypeDailyStream), withIDs)
		assertRows(t, ds, [][]any{
			{"Atrium", "00:00:00", "00:00:30", "00:00:00"},
			{"Lobby", "00:00:25", "00:00:00", "00:00:00"},
		})
	})

	t.Run("empty range keeps headers", func(t *testing.T) {
		f := rangeFilter(TypeVideos)
		f.StartTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		f.EndTime = f.StartTime
		ds := runReport(t, h, f, csv)
		if ds.Len() != 0 || len(ds.Columns) != 4 {
			t.Errorf("dataset = %+v", ds)
		}
	})
}

func TestScreenIssues_PrecomputedScreens(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(NewExecutor(0).WithClock(func() time.Time { return fixedNow }))
	resolved := fixedNow.AddDate(0, 0, -1)
	cfg := ExportConfig{
		Format: FormatCSV,
		Screens: []ScreenSummary{
			{SearchToken: "K1", Name: "Kiosk", Status: "offline", PIN: "9", Issues: []Issue{
				{Type: "notplaying", When: fixedNow.AddDate(0, 0, -2)},
				{Type: "notplaying", When: fixedNow.AddDate(0, 0, -5)},
				{Type: "notplaying", When: fixedNow.AddDate(0, 0, -30), ResolvedAt: &resolved},
				{Type: "offline", When: fixedNow.AddDate(0, 0, -40)},
			}},
			{SearchToken: "K2", Name: "Quiet", Status: "online"},
		},
	}
	p, err := reg.Compile(Filter{Type: TypeScreenIssues}, cfg)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	// No store access: a nil querier must be fine.
	ds, err := reg.Execute(context.Background(), nil, p)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	assertRows(t, ds, [][]any{
		{"K1", "Kiosk", "offline", "9", "5 days ago"},
		{"K2", "Quiet", "online", "", ""},
	})
	if n, _ := reg.CountRows(context.Background(), nil, p); n != 2 {
		t.Errorf("CountRows() = %d, want 2", n)
	}
}
