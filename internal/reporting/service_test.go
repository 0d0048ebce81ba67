// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package reporting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/citadel-reports/internal/artifact"
	"github.com/tomtom215/citadel-reports/internal/config"
	"github.com/tomtom215/citadel-reports/internal/export"
	"github.com/tomtom215/citadel-reports/internal/jobs"
	"github.com/tomtom215/citadel-reports/internal/keymutex"
	"github.com/tomtom215/citadel-reports/internal/report"
	"github.com/tomtom215/citadel-reports/internal/tenant"
)

const publicRoot = "https://cdn.example.com/"

var fixedNow = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

// failingResolver fails for one tenant and delegates the rest.
type failingResolver struct {
	next  Resolver
	fails string
}

func (r failingResolver) Resolve(ctx context.Context, tenantCtx string) (*tenant.Handle, error) {
	if tenantCtx == r.fails {
		return nil, fmt.Errorf("%w: %s: schema locked", tenant.ErrResolve, tenantCtx)
	}
	return r.next.Resolve(ctx, tenantCtx)
}

// stageUploader records the job status seen at upload time.
type stageUploader struct {
	tracker *jobs.Tracker
	err     error

	mu     sync.Mutex
	seen   []jobs.Status
	urlFor func(key string) string
}

func (u *stageUploader) Put(ctx context.Context, key string, _ []byte) error {
	st, _ := u.tracker.Status(ctx, u.urlFor(key))
	u.mu.Lock()
	u.seen = append(u.seen, st)
	u.mu.Unlock()
	return u.err
}

type harness struct {
	svc     *Service
	runner  *jobs.Runner
	tracker *jobs.Tracker
	router  *tenant.Router
	dir     string
	served  chan error
}

func newHarness(t *testing.T, resolver func(*tenant.Router) Resolver, uploader func(*jobs.Tracker, string) Uploader) *harness {
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

	locks := keymutex.New()
	router := tenant.NewRouter(db, locks)
	tracker := jobs.NewTracker(jobs.NewMemoryStore())
	runner := jobs.NewRunner(jobs.RunnerConfig{Workers: 2, QueueSize: 4, Fatal: IsFatal}, tracker)

	dir := t.TempDir()
	var up Uploader
	if uploader != nil {
		up = uploader(tracker, dir)
	} else {
		backend, err := artifact.NewFilesystemBackend(dir)
		if err != nil {
			t.Fatal(err)
		}
		up = artifact.NewStore(backend, locks, artifact.BreakerConfig{})
	}
	var res Resolver = router
	if resolver != nil {
		res = resolver(router)
	}

	svc := New(Config{PublicRoot: publicRoot}, Deps{
		Registry:  report.NewRegistry(report.NewExecutor(time.Minute).WithClock(func() time.Time { return fixedNow })),
		Resolver:  res,
		Bundler:   export.NewBundler(),
		Artifacts: up,
		Runner:    runner,
		Tracker:   tracker,
	}).WithClock(func() time.Time { return fixedNow })

	runCtx, cancel := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- runner.Serve(runCtx) }()
	t.Cleanup(cancel)

	return &harness{svc: svc, runner: runner, tracker: tracker, router: router, dir: dir, served: served}
}

func (h *harness) seed(t *testing.T, tenantCtx string, stmts ...string) {
	t.Helper()
	ctx := context.Background()
	handle, err := h.router.Resolve(ctx, tenantCtx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for _, stmt := range stmts {
		if _, err := handle.ExecContext(ctx, fmt.Sprintf(stmt, handle.Table(tenant.TableScreens))); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

const seedScreens = `INSERT INTO %s VALUES
	('s1', 'Lobby', 'LOB1', 'BrightSign', '1111', '10.0.0.1', 'online', '8.1', 'Berlin', true, ['c1'], ['north'], NULL, NULL),
	('s2', 'Atrium', 'ATR1', 'Tizen', '2222', '10.0.0.2', 'offline', '7.0', NULL, false, ['c2'], NULL, NULL, NULL)`

func onlineScreens(format report.Format) Request {
	return Request{
		User:   "ops@example.com",
		Tenant: "acme",
		Filter: report.Filter{
			Type:        report.TypeScreens,
			TZName:      "UTC",
			PrimaryKind: report.KindStatus,
			Primary:     &report.Resource{Name: "online"},
		},
		Export: report.ExportConfig{Format: format, GenerateHeaders: true},
	}
}

func wait(t *testing.T, sub *Submission) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := sub.Handle.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("job did not finish")
	}
	return err
}

func TestSubmit_ScreensByStatusCSV(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.seed(t, "acme", seedScreens)
	ctx := context.Background()

	sub, err := h.svc.Submit(ctx, onlineScreens(report.FormatCSV))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !strings.HasPrefix(sub.URL, publicRoot+"Citadel%20Report%20%28") || !strings.HasSuffix(sub.URL, "3-11-2026.csv") {
		t.Errorf("URL = %q", sub.URL)
	}
	if sub.URL != artifact.PublicURL(publicRoot, sub.Key) {
		t.Errorf("URL %q does not match key %q", sub.URL, sub.Key)
	}

	if err := wait(t, sub); err != nil {
		t.Fatalf("job error = %v", err)
	}

	st, err := h.svc.Status(ctx, sub.URL)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != jobs.StateComplete {
		t.Errorf("Status() = %+v, want complete", st)
	}

	data, err := os.ReadFile(filepath.Join(h.dir, "reports", sub.Key))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	want := "Screen Name,Status,Device Model,Version,Location,PIN\nLobby,online,BrightSign,8.1,Berlin,1111\n"
	if string(data) != want {
		t.Errorf("artifact =\n%s\nwant\n%s", data, want)
	}
}

func TestSubmit_CustomLabel(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.seed(t, "acme", seedScreens)

	req := onlineScreens(report.FormatXLSX)
	req.Export.Label = "Lobby Audit"
	sub, err := h.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !strings.HasPrefix(sub.Key, "Lobby Audit (") || !strings.HasSuffix(sub.Key, ".xlsx") {
		t.Errorf("Key = %q", sub.Key)
	}
	if err := wait(t, sub); err != nil {
		t.Fatalf("job error = %v", err)
	}
}

func TestSubmit_PreflightErrors(t *testing.T) {
	h := newHarness(t, nil, nil)

	tests := []struct {
		name   string
		mutate func(*Request)
		want   error
	}{
		{"missing tenant", func(r *Request) { r.Tenant = " " }, ErrInvalidRequest},
		{"unknown type", func(r *Request) { r.Filter.Type = "heatmap" }, report.ErrUnsupportedReport},
		{"video filter on screens", func(r *Request) {
			r.Filter.PrimaryKind = report.KindVideo
			r.Filter.Primary = &report.Resource{ID: "f1"}
		}, report.ErrUnsupportedFilter},
		{"plays without range", func(r *Request) {
			r.Filter = report.Filter{Type: report.TypePlays}
		}, report.ErrInvalidRange},
		{"bad format", func(r *Request) { r.Export.Format = "docx" }, export.ErrUnsupportedFormat},
		{"bad delimiter", func(r *Request) { r.Export.Delimiter = "ab" }, export.ErrInvalidDelimiter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := onlineScreens(report.FormatCSV)
			tt.mutate(&req)
			_, err := h.svc.Submit(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.want)
			}
			if !IsClientError(err) {
				t.Errorf("IsClientError(%v) = false", err)
			}
		})
	}

	n, _ := h.tracker.Len(context.Background())
	if n != 0 {
		t.Errorf("tracker holds %d jobs after rejected submissions, want 0", n)
	}
}

func TestSubmit_PDFTooManyRows(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.seed(t, "acme", fmt.Sprintf(`INSERT INTO %%s
		SELECT 'bulk' || CAST(i AS VARCHAR), 'Bulk ' || CAST(i AS VARCHAR), 'B' || CAST(i AS VARCHAR),
			'Tizen', '0000', '10.1.0.1', 'online', '7.0', NULL, false, NULL, NULL, NULL, NULL
		FROM range(%d) t(i)`, export.MaxPDFRows+1))

	_, err := h.svc.Submit(context.Background(), onlineScreens(report.FormatPDF))
	if !errors.Is(err, export.ErrTooManyRows) {
		t.Fatalf("Submit() error = %v, want ErrTooManyRows", err)
	}
	if !IsClientError(err) {
		t.Error("capacity failure should be a client error")
	}
	if n, _ := h.tracker.Len(context.Background()); n != 0 {
		t.Errorf("tracker holds %d jobs, want 0", n)
	}

	// The same slice is fine as csv.
	sub, err := h.svc.Submit(context.Background(), onlineScreens(report.FormatCSV))
	if err != nil {
		t.Fatalf("csv Submit() error = %v", err)
	}
	if err := wait(t, sub); err != nil {
		t.Fatalf("csv job error = %v", err)
	}
}

func TestSubmit_PDF(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.seed(t, "acme", seedScreens)

	sub, err := h.svc.Submit(context.Background(), onlineScreens(report.FormatPDF))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := wait(t, sub); err != nil {
		t.Fatalf("job error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(h.dir, "reports", sub.Key))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("artifact is not a pdf")
	}
}

func TestGenerate_StagesAndUploadFailure(t *testing.T) {
	var up *stageUploader
	h := newHarness(t, nil, func(tr *jobs.Tracker, _ string) Uploader {
		up = &stageUploader{
			tracker: tr,
			err:     errors.New("bucket unavailable"),
			urlFor:  func(key string) string { return artifact.PublicURL(publicRoot, key) },
		}
		return up
	})
	h.seed(t, "acme", seedScreens)
	ctx := context.Background()

	sub, err := h.svc.Submit(ctx, onlineScreens(report.FormatCSV))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := wait(t, sub); err == nil {
		t.Fatal("job should fail when the upload fails")
	}

	up.mu.Lock()
	seen := up.seen
	up.mu.Unlock()
	if len(seen) != 1 || seen[0].State != jobs.StateRunning || seen[0].Stage != jobs.StageUploading {
		t.Errorf("status during upload = %+v, want running/uploading", seen)
	}

	st, _ := h.svc.Status(ctx, sub.URL)
	if st.State != jobs.StateError || !strings.Contains(st.Error, "bucket unavailable") {
		t.Errorf("Status() = %+v, want error mentioning the upload", st)
	}
}

func TestGenerate_ResolveFailureIsFatal(t *testing.T) {
	h := newHarness(t, func(r *tenant.Router) Resolver {
		return failingResolver{next: r, fails: "broken"}
	}, nil)

	req := onlineScreens(report.FormatCSV)
	req.Tenant = "broken"
	sub, err := h.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	jobErr := wait(t, sub)
	if !errors.Is(jobErr, tenant.ErrResolve) {
		t.Fatalf("job error = %v, want ErrResolve", jobErr)
	}

	select {
	case err := <-h.served:
		if !IsFatal(err) {
			t.Errorf("Serve() = %v, want the fatal resolve error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner kept serving after a fatal error")
	}

	st, _ := h.svc.Status(context.Background(), sub.URL)
	if st.State != jobs.StateError {
		t.Errorf("Status() = %+v, want error", st)
	}
}

func TestStatus_Unknown(t *testing.T) {
	h := newHarness(t, nil, nil)
	st, err := h.svc.Status(context.Background(), publicRoot+"nope.csv")
	if err != nil {
		t.Fatal(err)
	}
	if st.State != jobs.StateUnknown || st.Error != jobs.OverloadMessage {
		t.Errorf("Status() = %+v", st)
	}
}

func TestIsClientError(t *testing.T) {
	if IsClientError(errors.New("disk full")) {
		t.Error("generic error is not a client error")
	}
	if IsClientError(jobs.ErrQueueFull) {
		t.Error("queue full is a server condition")
	}
	if !IsClientError(fmt.Errorf("compile: %w", report.ErrInvalidFilter)) {
		t.Error("wrapped compile error should be a client error")
	}
}
