// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func startRunner(t *testing.T, r *Runner) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("runner did not stop")
		}
	})
	return done
}

func waitFor(t *testing.T, h *Handle) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := h.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("job %s did not finish", h.URL())
	}
	return err
}

func TestRunner_CompletesAndFails(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	r := NewRunner(RunnerConfig{Workers: 2, QueueSize: 4}, tr)
	startRunner(t, r)
	ctx := context.Background()

	ok, err := r.Submit(ctx, Job{URL: "ok", Type: "plays", Format: "csv", Run: func(context.Context) error { return nil }})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	bad, err := r.Submit(ctx, Job{URL: "bad", Type: "plays", Format: "csv", Run: func(context.Context) error {
		return errors.New("upload failed")
	}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := waitFor(t, ok); err != nil {
		t.Errorf("ok job error = %v", err)
	}
	if err := waitFor(t, bad); err == nil {
		t.Error("bad job should fail")
	}

	if st, _ := tr.Status(ctx, "ok"); st.State != StateComplete {
		t.Errorf("ok status = %+v", st)
	}
	if st, _ := tr.Status(ctx, "bad"); st.State != StateError || st.Error != "upload failed" {
		t.Errorf("bad status = %+v", st)
	}
}

func TestRunner_QueueFullRejectsBeforeRunning(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	// Not serving: nothing drains the queue.
	r := NewRunner(RunnerConfig{Workers: 1, QueueSize: 2}, tr)
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	for i := 0; i < 2; i++ {
		if _, err := r.Submit(ctx, Job{URL: fmt.Sprintf("u%d", i), Run: noop}); err != nil {
			t.Fatalf("Submit(%d) error = %v", i, err)
		}
	}
	_, err := r.Submit(ctx, Job{URL: "overflow", Run: noop})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Submit() error = %v, want ErrQueueFull", err)
	}
	if st, _ := tr.Status(ctx, "overflow"); st.State != StateUnknown {
		t.Errorf("rejected job state = %q, want unknown", st.State)
	}
	if r.QueueLen() != 2 {
		t.Errorf("QueueLen() = %d", r.QueueLen())
	}
}

func TestRunner_DuplicateURL(t *testing.T) {
	r := NewRunner(RunnerConfig{QueueSize: 4}, NewTracker(NewMemoryStore()))
	job := Job{URL: "same", Run: func(context.Context) error { return nil }}
	if _, err := r.Submit(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Submit(context.Background(), job); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("second Submit() = %v, want ErrDuplicateJob", err)
	}
}

func TestRunner_SubmitterCancelDoesNotCancelJob(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	r := NewRunner(RunnerConfig{Workers: 1, QueueSize: 1}, tr)

	reqCtx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	h, err := r.Submit(reqCtx, Job{URL: "detached", Run: func(ctx context.Context) error {
		<-release
		return ctx.Err()
	}})
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	startRunner(t, r)
	close(release)

	if err := waitFor(t, h); err != nil {
		t.Errorf("job saw cancellation: %v", err)
	}
}

func TestRunner_PanicBecomesJobError(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	r := NewRunner(RunnerConfig{Workers: 1, QueueSize: 1}, tr)
	startRunner(t, r)

	h, err := r.Submit(context.Background(), Job{URL: "boom", Run: func(context.Context) error {
		panic("nil map")
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := waitFor(t, h); err == nil {
		t.Fatal("panic should surface as error")
	}
	if st, _ := tr.Status(context.Background(), "boom"); st.State != StateError {
		t.Errorf("status = %+v", st)
	}
}

var errFatal = errors.New("tenant store unavailable")

func TestRunner_FatalErrorStopsServe(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	r := NewRunner(RunnerConfig{
		Workers:   2,
		QueueSize: 4,
		Fatal:     func(err error) bool { return errors.Is(err, errFatal) },
	}, tr)

	h, err := r.Submit(context.Background(), Job{URL: "fatal", Run: func(context.Context) error {
		return fmt.Errorf("resolve: %w", errFatal)
	}})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- r.Serve(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, errFatal) {
			t.Errorf("Serve() = %v, want fatal error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return on fatal error")
	}
	if err := waitFor(t, h); !errors.Is(err, errFatal) {
		t.Errorf("job error = %v", err)
	}
	if st, _ := tr.Status(context.Background(), "fatal"); st.State != StateError {
		t.Errorf("fatal job status = %+v", st)
	}
}

func TestRunner_Concurrency(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	r := NewRunner(RunnerConfig{Workers: 3, QueueSize: 32}, tr)
	startRunner(t, r)

	var running, peak atomic.Int32
	handles := make([]*Handle, 0, 12)
	for i := 0; i < 12; i++ {
		h, err := r.Submit(context.Background(), Job{URL: fmt.Sprintf("c%d", i), Run: func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil
		}})
		if err != nil {
			t.Fatal(err)
		}
		handles = append(handles, h)
	}
	for _, h := range handles {
		if err := waitFor(t, h); err != nil {
			t.Fatal(err)
		}
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3 workers", p)
	}
}

func TestRunner_FatalRestartKeepsQueuedJobs(t *testing.T) {
	for round := 0; round < 20; round++ {
		tr := NewTracker(NewMemoryStore())
		r := NewRunner(RunnerConfig{
			Workers:   2,
			QueueSize: 16,
			Fatal:     func(err error) bool { return errors.Is(err, errFatal) },
		}, tr)
		ctx := context.Background()

		submit := func(url string, run Task) *Handle {
			t.Helper()
			h, err := r.Submit(ctx, Job{URL: url, Run: run})
			if err != nil {
				t.Fatalf("Submit(%s) error = %v", url, err)
			}
			return h
		}
		submit("slow", func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			return nil
		})
		submit("fatal", func(context.Context) error { return errFatal })
		queued := make([]*Handle, 0, 8)
		for i := 0; i < 8; i++ {
			queued = append(queued, submit(fmt.Sprintf("q%d", i), func(context.Context) error { return nil }))
		}

		if err := r.Serve(ctx); !errors.Is(err, errFatal) {
			t.Fatalf("round %d: Serve() = %v, want fatal error", round, err)
		}
		for _, h := range queued {
			st, _ := tr.Status(ctx, h.URL())
			if st.State == StateError {
				t.Fatalf("round %d: %s marked error by restart: %q", round, h.URL(), st.Error)
			}
		}

		// The supervisor restarts Serve; every queued job then completes.
		startRunner(t, r)
		for _, h := range queued {
			if err := waitFor(t, h); err != nil {
				t.Fatalf("round %d: %s error = %v", round, h.URL(), err)
			}
		}
		if n := r.QueueLen(); n != 0 {
			t.Errorf("round %d: QueueLen() = %d after drain", round, n)
		}
	}
}
