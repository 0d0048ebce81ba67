// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/citadel-reports/internal/logging"
	"github.com/tomtom215/citadel-reports/internal/metrics"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("report queue is full")

	// ErrDuplicateJob is returned when a URL is submitted twice.
	ErrDuplicateJob = errors.New("job already submitted")
)

// Task does the work of one job. Its context carries the submitter's
// logging fields but is never cancelled by the runner.
type Task func(ctx context.Context) error

// Job is a unit of work keyed by the artifact URL it will produce.
type Job struct {
	URL    string
	Type   string
	Format string
	Run    Task
}

// Handle is the future of a submitted job.
type Handle struct {
	url  string
	done chan struct{}
	err  error
}

// URL returns the job URL.
func (h *Handle) URL() string { return h.url }

// Done is closed when the job finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the job result. Valid only after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the job finishes or ctx ends.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) finish(err error) {
	h.err = err
	close(h.done)
}

type queuedJob struct {
	ctx    context.Context
	job    Job
	handle *Handle
}

// RunnerConfig sizes the worker pool.
type RunnerConfig struct {
	Workers   int
	QueueSize int

	// StartRate caps job starts per second. Zero disables the cap.
	StartRate float64

	// Fatal reports whether a job error must also stop the runner so the
	// supervisor restarts it.
	Fatal func(error) bool
}

// Runner executes jobs on a fixed pool of workers fed by a bounded queue.
// It is a suture.Service; queued jobs survive a restart of Serve. A job a
// worker took but could not start before Serve stopped is parked in held and
// runs first on the next Serve.
type Runner struct {
	cfg     RunnerConfig
	tracker *Tracker
	queue   chan queuedJob
	held    chan queuedJob
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu sync.Mutex
}

// NewRunner creates a runner that records job outcomes in tracker.
func NewRunner(cfg RunnerConfig, tracker *Tracker) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Fatal == nil {
		cfg.Fatal = func(error) bool { return false }
	}
	limit := rate.Inf
	if cfg.StartRate > 0 {
		limit = rate.Limit(cfg.StartRate)
	}
	return &Runner{
		cfg:     cfg,
		tracker: tracker,
		queue:   make(chan queuedJob, cfg.QueueSize),
		held:    make(chan queuedJob, cfg.Workers),
		limiter: rate.NewLimiter(limit, cfg.Workers),
		logger:  logging.WithComponent("runner"),
	}
}

// Submit marks the job running and queues it. A full queue is rejected
// before anything is recorded.
func (r *Runner) Submit(ctx context.Context, job Job) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) == cap(r.queue) {
		metrics.RecordJobRejected("queue_full")
		return nil, ErrQueueFull
	}
	st, err := r.tracker.Status(ctx, job.URL)
	if err != nil {
		return nil, err
	}
	if st.State != StateUnknown {
		metrics.RecordJobRejected("duplicate")
		return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, job.URL)
	}
	if err := r.tracker.Start(ctx, job.URL); err != nil {
		return nil, err
	}

	h := &Handle{url: job.URL, done: make(chan struct{})}
	// Only Submit sends, under mu, so this never blocks.
	r.queue <- queuedJob{
		ctx:    context.WithoutCancel(logging.ContextWithJob(ctx, job.URL)),
		job:    job,
		handle: h,
	}
	r.syncQueueDepth()
	metrics.RecordJobSubmitted(job.Type, job.Format)
	return h, nil
}

// QueueLen returns the number of jobs waiting for a worker, including jobs
// parked by a stopped Serve.
func (r *Runner) QueueLen() int { return len(r.queue) + len(r.held) }

func (r *Runner) syncQueueDepth() {
	metrics.ReportQueueDepth.Set(float64(r.QueueLen()))
}

// Serve runs the workers until ctx is cancelled or a job fails fatally.
func (r *Runner) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.logger.Info().
		Int("workers", r.cfg.Workers).
		Int("queue_size", r.cfg.QueueSize).
		Msg("Report runner starting")

	fatal := make(chan error, r.cfg.Workers)
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r.work(ctx, worker, fatal)
		}(i)
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-fatal:
		r.logger.Error().Err(err).Msg("Report runner stopping on fatal job error")
	}
	cancel()
	wg.Wait()
	return err
}

// String implements fmt.Stringer for suture logs.
func (r *Runner) String() string { return "report-runner" }

func (r *Runner) work(ctx context.Context, worker int, fatal chan<- error) {
	for {
		q, ok := r.next(ctx)
		if !ok {
			return
		}
		r.syncQueueDepth()
		if err := r.limiter.Wait(ctx); err != nil || ctx.Err() != nil {
			// Never started; the next Serve picks it up. held has one slot
			// per worker, so this does not block.
			r.held <- q
			r.syncQueueDepth()
			return
		}
		if err := r.run(q, worker); err != nil && r.cfg.Fatal(err) {
			fatal <- err
			return
		}
	}
}

// next takes a parked job before a queued one. It reports false once ctx is
// done, even when jobs are waiting.
func (r *Runner) next(ctx context.Context) (queuedJob, bool) {
	if ctx.Err() != nil {
		return queuedJob{}, false
	}
	select {
	case q := <-r.held:
		return q, true
	default:
	}
	select {
	case <-ctx.Done():
		return queuedJob{}, false
	case q := <-r.held:
		return q, true
	case q := <-r.queue:
		return q, true
	}
}

func (r *Runner) run(q queuedJob, worker int) (err error) {
	logger := logging.CtxWith(q.ctx).Int("worker", worker).Logger()
	start := time.Now()
	metrics.ReportJobsRunning.Inc()
	defer metrics.ReportJobsRunning.Dec()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
			logger.Error().Str("stack", string(debug.Stack())).Msg("Report job panicked")
		}
		r.finish(q, err, time.Since(start))
	}()

	logger.Debug().Str("report_type", q.job.Type).Msg("Report job started")
	return q.job.Run(q.ctx)
}

func (r *Runner) finish(q queuedJob, err error, took time.Duration) {
	logger := logging.Ctx(q.ctx)
	metrics.RecordJobFinished(q.job.Type, q.job.Format, took, err)

	var trackErr error
	if err != nil {
		logger.Error().Err(err).Dur("took", took).Msg("Report job failed")
		trackErr = r.tracker.MarkError(q.ctx, q.job.URL, err.Error())
	} else {
		logger.Info().Dur("took", took).Msg("Report job complete")
		trackErr = r.tracker.MarkComplete(q.ctx, q.job.URL)
	}
	if trackErr != nil {
		logger.Error().Err(trackErr).Msg("Failed to record job outcome")
	}
	q.handle.finish(err)
}
