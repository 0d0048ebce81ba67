// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/citadel-reports/internal/artifact"
	"github.com/tomtom215/citadel-reports/internal/export"
	"github.com/tomtom215/citadel-reports/internal/jobs"
	"github.com/tomtom215/citadel-reports/internal/logging"
	"github.com/tomtom215/citadel-reports/internal/metrics"
	"github.com/tomtom215/citadel-reports/internal/report"
	"github.com/tomtom215/citadel-reports/internal/tenant"
)

// DefaultLabel prefixes artifact names when neither the request nor the
// configuration supplies one.
const DefaultLabel = "Citadel Report"

// ErrInvalidRequest is returned when a request is missing required fields.
var ErrInvalidRequest = errors.New("invalid report request")

// Resolver maps a tenant context to its store handle.
type Resolver interface {
	Resolve(ctx context.Context, tenantCtx string) (*tenant.Handle, error)
}

// Uploader persists finished artifacts by key.
type Uploader interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Request is one report submission.
type Request struct {
	User   string
	Tenant string
	Filter report.Filter
	Export report.ExportConfig
}

// Config holds the naming settings of generated artifacts.
type Config struct {
	Label      string
	PublicRoot string
}

// Deps are the collaborators of a Service.
type Deps struct {
	Registry  *report.Registry
	Resolver  Resolver
	Bundler   *export.Bundler
	Artifacts Uploader
	Runner    *jobs.Runner
	Tracker   *jobs.Tracker
}

// Service accepts report submissions and answers status queries.
type Service struct {
	cfg       Config
	registry  *report.Registry
	resolver  Resolver
	bundler   *export.Bundler
	artifacts Uploader
	runner    *jobs.Runner
	tracker   *jobs.Tracker
	now       func() time.Time
}

// New creates a Service.
func New(cfg Config, deps Deps) *Service {
	if cfg.Label == "" {
		cfg.Label = DefaultLabel
	}
	return &Service{
		cfg:       cfg,
		registry:  deps.Registry,
		resolver:  deps.Resolver,
		bundler:   deps.Bundler,
		artifacts: deps.Artifacts,
		runner:    deps.Runner,
		tracker:   deps.Tracker,
		now:       time.Now,
	}
}

// WithClock overrides the clock used for artifact names and pdf metadata.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submission is the accepted job.
type Submission struct {
	URL    string
	Key    string
	Handle *jobs.Handle
}

// Submit runs the preflight and queues generation. On success the job is
// already tracked as running under the returned URL.
func (s *Service) Submit(ctx context.Context, req Request) (*Submission, error) {
	ctx = logging.ContextWithTenant(ctx, req.Tenant)
	plan, err := s.preflight(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	label := s.cfg.Label
	if req.Export.Label != "" {
		label = req.Export.Label
	}
	key, err := artifact.NewKey(label, req.Export.Format.Extension(), now)
	if err != nil {
		return nil, err
	}
	url := artifact.PublicURL(s.cfg.PublicRoot, key)

	h, err := s.runner.Submit(ctx, jobs.Job{
		URL:    url,
		Type:   string(plan.Type),
		Format: string(req.Export.Format),
		Run:    s.generate(req, plan, key, url),
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("url", url).
		Str("report_type", string(plan.Type)).
		Str("format", string(req.Export.Format)).
		Msg("Report queued")
	return &Submission{URL: url, Key: key, Handle: h}, nil
}

// preflight compiles the request and, for pdf, checks the row count. No
// job is tracked when it fails.
func (s *Service) preflight(ctx context.Context, req Request) (*report.Plan, error) {
	plan, err := s.compile(req)
	if err != nil {
		metrics.RecordJobRejected("invalid_filter")
		return nil, err
	}
	if req.Export.Format != report.FormatPDF {
		return plan, nil
	}

	if err := s.checkCapacity(ctx, req.Tenant, plan); err != nil {
		if errors.Is(err, export.ErrTooManyRows) {
			metrics.RecordJobRejected("too_many_rows")
		} else {
			metrics.RecordJobRejected("store")
		}
		return nil, err
	}
	return plan, nil
}

func (s *Service) compile(req Request) (*report.Plan, error) {
	if strings.TrimSpace(req.Tenant) == "" {
		return nil, fmt.Errorf("%w: database context is required", ErrInvalidRequest)
	}
	if err := export.ValidateConfig(req.Export); err != nil {
		return nil, err
	}
	return s.registry.Compile(req.Filter, req.Export)
}

// checkCapacity counts the rows a pdf would hold before accepting the job.
func (s *Service) checkCapacity(ctx context.Context, tenantCtx string, plan *report.Plan) error {
	h, err := s.resolver.Resolve(ctx, tenantCtx)
	if err != nil {
		return err
	}
	rows, err := s.registry.CountRows(ctx, h, plan)
	if err != nil {
		return fmt.Errorf("pdf preflight: %w", err)
	}
	return export.CheckCapacity(report.FormatPDF, rows)
}

// generate returns the task that produces and uploads one artifact.
func (s *Service) generate(req Request, plan *report.Plan, key, url string) jobs.Task {
	return func(ctx context.Context) error {
		h, err := s.resolver.Resolve(ctx, req.Tenant)
		if err != nil {
			return err
		}

		s.stage(ctx, url, jobs.StageQuerying)
		ds, err := s.registry.Execute(ctx, h, plan)
		if err != nil {
			return err
		}

		s.stage(ctx, url, jobs.StageBundling)
		data, err := s.bundler.Bundle(ds, req.Export, export.Meta{
			Filter:    req.Filter,
			Window:    plan.Window,
			User:      req.User,
			Generated: s.now(),
		})
		if err != nil {
			return err
		}

		s.stage(ctx, url, jobs.StageUploading)
		return s.artifacts.Put(ctx, key, data)
	}
}

// stage records progress. A tracker failure does not fail the job.
func (s *Service) stage(ctx context.Context, url, stage string) {
	if err := s.tracker.SetStage(ctx, url, stage); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("stage", stage).Msg("Failed to record job stage")
	}
}

// Status returns the tracked state of the job producing url.
func (s *Service) Status(ctx context.Context, url string) (jobs.Status, error) {
	return s.tracker.Status(ctx, url)
}

// IsFatal reports whether a job error must restart the runner.
func IsFatal(err error) bool {
	return errors.Is(err, tenant.ErrResolve)
}

// IsClientError reports whether err was caused by the submitted request
// rather than by the service.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		report.ErrUnsupportedReport,
		report.ErrUnsupportedFilter,
		report.ErrInvalidFilter,
		report.ErrInvalidRange,
		export.ErrTooManyRows,
		export.ErrUnsupportedFormat,
		export.ErrInvalidDelimiter,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
