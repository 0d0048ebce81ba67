// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/citadel-reports/internal/api"
	"github.com/tomtom215/citadel-reports/internal/artifact"
	"github.com/tomtom215/citadel-reports/internal/auth"
	"github.com/tomtom215/citadel-reports/internal/config"
	"github.com/tomtom215/citadel-reports/internal/export"
	"github.com/tomtom215/citadel-reports/internal/jobs"
	"github.com/tomtom215/citadel-reports/internal/keymutex"
	"github.com/tomtom215/citadel-reports/internal/logging"
	"github.com/tomtom215/citadel-reports/internal/metrics"
	"github.com/tomtom215/citadel-reports/internal/report"
	"github.com/tomtom215/citadel-reports/internal/reporting"
	"github.com/tomtom215/citadel-reports/internal/supervisor"
	"github.com/tomtom215/citadel-reports/internal/supervisor/services"
	"github.com/tomtom215/citadel-reports/internal/tenant"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential wiring
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("artifact_backend", cfg.Artifacts.Backend).
		Str("job_store", cfg.Reports.JobStore).
		Bool("auth", cfg.Security.AuthEnabled()).
		Msg("Starting Citadel Reports")

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Retries with backoff until database.connect_timeout.
	db, err := tenant.Connect(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to the root store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing root store")
		}
	}()

	locks := keymutex.New()
	tenants := tenant.NewRouter(db, locks)

	store, err := jobs.OpenStore(cfg.Reports.JobStore, cfg.Reports.JobStorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open job store")
	}
	tracker := jobs.NewTracker(store)
	defer func() {
		if err := tracker.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing job store")
		}
	}()

	artifacts, err := artifact.Open(ctx, &cfg.Artifacts, locks)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open artifact storage")
	}
	logging.Info().Str("backend", artifacts.Backend()).Msg("Artifact storage ready")

	bundler := export.NewBundler()
	if cfg.Reports.BrandingFile != "" {
		png, err := os.ReadFile(cfg.Reports.BrandingFile)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Reports.BrandingFile).Msg("Failed to read branding image")
		}
		bundler = export.NewBundlerWithBranding(png)
	}

	runner := jobs.NewRunner(jobs.RunnerConfig{
		Workers:   cfg.Reports.Workers,
		QueueSize: cfg.Reports.QueueSize,
		StartRate: cfg.Reports.StartRate,
		Fatal:     reporting.IsFatal,
	}, tracker)

	svc := reporting.New(reporting.Config{
		Label:      cfg.Reports.Label,
		PublicRoot: cfg.Artifacts.PublicRoot,
	}, reporting.Deps{
		Registry:  report.NewRegistry(report.NewExecutor(cfg.Database.QueryTimeout)),
		Resolver:  tenants,
		Bundler:   bundler,
		Artifacts: artifacts,
		Runner:    runner,
		Tracker:   tracker,
	})

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthEnabled() {
		jwtManager, err = auth.NewJWTManager(cfg.Security.JWTSecret)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
	}

	router := api.NewRouter(
		api.NewHandler(svc, version),
		auth.NewMiddleware(jwtManager),
		api.NewChiMiddlewareFromConfig(&cfg.Security),
	)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	tree, err := supervisor.NewSupervisorTree(
		logging.NewSlogLoggerForComponent("supervisor"),
		supervisor.DefaultTreeConfig(),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddWorkService(runner)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	go trackUptime(ctx, time.Now())

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, u := range unstopped {
		logging.Warn().Str("service", u.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("Citadel Reports stopped")
}

func trackUptime(ctx context.Context, started time.Time) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.AppUptime.Set(time.Since(started).Seconds())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
