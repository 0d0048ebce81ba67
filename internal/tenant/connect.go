// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/citadel-reports/internal/config"
	"github.com/tomtom215/citadel-reports/internal/logging"
)

const memoryPath = ":memory:"

// dsn builds the DuckDB connection string. Report queries can aggregate
// far more than fits in memory, so temp_directory lets DuckDB spill.
func dsn(cfg *config.DatabaseConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	params := url.Values{}
	params.Set("threads", strconv.Itoa(threads))
	if cfg.MaxMemory != "" {
		params.Set("max_memory", cfg.MaxMemory)
	}
	if cfg.TempDirectory != "" {
		params.Set("temp_directory", cfg.TempDirectory)
	}
	// Extensions are never fetched at runtime.
	params.Set("autoinstall_known_extensions", "false")

	return cfg.Path + "?" + params.Encode()
}

// Connect opens the shared root DuckDB connection, retrying with
// exponential backoff until cfg.ConnectTimeout elapses or ctx is done.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Path != memoryPath {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}
	if cfg.TempDirectory != "" {
		if err := os.MkdirAll(cfg.TempDirectory, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create temp directory %s: %w", cfg.TempDirectory, err)
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = cfg.ConnectTimeout
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = time.Minute
	}

	var db *sql.DB
	open := func() error {
		conn, err := sql.Open("duckdb", dsn(cfg))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := conn.PingContext(pingCtx); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		db = conn
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logging.Warn().Err(err).Dur("retry_in", wait).Str("path", cfg.Path).Msg("DuckDB connection failed, retrying")
	}

	if err := backoff.RetryNotify(open, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(runtime.NumCPU())
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logging.Info().Str("path", cfg.Path).Msg("DuckDB root connection ready")
	return db, nil
}
