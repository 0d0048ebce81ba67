// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateReports(); err != nil {
		return err
	}

	if err := c.validateArtifacts(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DUCKDB_QUERY_TIMEOUT must be positive")
	}
	return nil
}

// validJobStores defines the allowed tracker backends
var validJobStores = map[string]bool{
	"memory": true,
	"badger": true,
}

func (c *Config) validateReports() error {
	if c.Reports.Workers < 1 {
		return fmt.Errorf("REPORT_WORKERS must be at least 1")
	}
	if c.Reports.QueueSize < 1 {
		return fmt.Errorf("REPORT_QUEUE_SIZE must be at least 1")
	}
	if c.Reports.StartRate < 0 {
		return fmt.Errorf("REPORT_START_RATE must not be negative")
	}
	if strings.TrimSpace(c.Reports.Label) == "" {
		return fmt.Errorf("REPORT_LABEL must not be empty")
	}
	if !validJobStores[c.Reports.JobStore] {
		return fmt.Errorf("REPORT_JOB_STORE must be one of: memory, badger")
	}
	if c.Reports.JobStore == "badger" && c.Reports.JobStorePath == "" {
		return fmt.Errorf("REPORT_JOB_STORE_PATH is required when REPORT_JOB_STORE=badger")
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	switch c.Artifacts.Backend {
	case "filesystem":
		if c.Artifacts.Directory == "" {
			return fmt.Errorf("ARTIFACT_DIRECTORY is required when ARTIFACT_BACKEND=filesystem")
		}
	case "s3":
		if c.Artifacts.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when ARTIFACT_BACKEND=s3")
		}
		if c.Artifacts.S3.Region == "" {
			return fmt.Errorf("S3_REGION is required when ARTIFACT_BACKEND=s3")
		}
		if (c.Artifacts.S3.AccessKey == "") != (c.Artifacts.S3.SecretKey == "") {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
		}
		if c.Artifacts.S3.Endpoint != "" {
			if err := validateHTTPURL(c.Artifacts.S3.Endpoint); err != nil {
				return fmt.Errorf("S3_ENDPOINT is invalid: %w", err)
			}
		}
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be one of: filesystem, s3")
	}

	if c.Artifacts.PublicRoot != "" {
		if _, err := url.Parse(c.Artifacts.PublicRoot); err != nil {
			return fmt.Errorf("ARTIFACT_PUBLIC_ROOT is invalid: %w", err)
		}
	}
	if c.Artifacts.BreakerFailures == 0 {
		return fmt.Errorf("ARTIFACT_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if c.Server.Environment == "production" {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL checks that raw is an absolute http(s) URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
