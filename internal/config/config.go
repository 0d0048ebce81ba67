// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Reports   ReportsConfig   `koanf:"reports"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds settings for the shared DuckDB root connection.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // Number of DuckDB threads (0 = use NumCPU)

	// TempDirectory lets DuckDB spill large aggregations to disk.
	TempDirectory string `koanf:"temp_directory"`

	// QueryTimeout bounds a single report query.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// ConnectTimeout is the total time spent retrying the initial connection.
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// ReportsConfig holds job execution settings
type ReportsConfig struct {
	Label     string  `koanf:"label"`      // Prefix of generated artifact names
	Workers   int     `koanf:"workers"`    // Concurrent report workers
	QueueSize int     `koanf:"queue_size"` // Pending jobs before submissions are refused
	StartRate float64 `koanf:"start_rate"` // Max job starts per second (0 = unlimited)

	// JobStore selects the tracker backend: "memory" or "badger".
	JobStore     string `koanf:"job_store"`
	JobStorePath string `koanf:"job_store_path"`

	// BrandingFile is a PNG stamped on pdf exports in place of the
	// built-in image.
	BrandingFile string `koanf:"branding_file"`
}

// ArtifactsConfig holds artifact storage settings
type ArtifactsConfig struct {
	// Backend is "filesystem" or "s3".
	Backend string `koanf:"backend"`

	// Directory is the filesystem root (filesystem backend).
	Directory string `koanf:"directory"`

	// PublicRoot is prepended to the escaped artifact key to build the URL
	// handed back to callers. Typically a CDN root ending in "/".
	PublicRoot string `koanf:"public_root"`

	S3 S3Config `koanf:"s3"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"` // Optional, for S3-compatible services
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	PathStyle bool   `koanf:"path_style"`
}

// SecurityConfig holds API protection settings
type SecurityConfig struct {
	// JWTSecret enables bearer-token auth on report endpoints when set.
	JWTSecret         string        `koanf:"jwt_secret"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// AuthEnabled reports whether bearer-token auth is configured.
func (s SecurityConfig) AuthEnabled() bool {
	return s.JWTSecret != ""
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
