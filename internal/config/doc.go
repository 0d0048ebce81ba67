// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package config provides centralized configuration management for Citadel Reports.

# Configuration Sources

Configuration is loaded with Koanf v2 from layered sources, highest priority last:

  - Built-in defaults (defaultConfig)
  - Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/citadel-reports/config.yaml)
  - Environment variables (explicit mapping, unknown variables ignored)

# Configuration Structure

  - ServerConfig: HTTP listener
  - DatabaseConfig: shared DuckDB root connection and query limits
  - ReportsConfig: job workers, queue and tracker backend
  - ArtifactsConfig: filesystem or S3 storage, circuit breaker
  - SecurityConfig: optional bearer auth, CORS, rate limits
  - LoggingConfig: zerolog level and format

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
