// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package tenant

// Model is one domain table registered in every tenant schema. DDL and
// Indexes are templates: each %[1]s is replaced by the quoted schema name.
type Model struct {
	Name    string
	DDL     string
	Indexes []string
}

// Table names shared with the report executor.
const (
	TableScreens        = "screens"
	TableScreenIssues   = "screen_issues"
	TableScreenStatuses = "screen_statuses"
	TableFiles          = "files"
	TablePlaylists      = "playlists"
	TableChannels       = "channels"
	TableStatistics     = "statistics"
)

// Models is the full set of domain models. Order matters only for
// readability; there are no foreign keys.
var Models = []Model{
	{
		Name: TableScreens,
		DDL: `CREATE TABLE IF NOT EXISTS %[1]s.screens (
			id VARCHAR PRIMARY KEY,
			name VARCHAR,
			search_token VARCHAR,
			device_model VARCHAR,
			pin VARCHAR,
			ip VARCHAR,
			status VARCHAR,
			version VARCHAR,
			location_summary VARCHAR,
			location_valid BOOLEAN DEFAULT false,
			channels VARCHAR[],
			tags VARCHAR[],
			created TIMESTAMP,
			deleted TIMESTAMP
		)`,
	},
	{
		Name: TableScreenIssues,
		DDL: `CREATE TABLE IF NOT EXISTS %[1]s.screen_issues (
			screen_id VARCHAR NOT NULL,
			type VARCHAR NOT NULL,
			when_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP
		)`,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_screen_issues_screen ON %[1]s.screen_issues (screen_id)`,
		},
	},
	{
		Name: TableScreenStatuses,
		DDL: `CREATE TABLE IF NOT EXISTS %[1]s.screen_statuses (
			screen_id VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			when_at TIMESTAMP NOT NULL
		)`,
	},
	{
		Name: TableFiles,
		DDL: `CREATE TABLE IF NOT EXISTS %[1]s.files (
			id VARCHAR PRIMARY KEY,
			name VARCHAR,
			size BIGINT,
			duration_seconds DOUBLE,
			tags VARCHAR[],
			deleted TIMESTAMP
		)`,
	},
	{
		Name: TablePlaylists,
		DDL: `CREATE TABLE IF NOT EXISTS %[1]s.playlists (
			id VARCHAR PRIMARY KEY,
			name VARCHAR,
			tags VARCHAR[],
			deleted TIMESTAMP
		)`,
	},
	{
		Name: TableChannels,
		DDL: `CREATE TABLE IF NOT EXISTS %[1]s.channels (
			id VARCHAR PRIMARY KEY,
			name VARCHAR,
			tags VARCHAR[],
			deleted TIMESTAMP
		)`,
	},
	{
		Name: TableStatistics,
		DDL: `CREATE TABLE IF NOT EXISTS %[1]s.statistics (
			id VARCHAR PRIMARY KEY,
			screen VARCHAR,
			file VARCHAR,
			playlist VARCHAR,
			channel VARCHAR,
			when_at TIMESTAMP NOT NULL
		)`,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_statistics_when ON %[1]s.statistics (when_at)`,
			`CREATE INDEX IF NOT EXISTS idx_statistics_file ON %[1]s.statistics (file)`,
			`CREATE INDEX IF NOT EXISTS idx_statistics_screen ON %[1]s.statistics (screen)`,
		},
	},
}
