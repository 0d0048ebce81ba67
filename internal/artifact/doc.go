// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package artifact stores finished report files and builds their public URLs.

Two backends are available:

  - FilesystemBackend writes below a directory served by a CDN origin
  - S3Backend uploads public-read objects with the AWS SDK v2

Uploads go through Store, which serializes writes to the same key with a
keyed mutex and guards the backend with a gobreaker circuit breaker so a
failing object store rejects uploads quickly instead of tying up workers.

	key, _ := artifact.NewKey("Citadel Report", "csv", time.Now())
	url := artifact.PublicURL(cfg.Artifacts.PublicRoot, key)
	err := store.Put(ctx, key, data)
*/
package artifact
