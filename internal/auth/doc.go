// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package auth provides optional bearer-token authentication for the report
endpoints.

When JWT_SECRET is set, POST /report and GET /report require an
"Authorization: Bearer <token>" header carrying an HS256 token issued by
citadel-reports. A token may list the database contexts its holder may
report on; an empty list allows all of them. Without a secret the
middleware is a pass-through, matching deployments that sit behind an
authenticating gateway.

	mgr, _ := auth.NewJWTManager(cfg.Security.JWTSecret)
	r.Use(auth.NewMiddleware(mgr).Authenticate)
*/
package auth
