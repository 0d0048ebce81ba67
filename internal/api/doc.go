// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package api is the HTTP surface of the report service.

Routes:

	POST /report          queue a report, reply {"status":"ok","url":...}
	GET  /report?url=...  poll a job by its base64-encoded artifact URL
	GET  /status          liveness, plain "OK"
	GET  /meta            build metadata
	GET  /metrics         Prometheus exposition

POST bodies are decoded with goccy/go-json and checked with
go-playground/validator through the validation package. Enum fields accept
either a bare string or a {"value": ...} object, and times accept RFC 3339
or epoch milliseconds.

When a JWT secret is configured every /report request needs a bearer
token, and a token that lists database contexts may only submit reports
for those contexts.

Usage:

	h := api.NewHandler(svc, version)
	router := api.NewRouter(h, auth.NewMiddleware(jwtManager),
		api.NewChiMiddlewareFromConfig(&cfg.Security))
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.Setup()}
*/
package api
