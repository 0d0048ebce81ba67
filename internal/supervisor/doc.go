// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

/*
Package supervisor runs the long-lived services under a suture v4 tree.

	RootSupervisor ("citadel-reports")
	├── WorkSupervisor ("work-layer")
	│   └── report-runner
	└── APISupervisor ("api-layer")
	    └── http-server

The runner returns from Serve when a job hits a fatal error (a tenant
store that cannot be resolved). suture logs the failure and restarts the
runner with backoff; queued jobs stay in the runner's channel and the HTTP
layer keeps answering polls.

Supervisor events are logged through sutureslog, which takes an
*slog.Logger. The logging package provides one backed by zerolog:

	tree, err := supervisor.NewSupervisorTree(
		logging.NewSlogLoggerForComponent("supervisor"),
		supervisor.DefaultTreeConfig(),
	)
	tree.AddWorkService(runner)
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
