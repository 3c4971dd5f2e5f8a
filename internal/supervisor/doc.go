// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

/*
Package supervisor provides process supervision using suture v4.

# Overview

Every long-running goroutine in the process runs as a suture.Service inside
a three-layer tree:

	RootSupervisor ("trafficpulse")
	├── CoreSupervisor ("core-layer")
	│   ├── PipelineService (traffic.Service worker)
	│   ├── simulation task (if SIMULATION_ENABLED)
	│   ├── cleanup task
	│   └── analytics task
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's decaying failure counter and
backoff. Supervisor events are logged through sutureslog into the zerolog
backed slog.Logger from the logging package.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddCoreService(services.NewPipelineService(svc))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)

# Configuration

	FailureThreshold: 5.0               failures before backoff
	FailureDecay:     30.0              seconds for failures to decay
	FailureBackoff:   15 * time.Second  backoff duration
	ShutdownTimeout:  10 * time.Second  per-service shutdown timeout
*/
package supervisor
