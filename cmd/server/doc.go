// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

/*
Package main is the entry point for the Trafficpulse server.

Trafficpulse ingests traffic observations for named locations, keeps the
latest snapshot per location in memory, raises alerts for congestion and low
speed, maintains a city-wide analytics summary and fans every change out to
websocket subscribers.

# Application Architecture

	RootSupervisor ("trafficpulse")
	├── CoreSupervisor ("core-layer")
	│   ├── traffic-pipeline      alerts, analytics, broadcast per snapshot
	│   ├── traffic-simulation    optional synthetic ingestion
	│   ├── cleanup               stale snapshot and alert eviction
	│   └── analytics-broadcast   periodic summary + optional webhook export
	├── MessagingSupervisor ("messaging-layer")
	│   └── websocket-hub
	└── APISupervisor ("api-layer")
	    └── http-server           chi router, /api/v1, /ws, /health, /metrics

Initialization order:

 1. Configuration: Koanf v2 (defaults, optional YAML file, environment)
 2. Logging: zerolog, JSON or console
 3. Core: broadcaster, alert engine, snapshot cache, aggregator, optimizer
 4. Traffic service and periodic tasks
 5. WebSocket hub and HTTP router
 6. Supervisor tree, then block until SIGINT or SIGTERM

# Configuration

	HTTP_PORT=8080               # listen port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	ALERT_TTL=1h                 # alert lifetime
	ALERT_LOW_SPEED=15           # LOW_SPEED threshold (mph)
	SNAPSHOT_MAX_AGE=30m         # stale location eviction
	SIMULATION_ENABLED=false     # synthetic traffic for demos
	CORS_ORIGINS=*               # comma separated; also gates /ws
	EXPORT_ENABLED=false         # POST analytics to EXPORT_URL

A YAML file is read from CONFIG_PATH, ./config.yaml or
/etc/trafficpulse/config.yaml when present. Environment variables win.

# Shutdown

On signal the root context is canceled. The HTTP server drains within
HTTP_SHUTDOWN_TIMEOUT, the hub closes every websocket client, the pipeline
worker and periodic tasks stop, and finally the broadcaster ends any
remaining subscriptions.
*/
package main
