// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

/*
Package api exposes the traffic event core over HTTP and WebSocket using the
Chi router.

The package is a thin adapter: every handler delegates to a TrafficService
and maps its results onto the standard JSON envelope. Validation failures
become 400 VALIDATION_ERROR with field details.

Endpoints:

	POST /api/v1/traffic              ingest one observation (202)
	GET  /api/v1/traffic              all cached snapshots
	GET  /api/v1/traffic/nearby       snapshots within ?radius km of ?lat,?lon
	GET  /api/v1/traffic/{location}   one location, by name or location id
	GET  /api/v1/alerts               active alerts
	GET  /api/v1/analytics            current analytics summary
	POST /api/v1/signals/optimize     signal timing plan
	GET  /api/v1/stats                performance counters
	GET  /api/v1/tasks                periodic task status
	POST /api/v1/tasks/{name}/pause   pause one periodic task
	POST /api/v1/tasks/{name}/resume  resume it
	GET  /ws?topic=...                live subscription
	GET  /metrics                     Prometheus scrape endpoint
	GET  /health                      liveness

Response envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "...", "request_id": "..."}
	}

Middleware Stack:

Global: request ID, real IP, panic recovery, CORS. The /api/v1 group adds
security headers, Prometheus metrics, gzip and per-IP rate limits from
go-chi/httprate. Ingestion has its own, more permissive limit.
*/
package api
