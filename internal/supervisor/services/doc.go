// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

/*
Package services adapts long-running trafficpulse components to
suture.Service so they can be placed in the supervisor tree.

  - HTTPServerService runs an *http.Server and shuts it down gracefully.
  - RunnerService runs anything with RunWithContext(ctx) error, such as the
    websocket hub and the ingestion pipeline worker.

Periodic tasks (simulation, cleanup, analytics) already implement
suture.Service themselves; see internal/scheduler.
*/
package services
