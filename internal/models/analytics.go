// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package models

import "time"

// AnalyticsSummary is the city-wide view recomputed from the snapshot cache
// and the active alert registry. It is never patched incrementally.
type AnalyticsSummary struct {
	TotalLocations       int       `json:"totalLocations"`
	HighTrafficLocations int       `json:"highTrafficLocations"`
	AverageSpeed         float64   `json:"averageSpeed"`
	TotalVehicles        int       `json:"totalVehicles"`
	ActiveAlerts         int       `json:"activeAlerts"`
	LastUpdate           time.Time `json:"lastUpdate"`
}

// CoreStats are the running counters of the event core.
type CoreStats struct {
	TrafficProcessed  int64 `json:"trafficProcessed"`
	AlertsGenerated   int64 `json:"alertsGenerated"`
	AlertsSuppressed  int64 `json:"alertsSuppressed"`
	PipelineDropped   int64 `json:"pipelineDropped"`
	ActiveSubscribers int   `json:"activeSubscribers"`
	EventsDropped     int64 `json:"eventsDropped"`
	EventsPublished   int64 `json:"eventsPublished"`
	CachedLocations   int   `json:"cachedLocations"`
}
