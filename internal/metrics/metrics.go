// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package metrics holds the Prometheus instrumentation of the traffic core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics cover:
// - Ingestion and pipeline throughput
// - Alert generation and suppression
// - Broadcaster fan-out and drop-oldest overflow
// - Scheduled task runs
// - API latency and WebSocket connections
// - Circuit breaker state of the analytics exporter

var (
	// Ingestion / Pipeline Metrics
	SnapshotsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficpulse_snapshots_ingested_total",
			Help: "Total number of traffic snapshots accepted into the cache",
		},
		[]string{"density"},
	)

	SnapshotsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trafficpulse_snapshots_evicted_total",
			Help: "Total number of stale snapshots evicted from the cache",
		},
	)

	CachedLocations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trafficpulse_cached_locations",
			Help: "Current number of locations held in the snapshot cache",
		},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trafficpulse_pipeline_duration_seconds",
			Help:    "Duration of one alert/analytics/broadcast pipeline run",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	PipelineDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trafficpulse_pipeline_dropped_total",
			Help: "Total number of pipeline runs dropped because the work queue was full",
		},
	)

	PipelineQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trafficpulse_pipeline_queue_depth",
			Help: "Current number of snapshots waiting for the pipeline worker",
		},
	)

	// Alert Metrics
	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficpulse_alerts_generated_total",
			Help: "Total number of alerts generated",
		},
		[]string{"type", "severity"},
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficpulse_alerts_suppressed_total",
			Help: "Total number of alerts suppressed by an active alert of the same type and location",
		},
		[]string{"type"},
	)

	AlertsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trafficpulse_alerts_expired_total",
			Help: "Total number of alerts removed by TTL sweep",
		},
	)

	ActiveAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trafficpulse_active_alerts",
			Help: "Current number of alerts in the active registry",
		},
	)

	// Broadcaster Metrics
	BroadcastPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficpulse_broadcast_published_total",
			Help: "Total number of envelopes published per topic",
		},
		[]string{"topic"},
	)

	BroadcastDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficpulse_broadcast_enqueued_total",
			Help: "Total number of envelopes enqueued to subscribers per topic",
		},
		[]string{"topic"},
	)

	BroadcastDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficpulse_broadcast_dropped_total",
			Help: "Total number of queued envelopes dropped (oldest first) for slow subscribers",
		},
		[]string{"topic"},
	)

	Subscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trafficpulse_subscribers",
			Help: "Current number of subscribers per topic",
		},
		[]string{"topic"},
	)

	// Scheduler Metrics
	TaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficpulse_task_runs_total",
			Help: "Total number of scheduled task runs",
		},
		[]string{"task", "status"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trafficpulse_task_duration_seconds",
			Help:    "Duration of scheduled task runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)

	// Signal Optimizer Metrics
	SignalOptimizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficpulse_signal_optimizations_total",
			Help: "Total number of signal timing plans produced per strategy",
		},
		[]string{"strategy"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordIngest records an accepted snapshot.
func RecordIngest(density string, cached int) {
	SnapshotsIngested.WithLabelValues(density).Inc()
	CachedLocations.Set(float64(cached))
}

// RecordEviction records a stale-snapshot sweep.
func RecordEviction(removed, remaining int) {
	SnapshotsEvicted.Add(float64(removed))
	CachedLocations.Set(float64(remaining))
}

// RecordPipelineRun records one pipeline run.
func RecordPipelineRun(duration time.Duration) {
	PipelineDuration.Observe(duration.Seconds())
}

// RecordAlert records a generated alert.
func RecordAlert(alertType, severity string) {
	AlertsGenerated.WithLabelValues(alertType, severity).Inc()
}

// RecordAlertSuppressed records an alert suppressed as a duplicate.
func RecordAlertSuppressed(alertType string) {
	AlertsSuppressed.WithLabelValues(alertType).Inc()
}

// RecordAlertSweep records a TTL sweep of the active alert registry.
func RecordAlertSweep(removed, remaining int) {
	AlertsExpired.Add(float64(removed))
	ActiveAlerts.Set(float64(remaining))
}

// RecordPublish records one publish and how many subscribers received it.
func RecordPublish(topic string, enqueued int) {
	BroadcastPublished.WithLabelValues(topic).Inc()
	BroadcastDelivered.WithLabelValues(topic).Add(float64(enqueued))
}

// RecordTaskRun records a scheduled task run.
func RecordTaskRun(task string, duration time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	TaskRuns.WithLabelValues(task, status).Inc()
	TaskDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
