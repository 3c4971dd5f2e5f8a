// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Cache      CacheConfig      `koanf:"cache"`
	Alerts     AlertsConfig     `koanf:"alerts"`
	Broadcast  BroadcastConfig  `koanf:"broadcast"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Simulation SimulationConfig `koanf:"simulation"`
	Signal     SignalConfig     `koanf:"signal"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	Security   SecurityConfig   `koanf:"security"`
	Export     ExportConfig     `koanf:"export"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// CacheConfig controls the snapshot cache.
type CacheConfig struct {
	// SnapshotMaxAge is how long a location may go without an update before
	// it is evicted.
	SnapshotMaxAge time.Duration `koanf:"snapshot_max_age"`
	// SpatialCellKm is the spatial index cell size used by nearby queries.
	SpatialCellKm float64 `koanf:"spatial_cell_km"`
}

// AlertsConfig controls the alert engine.
type AlertsConfig struct {
	TTL               time.Duration `koanf:"ttl"`
	LowSpeedThreshold float64       `koanf:"low_speed_threshold"`
	// Disabled lists detector types that start switched off, for example
	// LOW_SPEED on a network without speed sensors.
	Disabled []string `koanf:"disabled"`
}

// BroadcastConfig controls subscriber queues.
type BroadcastConfig struct {
	QueueSize int `koanf:"queue_size"`
}

// PipelineConfig controls the ingestion pipeline worker.
type PipelineConfig struct {
	QueueSize int `koanf:"queue_size"`
}

// SchedulerConfig holds the periodic task intervals.
type SchedulerConfig struct {
	SimulationInterval time.Duration `koanf:"simulation_interval"`
	SimulationBatch    int           `koanf:"simulation_batch"`
	CleanupInterval    time.Duration `koanf:"cleanup_interval"`
	AnalyticsInterval  time.Duration `koanf:"analytics_interval"`
}

// SimulationConfig controls synthetic ingestion.
type SimulationConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Seed      int64   `koanf:"seed"`
	CenterLat float64 `koanf:"center_lat"`
	CenterLon float64 `koanf:"center_lon"`
}

// SignalConfig controls the signal optimizer. A zero seed is time-based.
type SignalConfig struct {
	Seed int64 `koanf:"seed"`
}

// WebSocketConfig bounds inbound client traffic.
type WebSocketConfig struct {
	InboundRate  float64 `koanf:"inbound_rate"`
	InboundBurst int     `koanf:"inbound_burst"`
}

// SecurityConfig holds CORS and rate limiting settings
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// ExportConfig configures the external analytics webhook.
type ExportConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// SupervisorConfig tunes the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load loads configuration from defaults, an optional config file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
