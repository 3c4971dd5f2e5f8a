// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trafficpulse/config.yaml",
	"/etc/trafficpulse/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Cache: CacheConfig{
			SnapshotMaxAge: 30 * time.Minute,
			SpatialCellKm:  1.0,
		},
		Alerts: AlertsConfig{
			TTL:               time.Hour,
			LowSpeedThreshold: 15.0,
		},
		Broadcast: BroadcastConfig{
			QueueSize: 64,
		},
		Pipeline: PipelineConfig{
			QueueSize: 1024,
		},
		Scheduler: SchedulerConfig{
			SimulationInterval: 10 * time.Second,
			SimulationBatch:    3,
			CleanupInterval:    5 * time.Minute,
			AnalyticsInterval:  30 * time.Second,
		},
		Simulation: SimulationConfig{
			Enabled:   false, // opt-in, intended for demos
			Seed:      0,
			CenterLat: 40.7128,
			CenterLon: -74.0060,
		},
		Signal: SignalConfig{
			Seed: 0,
		},
		WebSocket: WebSocketConfig{
			InboundRate:  5,
			InboundBurst: 10,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Export: ExportConfig{
			Enabled: false,
			URL:     "",
			Timeout: 10 * time.Second,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"alerts.disabled",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings; YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Core
	"snapshot_max_age":         "cache.snapshot_max_age",
	"spatial_cell_km":          "cache.spatial_cell_km",
	"alert_ttl":                "alerts.ttl",
	"alert_low_speed":          "alerts.low_speed_threshold",
	"alert_disabled":           "alerts.disabled",
	"broadcast_queue_size":     "broadcast.queue_size",
	"pipeline_queue_size":      "pipeline.queue_size",
	"websocket_inbound_rate":   "websocket.inbound_rate",
	"websocket_inbound_burst":  "websocket.inbound_burst",
	"signal_seed":              "signal.seed",
	"simulation_enabled":       "simulation.enabled",
	"simulation_seed":          "simulation.seed",
	"simulation_center_lat":    "simulation.center_lat",
	"simulation_center_lon":    "simulation.center_lon",
	"simulation_interval":      "scheduler.simulation_interval",
	"simulation_batch":         "scheduler.simulation_batch",
	"cleanup_interval":         "scheduler.cleanup_interval",
	"analytics_interval":       "scheduler.analytics_interval",
	"supervisor_failure_limit": "supervisor.failure_threshold",
	"supervisor_failure_decay": "supervisor.failure_decay",
	"supervisor_backoff":       "supervisor.failure_backoff",
	"supervisor_shutdown":      "supervisor.shutdown_timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Export
	"export_enabled": "export.enabled",
	"export_url":     "export.url",
	"export_timeout": "export.timeout",
}

// envTransformFunc maps an environment variable to its koanf path.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
