// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.SnapshotMaxAge != 30*time.Minute {
		t.Errorf("Cache.SnapshotMaxAge = %v, want 30m", cfg.Cache.SnapshotMaxAge)
	}
	if cfg.Alerts.TTL != time.Hour {
		t.Errorf("Alerts.TTL = %v, want 1h", cfg.Alerts.TTL)
	}
	if cfg.Alerts.LowSpeedThreshold != 15.0 {
		t.Errorf("Alerts.LowSpeedThreshold = %v, want 15", cfg.Alerts.LowSpeedThreshold)
	}
	if cfg.Broadcast.QueueSize != 64 {
		t.Errorf("Broadcast.QueueSize = %d, want 64", cfg.Broadcast.QueueSize)
	}
	if cfg.Pipeline.QueueSize != 1024 {
		t.Errorf("Pipeline.QueueSize = %d, want 1024", cfg.Pipeline.QueueSize)
	}
	if cfg.Scheduler.SimulationInterval != 10*time.Second || cfg.Scheduler.SimulationBatch != 3 {
		t.Errorf("simulation schedule = %v x %d", cfg.Scheduler.SimulationInterval, cfg.Scheduler.SimulationBatch)
	}
	if cfg.Scheduler.CleanupInterval != 5*time.Minute {
		t.Errorf("Scheduler.CleanupInterval = %v, want 5m", cfg.Scheduler.CleanupInterval)
	}
	if cfg.Scheduler.AnalyticsInterval != 30*time.Second {
		t.Errorf("Scheduler.AnalyticsInterval = %v, want 30s", cfg.Scheduler.AnalyticsInterval)
	}
	if cfg.Simulation.Enabled {
		t.Error("Simulation.Enabled should be false by default")
	}
	if cfg.Export.Enabled {
		t.Error("Export.Enabled should be false by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALERT_TTL", "30m")
	t.Setenv("ALERT_LOW_SPEED", "12.5")
	t.Setenv("ALERT_DISABLED", "LOW_SPEED, HIGH_TRAFFIC")
	t.Setenv("SIMULATION_ENABLED", "true")
	t.Setenv("SIMULATION_SEED", "42")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Alerts.TTL != 30*time.Minute {
		t.Errorf("Alerts.TTL = %v, want 30m", cfg.Alerts.TTL)
	}
	if cfg.Alerts.LowSpeedThreshold != 12.5 {
		t.Errorf("Alerts.LowSpeedThreshold = %v, want 12.5", cfg.Alerts.LowSpeedThreshold)
	}
	if got := strings.Join(cfg.Alerts.Disabled, "|"); got != "LOW_SPEED|HIGH_TRAFFIC" {
		t.Errorf("Alerts.Disabled = %v, want [LOW_SPEED HIGH_TRAFFIC]", cfg.Alerts.Disabled)
	}
	if !cfg.Simulation.Enabled || cfg.Simulation.Seed != 42 {
		t.Errorf("Simulation = %+v", cfg.Simulation)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	// Untouched values keep their defaults.
	if cfg.Pipeline.QueueSize != 1024 {
		t.Errorf("Pipeline.QueueSize = %d, want 1024", cfg.Pipeline.QueueSize)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
broadcast:
  queue_size: 16
scheduler:
  cleanup_interval: 1m
export:
  enabled: true
  url: https://analytics.example.com/ingest
security:
  cors_origins:
    - https://dashboard.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 7001 {
		t.Errorf("env should override file: Server.Port = %d, want 7001", cfg.Server.Port)
	}
	if cfg.Broadcast.QueueSize != 16 {
		t.Errorf("Broadcast.QueueSize = %d, want 16", cfg.Broadcast.QueueSize)
	}
	if cfg.Scheduler.CleanupInterval != time.Minute {
		t.Errorf("Scheduler.CleanupInterval = %v, want 1m", cfg.Scheduler.CleanupInterval)
	}
	if !cfg.Export.Enabled || cfg.Export.URL != "https://analytics.example.com/ingest" {
		t.Errorf("Export = %+v", cfg.Export)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "https://dashboard.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanf_InvalidEnv(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "70000")

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("expected validation error for out-of-range port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"zero ttl", func(c *Config) { c.Alerts.TTL = 0 }, "ALERT_TTL"},
		{"unknown disabled detector", func(c *Config) { c.Alerts.Disabled = []string{"ACCIDENT"} }, "ALERT_DISABLED"},
		{"disabled low speed", func(c *Config) { c.Alerts.Disabled = []string{"LOW_SPEED"} }, ""},
		{"zero broadcast queue", func(c *Config) { c.Broadcast.QueueSize = 0 }, "BROADCAST_QUEUE_SIZE"},
		{"zero pipeline queue", func(c *Config) { c.Pipeline.QueueSize = 0 }, "PIPELINE_QUEUE_SIZE"},
		{"sub-second interval", func(c *Config) { c.Scheduler.CleanupInterval = time.Millisecond }, "CLEANUP_INTERVAL"},
		{"zero batch", func(c *Config) { c.Scheduler.SimulationBatch = 0 }, "SIMULATION_BATCH"},
		{"rate limit too high", func(c *Config) { c.Security.RateLimitReqs = 1_000_000 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"export without url", func(c *Config) { c.Export.Enabled = true }, "EXPORT_URL"},
		{"export bad scheme", func(c *Config) {
			c.Export.Enabled = true
			c.Export.URL = "ftp://example.com"
		}, "scheme"},
		{"export with path", func(c *Config) {
			c.Export.Enabled = true
			c.Export.URL = "https://example.com/hooks/traffic"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"HTTP_PORT":          "server.port",
		"LOG_LEVEL":          "logging.level",
		"SIMULATION_ENABLED": "simulation.enabled",
		"PATH":               "",
		"HOME":               "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if s.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", s.Addr())
	}
}

func TestHasWildcardCORS(t *testing.T) {
	cfg := defaultConfig()
	if !cfg.HasWildcardCORS() {
		t.Error("default CORS should be wildcard")
	}
	cfg.Security.CORSOrigins = []string{"https://a.example.com"}
	if cfg.HasWildcardCORS() {
		t.Error("explicit origins should not be wildcard")
	}
}
