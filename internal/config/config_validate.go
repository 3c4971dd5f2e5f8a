// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/trafficpulse/internal/logging"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateCore,
		c.validateScheduler,
		c.validateRateLimits,
		c.validateExport,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

func (c *Config) validateCore() error {
	if c.Cache.SnapshotMaxAge <= 0 {
		return fmt.Errorf("SNAPSHOT_MAX_AGE must be positive")
	}
	if c.Cache.SpatialCellKm <= 0 {
		return fmt.Errorf("SPATIAL_CELL_KM must be positive")
	}
	if c.Alerts.TTL <= 0 {
		return fmt.Errorf("ALERT_TTL must be positive")
	}
	if c.Alerts.LowSpeedThreshold < 0 {
		return fmt.Errorf("ALERT_LOW_SPEED must not be negative")
	}
	for _, t := range c.Alerts.Disabled {
		if t != "HIGH_TRAFFIC" && t != "LOW_SPEED" {
			return fmt.Errorf("ALERT_DISABLED: unknown detector %q (want HIGH_TRAFFIC or LOW_SPEED)", t)
		}
	}
	if c.Broadcast.QueueSize < 1 {
		return fmt.Errorf("BROADCAST_QUEUE_SIZE must be at least 1")
	}
	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("PIPELINE_QUEUE_SIZE must be at least 1")
	}
	if c.WebSocket.InboundRate <= 0 || c.WebSocket.InboundBurst < 1 {
		return fmt.Errorf("WEBSOCKET_INBOUND_RATE must be positive and WEBSOCKET_INBOUND_BURST at least 1")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	intervals := map[string]time.Duration{
		"SIMULATION_INTERVAL": c.Scheduler.SimulationInterval,
		"CLEANUP_INTERVAL":    c.Scheduler.CleanupInterval,
		"ANALYTICS_INTERVAL":  c.Scheduler.AnalyticsInterval,
	}
	for name, d := range intervals {
		if d < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %s", name, d)
		}
	}
	if c.Scheduler.SimulationBatch < 1 {
		return fmt.Errorf("SIMULATION_BATCH must be at least 1")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateExport() error {
	if !c.Export.Enabled {
		return nil
	}
	if c.Export.URL == "" {
		return fmt.Errorf("EXPORT_URL is required when EXPORT_ENABLED=true")
	}
	if err := validateHTTPURL(c.Export.URL, "EXPORT_URL"); err != nil {
		return err
	}
	if c.Export.Timeout <= 0 {
		return fmt.Errorf("EXPORT_TIMEOUT must be positive")
	}
	return nil
}

// HasWildcardCORS reports whether any origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validateHTTPURL validates scheme and host of an HTTP/HTTPS endpoint.
// Paths are allowed since webhook receivers usually live below the root.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}
