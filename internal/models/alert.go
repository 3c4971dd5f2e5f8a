// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package models

import "time"

// AlertType identifies the condition an alert reports.
type AlertType string

const (
	AlertHighTraffic       AlertType = "HIGH_TRAFFIC"
	AlertLowSpeed          AlertType = "LOW_SPEED"
	AlertAccident          AlertType = "ACCIDENT"
	AlertRoadClosure       AlertType = "ROAD_CLOSURE"
	AlertWeatherImpact     AlertType = "WEATHER_IMPACT"
	AlertSignalMalfunction AlertType = "SIGNAL_MALFUNCTION"
)

// Severity indicates how urgent an alert is.
type Severity string

const (
	SeverityInfo      Severity = "INFO"
	SeverityWarning   Severity = "WARNING"
	SeverityCritical  Severity = "CRITICAL"
	SeverityEmergency Severity = "EMERGENCY"
)

// Alert is a threshold crossing detected on a snapshot.
// Alerts are never mutated after creation; they leave the active registry
// only by TTL expiry.
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Location  string    `json:"location"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Active    bool      `json:"active"`
}

// ExpiredAt reports whether the alert is older than ttl at now.
func (a *Alert) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return a.Timestamp.Before(now.Add(-ttl))
}
