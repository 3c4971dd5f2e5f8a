// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package models

import "time"

// EnvelopeType identifies the payload carried by an Envelope.
type EnvelopeType string

const (
	EnvelopeTrafficSnapshot EnvelopeType = "TRAFFIC_SNAPSHOT"
	EnvelopeTrafficUpdate   EnvelopeType = "TRAFFIC_UPDATE"
	EnvelopeAlert           EnvelopeType = "ALERT"
	EnvelopeAnalyticsUpdate EnvelopeType = "ANALYTICS_UPDATE"
	EnvelopeAlertsSnapshot  EnvelopeType = "ALERTS_SNAPSHOT"
	EnvelopeLocationTraffic EnvelopeType = "LOCATION_TRAFFIC"
)

// Envelope is the message delivered to subscribers.
// Timestamp is unix milliseconds.
type Envelope struct {
	Type      EnvelopeType `json:"type"`
	Timestamp int64        `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// NewEnvelope stamps a payload with its type and the given time.
func NewEnvelope(t EnvelopeType, at time.Time, payload interface{}) Envelope {
	return Envelope{Type: t, Timestamp: at.UnixMilli(), Payload: payload}
}

// TrafficSnapshotPayload is the full-state dump sent to new traffic subscribers.
type TrafficSnapshotPayload struct {
	Locations      []TrafficSnapshot `json:"locations"`
	TotalLocations int               `json:"totalLocations"`
}

// AlertsSnapshotPayload is the full-state dump sent to new alert subscribers.
type AlertsSnapshotPayload struct {
	Alerts      []Alert `json:"alerts"`
	TotalAlerts int     `json:"totalAlerts"`
}

// LocationTrafficPayload is the dump sent to a location-topic subscriber.
// Data is nil when no cached location matches.
type LocationTrafficPayload struct {
	LocationID string           `json:"locationId"`
	Data       *TrafficSnapshot `json:"data"`
}
