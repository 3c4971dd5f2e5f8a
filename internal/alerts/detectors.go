// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/trafficpulse/internal/models"
)

// DefaultLowSpeedThreshold is the speed (km/h) below which LOW_SPEED fires.
const DefaultLowSpeedThreshold = 15.0

// Detector evaluates a single rule against a snapshot.
// Check returns nil when the rule does not fire. The returned alert has no
// ID yet; the engine assigns one once the alert survives suppression.
type Detector interface {
	Type() models.AlertType
	Check(snapshot models.TrafficSnapshot, now time.Time) *models.Alert
	Enabled() bool
	SetEnabled(enabled bool)
}

// toggle is the enable switch shared by the built-in detectors.
type toggle struct {
	mu      sync.RWMutex
	enabled bool
}

func (t *toggle) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func (t *toggle) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func newAlert(t models.AlertType, sev models.Severity, s *models.TrafficSnapshot, msg string, now time.Time) *models.Alert {
	return &models.Alert{
		Type:      t,
		Severity:  sev,
		Location:  s.Location,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Message:   msg,
		Timestamp: now,
		Active:    true,
	}
}

// HighTrafficDetector fires on HIGH or CRITICAL density.
type HighTrafficDetector struct {
	toggle
}

// NewHighTrafficDetector creates an enabled high-traffic detector.
func NewHighTrafficDetector() *HighTrafficDetector {
	return &HighTrafficDetector{toggle: toggle{enabled: true}}
}

// Type returns the alert type.
func (d *HighTrafficDetector) Type() models.AlertType {
	return models.AlertHighTraffic
}

// Check maps HIGH to WARNING and CRITICAL to CRITICAL.
func (d *HighTrafficDetector) Check(s models.TrafficSnapshot, now time.Time) *models.Alert {
	var sev models.Severity
	switch s.Density {
	case models.DensityHigh:
		sev = models.SeverityWarning
	case models.DensityCritical:
		sev = models.SeverityCritical
	default:
		return nil
	}
	return newAlert(models.AlertHighTraffic, sev, &s,
		fmt.Sprintf("High traffic density detected at %s", s.Location), now)
}

// LowSpeedDetector fires when a reported speed is below its threshold.
// Snapshots without a speed never fire.
type LowSpeedDetector struct {
	toggle
	threshold float64
}

// NewLowSpeedDetector creates an enabled detector. A non-positive threshold
// selects DefaultLowSpeedThreshold.
func NewLowSpeedDetector(threshold float64) *LowSpeedDetector {
	if threshold <= 0 {
		threshold = DefaultLowSpeedThreshold
	}
	return &LowSpeedDetector{toggle: toggle{enabled: true}, threshold: threshold}
}

// Type returns the alert type.
func (d *LowSpeedDetector) Type() models.AlertType {
	return models.AlertLowSpeed
}

// Threshold returns the configured speed threshold in km/h.
func (d *LowSpeedDetector) Threshold() float64 {
	return d.threshold
}

// Check fires with CRITICAL severity.
func (d *LowSpeedDetector) Check(s models.TrafficSnapshot, now time.Time) *models.Alert {
	if !s.HasSpeed() || *s.AverageSpeed >= d.threshold {
		return nil
	}
	return newAlert(models.AlertLowSpeed, models.SeverityCritical, &s,
		fmt.Sprintf("Very low average speed (%.1f km/h) at %s", *s.AverageSpeed, s.Location), now)
}
