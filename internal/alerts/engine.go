// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package alerts evaluates detector rules against snapshots and keeps the
// registry of active alerts.
//
// Alerts leave the registry only by TTL expiry. A fixed TTL is kept even
// when the underlying condition clears; an alert panel relies on alerts
// staying visible for the full hour.
package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/metrics"
	"github.com/tomtom215/trafficpulse/internal/models"
)

// DefaultTTL is how long an alert stays active.
const DefaultTTL = time.Hour

// AlertPublisher receives every newly generated alert.
type AlertPublisher interface {
	PublishAlert(alert models.Alert)
}

// EngineMetrics tracks engine activity.
type EngineMetrics struct {
	SnapshotsEvaluated int64
	AlertsGenerated    int64
	AlertsSuppressed   int64
	AlertsExpired      int64
	LastEvaluatedAt    time.Time
}

// Engine runs detectors and owns the active alert registry.
type Engine struct {
	clock     clockwork.Clock
	ttl       time.Duration
	publisher AlertPublisher

	detMu     sync.RWMutex
	detectors []Detector

	// mu guards the registry and the counters.
	mu      sync.RWMutex
	active  []models.Alert
	metrics EngineMetrics
}

// NewEngine creates an engine without detectors. A nil publisher disables
// broadcasting; a non-positive ttl selects DefaultTTL.
func NewEngine(clock clockwork.Clock, ttl time.Duration, publisher AlertPublisher) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Engine{
		clock:     clock,
		ttl:       ttl,
		publisher: publisher,
	}
}

// NewDefaultEngine creates an engine with the HIGH_TRAFFIC and LOW_SPEED detectors.
func NewDefaultEngine(clock clockwork.Clock, ttl time.Duration, lowSpeed float64, publisher AlertPublisher) *Engine {
	e := NewEngine(clock, ttl, publisher)
	e.RegisterDetector(NewHighTrafficDetector())
	e.RegisterDetector(NewLowSpeedDetector(lowSpeed))
	return e
}

// RegisterDetector adds a detector, replacing any detector of the same type.
// Detectors run in registration order.
func (e *Engine) RegisterDetector(d Detector) {
	e.detMu.Lock()
	defer e.detMu.Unlock()

	for i, existing := range e.detectors {
		if existing.Type() == d.Type() {
			e.detectors[i] = d
			return
		}
	}
	e.detectors = append(e.detectors, d)
	logging.Debug().Str("detector", string(d.Type())).Msg("registered detector")
}

// GetDetector returns the detector for an alert type.
func (e *Engine) GetDetector(t models.AlertType) (Detector, bool) {
	e.detMu.RLock()
	defer e.detMu.RUnlock()
	for _, d := range e.detectors {
		if d.Type() == t {
			return d, true
		}
	}
	return nil, false
}

func (e *Engine) enabledDetectors() []Detector {
	e.detMu.RLock()
	defer e.detMu.RUnlock()

	out := make([]Detector, 0, len(e.detectors))
	for _, d := range e.detectors {
		if d.Enabled() {
			out = append(out, d)
		}
	}
	return out
}

// Evaluate runs every enabled detector against s and returns the alerts that
// were newly registered. A candidate is suppressed while a live alert of the
// same type and location exists. Suppression and registration happen under
// one lock so concurrent snapshots for a location cannot both register.
func (e *Engine) Evaluate(s models.TrafficSnapshot) []models.Alert {
	detectors := e.enabledDetectors()
	now := e.clock.Now()

	var created []models.Alert

	e.mu.Lock()
	e.metrics.SnapshotsEvaluated++
	e.metrics.LastEvaluatedAt = now
	for _, d := range detectors {
		candidate := d.Check(s, now)
		if candidate == nil {
			continue
		}
		if e.liveDuplicateLocked(candidate.Type, candidate.Location, now) {
			e.metrics.AlertsSuppressed++
			metrics.RecordAlertSuppressed(string(candidate.Type))
			continue
		}
		candidate.ID = uuid.NewString()
		e.active = append(e.active, *candidate)
		e.metrics.AlertsGenerated++
		created = append(created, *candidate)
	}
	e.mu.Unlock()

	for _, a := range created {
		metrics.RecordAlert(string(a.Type), string(a.Severity))
		logging.Info().
			Str("alert_id", a.ID).
			Str("type", string(a.Type)).
			Str("severity", string(a.Severity)).
			Str("location", a.Location).
			Msg("alert generated")
		if e.publisher != nil {
			e.publisher.PublishAlert(a)
		}
	}

	return created
}

func (e *Engine) liveDuplicateLocked(t models.AlertType, location string, now time.Time) bool {
	for i := range e.active {
		a := &e.active[i]
		if a.Type == t && a.Location == location && !a.ExpiredAt(now, e.ttl) {
			return true
		}
	}
	return false
}

// ActiveAlerts returns a copy of the live alerts in insertion order.
// Alerts past their TTL are excluded even if no sweep has run yet.
func (e *Engine) ActiveAlerts() []models.Alert {
	now := e.clock.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.Alert, 0, len(e.active))
	for i := range e.active {
		if !e.active[i].ExpiredAt(now, e.ttl) {
			out = append(out, e.active[i])
		}
	}
	return out
}

// ActiveCount returns the number of live alerts.
func (e *Engine) ActiveCount() int {
	return len(e.ActiveAlerts())
}

// Sweep removes alerts older than ttl and returns how many were removed.
// A non-positive ttl uses the engine TTL.
func (e *Engine) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		ttl = e.ttl
	}
	now := e.clock.Now()

	e.mu.Lock()
	kept := e.active[:0]
	for _, a := range e.active {
		if !a.ExpiredAt(now, ttl) {
			kept = append(kept, a)
		}
	}
	removed := len(e.active) - len(kept)
	// Clear the tail so dropped alerts can be collected.
	for i := len(kept); i < len(e.active); i++ {
		e.active[i] = models.Alert{}
	}
	e.active = kept
	e.metrics.AlertsExpired += int64(removed)
	remaining := len(kept)
	e.mu.Unlock()

	metrics.RecordAlertSweep(removed, remaining)
	if removed > 0 {
		logging.Debug().Int("removed", removed).Int("remaining", remaining).Msg("swept expired alerts")
	}
	return removed
}

// Metrics returns a copy of the engine counters.
func (e *Engine) Metrics() EngineMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metrics
}
