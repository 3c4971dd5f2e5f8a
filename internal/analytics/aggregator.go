// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package analytics computes the city-wide traffic summary.
//
// The summary is always recomputed from the full snapshot list rather than
// patched with running sums, so it is never more than one ingestion behind
// and carries no floating-point drift.
package analytics

import (
	"math"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/models"
)

// Recompute builds a summary from snapshots and the active alert count.
// Missing speeds and vehicle counts are ignored.
func Recompute(snapshots []models.TrafficSnapshot, activeAlerts int, clock clockwork.Clock) models.AnalyticsSummary {
	summary := models.AnalyticsSummary{
		TotalLocations: len(snapshots),
		ActiveAlerts:   activeAlerts,
		LastUpdate:     clock.Now(),
	}

	var speedSum float64
	var speedN int
	for i := range snapshots {
		s := &snapshots[i]
		if s.Density.IsHighTraffic() {
			summary.HighTrafficLocations++
		}
		if s.AverageSpeed != nil {
			speedSum += *s.AverageSpeed
			speedN++
		}
		if s.VehicleCount != nil {
			summary.TotalVehicles += *s.VehicleCount
		}
	}
	if speedN > 0 {
		summary.AverageSpeed = round1(speedSum / float64(speedN))
	}

	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Aggregator holds the most recent summary.
type Aggregator struct {
	clock clockwork.Clock

	mu      sync.RWMutex
	current models.AnalyticsSummary
}

// NewAggregator creates an aggregator whose initial summary is empty.
func NewAggregator(clock clockwork.Clock) *Aggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Aggregator{
		clock:   clock,
		current: models.AnalyticsSummary{LastUpdate: clock.Now()},
	}
}

// Update recomputes the summary, stores it and returns it.
func (a *Aggregator) Update(snapshots []models.TrafficSnapshot, activeAlerts int) models.AnalyticsSummary {
	summary := Recompute(snapshots, activeAlerts, a.clock)

	a.mu.Lock()
	// Concurrent pipeline runs may finish out of order; keep the newest.
	if !summary.LastUpdate.Before(a.current.LastUpdate) {
		a.current = summary
	}
	a.mu.Unlock()

	return summary
}

// Current returns the latest stored summary.
func (a *Aggregator) Current() models.AnalyticsSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}
