// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package traffic

import (
	"github.com/tomtom215/trafficpulse/internal/models"
	"github.com/tomtom215/trafficpulse/internal/snapshot"
	"github.com/tomtom215/trafficpulse/internal/validation"
)

// DefaultNearbyRadiusKm is used when a nearby query has no radius.
const DefaultNearbyRadiusKm = 5.0

// NearbyQuery selects snapshots within RadiusKm of a point.
type NearbyQuery struct {
	Latitude  float64 `json:"lat" validate:"latitude"`
	Longitude float64 `json:"lon" validate:"longitude"`
	RadiusKm  float64 `json:"radius" validate:"gt=0,lte=100"`
}

// GetSnapshot returns the latest snapshot for location.
func (s *Service) GetSnapshot(location string) (models.TrafficSnapshot, bool) {
	return s.cache.Get(location)
}

// ListSnapshots returns every cached snapshot sorted by location.
func (s *Service) ListSnapshots() []models.TrafficSnapshot {
	return s.cache.List()
}

// GetActiveAlerts returns live alerts in insertion order.
func (s *Service) GetActiveAlerts() []models.Alert {
	return s.engine.ActiveAlerts()
}

// GetAnalyticsSummary returns the last computed summary.
func (s *Service) GetAnalyticsSummary() models.AnalyticsSummary {
	return s.aggregator.Current()
}

// LocationSnapshot resolves a location topic id to a cached snapshot.
func (s *Service) LocationSnapshot(id string) (models.TrafficSnapshot, bool) {
	return s.cache.FindByLocationID(id)
}

// LocationTraffic returns the location payload for id. Data is nil when
// nothing matches.
func (s *Service) LocationTraffic(id string) models.LocationTrafficPayload {
	payload := models.LocationTrafficPayload{LocationID: id}
	if snap, ok := s.cache.FindByLocationID(id); ok {
		payload.Data = &snap
	}
	return payload
}

// NearbySnapshots lists snapshots within the query radius, nearest first.
func (s *Service) NearbySnapshots(q NearbyQuery) ([]snapshot.NearbySnapshot, error) {
	if q.RadiusKm == 0 {
		q.RadiusKm = DefaultNearbyRadiusKm
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		return nil, verr
	}
	return s.cache.Nearby(q.Latitude, q.Longitude, q.RadiusKm), nil
}

// OptimizeSignal computes a timing plan. Only validation errors are returned.
func (s *Service) OptimizeSignal(req models.SignalOptimizationRequest) (models.SignalTimingPlan, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return models.SignalTimingPlan{}, verr
	}
	return s.optimizer.Optimize(req), nil
}
