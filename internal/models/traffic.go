// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package models defines the data structures shared by the traffic event core:
// snapshots, alerts, analytics summaries, signal plans and the subscriber envelope.
package models

import (
	"strings"
	"time"
)

// Density is the categorical congestion level of a location.
type Density string

const (
	DensityLow      Density = "LOW"
	DensityModerate Density = "MODERATE"
	DensityHigh     Density = "HIGH"
	DensityCritical Density = "CRITICAL"
)

// Densities lists every density in ascending order of congestion.
var Densities = []Density{DensityLow, DensityModerate, DensityHigh, DensityCritical}

// IsHighTraffic reports whether d counts as high traffic (HIGH or CRITICAL).
func (d Density) IsHighTraffic() bool {
	return d == DensityHigh || d == DensityCritical
}

// Valid reports whether d is one of the known densities.
func (d Density) Valid() bool {
	switch d {
	case DensityLow, DensityModerate, DensityHigh, DensityCritical:
		return true
	default:
		return false
	}
}

// ParseDensity converts a case-insensitive name into a Density.
func ParseDensity(s string) (Density, bool) {
	d := Density(strings.ToUpper(strings.TrimSpace(s)))
	return d, d.Valid()
}

// DefaultWeather is used when ingestion does not report a weather condition.
const DefaultWeather = "CLEAR"

// densityDefaults holds the vehicle count and speed assumed for a density
// when the ingestion source omits them.
var densityDefaults = map[Density]struct {
	vehicles int
	speed    float64
}{
	DensityLow:      {vehicles: 15, speed: 45},
	DensityModerate: {vehicles: 35, speed: 25},
	DensityHigh:     {vehicles: 65, speed: 15},
	DensityCritical: {vehicles: 100, speed: 5},
}

// DefaultVehicleCount returns the assumed vehicle count for a density.
func DefaultVehicleCount(d Density) int {
	if v, ok := densityDefaults[d]; ok {
		return v.vehicles
	}
	return 25
}

// DefaultAverageSpeed returns the assumed average speed (km/h) for a density.
func DefaultAverageSpeed(d Density) float64 {
	if v, ok := densityDefaults[d]; ok {
		return v.speed
	}
	return 30
}

// TrafficSnapshot is the latest known traffic state for one location.
// Identity is Location; a newer snapshot replaces an older one entirely.
type TrafficSnapshot struct {
	Location         string    `json:"location"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Density          Density   `json:"density"`
	AverageSpeed     *float64  `json:"averageSpeed,omitempty"`
	VehicleCount     *int      `json:"vehicleCount,omitempty"`
	WeatherCondition string    `json:"weatherCondition,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// HasSpeed reports whether the snapshot carries an average speed.
func (s *TrafficSnapshot) HasSpeed() bool {
	return s.AverageSpeed != nil
}

// Clone returns a deep copy so callers never share the optional fields.
func (s *TrafficSnapshot) Clone() TrafficSnapshot {
	c := *s
	if s.AverageSpeed != nil {
		v := *s.AverageSpeed
		c.AverageSpeed = &v
	}
	if s.VehicleCount != nil {
		v := *s.VehicleCount
		c.VehicleCount = &v
	}
	return c
}

// LocationID converts a location name into its topic-safe identifier:
// lowercase with whitespace runs replaced by underscores.
//
//	LocationID("Main St & 1st Ave") == "main_st_&_1st_ave"
func LocationID(location string) string {
	return strings.Join(strings.Fields(strings.ToLower(location)), "_")
}

// MatchesLocationID reports whether location answers to a topic-style id:
// underscores in id are read as spaces and matched case-insensitively as a
// substring of location.
func MatchesLocationID(location, id string) bool {
	needle := strings.ToLower(strings.ReplaceAll(id, "_", " "))
	if strings.TrimSpace(needle) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(location), needle)
}

// IngestRequest is the boundary input for one traffic observation.
// Optional fields are pointers so "absent" and "zero" stay distinguishable.
type IngestRequest struct {
	Location         string     `json:"location" validate:"required,max=200"`
	Latitude         *float64   `json:"latitude" validate:"required,latitude"`
	Longitude        *float64   `json:"longitude" validate:"required,longitude"`
	Density          string     `json:"density" validate:"required,density"`
	AverageSpeed     *float64   `json:"averageSpeed,omitempty" validate:"omitempty,gte=0,lte=300"`
	VehicleCount     *int       `json:"vehicleCount,omitempty" validate:"omitempty,gte=0"`
	WeatherCondition string     `json:"weatherCondition,omitempty" validate:"max=64"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
}

// ToSnapshot builds a snapshot from a validated request, filling absent
// speed, vehicle count, weather and timestamp with density-based defaults.
func (r *IngestRequest) ToSnapshot(now time.Time) TrafficSnapshot {
	density, _ := ParseDensity(r.Density)

	s := TrafficSnapshot{
		Location:         strings.TrimSpace(r.Location),
		Density:          density,
		WeatherCondition: r.WeatherCondition,
		Timestamp:        now,
	}
	if r.Latitude != nil {
		s.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		s.Longitude = *r.Longitude
	}
	if r.Timestamp != nil && !r.Timestamp.IsZero() {
		s.Timestamp = *r.Timestamp
	}

	if r.AverageSpeed != nil {
		v := *r.AverageSpeed
		s.AverageSpeed = &v
	} else {
		v := DefaultAverageSpeed(density)
		s.AverageSpeed = &v
	}
	if r.VehicleCount != nil {
		v := *r.VehicleCount
		s.VehicleCount = &v
	} else {
		v := DefaultVehicleCount(density)
		s.VehicleCount = &v
	}
	if s.WeatherCondition == "" {
		s.WeatherCondition = DefaultWeather
	}

	return s
}
