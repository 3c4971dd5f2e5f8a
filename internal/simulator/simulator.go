// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package simulator generates synthetic ingestion requests for demos and
// local development.
package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jaswdr/faker"

	"github.com/tomtom215/trafficpulse/internal/models"
)

// Default map center (lower Manhattan).
const (
	DefaultCenterLat = 40.7128
	DefaultCenterLon = -74.0060
)

// Locations are the simulated intersections and districts.
var Locations = []string{
	"Main St & 1st Ave",
	"Broadway & 5th St",
	"Tech Blvd & Innovation Dr",
	"Park Ave & Central",
	"Commerce St & Market",
	"University Ave & College",
	"Downtown Plaza",
	"City Center",
	"Industrial District",
	"Residential Area",
}

// Weather conditions drawn for simulated snapshots.
var Weather = []string{"CLEAR", "RAIN", "CLOUDY", "FOG", "SNOW"}

// Config configures a Generator.
type Config struct {
	Seed      int64
	CenterLat float64
	CenterLon float64
}

// Generator produces random but plausible ingest requests. It is safe for
// concurrent use.
type Generator struct {
	mu        sync.Mutex
	fake      faker.Faker
	centerLat float64
	centerLon float64
}

// NewGenerator creates a generator. A zero seed uses the current time; a zero
// center uses the default center.
func NewGenerator(cfg Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.CenterLat == 0 && cfg.CenterLon == 0 {
		cfg.CenterLat, cfg.CenterLon = DefaultCenterLat, DefaultCenterLon
	}
	return &Generator{
		fake:      faker.NewWithSeed(rand.NewSource(seed)),
		centerLat: cfg.CenterLat,
		centerLon: cfg.CenterLon,
	}
}

// Batch returns n requests for distinct locations. n is capped at the number
// of known locations.
func (g *Generator) Batch(n int) []models.IngestRequest {
	if n <= 0 {
		return nil
	}
	n = min(n, len(Locations))

	g.mu.Lock()
	defer g.mu.Unlock()

	// Partial Fisher-Yates over location indices.
	idx := make([]int, len(Locations))
	for i := range idx {
		idx[i] = i
	}
	out := make([]models.IngestRequest, 0, n)
	for i := 0; i < n; i++ {
		j := g.fake.IntBetween(i, len(idx)-1)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, g.requestLocked(Locations[idx[i]]))
	}
	return out
}

// Request returns one request for location.
func (g *Generator) Request(location string) models.IngestRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requestLocked(location)
}

func (g *Generator) requestLocked(location string) models.IngestRequest {
	density := models.Densities[g.fake.IntBetween(0, len(models.Densities)-1)]

	lat := g.centerLat + g.offset()
	lon := g.centerLon + g.offset()

	speed := max(0, models.DefaultAverageSpeed(density)+g.fake.Float64(1, -5, 5))
	count := max(0, models.DefaultVehicleCount(density)+g.fake.IntBetween(-10, 9))

	return models.IngestRequest{
		Location:         location,
		Latitude:         &lat,
		Longitude:        &lon,
		Density:          string(density),
		AverageSpeed:     &speed,
		VehicleCount:     &count,
		WeatherCondition: Weather[g.fake.IntBetween(0, len(Weather)-1)],
	}
}

// offset returns a coordinate jitter within ±0.05 degrees.
func (g *Generator) offset() float64 {
	return g.fake.Float64(4, -500, 500) / 10000
}
