// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package snapshot holds the latest traffic snapshot per location.
//
// The cache is the single owner of snapshot state. Reads always return
// copies, so callers never observe a partially written snapshot and may
// mutate what they receive freely.
package snapshot

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/cache"
	"github.com/tomtom215/trafficpulse/internal/models"
)

// NearbySnapshot is a cached snapshot with its distance from a query point.
type NearbySnapshot struct {
	models.TrafficSnapshot
	DistanceKm float64 `json:"distanceKm"`
}

// Cache is a concurrent location -> latest snapshot store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.TrafficSnapshot
	grid    *cache.SpatialHashGrid
	clock   clockwork.Clock
}

// New creates an empty cache. cellSizeKm sizes the spatial index used by Nearby.
func New(clock clockwork.Clock, cellSizeKm float64) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		entries: make(map[string]models.TrafficSnapshot),
		grid:    cache.NewSpatialHashGrid(cellSizeKm),
		clock:   clock,
	}
}

// Upsert stores s as the latest snapshot for s.Location, replacing any
// previous entry entirely.
func (c *Cache) Upsert(s models.TrafficSnapshot) {
	stored := s.Clone()

	c.mu.Lock()
	c.entries[stored.Location] = stored
	c.grid.Insert(stored.Location, stored.Latitude, stored.Longitude)
	c.mu.Unlock()
}

// Get returns the latest snapshot for location.
func (c *Cache) Get(location string) (models.TrafficSnapshot, bool) {
	c.mu.RLock()
	s, ok := c.entries[location]
	c.mu.RUnlock()

	if !ok {
		return models.TrafficSnapshot{}, false
	}
	return s.Clone(), true
}

// List returns a point-in-time copy of every snapshot, sorted by location.
func (c *Cache) List() []models.TrafficSnapshot {
	c.mu.RLock()
	out := make([]models.TrafficSnapshot, 0, len(c.entries))
	for _, s := range c.entries {
		out = append(out, s.Clone())
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// Len returns the number of cached locations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// EvictStale removes snapshots whose timestamp is older than now-maxAge and
// returns how many were removed.
func (c *Cache) EvictStale(maxAge time.Duration) int {
	cutoff := c.clock.Now().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for loc, s := range c.entries {
		if s.Timestamp.Before(cutoff) {
			delete(c.entries, loc)
			c.grid.Remove(loc)
			removed++
		}
	}
	return removed
}

// Nearby returns the snapshots within radiusKm of (lat, lon), closest first.
func (c *Cache) Nearby(lat, lon, radiusKm float64) []NearbySnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits := c.grid.QueryNearby(lat, lon, radiusKm)
	out := make([]NearbySnapshot, 0, len(hits))
	for _, h := range hits {
		s, ok := c.entries[h.ID]
		if !ok {
			continue
		}
		out = append(out, NearbySnapshot{TrafficSnapshot: s.Clone(), DistanceKm: h.DistanceKm})
	}
	return out
}

// FindByLocationID resolves a topic-style location id ("main_st_&_1st_ave")
// to a cached snapshot. Underscores are read as spaces and the first location,
// in sorted order, containing the result case-insensitively wins.
func (c *Cache) FindByLocationID(id string) (models.TrafficSnapshot, bool) {
	for _, s := range c.List() {
		if models.MatchesLocationID(s.Location, id) {
			return s, true
		}
	}
	return models.TrafficSnapshot{}, false
}
