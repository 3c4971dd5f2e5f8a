// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package cache provides the spatial index used for proximity lookups of
// cached traffic locations.
package cache

import (
	"math"
	"sort"
	"sync"
)

const (
	earthRadiusKm = 6371.0
	kmPerDegree   = 111.0

	// DefaultCellSizeKm suits city-scale queries of a few kilometres.
	DefaultCellSizeKm = 1.0
)

// SpatialHashGrid buckets points into fixed-size lat/lon cells so a radius
// query only inspects the cells overlapping the search circle.
//
// Time Complexity:
//   - Insert / Remove: O(1) amortized
//   - QueryNearby: O(k) where k = points in the overlapping cells
//
// One point is kept per ID; inserting an existing ID moves it. Column
// indices wrap at the antimeridian so -180 and 180 are neighbours.
type SpatialHashGrid struct {
	mu       sync.RWMutex
	cellSize float64 // degrees
	columns  int     // longitude cells around the globe
	cells    map[cellKey]map[string]struct{}
	points   map[string]point
}

type cellKey struct {
	x, y int
}

type point struct {
	lat, lon float64
	cell     cellKey
}

// Hit is one result of a radius query.
type Hit struct {
	ID         string
	Lat        float64
	Lon        float64
	DistanceKm float64
}

// NewSpatialHashGrid creates a grid with cells of roughly cellSizeKm per side.
// A non-positive size falls back to DefaultCellSizeKm.
func NewSpatialHashGrid(cellSizeKm float64) *SpatialHashGrid {
	if cellSizeKm <= 0 {
		cellSizeKm = DefaultCellSizeKm
	}
	cellSize := cellSizeKm / kmPerDegree
	return &SpatialHashGrid{
		cellSize: cellSize,
		columns:  max(1, int(math.Ceil(360/cellSize))),
		cells:    make(map[cellKey]map[string]struct{}),
		points:   make(map[string]point),
	}
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func (g *SpatialHashGrid) keyFor(lat, lon float64) cellKey {
	return cellKey{
		x: g.wrapColumn(int(math.Floor((normalizeLon(lon) + 180) / g.cellSize))),
		y: int(math.Floor(lat / g.cellSize)),
	}
}

func (g *SpatialHashGrid) wrapColumn(x int) int {
	return ((x % g.columns) + g.columns) % g.columns
}

// Insert places id at (lat, lon), moving it if it already exists.
func (g *SpatialHashGrid) Insert(id string, lat, lon float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.points[id]; ok {
		g.detachLocked(id, old.cell)
	}

	key := g.keyFor(lat, lon)
	bucket, ok := g.cells[key]
	if !ok {
		bucket = make(map[string]struct{}, 2)
		g.cells[key] = bucket
	}
	bucket[id] = struct{}{}
	g.points[id] = point{lat: lat, lon: normalizeLon(lon), cell: key}
}

// Remove deletes id. It reports whether id was present.
func (g *SpatialHashGrid) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.points[id]
	if !ok {
		return false
	}
	g.detachLocked(id, p.cell)
	delete(g.points, id)
	return true
}

// detachLocked drops id from its cell and prunes empty cells. Caller holds mu.
func (g *SpatialHashGrid) detachLocked(id string, key cellKey) {
	bucket, ok := g.cells[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(g.cells, key)
	}
}

// QueryNearby returns every point within radiusKm of (lat, lon), closest
// first. Ties are ordered by ID.
func (g *SpatialHashGrid) QueryNearby(lat, lon, radiusKm float64) []Hit {
	if radiusKm < 0 {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	center := g.keyFor(lat, lon)
	radiusDeg := radiusKm / kmPerDegree
	spanY := g.columns // half the columns already covers pole to pole
	if s := math.Ceil(radiusDeg/g.cellSize) + 1; s < float64(spanY) {
		spanY = int(s)
	}

	// Longitude degrees shrink towards the poles, so the span is sized at
	// the circle's highest latitude. A circle reaching a pole covers every
	// longitude.
	columns := g.columns
	if edge := math.Abs(lat) + radiusDeg; edge < 90 {
		spanX := math.Ceil(radiusDeg/math.Cos(edge*math.Pi/180)/g.cellSize) + 1
		if 2*spanX+1 < float64(columns) {
			columns = 2*int(spanX) + 1
		}
	}

	hits := make([]Hit, 0)
	visit := func(id string, p point) {
		if d := HaversineKm(lat, lon, p.lat, p.lon); d <= radiusKm {
			hits = append(hits, Hit{ID: id, Lat: p.lat, Lon: p.lon, DistanceKm: d})
		}
	}

	if columns*(2*spanY+1) >= len(g.points) {
		// Fewer points than candidate cells: a full scan is cheaper.
		for id, p := range g.points {
			visit(id, p)
		}
	} else {
		first := center.x - columns/2
		if columns == g.columns {
			first = 0
		}
		for i := 0; i < columns; i++ {
			x := g.wrapColumn(first + i)
			for dy := -spanY; dy <= spanY; dy++ {
				for id := range g.cells[cellKey{x: x, y: center.y + dy}] {
					visit(id, g.points[id])
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

// Size returns the number of indexed points.
func (g *SpatialHashGrid) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.points)
}

// NumCells returns the number of non-empty cells.
func (g *SpatialHashGrid) NumCells() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}

// Clear removes all points.
func (g *SpatialHashGrid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = make(map[cellKey]map[string]struct{})
	g.points = make(map[string]point)
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
