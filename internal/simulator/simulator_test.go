// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package simulator

import (
	"math"
	"testing"

	"github.com/tomtom215/trafficpulse/internal/models"
	"github.com/tomtom215/trafficpulse/internal/validation"
)

func TestBatch_DistinctLocations(t *testing.T) {
	g := NewGenerator(Config{Seed: 7})

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, 0},
		{"three", 3, 3},
		{"all", len(Locations), len(Locations)},
		{"capped", 25, len(Locations)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := g.Batch(tt.n)
			if len(batch) != tt.want {
				t.Fatalf("len = %d, want %d", len(batch), tt.want)
			}
			seen := make(map[string]bool)
			for _, r := range batch {
				if seen[r.Location] {
					t.Errorf("duplicate location %q in batch", r.Location)
				}
				seen[r.Location] = true
			}
		})
	}
}

func TestRequest_Plausible(t *testing.T) {
	g := NewGenerator(Config{Seed: 11})

	weather := make(map[string]bool)
	for _, w := range Weather {
		weather[w] = true
	}

	for i := 0; i < 200; i++ {
		r := g.Request("City Center")

		if verr := validation.ValidateStruct(&r); verr != nil {
			t.Fatalf("generated request failed validation: %v", verr)
		}
		if math.Abs(*r.Latitude-DefaultCenterLat) > 0.05+1e-9 {
			t.Errorf("latitude %v too far from center", *r.Latitude)
		}
		if math.Abs(*r.Longitude-DefaultCenterLon) > 0.05+1e-9 {
			t.Errorf("longitude %v too far from center", *r.Longitude)
		}

		d, ok := models.ParseDensity(r.Density)
		if !ok {
			t.Fatalf("invalid density %q", r.Density)
		}
		if diff := math.Abs(*r.AverageSpeed - models.DefaultAverageSpeed(d)); diff > 5+1e-9 && *r.AverageSpeed != 0 {
			t.Errorf("speed %v inconsistent with %s", *r.AverageSpeed, d)
		}
		if diff := *r.VehicleCount - models.DefaultVehicleCount(d); diff < -10 || diff > 9 {
			t.Errorf("count %d inconsistent with %s", *r.VehicleCount, d)
		}
		if !weather[r.WeatherCondition] {
			t.Errorf("unexpected weather %q", r.WeatherCondition)
		}
	}
}

func TestGenerator_CustomCenter(t *testing.T) {
	g := NewGenerator(Config{Seed: 3, CenterLat: 51.5, CenterLon: -0.12})
	r := g.Request("Downtown Plaza")
	if math.Abs(*r.Latitude-51.5) > 0.05+1e-9 || math.Abs(*r.Longitude+0.12) > 0.05+1e-9 {
		t.Errorf("coordinates (%v, %v) not around custom center", *r.Latitude, *r.Longitude)
	}
}

func TestGenerator_SeedIsDeterministic(t *testing.T) {
	a := NewGenerator(Config{Seed: 99}).Batch(3)
	b := NewGenerator(Config{Seed: 99}).Batch(3)
	for i := range a {
		if a[i].Location != b[i].Location || *a[i].Latitude != *b[i].Latitude || a[i].Density != b[i].Density {
			t.Errorf("batch %d differs for the same seed", i)
		}
	}
}
