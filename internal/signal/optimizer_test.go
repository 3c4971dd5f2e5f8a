// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package signal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/tomtom215/trafficpulse/internal/models"
)

func req(n, s, e, w int) models.SignalOptimizationRequest {
	return models.SignalOptimizationRequest{NorthCount: n, SouthCount: s, EastCount: e, WestCount: w}
}

func TestOptimize_ZeroTrafficReturnsDefault(t *testing.T) {
	o := NewOptimizer(1)
	plan := o.Optimize(models.SignalOptimizationRequest{IntersectionID: "int-7"})

	if plan.NorthTime != 30 || plan.SouthTime != 30 || plan.EastTime != 30 || plan.WestTime != 30 {
		t.Errorf("expected 30s each, got %+v", plan)
	}
	if plan.OptimizationStrategy != models.StrategyDefault {
		t.Errorf("expected DEFAULT_TIMING, got %s", plan.OptimizationStrategy)
	}
	if plan.EfficiencyImprovement != 0 {
		t.Errorf("expected 0%% improvement, got %v", plan.EfficiencyImprovement)
	}
	if plan.IntersectionID != "int-7" {
		t.Errorf("expected intersection id echoed, got %q", plan.IntersectionID)
	}
}

func TestOptimize_Invariants(t *testing.T) {
	o := NewOptimizer(42)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		r := req(rng.Intn(200), rng.Intn(200), rng.Intn(200), rng.Intn(200))
		if i%10 == 0 {
			// Skewed inputs exercise the clamps.
			r = req(rng.Intn(1000), rng.Intn(2), 0, rng.Intn(3))
		}
		if r.Total() == 0 {
			continue
		}

		plan := o.Optimize(r)

		for _, v := range []int{plan.NorthTime, plan.SouthTime, plan.EastTime, plan.WestTime} {
			if v < MinSignalTime || v > MaxSignalTime {
				t.Fatalf("%+v: direction %d outside [%d,%d] in %+v", r, v, MinSignalTime, MaxSignalTime, plan)
			}
		}
		if plan.NorthTime+plan.SouthTime != plan.NorthSouthCycle {
			t.Fatalf("%+v: N+S = %d, axis = %d", r, plan.NorthTime+plan.SouthTime, plan.NorthSouthCycle)
		}
		if plan.EastTime+plan.WestTime != plan.EastWestCycle {
			t.Fatalf("%+v: E+W = %d, axis = %d", r, plan.EastTime+plan.WestTime, plan.EastWestCycle)
		}
		for _, axis := range []int{plan.NorthSouthCycle, plan.EastWestCycle} {
			if axis < 2*MinSignalTime || axis > 2*MaxSignalTime {
				t.Fatalf("%+v: axis %d outside [20,120]", r, axis)
			}
		}
		if sum := plan.Total(); sum < 40 || sum > 240 {
			t.Fatalf("%+v: total %d outside [40,240]", r, sum)
		}
		if plan.EfficiencyImprovement < 5 || plan.EfficiencyImprovement > 30 {
			t.Fatalf("%+v: efficiency %v outside [5,30]", r, plan.EfficiencyImprovement)
		}
	}
}

func TestOptimize_KnownPlan(t *testing.T) {
	plan := NewOptimizer(1).Optimize(req(50, 30, 10, 10))

	// NS share 80% of 120 = 96 split 60/36; EW 24 split 12/12.
	want := [4]int{60, 36, 12, 12}
	got := [4]int{plan.NorthTime, plan.SouthTime, plan.EastTime, plan.WestTime}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if plan.OptimizationStrategy != models.StrategyProportional {
		t.Errorf("expected PROPORTIONAL_TIMING, got %s", plan.OptimizationStrategy)
	}
}

func TestOptimize_LargeCounts(t *testing.T) {
	tests := []struct {
		name string
		r    models.SignalOptimizationRequest
		want string
	}{
		{"validated maximum", req(models.MaxApproachCount, 0, 1, 0), models.StrategyPriority},
		{"all at maximum", req(models.MaxApproachCount, models.MaxApproachCount, models.MaxApproachCount, models.MaxApproachCount), models.StrategyBalanced},
		{"max int north south", req(math.MaxInt, math.MaxInt, 1, 1), models.StrategyProportional},
	}

	o := NewOptimizer(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := o.Optimize(tt.r)

			if plan.OptimizationStrategy != tt.want {
				t.Errorf("strategy = %s, want %s", plan.OptimizationStrategy, tt.want)
			}
			if plan.NorthSouthCycle < plan.EastWestCycle {
				t.Errorf("NS axis %d shorter than EW axis %d", plan.NorthSouthCycle, plan.EastWestCycle)
			}
			for _, v := range []int{plan.NorthTime, plan.SouthTime, plan.EastTime, plan.WestTime} {
				if v < MinSignalTime || v > MaxSignalTime {
					t.Errorf("direction %d outside [%d,%d] in %+v", v, MinSignalTime, MaxSignalTime, plan)
				}
			}
			if plan.EfficiencyImprovement < 5 || plan.EfficiencyImprovement > 30 {
				t.Errorf("efficiency %v outside [5,30]", plan.EfficiencyImprovement)
			}
		})
	}
}

func TestOptimize_Night(t *testing.T) {
	o := NewOptimizer(1)
	day := o.Optimize(req(50, 30, 10, 10))

	r := req(50, 30, 10, 10)
	r.TimeOfDay = "night"
	night := o.Optimize(r)

	pre := []int{day.NorthTime, day.SouthTime, day.EastTime, day.WestTime}
	post := []int{night.NorthTime, night.SouthTime, night.EastTime, night.WestTime}
	for i := range pre {
		if post[i] < MinSignalTime {
			t.Errorf("direction %d: %d below minimum", i, post[i])
		}
		limit := max(MinSignalTime, int(float64(pre[i])*0.8+0.5))
		if post[i] > limit {
			t.Errorf("direction %d: night %d exceeds %d (pre %d)", i, post[i], limit, pre[i])
		}
	}
	if post[2] != MinSignalTime || post[3] != MinSignalTime {
		t.Errorf("short phases should clamp to %d, got %v", MinSignalTime, post)
	}
}

func TestOptimize_Weather(t *testing.T) {
	tests := []struct {
		weather string
		scaled  bool
	}{
		{"CLEAR", false},
		{"", false},
		{"light rain", true},
		{"SNOW", true},
		{"Fog", true},
		{"THUNDERSTORM", true},
		{"CLOUDY", false},
	}

	o := NewOptimizer(1)
	base := o.Optimize(req(50, 30, 10, 10))

	for _, tt := range tests {
		t.Run(tt.weather, func(t *testing.T) {
			r := req(50, 30, 10, 10)
			r.WeatherCondition = tt.weather
			plan := o.Optimize(r)

			wantNorth := base.NorthTime
			if tt.scaled {
				wantNorth = int(float64(base.NorthTime) * 1.1)
			}
			if plan.NorthTime != wantNorth {
				t.Errorf("north = %d, want %d", plan.NorthTime, wantNorth)
			}
		})
	}

	r := req(50, 30, 10, 10)
	r.WeatherCondition = "RAIN"
	if plan := o.Optimize(r); plan.NorthTime <= MaxSignalTime {
		t.Errorf("adverse weather may exceed the maximum, got %d", plan.NorthTime)
	}
}

func TestStrategy(t *testing.T) {
	tests := []struct {
		name string
		r    models.SignalOptimizationRequest
		want string
	}{
		{name: "no traffic", r: req(0, 0, 0, 0), want: models.StrategyDefault},
		{name: "one dominant direction", r: req(60, 10, 10, 10), want: models.StrategyPriority},
		{name: "exactly half is not priority", r: req(50, 0, 25, 25), want: models.StrategyBalanced},
		{name: "balanced axes", r: req(25, 25, 20, 30), want: models.StrategyBalanced},
		{name: "uneven axes", r: req(40, 30, 15, 15), want: models.StrategyProportional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strategy(tt.r); got != tt.want {
				t.Errorf("Strategy() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOptimize_DeterministicWithSeed(t *testing.T) {
	a := NewOptimizer(99).Optimize(req(12, 40, 7, 3))
	b := NewOptimizer(99).Optimize(req(12, 40, 7, 3))
	if a != b {
		t.Errorf("same seed should give the same plan: %+v vs %+v", a, b)
	}
}

func TestSplitAxis(t *testing.T) {
	tests := []struct {
		axis, a, b  int
		first, rest int
	}{
		{axis: 20, a: 100, b: 0, first: 10, rest: 10},
		{axis: 120, a: 1, b: 100, first: 60, rest: 60},
		{axis: 60, a: 0, b: 0, first: 30, rest: 30},
		{axis: 25, a: 0, b: 0, first: 12, rest: 13},
		{axis: 96, a: 50, b: 30, first: 60, rest: 36},
	}

	for _, tt := range tests {
		first, rest := splitAxis(tt.axis, tt.a, tt.b)
		if first != tt.first || rest != tt.rest {
			t.Errorf("splitAxis(%d,%d,%d) = %d,%d want %d,%d", tt.axis, tt.a, tt.b, first, rest, tt.first, tt.rest)
		}
	}
}
