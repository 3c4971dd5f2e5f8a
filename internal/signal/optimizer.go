// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package signal produces four-way signal timing plans from approach counts.
//
// The optimizer is a pure function of its request apart from the efficiency
// estimate, which draws from an injected random source. That estimate is a
// heuristic placeholder and is not measured against a real baseline.
package signal

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/trafficpulse/internal/metrics"
	"github.com/tomtom215/trafficpulse/internal/models"
)

// Timing constants, in seconds.
const (
	TotalCycleTime = 120
	MinSignalTime  = 10
	MaxSignalTime  = 60

	// DefaultSignalTime is used for every approach when there is no traffic.
	DefaultSignalTime = 30

	nightFactor   = 0.8
	weatherFactor = 1.1
)

// adverseWeather lists the substrings that lengthen every phase.
var adverseWeather = []string{"RAIN", "SNOW", "FOG", "STORM"}

// Optimizer computes timing plans. It is safe for concurrent use.
type Optimizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOptimizer creates an optimizer. A zero seed seeds from the wall clock.
func NewOptimizer(seed int64) *Optimizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewOptimizerWithRand(rand.New(rand.NewSource(seed)))
}

// NewOptimizerWithRand creates an optimizer drawing from rng.
func NewOptimizerWithRand(rng *rand.Rand) *Optimizer {
	return &Optimizer{rng: rng}
}

// DefaultPlan is returned when every count is zero.
func DefaultPlan() models.SignalTimingPlan {
	return models.SignalTimingPlan{
		NorthTime:            DefaultSignalTime,
		SouthTime:            DefaultSignalTime,
		EastTime:             DefaultSignalTime,
		WestTime:             DefaultSignalTime,
		NorthSouthCycle:      2 * DefaultSignalTime,
		EastWestCycle:        2 * DefaultSignalTime,
		OptimizationStrategy: models.StrategyDefault,
	}
}

// Optimize builds a plan for req. Counts are assumed non-negative; callers
// validate before calling. Sums are taken in float64 so unvalidated counts
// cannot overflow.
func (o *Optimizer) Optimize(req models.SignalOptimizationRequest) models.SignalTimingPlan {
	n, s, e, w := float64(req.NorthCount), float64(req.SouthCount), float64(req.EastCount), float64(req.WestCount)
	total := n + s + e + w
	if total <= 0 {
		plan := DefaultPlan()
		plan.IntersectionID = req.IntersectionID
		metrics.SignalOptimizations.WithLabelValues(plan.OptimizationStrategy).Inc()
		return plan
	}

	nsTime := axisTime(n+s, total)
	ewTime := axisTime(e+w, total)

	north, south := splitAxis(nsTime, req.NorthCount, req.SouthCount)
	east, west := splitAxis(ewTime, req.EastCount, req.WestCount)
	times := [4]int{north, south, east, west}

	if strings.EqualFold(strings.TrimSpace(req.TimeOfDay), "NIGHT") {
		for i, v := range times {
			times[i] = max(MinSignalTime, int(float64(v)*nightFactor))
		}
	}

	// No MAX clamp: adverse weather may push a phase past MaxSignalTime.
	if isAdverseWeather(req.WeatherCondition) {
		for i, v := range times {
			times[i] = int(float64(v) * weatherFactor)
		}
	}

	plan := models.SignalTimingPlan{
		IntersectionID:        req.IntersectionID,
		NorthTime:             times[0],
		SouthTime:             times[1],
		EastTime:              times[2],
		WestTime:              times[3],
		NorthSouthCycle:       nsTime,
		EastWestCycle:         ewTime,
		OptimizationStrategy:  Strategy(req),
		EfficiencyImprovement: o.efficiency(total),
	}
	metrics.SignalOptimizations.WithLabelValues(plan.OptimizationStrategy).Inc()
	return plan
}

// axisTime is the axis share of the full cycle, clamped to
// [2*MinSignalTime, 2*MaxSignalTime] so both directions can satisfy the
// per-direction bounds.
func axisTime(axisCount, total float64) int {
	t := int(math.Round(float64(TotalCycleTime) * axisCount / total))
	return clamp(t, 2*MinSignalTime, 2*MaxSignalTime)
}

// splitAxis divides axis seconds between two directions by their counts.
// The second direction takes the remainder so the pair sums to axis exactly.
func splitAxis(axis, a, b int) (int, int) {
	lo := max(MinSignalTime, axis-MaxSignalTime)
	hi := min(MaxSignalTime, axis-MinSignalTime)

	var first int
	if sum := float64(a) + float64(b); sum == 0 {
		first = axis / 2
	} else {
		first = int(math.Round(float64(axis) * float64(a) / sum))
	}
	first = clamp(first, lo, hi)
	return first, axis - first
}

func isAdverseWeather(condition string) bool {
	upper := strings.ToUpper(condition)
	for _, w := range adverseWeather {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}

// Strategy classifies the traffic pattern of req.
func Strategy(req models.SignalOptimizationRequest) string {
	counts := [4]float64{float64(req.NorthCount), float64(req.SouthCount), float64(req.EastCount), float64(req.WestCount)}
	total := counts[0] + counts[1] + counts[2] + counts[3]
	if total <= 0 {
		return models.StrategyDefault
	}

	for _, c := range counts {
		if c/total > 0.5 {
			return models.StrategyPriority
		}
	}

	ns := counts[0] + counts[1]
	ew := counts[2] + counts[3]
	if math.Abs(ns-ew) < 0.2*total {
		return models.StrategyBalanced
	}
	return models.StrategyProportional
}

// efficiency returns clamp(5, 30, min(25, total/10) + U(-5, 5)) to one decimal.
func (o *Optimizer) efficiency(total float64) float64 {
	o.mu.Lock()
	jitter := o.rng.Float64()*10 - 5
	o.mu.Unlock()

	v := math.Min(25, total/10) + jitter
	v = math.Max(5, math.Min(30, v))
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
