// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package models

// MaxApproachCount bounds each approach count of a signal request.
const MaxApproachCount = 1_000_000

// SignalOptimizationRequest carries the four approach counts of an intersection.
type SignalOptimizationRequest struct {
	IntersectionID   string `json:"intersectionId,omitempty" validate:"max=100"`
	NorthCount       int    `json:"northCount" validate:"gte=0,lte=1000000"`
	SouthCount       int    `json:"southCount" validate:"gte=0,lte=1000000"`
	EastCount        int    `json:"eastCount" validate:"gte=0,lte=1000000"`
	WestCount        int    `json:"westCount" validate:"gte=0,lte=1000000"`
	TimeOfDay        string `json:"timeOfDay,omitempty" validate:"max=32"`
	WeatherCondition string `json:"weatherCondition,omitempty" validate:"max=64"`
}

// Total returns the sum of the four counts.
func (r *SignalOptimizationRequest) Total() int {
	return r.NorthCount + r.SouthCount + r.EastCount + r.WestCount
}

// Optimization strategies reported on a plan.
const (
	StrategyDefault      = "DEFAULT_TIMING"
	StrategyPriority     = "PRIORITY_DIRECTION"
	StrategyBalanced     = "BALANCED_FLOW"
	StrategyProportional = "PROPORTIONAL_TIMING"
)

// SignalTimingPlan is the green time, in seconds, per approach.
// NorthSouthCycle and EastWestCycle are the axis allocations before
// time-of-day and weather adjustment.
type SignalTimingPlan struct {
	IntersectionID        string  `json:"intersectionId,omitempty"`
	NorthTime             int     `json:"northTime"`
	SouthTime             int     `json:"southTime"`
	EastTime              int     `json:"eastTime"`
	WestTime              int     `json:"westTime"`
	NorthSouthCycle       int     `json:"northSouthCycle"`
	EastWestCycle         int     `json:"eastWestCycle"`
	OptimizationStrategy  string  `json:"optimizationStrategy"`
	EfficiencyImprovement float64 `json:"efficiencyImprovement"`
}

// Total returns the full cycle of the plan.
func (p *SignalTimingPlan) Total() int {
	return p.NorthTime + p.SouthTime + p.EastTime + p.WestTime
}
