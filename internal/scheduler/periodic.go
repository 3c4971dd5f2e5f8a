// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package scheduler runs the periodic background tasks (simulated
// ingestion, cleanup and the analytics broadcast) as suture services.
//
// Each task owns its own ticker, so a slow task never delays another. A run
// that panics or fails is logged and counted; the next tick runs as usual.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/metrics"
)

// TaskFunc is one run of a periodic task.
type TaskFunc func(ctx context.Context) error

// PeriodicTask calls fn every interval until its context ends.
// It implements suture.Service.
type PeriodicTask struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	fn       TaskFunc

	paused atomic.Bool
	runs   atomic.Int64
	fails  atomic.Int64
}

// NewPeriodicTask creates a task. The interval must be positive.
func NewPeriodicTask(name string, interval time.Duration, clock clockwork.Clock, fn TaskFunc) (*PeriodicTask, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("task %s: interval must be positive, got %s", name, interval)
	}
	if fn == nil {
		return nil, fmt.Errorf("task %s: nil task function", name)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PeriodicTask{name: name, interval: interval, clock: clock, fn: fn}, nil
}

// Serve implements suture.Service.
func (t *PeriodicTask) Serve(ctx context.Context) error {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	logging.Debug().Str("task", t.name).Dur("interval", t.interval).Msg("periodic task started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if t.paused.Load() {
				continue
			}
			t.RunOnce(ctx)
		}
	}
}

// RunOnce executes fn once, recovering any panic.
func (t *PeriodicTask) RunOnce(ctx context.Context) {
	start := time.Now()
	failed := false

	defer func() {
		if r := recover(); r != nil {
			failed = true
			logging.Error().Str("task", t.name).Interface("panic", r).Msg("periodic task panicked")
		}
		t.runs.Add(1)
		if failed {
			t.fails.Add(1)
		}
		metrics.RecordTaskRun(t.name, time.Since(start), failed)
	}()

	if err := t.fn(ctx); err != nil {
		failed = true
		logging.Warn().Err(err).Str("task", t.name).Msg("periodic task failed")
	}
}

// Pause stops future ticks from running fn. Other tasks are unaffected.
func (t *PeriodicTask) Pause() {
	if !t.paused.Swap(true) {
		logging.Info().Str("task", t.name).Msg("periodic task paused")
	}
}

// Resume undoes Pause.
func (t *PeriodicTask) Resume() {
	if t.paused.Swap(false) {
		logging.Info().Str("task", t.name).Msg("periodic task resumed")
	}
}

// Paused reports whether the task is paused.
func (t *PeriodicTask) Paused() bool {
	return t.paused.Load()
}

// Runs returns how many times fn has run, including failures.
func (t *PeriodicTask) Runs() int64 {
	return t.runs.Load()
}

// Failures returns how many runs failed or panicked.
func (t *PeriodicTask) Failures() int64 {
	return t.fails.Load()
}

// Interval returns the tick interval.
func (t *PeriodicTask) Interval() time.Duration {
	return t.interval
}

// String implements fmt.Stringer for suture logging.
func (t *PeriodicTask) String() string {
	return t.name
}
