// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/export"
	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/models"
)

// Task names.
const (
	TaskSimulation = "traffic-simulation"
	TaskCleanup    = "cleanup"
	TaskAnalytics  = "analytics-broadcast"
)

// Default schedule.
const (
	DefaultSimulationInterval = 10 * time.Second
	DefaultSimulationBatch    = 3
	DefaultCleanupInterval    = 5 * time.Minute
	DefaultSnapshotMaxAge     = 30 * time.Minute
	DefaultAlertTTL           = time.Hour
	DefaultAnalyticsInterval  = 30 * time.Second
	DefaultExportTimeout      = 10 * time.Second
)

// BatchSource produces simulated ingest requests.
type BatchSource interface {
	Batch(n int) []models.IngestRequest
}

// Ingester accepts ingest requests.
type Ingester interface {
	Ingest(ctx context.Context, req models.IngestRequest) (models.TrafficSnapshot, error)
}

// Maintainer evicts stale state.
type Maintainer interface {
	EvictStale(maxAge time.Duration) int
	SweepAlerts(ttl time.Duration) int
}

// AnalyticsRefresher recomputes and publishes the analytics summary.
type AnalyticsRefresher interface {
	RefreshAnalytics() models.AnalyticsSummary
}

// NewSimulationTask ingests batch simulated snapshots per tick.
func NewSimulationTask(clock clockwork.Clock, interval time.Duration, batch int, source BatchSource, ingester Ingester) (*PeriodicTask, error) {
	if batch <= 0 {
		batch = DefaultSimulationBatch
	}
	return NewPeriodicTask(TaskSimulation, interval, clock, func(ctx context.Context) error {
		var errs []error
		accepted := 0
		for _, req := range source.Batch(batch) {
			if _, err := ingester.Ingest(ctx, req); err != nil {
				errs = append(errs, fmt.Errorf("ingest %q: %w", req.Location, err))
				continue
			}
			accepted++
		}
		logging.Debug().Int("accepted", accepted).Msg("simulated traffic ingested")
		return errors.Join(errs...)
	})
}

// NewCleanupTask evicts snapshots older than maxAge and alerts older than
// alertTTL.
func NewCleanupTask(clock clockwork.Clock, interval, maxAge, alertTTL time.Duration, m Maintainer) (*PeriodicTask, error) {
	if maxAge <= 0 {
		maxAge = DefaultSnapshotMaxAge
	}
	if alertTTL <= 0 {
		alertTTL = DefaultAlertTTL
	}
	return NewPeriodicTask(TaskCleanup, interval, clock, func(context.Context) error {
		evicted := m.EvictStale(maxAge)
		swept := m.SweepAlerts(alertTTL)
		if evicted > 0 || swept > 0 {
			logging.Info().Int("snapshots_evicted", evicted).Int("alerts_expired", swept).Msg("cleanup completed")
		}
		return nil
	})
}

// NewAnalyticsTask publishes a fresh analytics summary every tick and hands
// it to exporter. A nil exporter is treated as export.Noop.
func NewAnalyticsTask(clock clockwork.Clock, interval time.Duration, r AnalyticsRefresher, exporter export.Exporter, exportTimeout time.Duration) (*PeriodicTask, error) {
	if exporter == nil {
		exporter = export.Noop{}
	}
	if exportTimeout <= 0 {
		exportTimeout = DefaultExportTimeout
	}
	return NewPeriodicTask(TaskAnalytics, interval, clock, func(ctx context.Context) error {
		summary := r.RefreshAnalytics()

		exportCtx, cancel := context.WithTimeout(ctx, exportTimeout)
		defer cancel()
		if err := exporter.Export(exportCtx, summary); err != nil {
			return fmt.Errorf("analytics export: %w", err)
		}
		return nil
	})
}
