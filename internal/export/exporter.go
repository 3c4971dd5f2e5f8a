// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

// Package export ships analytics summaries to an external analytics provider.
//
// The core only knows the Exporter interface. Noop is the default; the
// webhook exporter POSTs JSON through a circuit breaker so a failing
// provider is skipped quickly instead of stalling the analytics tick.
package export

import (
	"context"

	"github.com/tomtom215/trafficpulse/internal/models"
)

// Exporter sends an analytics summary somewhere outside the process.
type Exporter interface {
	Export(ctx context.Context, summary models.AnalyticsSummary) error
}

// Noop discards every summary.
type Noop struct{}

// Export implements Exporter.
func (Noop) Export(context.Context, models.AnalyticsSummary) error {
	return nil
}
