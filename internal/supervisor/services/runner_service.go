// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/trafficpulse/internal/logging"
)

// ContextRunner is a component that blocks until ctx is done or it fails.
// Both *websocket.Hub and *traffic.Service satisfy it.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a ContextRunner to suture.Service.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner under the given service name.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewWebSocketHubService wraps the websocket hub. On stop the hub closes
// every connected client.
func NewWebSocketHubService(hub ContextRunner) *RunnerService {
	return NewRunnerService("websocket-hub", hub)
}

// NewPipelineService wraps the ingestion pipeline worker.
func NewPipelineService(pipeline ContextRunner) *RunnerService {
	return NewRunnerService("traffic-pipeline", pipeline)
}

// Serve implements suture.Service. A runner that returns the context's own
// error is treated as a clean stop; any other error is wrapped and returned
// so the supervisor restarts it.
func (s *RunnerService) Serve(ctx context.Context) error {
	logging.Debug().Str("service", s.name).Msg("service starting")

	err := s.runner.RunWithContext(ctx)
	if ctx.Err() != nil && (err == nil || errors.Is(err, ctx.Err())) {
		logging.Debug().Str("service", s.name).Msg("service stopped")
		return ctx.Err()
	}
	if err != nil {
		logging.Error().Err(err).Str("service", s.name).Msg("service failed")
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

// String implements fmt.Stringer.
func (s *RunnerService) String() string {
	return s.name
}
