// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/trafficpulse/internal/alerts"
	"github.com/tomtom215/trafficpulse/internal/analytics"
	"github.com/tomtom215/trafficpulse/internal/api"
	"github.com/tomtom215/trafficpulse/internal/broadcast"
	"github.com/tomtom215/trafficpulse/internal/config"
	"github.com/tomtom215/trafficpulse/internal/export"
	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/models"
	"github.com/tomtom215/trafficpulse/internal/scheduler"
	"github.com/tomtom215/trafficpulse/internal/signal"
	"github.com/tomtom215/trafficpulse/internal/simulator"
	"github.com/tomtom215/trafficpulse/internal/snapshot"
	"github.com/tomtom215/trafficpulse/internal/supervisor"
	"github.com/tomtom215/trafficpulse/internal/supervisor/services"
	"github.com/tomtom215/trafficpulse/internal/traffic"
	"github.com/tomtom215/trafficpulse/internal/websocket"
)

const readHeaderTimeout = 10 * time.Second

// app holds the wired components. Nothing is running until the supervisor
// tree is served.
type app struct {
	cfg         *config.Config
	broadcaster *broadcast.Broadcaster
	service     *traffic.Service
	hub         *websocket.Hub
	tasks       []*scheduler.PeriodicTask
	handler     http.Handler
	server      *http.Server
}

// buildApp wires every component from cfg.
func buildApp(cfg *config.Config, clock clockwork.Clock) (*app, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	b := broadcast.New(clock, cfg.Broadcast.QueueSize)
	engine := alerts.NewDefaultEngine(clock, cfg.Alerts.TTL, cfg.Alerts.LowSpeedThreshold, b)
	if err := disableDetectors(engine, cfg.Alerts.Disabled); err != nil {
		return nil, err
	}

	svc, err := traffic.NewService(traffic.Deps{
		Cache:      snapshot.New(clock, cfg.Cache.SpatialCellKm),
		Engine:     engine,
		Aggregator: analytics.NewAggregator(clock),
		Publisher:  b,
		Optimizer:  signal.NewOptimizer(cfg.Signal.Seed),
		Clock:      clock,
	}, cfg.Pipeline.QueueSize)
	if err != nil {
		return nil, fmt.Errorf("traffic service: %w", err)
	}

	exporter, err := newExporter(cfg.Export)
	if err != nil {
		return nil, err
	}

	tasks, err := buildTasks(cfg, clock, svc, exporter)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub()
	handler := api.NewHandler(svc, hub, api.HandlerConfig{
		Tasks:       scheduler.NewControls(tasks...),
		CORSOrigins: cfg.Security.CORSOrigins,
		WebSocket: websocket.ClientConfig{
			InboundRate:  cfg.WebSocket.InboundRate,
			InboundBurst: cfg.WebSocket.InboundBurst,
		},
	})
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(cfg.Security)).SetupChi()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.Timeout,
		// No WriteTimeout: it would cut long-lived websocket connections.
		IdleTimeout: 2 * cfg.Server.Timeout,
	}

	return &app{
		cfg:         cfg,
		broadcaster: b,
		service:     svc,
		hub:         hub,
		tasks:       tasks,
		handler:     router,
		server:      server,
	}, nil
}

// disableDetectors switches off the named detectors.
func disableDetectors(engine *alerts.Engine, types []string) error {
	for _, name := range types {
		d, ok := engine.GetDetector(models.AlertType(name))
		if !ok {
			return fmt.Errorf("alert detector %s: not registered", name)
		}
		d.SetEnabled(false)
		logging.Info().Str("detector", name).Msg("alert detector disabled")
	}
	return nil
}

func newExporter(cfg config.ExportConfig) (export.Exporter, error) {
	if !cfg.Enabled {
		return export.Noop{}, nil
	}
	w, err := export.NewWebhookExporter(export.WebhookConfig{URL: cfg.URL, Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("analytics exporter: %w", err)
	}
	logging.Info().Str("url", cfg.URL).Msg("analytics webhook export enabled")
	return w, nil
}

func buildTasks(cfg *config.Config, clock clockwork.Clock, svc *traffic.Service, exporter export.Exporter) ([]*scheduler.PeriodicTask, error) {
	var tasks []*scheduler.PeriodicTask

	if cfg.Simulation.Enabled {
		gen := simulator.NewGenerator(simulator.Config{
			Seed:      cfg.Simulation.Seed,
			CenterLat: cfg.Simulation.CenterLat,
			CenterLon: cfg.Simulation.CenterLon,
		})
		sim, err := scheduler.NewSimulationTask(clock, cfg.Scheduler.SimulationInterval, cfg.Scheduler.SimulationBatch, gen, svc)
		if err != nil {
			return nil, fmt.Errorf("simulation task: %w", err)
		}
		tasks = append(tasks, sim)
		logging.Info().
			Dur("interval", cfg.Scheduler.SimulationInterval).
			Int("batch", cfg.Scheduler.SimulationBatch).
			Msg("traffic simulation enabled")
	}

	cleanup, err := scheduler.NewCleanupTask(clock, cfg.Scheduler.CleanupInterval, cfg.Cache.SnapshotMaxAge, cfg.Alerts.TTL, svc)
	if err != nil {
		return nil, fmt.Errorf("cleanup task: %w", err)
	}
	tasks = append(tasks, cleanup)

	analyticsTask, err := scheduler.NewAnalyticsTask(clock, cfg.Scheduler.AnalyticsInterval, svc, exporter, cfg.Export.Timeout)
	if err != nil {
		return nil, fmt.Errorf("analytics task: %w", err)
	}
	tasks = append(tasks, analyticsTask)

	return tasks, nil
}

// register places every long-running component in its supervisor layer.
func (a *app) register(tree *supervisor.SupervisorTree) {
	tree.AddCoreService(services.NewPipelineService(a.service))
	for _, task := range a.tasks {
		tree.AddCoreService(task)
		logging.Info().Str("task", task.String()).Dur("interval", task.Interval()).Msg("periodic task registered")
	}
	tree.AddMessagingService(services.NewWebSocketHubService(a.hub))
	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
}
