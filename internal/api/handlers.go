// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/trafficpulse/internal/broadcast"
	"github.com/tomtom215/trafficpulse/internal/logging"
	"github.com/tomtom215/trafficpulse/internal/models"
	"github.com/tomtom215/trafficpulse/internal/scheduler"
	"github.com/tomtom215/trafficpulse/internal/snapshot"
	"github.com/tomtom215/trafficpulse/internal/traffic"
	ws "github.com/tomtom215/trafficpulse/internal/websocket"
)

// TrafficService is the core the handlers delegate to. *traffic.Service
// implements it.
type TrafficService interface {
	Ingest(ctx context.Context, req models.IngestRequest) (models.TrafficSnapshot, error)
	GetSnapshot(location string) (models.TrafficSnapshot, bool)
	ListSnapshots() []models.TrafficSnapshot
	GetActiveAlerts() []models.Alert
	GetAnalyticsSummary() models.AnalyticsSummary
	LocationTraffic(id string) models.LocationTrafficPayload
	NearbySnapshots(q traffic.NearbyQuery) ([]snapshot.NearbySnapshot, error)
	OptimizeSignal(req models.SignalOptimizationRequest) (models.SignalTimingPlan, error)
	Stats() models.CoreStats
	Subscribe(topic string) (*broadcast.Subscription, error)
	Unsubscribe(sub *broadcast.Subscription)
}

// TaskController pauses and resumes periodic tasks. *scheduler.Controls
// implements it.
type TaskController interface {
	List() []scheduler.TaskStatus
	Pause(name string) (scheduler.TaskStatus, error)
	Resume(name string) (scheduler.TaskStatus, error)
}

// HandlerConfig tunes the handlers.
type HandlerConfig struct {
	// Tasks backs the task control endpoints. Nil answers 503.
	Tasks TaskController
	// CORSOrigins also gates websocket upgrades. "*" allows any origin.
	CORSOrigins []string
	// WebSocket bounds inbound client traffic.
	WebSocket ws.ClientConfig
	// MaxBodyBytes caps JSON request bodies. Zero selects DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Handler serves the HTTP endpoints.
type Handler struct {
	svc       TrafficService
	hub       *ws.Hub
	config    HandlerConfig
	startTime time.Time
}

// NewHandler creates a handler. hub may be nil, in which case websocket
// upgrades answer 503.
func NewHandler(svc TrafficService, hub *ws.Hub, cfg HandlerConfig) *Handler {
	return &Handler{
		svc:       svc,
		hub:       hub,
		config:    cfg,
		startTime: time.Now(),
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// CORS allow-list. A wildcard list also admits clients without an Origin
// header; otherwise those are rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	wildcard := false
	for _, allowed := range h.config.CORSOrigins {
		if allowed == "*" {
			wildcard = true
			break
		}
	}

	if origin == "" {
		if !wildcard {
			logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		}
		return wildcard
	}
	if wildcard {
		return true
	}

	for _, allowed := range h.config.CORSOrigins {
		if allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
