// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/trafficpulse/internal/models"
)

// Alerts returns the active alerts in creation order.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	active := h.svc.GetActiveAlerts()
	if active == nil {
		active = []models.Alert{}
	}
	respondList(w, r, active, len(active))
}

// Analytics returns the latest analytics summary.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.svc.GetAnalyticsSummary())
}

// OptimizeSignal computes a signal timing plan for one intersection.
func (h *Handler) OptimizeSignal(w http.ResponseWriter, r *http.Request) {
	var req models.SignalOptimizationRequest
	if err := decodeJSONBody(w, r, &req, h.config.MaxBodyBytes); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidJSON, "Invalid request body: "+err.Error(), nil)
		return
	}

	plan, err := h.svc.OptimizeSignal(req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, plan)
}

// StatsResponse is the /stats payload.
type StatsResponse struct {
	models.CoreStats
	WebSocketClients int     `json:"websocketClients"`
	UptimeSeconds    float64 `json:"uptimeSeconds"`
}

// Stats returns the performance counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		CoreStats:     h.svc.Stats(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if h.hub != nil {
		resp.WebSocketClients = h.hub.GetClientCount()
	}
	respondSuccess(w, r, http.StatusOK, resp)
}

// Health is the liveness probe. It reports healthy whenever the process can
// serve requests; there are no external dependencies to check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.Stats()
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"uptime":           time.Since(h.startTime).Seconds(),
		"cached_locations": stats.CachedLocations,
		"subscribers":      stats.ActiveSubscribers,
	})
}

// NotFound answers unmatched routes with the JSON envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
}

// MethodNotAllowed answers known routes hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
}
