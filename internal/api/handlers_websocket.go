// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/trafficpulse/internal/broadcast"
	"github.com/tomtom215/trafficpulse/internal/logging"
	ws "github.com/tomtom215/trafficpulse/internal/websocket"
)

// WebSocket upgrades the connection and subscribes it to ?topic (default
// "traffic"). The first frame is the topic's state dump.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = broadcast.TopicTraffic
	}
	if !broadcast.ValidTopic(topic) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Unknown topic: "+sanitizeLogValue(topic), nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Debug().Err(err).Msg("WebSocket upgrade error")
		return
	}

	sub, err := h.svc.Subscribe(topic)
	if err != nil {
		logging.Warn().Err(err).Str("topic", topic).Msg("WebSocket subscribe failed")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscription unavailable"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	client := ws.NewClient(h.hub, conn, sub, func() { h.svc.Unsubscribe(sub) }, h.config.WebSocket)
	client.Start()
}
