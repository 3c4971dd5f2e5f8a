// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/trafficpulse/internal/models"
	"github.com/tomtom215/trafficpulse/internal/snapshot"
	"github.com/tomtom215/trafficpulse/internal/traffic"
	"github.com/tomtom215/trafficpulse/internal/validation"
)

// IngestTraffic accepts one traffic observation. The snapshot is stored
// before the response is written; alerting and broadcast happen
// asynchronously, hence 202.
func (h *Handler) IngestTraffic(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := decodeJSONBody(w, r, &req, h.config.MaxBodyBytes); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidJSON, "Invalid request body: "+err.Error(), nil)
		return
	}

	snap, err := h.svc.Ingest(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusAccepted, snap)
}

// ListTraffic returns every cached snapshot sorted by location.
func (h *Handler) ListTraffic(w http.ResponseWriter, r *http.Request) {
	snaps := h.svc.ListSnapshots()
	if snaps == nil {
		snaps = []models.TrafficSnapshot{}
	}
	respondList(w, r, snaps, len(snaps))
}

// GetTraffic returns one location. The path segment is tried as an exact
// location name first, then as a location id such as "city_center".
func (h *Handler) GetTraffic(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	if decoded, err := url.PathUnescape(location); err == nil {
		location = decoded
	}
	location = strings.TrimSpace(location)
	if location == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "location is required", nil)
		return
	}

	if snap, ok := h.svc.GetSnapshot(location); ok {
		respondSuccess(w, r, http.StatusOK, snap)
		return
	}
	if payload := h.svc.LocationTraffic(location); payload.Data != nil {
		respondSuccess(w, r, http.StatusOK, payload.Data)
		return
	}

	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "No traffic data for location", nil)
}

// NearbyTraffic lists snapshots within ?radius km (default 5) of ?lat,?lon,
// nearest first.
func (h *Handler) NearbyTraffic(w http.ResponseWriter, r *http.Request) {
	lat, hasLat, err := getFloatParam(r, "lat")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	lon, hasLon, err := getFloatParam(r, "lon")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if !hasLat || !hasLon {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "lat and lon are required", nil)
		return
	}
	radius, _, err := getFloatParam(r, "radius")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	nearby, err := h.svc.NearbySnapshots(traffic.NearbyQuery{Latitude: lat, Longitude: lon, RadiusKm: radius})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if nearby == nil {
		nearby = []snapshot.NearbySnapshot{}
	}
	respondList(w, r, nearby, len(nearby))
}

// respondServiceError maps errors returned by the traffic service.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondValidationError(w, r, verr)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request canceled", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", err)
	}
}
