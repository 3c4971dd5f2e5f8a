// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/trafficpulse/internal/scheduler"
)

// ListTasks returns the periodic tasks and whether each is paused.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if h.config.Tasks == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Task control unavailable", nil)
		return
	}
	tasks := h.config.Tasks.List()
	respondList(w, r, tasks, len(tasks))
}

// PauseTask stops the named task from running on its next ticks.
func (h *Handler) PauseTask(w http.ResponseWriter, r *http.Request) {
	h.controlTask(w, r, TaskController.Pause)
}

// ResumeTask undoes PauseTask.
func (h *Handler) ResumeTask(w http.ResponseWriter, r *http.Request) {
	h.controlTask(w, r, TaskController.Resume)
}

func (h *Handler) controlTask(w http.ResponseWriter, r *http.Request, op func(TaskController, string) (scheduler.TaskStatus, error)) {
	if h.config.Tasks == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Task control unavailable", nil)
		return
	}

	name := chi.URLParam(r, "name")
	status, err := op(h.config.Tasks, name)
	if errors.Is(err, scheduler.ErrUnknownTask) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Unknown task: "+sanitizeLogValue(name), nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Task control failed", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, status)
}
