// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"context"
	"net/http"
	"time"
)

// healthStatus is the readiness payload.
type healthStatus struct {
	Status    string            `json:"status"`
	Uptime    float64           `json:"uptime_seconds"`
	Checks    map[string]string `json:"checks"`
	Scheduler string            `json:"scheduler,omitempty"`
}

// Live reports that the process is serving requests.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether the data source answers and a model pair is loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := healthStatus{
		Status: "ready",
		Uptime: time.Since(h.startTime).Seconds(),
		Checks: make(map[string]string, 2),
	}
	fail := func(name string, err error) {
		status.Status = "not_ready"
		status.Checks[name] = err.Error()
	}

	if h.deps.Database != nil {
		if err := h.deps.Database.Ping(ctx); err != nil {
			fail("database", err)
		} else {
			status.Checks["database"] = "ok"
		}
	}
	if _, err := h.deps.Predictor.ModelInfo(ctx); err != nil {
		fail("models", err)
	} else {
		status.Checks["models"] = "ok"
	}
	if h.deps.Runs != nil {
		status.Scheduler = string(h.deps.Runs.Status().State)
	}

	code := http.StatusOK
	if status.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, r, code, status)
}
