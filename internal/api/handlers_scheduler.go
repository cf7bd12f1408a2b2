// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"net/http"

	"github.com/tomtom215/seatcast/internal/scheduler"
)

// runAccepted is returned when a forced run starts in the background.
type runAccepted struct {
	Accepted bool   `json:"accepted"`
	Trigger  string `json:"trigger"`
	Status   string `json:"status_url"`
}

// SchedulerStatus serves the persisted scheduler state.
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Runs == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("scheduler"))
		return
	}
	respondJSON(w, r, http.StatusOK, h.deps.Runs.Status())
}

// SchedulerRun starts a forced run. Training outlives the request, so the
// run continues on the base context and the caller polls the status
// endpoint or listens on the event stream. With ?wait=true the handler
// blocks and returns the outcome instead. The run lock is taken before the
// response is written, so 202 always means this request started the run.
func (h *Handler) SchedulerRun(w http.ResponseWriter, r *http.Request) {
	if h.deps.Runs == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("scheduler"))
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		out, err := h.deps.Runs.Force(r.Context())
		if err != nil && out == nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, out)
		return
	}

	done, err := h.deps.Runs.Start(h.deps.BaseContext)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	go func() {
		res := <-done
		if res.Err != nil {
			ev := h.logger.Warn().Err(res.Err)
			if res.Outcome != nil {
				ev = ev.Str("run_id", res.Outcome.RunID)
			}
			ev.Msg("forced run finished with error")
		}
	}()

	respondJSON(w, r, http.StatusAccepted, runAccepted{
		Accepted: true,
		Trigger:  string(scheduler.TriggerForce),
		Status:   "/api/v1/scheduler/status",
	})
}
