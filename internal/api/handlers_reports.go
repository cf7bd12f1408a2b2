// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"net/http"

	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/report"
)

func unavailable(what string) *models.APIError {
	return &models.APIError{Code: CodeUnavailable, Message: what + " is not configured"}
}

// LatestReport serves the newest report snapshot.
func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	if h.deps.Reports == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("report store"))
		return
	}
	snap, err := h.deps.Reports.Latest(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, snap)
}

// ReportArchive lists archived snapshots, oldest first.
func (h *Handler) ReportArchive(w http.ResponseWriter, r *http.Request) {
	if h.deps.Reports == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("report store"))
		return
	}
	entries, err := h.deps.Reports.ListArchive()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, entries)
}

// MonthlyAnalysis serves the per-month statistics of the newest snapshot.
func (h *Handler) MonthlyAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.deps.Reports == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("report store"))
		return
	}
	snap, err := h.deps.Reports.Latest(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	monthly := snap.Analysis.MonthlyAnalysis
	if monthly == nil {
		monthly = map[string]report.MonthStats{}
	}
	respondJSON(w, r, http.StatusOK, monthly)
}
