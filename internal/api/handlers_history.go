// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/validation"
)

// HistoryReader exposes the historical occupancy records.
type HistoryReader interface {
	Query(ctx context.Context, weekdayOnly bool, since *time.Time) ([]models.HistoricalRecord, error)
	Recent(ctx context.Context, limit int) ([]models.HistoricalRecord, error)
	Count(ctx context.Context) (int, error)
}

type historyPage struct {
	Count   int                       `json:"count"`
	Limit   int                       `json:"limit,omitempty"`
	Records []models.HistoricalRecord `json:"records"`
}

type historyCount struct {
	Count int `json:"count"`
}

// History lists every record oldest first. ?weekday_only=true drops
// weekend rows.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("history"))
		return
	}
	records, err := h.deps.History.Query(r.Context(), r.URL.Query().Get("weekday_only") == "true", nil)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if records == nil {
		records = []models.HistoricalRecord{}
	}
	respondJSON(w, r, http.StatusOK, historyPage{Count: len(records), Records: records})
}

// RecentHistory lists the newest {limit} records, newest first.
func (h *Handler) RecentHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("history"))
		return
	}
	raw := chi.URLParam(r, "limit")
	limit, err := strconv.Atoi(raw)
	if err != nil {
		respondErr(w, r, &models.ValidationError{Field: "limit", Value: raw, Message: "must be an integer"})
		return
	}
	if verr := validation.ValidateStruct(&validation.RecentQuery{Limit: limit}); verr != nil {
		respondErr(w, r, verr)
		return
	}

	records, err := h.deps.History.Recent(r.Context(), limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if records == nil {
		records = []models.HistoricalRecord{}
	}
	respondJSON(w, r, http.StatusOK, historyPage{Count: len(records), Limit: limit, Records: records})
}

// HistoryCount reports the total number of stored records.
func (h *Handler) HistoryCount(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("history"))
		return
	}
	n, err := h.deps.History.Count(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, historyCount{Count: n})
}
