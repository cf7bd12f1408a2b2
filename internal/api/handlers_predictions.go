// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/prediction"
	"github.com/tomtom215/seatcast/internal/validation"
)

// parseDay reads and validates the {day} path parameter.
func parseDay(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "day")
	day, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.ValidationError{Field: "day_of_week", Value: raw, Message: "must be an integer between 0 and 4"}
	}
	if verr := validation.ValidateStruct(&validation.DayQuery{Day: day}); verr != nil {
		return 0, verr
	}
	return day, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.ValidationError{Field: key, Value: raw, Message: "must be an integer"}
	}
	return v, nil
}

// PredictDay serves one day's point prediction.
func (h *Handler) PredictDay(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	point, err := h.deps.Predictor.PredictPoint(r.Context(), day)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, point)
}

// scheduleResponse is the schedule endpoint payload.
type scheduleResponse struct {
	Prediction prediction.Point           `json:"prediction"`
	Schedule   []prediction.ScheduleEntry `json:"schedule"`
}

// PredictSchedule serves the hourly schedule, optionally limited to
// start_hour..end_hour inclusive.
func (h *Handler) PredictSchedule(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	q := validation.ScheduleQuery{Day: day}
	if q.StartHour, err = queryInt(r, "start_hour", 0); err != nil {
		respondErr(w, r, err)
		return
	}
	if q.EndHour, err = queryInt(r, "end_hour", 23); err != nil {
		respondErr(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondErr(w, r, verr)
		return
	}

	schedule, err := h.deps.Predictor.PredictSchedule(r.Context(), day)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	entries := make([]prediction.ScheduleEntry, 0, q.EndHour-q.StartHour+1)
	for hour, entry := range schedule.All() {
		if hour > q.EndHour {
			break
		}
		if hour >= q.StartHour {
			entries = append(entries, entry)
		}
	}
	respondJSON(w, r, http.StatusOK, scheduleResponse{Prediction: schedule.Point(), Schedule: entries})
}

// PredictWeekly serves the Monday..Friday summary.
func (h *Handler) PredictWeekly(w http.ResponseWriter, r *http.Request) {
	summary, err := h.deps.Predictor.WeeklyAverage(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}

// PredictTodayTomorrow serves the next two weekdays.
func (h *Handler) PredictTodayTomorrow(w http.ResponseWriter, r *http.Request) {
	tt, err := h.deps.Predictor.TodayTomorrow(r.Context(), h.now())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, tt)
}

// ModelInfo serves metadata for the current model pair.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.Predictor.ModelInfo(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, info)
}
