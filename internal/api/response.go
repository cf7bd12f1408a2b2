// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seatcast/internal/logging"
	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/validation"
)

// Error codes.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeLockContention   = "LOCK_CONTENTION"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// sanitizeLogValue escapes control characters so request input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, &models.APIResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError) {
	writeEnvelope(w, r, status, &models.APIResponse{Success: false, Error: apiErr})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, resp *models.APIResponse) {
	resp.Metadata = models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("failed to write JSON response")
	}
}

// respondErr maps err onto a status and code. ModelUnavailable is checked
// before NotFound because it wraps the store's not-found cause.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *validation.RequestValidationError
	switch {
	case errors.As(err, &reqErr):
		respondError(w, r, http.StatusBadRequest, reqErr.ToAPIError())
	case errors.Is(err, models.ErrValidation):
		respondError(w, r, http.StatusBadRequest, validationDetails(err))
	case errors.Is(err, models.ErrModelUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, &models.APIError{Code: CodeModelUnavailable, Message: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		respondError(w, r, http.StatusNotFound, &models.APIError{Code: CodeNotFound, Message: err.Error()})
	case errors.Is(err, models.ErrLockContention):
		respondError(w, r, http.StatusConflict, &models.APIError{Code: CodeLockContention, Message: err.Error()})
	default:
		logging.Ctx(r.Context()).Error().
			Str("path", sanitizeLogValue(r.URL.Path)).
			Err(err).
			Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, &models.APIError{Code: CodeInternal, Message: "internal server error"})
	}
}

func validationDetails(err error) *models.APIError {
	apiErr := &models.APIError{Code: CodeValidation, Message: err.Error()}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		apiErr.Details = map[string]interface{}{"field": ve.Field, "value": ve.Value}
	}
	return apiErr
}
