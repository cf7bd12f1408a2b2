// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/seatcast/internal/config"
	"github.com/tomtom215/seatcast/internal/middleware"
	"github.com/tomtom215/seatcast/internal/models"
)

// NewRouter builds the HTTP routes.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Ready)
		r.Get("/health/live", h.Live)
		r.Get("/health/ready", h.Ready)
		r.Get("/events/ws", h.Events)

		r.Group(func(r chi.Router) {
			if cfg.RateLimitRequests > 0 {
				r.Use(httprate.Limit(
					cfg.RateLimitRequests,
					cfg.RateLimitWindow,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(rateLimited),
				))
			}
			// Forced runs may train for longer than the request timeout.
			r.Post("/scheduler/run", h.SchedulerRun)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Compress(5, "application/json"))
				r.Use(chimiddleware.Timeout(30 * time.Second))

				r.Get("/predictions/weekly", h.PredictWeekly)
				r.Get("/predictions/today-tomorrow", h.PredictTodayTomorrow)
				r.Get("/predictions/{day}", h.PredictDay)
				r.Get("/predictions/{day}/schedule", h.PredictSchedule)
				r.Get("/model/info", h.ModelInfo)
				r.Get("/reports/latest", h.LatestReport)
				r.Get("/reports/archive", h.ReportArchive)
				r.Get("/reports/latest/monthly", h.MonthlyAnalysis)
				r.Get("/history", h.History)
				r.Get("/history/recent/{limit}", h.RecentHistory)
				r.Get("/history/count", h.HistoryCount)
				r.Get("/scheduler/status", h.SchedulerStatus)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, &models.APIError{Code: CodeNotFound, Message: "route not found"})
	})
	return r
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusTooManyRequests, &models.APIError{
		Code:    "RATE_LIMITED",
		Message: "too many requests",
	})
}
