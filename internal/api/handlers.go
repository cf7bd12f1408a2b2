// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"context"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/prediction"
	"github.com/tomtom215/seatcast/internal/report"
	"github.com/tomtom215/seatcast/internal/scheduler"
	"github.com/tomtom215/seatcast/internal/websocket"
)

// Predictor serves predictions from the current models.
type Predictor interface {
	PredictPoint(ctx context.Context, day int) (prediction.Point, error)
	PredictSchedule(ctx context.Context, day int) (prediction.Schedule, error)
	WeeklyAverage(ctx context.Context) (*prediction.WeeklySummary, error)
	TodayTomorrow(ctx context.Context, now time.Time) (*prediction.TodayTomorrow, error)
	ModelInfo(ctx context.Context) (*prediction.ModelInfo, error)
}

// ReportReader exposes stored report snapshots.
type ReportReader interface {
	Latest(ctx context.Context) (*report.Snapshot, error)
	ListArchive() ([]report.ArchiveEntry, error)
}

// RunController exposes the retraining scheduler.
type RunController interface {
	Status() scheduler.SchedulerState
	Force(ctx context.Context) (*scheduler.Outcome, error)
	Start(ctx context.Context) (<-chan scheduler.RunResult, error)
}

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the handler's collaborators. Hub and Database may be nil.
type Deps struct {
	Predictor Predictor
	Reports   ReportReader
	Runs      RunController
	History   HistoryReader
	Database  Pinger
	Hub       *websocket.Hub

	// BaseContext outlives requests; forced runs started over HTTP use it.
	BaseContext context.Context

	// AllowedOrigins are accepted websocket origins ("*" accepts any).
	AllowedOrigins []string
}

// Handler implements the HTTP endpoints.
type Handler struct {
	deps      Deps
	logger    zerolog.Logger
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}
	return &Handler{
		deps:      deps,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
		now:       time.Now,
	}
}

func (h *Handler) upgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin rejects browser connections from origins outside the
// allow-list; a missing Origin header is rejected too.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		h.logger.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.deps.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.logger.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// Events upgrades to a websocket that receives run events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.deps.Hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, unavailable("event stream"))
		return
	}
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := websocket.NewClient(h.deps.Hub, conn)
	h.deps.Hub.Register <- client
	client.Start()
}
