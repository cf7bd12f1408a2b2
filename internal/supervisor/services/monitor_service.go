// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/scheduler"
)

// Checker runs the scheduler's due check.
type Checker interface {
	Check(ctx context.Context) (*scheduler.Outcome, error)
}

// MonitorConfig holds monitor loop settings.
type MonitorConfig struct {
	// PollInterval is how often the due check runs. Default: 1h.
	PollInterval time.Duration
}

// MonitorService runs the scheduler's due check on a fixed interval. It
// checks once at start so a cycle that came due while the process was down
// runs immediately.
type MonitorService struct {
	checker Checker
	config  MonitorConfig
	logger  zerolog.Logger
	name    string
}

// NewMonitorService creates the monitor loop.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMonitorService(checker Checker, cfg MonitorConfig, logger zerolog.Logger) *MonitorService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Hour
	}
	return &MonitorService{
		checker: checker,
		config:  cfg,
		logger:  logger.With().Str("service", "monitor").Logger(),
		name:    "scheduler-monitor",
	}
}

// Serve implements suture.Service.
func (s *MonitorService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("poll_interval", s.config.PollInterval).Msg("monitor starting")

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.check(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("monitor shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// check runs one due check. Failures are logged and retried on the next
// tick; the scheduler already persisted them. A started run is not bounded
// by a deadline.
func (s *MonitorService) check(ctx context.Context) {
	out, err := s.checker.Check(ctx)
	switch {
	case errors.Is(err, models.ErrLockContention):
		s.logger.Debug().Msg("run already in progress, skipping check")
	case err != nil:
		ev := s.logger.Warn().Err(err)
		if out != nil {
			ev = ev.Str("run_id", out.RunID).Int("failed_targets", len(out.Failures))
		}
		ev.Msg("scheduled run failed")
	case out != nil && out.Ran:
		s.logger.Info().
			Str("run_id", out.RunID).
			Int("records", out.Records).
			Dur("duration", out.Duration).
			Msg("scheduled run completed")
	default:
		s.logger.Debug().Msg("no run due")
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *MonitorService) String() string {
	return s.name
}
