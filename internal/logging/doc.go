// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package logging configures the process-wide zerolog logger.
//
// Components take a zerolog.Logger in their constructors and derive a child
// with a component field; main builds the root from Init:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logger := logging.WithComponent("scheduler")
//
// Context helpers carry a run or request ID through a call chain:
//
//	ctx = logging.ContextWithRunID(ctx, runID)
//	logging.Ctx(ctx).Info().Msg("training started")
//
// SlogHandler bridges libraries that want a *slog.Logger (the supervisor's
// sutureslog event hook) onto the same zerolog output.
package logging
