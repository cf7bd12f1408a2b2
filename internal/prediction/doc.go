// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package prediction serves point, schedule and weekly predictions from the
// current trained models.
//
// The service reads models through a ModelSource and caches the loaded set
// by pointer generation, so a retrain becomes visible on the next call
// without a restart and without re-reading artifacts on every request.
//
// Predictions are post-processed before they are returned: seat counts are
// rounded and floored at zero, density is clamped to [0, 100], and each
// result carries the derived occupancy rate, available seats and status.
//
// Example:
//
//	svc := prediction.NewService(store, source, prediction.Config{}, logger)
//	p, err := svc.PredictPoint(ctx, 2)
//	for hour, entry := range svc.PredictSchedule(ctx, 2).All() { ... }
package prediction
