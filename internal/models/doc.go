// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package models holds the types shared across seatcast packages: historical
// occupancy records, forecast targets, the HTTP response envelope and the
// typed errors every layer wraps.
//
// Errors carry a sentinel through Is so callers can branch with errors.Is
// without depending on the concrete type:
//
//	if errors.Is(err, models.ErrModelUnavailable) {
//		// retrain or report 503
//	}
package models
