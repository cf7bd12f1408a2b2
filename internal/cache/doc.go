// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package cache provides a small thread-safe in-memory cache with per-entry
// expiry. Expired entries are dropped lazily on Get or in bulk by Cleanup;
// there is no background goroutine.
package cache
