// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package database reads the historical occupancy records the forecasting
// pipeline trains on.
//
// A Source wraps a sqlx connection to one of three drivers:
//
//   - duckdb: embedded analytical store, the default for local deployments
//   - sqlite3: embedded row store, convenient for small installs and tests
//   - postgres: the hosted records table the sensors write to
//
// Every query runs under a per-query timeout and a circuit breaker, so a
// failing backend returns quickly instead of stalling a scheduled run.
//
// The table layout is fixed (see schema.go). Records can be loaded from CSV
// with Seed for bootstrapping a fresh store.
package database
