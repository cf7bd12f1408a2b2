// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package report builds and persists report snapshots.
//
// A snapshot combines descriptive statistics of the historical records with
// the current predictions and model performance. Each generation writes an
// immutable archive entry (data_YYYYMMDD_HHMMSS.json, with a _N suffix for
// further snapshots in the same second) and then replaces
// latest_data.json by rename, so readers see either the previous or the new
// snapshot in full.
package report
