// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package middleware holds the HTTP middleware shared by every API route.
//
//   - RequestID: reuses or mints X-Request-ID and puts it in the logging
//     context
//   - PrometheusMetrics: records request count and latency per route
//     pattern, so /predictions/1 and /predictions/3 share one series
package middleware
