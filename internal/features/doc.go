// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package features turns a weekday index into the numeric feature vector
// consumed by every forecasting algorithm.
//
// The model space is day-of-week only. A vector carries the raw index, a
// circular sine/cosine encoding over the seven-day week (so Friday sits close
// to the following Monday) and a coarse week-position bucket. An optional
// hour is carried for display purposes and never reaches the design row.
package features
