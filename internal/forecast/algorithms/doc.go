// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package algorithms implements the regression families the forecaster
// chooses between.
//
// # Algorithm Families
//
//   - Tree ensembles: random forest (bagged CART), gradient boosting (stagewise CART on residuals)
//   - Linear: ridge (closed form), elastic net (coordinate descent)
//   - Kernel: epsilon-insensitive support vector regression with an RBF kernel
//
// A Model is a tagged variant: Family selects which state pointer is
// populated, and Fit/Predict dispatch on it once. Every field is exported so
// a fitted Model round-trips through encoding/gob unchanged.
//
// # Determinism
//
// All randomness (bootstrap and subsample draws) comes from a math/rand
// source seeded by the caller, so the same data, parameters and seed always
// produce the same fitted model.
package algorithms
