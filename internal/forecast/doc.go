// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package forecast trains and selects the occupancy models.
//
// For each target (density rate, occupied seats) the Trainer:
//
//  1. encodes every record's weekday into a feature row
//  2. requires at least MinRecords rows
//  3. holds out a seeded 20% test split and cuts the rest into 5 CV folds
//  4. runs one seeded CMA-ES hyperparameter study per algorithm family,
//     scoring each trial by mean cross-validated RMSE
//  5. keeps the family with the lowest CV RMSE (ties go to the family that
//     comes first in algorithms.Families), refits it on the full training
//     split and scores it on the held-out split
//
// Targets are trained independently: one target failing never discards the
// other target's model. Training has no side effects beyond metrics;
// persisting the result is the storage package's job.
//
// # Determinism
//
// Every study sampler and every model fit is seeded from Config.Seed, and the
// family studies write into fixed result slots, so the same records and
// configuration always select the same family with the same metrics even
// though families search concurrently.
package forecast
