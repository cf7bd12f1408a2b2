// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package api serves predictions, reports and scheduler control over HTTP.
//
// Routes (all JSON unless noted):
//
//	GET  /api/v1/health                          alias of /health/ready
//	GET  /api/v1/health/live                     process is up
//	GET  /api/v1/health/ready                    database reachable and models loaded
//	GET  /api/v1/predictions/weekly              Monday..Friday averages
//	GET  /api/v1/predictions/today-tomorrow      next two weekdays with confidence
//	GET  /api/v1/predictions/{day}               point prediction, day 0..4
//	GET  /api/v1/predictions/{day}/schedule      24 hourly entries, optional start_hour/end_hour
//	GET  /api/v1/model/info                      current model metadata
//	GET  /api/v1/reports/latest                  newest report snapshot
//	GET  /api/v1/reports/latest/monthly          per-month statistics of the newest snapshot
//	GET  /api/v1/reports/archive                 archived snapshot names
//	GET  /api/v1/history                         stored records, optional weekday_only=true
//	GET  /api/v1/history/recent/{limit}          newest records, limit 1..1000
//	GET  /api/v1/history/count                   number of stored records
//	GET  /api/v1/scheduler/status                persisted scheduler state
//	POST /api/v1/scheduler/run                   start a forced run (202, or 409 while running; ?wait=true blocks)
//	GET  /api/v1/events/ws                       websocket stream of run events
//	GET  /metrics                                Prometheus exposition
//
// Every JSON response uses the models.APIResponse envelope. Errors map to
// codes through respondErr: VALIDATION_ERROR 400, NOT_FOUND 404,
// LOCK_CONTENTION 409, MODEL_UNAVAILABLE 503, INTERNAL_ERROR 500.
package api
