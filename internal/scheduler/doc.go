// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package scheduler decides when models are retrained and runs the
// retraining pipeline.
//
// A run queries the historical data source, trains every target, saves the
// successful models as one batch and regenerates the report. Runs are
// mutually exclusive: a run requested while another is active fails fast
// with models.LockContention rather than queueing.
//
// # State Machine
//
//	Idle --(cycle elapsed)--> Due --(lock acquired)--> Running --> Idle | Failed
//
// Due is derived from last_run_at and the cycle length. Failed leaves
// last_run_at untouched, so the next check retries. A run in which some
// targets trained and others failed keeps the saved targets serving but is
// still recorded as Failed.
//
// The state is persisted in BadgerDB and survives restarts. A state that
// was Running when the process stopped is reloaded as Failed.
//
// The periodic poll lives in supervisor/services.MonitorService, which
// calls Check on a fixed interval.
package scheduler
