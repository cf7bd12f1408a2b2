// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package websocket pushes retraining run events to browser clients.
//
// A Hub owns the connected clients and fans out messages; it runs under
// the supervisor through RunWithContext. Relay feeds it from an event bus
// subscription, so every run.started / run.succeeded / run.failed event
// reaches each client as
//
//	{"type": "run_succeeded", "data": {...RunEvent...}}
//
// Clients may send {"type": "ping"} and receive {"type": "pong"}. Slow
// clients whose send buffer fills are dropped rather than blocking the hub.
package websocket
