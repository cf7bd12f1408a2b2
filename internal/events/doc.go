// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package events carries scheduler run events between components.
//
// The bus is built on Watermill. Without a broker URL it uses the in-process
// gochannel Pub/Sub; with one it publishes and subscribes over core NATS
// (JetStream disabled, since run events are notifications rather than a
// durable log). An embedded NATS server can be started for single-node
// deployments that still want external subscribers.
//
// Topics:
//
//	seatcast.run.started
//	seatcast.run.succeeded
//	seatcast.run.failed
package events
