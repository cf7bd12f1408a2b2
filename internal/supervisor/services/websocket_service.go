// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/seatcast/internal/events"
)

// ContextHub is the subset of *websocket.Hub the service drives.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
	Relay(ctx context.Context, ch <-chan *events.RunEvent)
}

// EventSource yields run events, e.g. *events.Bus.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan *events.RunEvent, error)
}

// errSubscriptionClosed makes suture resubscribe when the bus closes the
// channel underneath a running hub.
var errSubscriptionClosed = errors.New("run event subscription closed")

// WebSocketHubService runs the websocket hub and, when a source is set,
// relays run events from it to connected clients.
type WebSocketHubService struct {
	hub    ContextHub
	source EventSource
	name   string
}

// NewWebSocketHubService wraps hub. source may be nil.
func NewWebSocketHubService(hub ContextHub, source EventSource) *WebSocketHubService {
	return &WebSocketHubService{
		hub:    hub,
		source: source,
		name:   "websocket-hub",
	}
}

// Serve implements suture.Service.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	var ch <-chan *events.RunEvent
	if w.source != nil {
		var err error
		if ch, err = w.source.Subscribe(ctx); err != nil {
			return fmt.Errorf("subscribe to run events: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.hub.RunWithContext(gctx)
	})
	if ch != nil {
		g.Go(func() error {
			w.hub.Relay(gctx, ch)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return errSubscriptionClosed
		})
	}
	return g.Wait()
}

// String implements fmt.Stringer for suture's logs.
func (w *WebSocketHubService) String() string {
	return w.name
}
