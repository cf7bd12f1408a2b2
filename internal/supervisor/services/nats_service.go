// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// EmbeddedNATS is the lifecycle subset of *events.EmbeddedServer.
type EmbeddedNATS interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// NATSServerService owns an already started embedded NATS server: it
// watches it while the tree runs and shuts it down when the tree stops.
type NATSServerService struct {
	server          EmbeddedNATS
	shutdownTimeout time.Duration
	checkInterval   time.Duration
	name            string
}

// NewNATSServerService wraps server.
func NewNATSServerService(server EmbeddedNATS, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		checkInterval:   5 * time.Second,
		name:            "nats-server",
	}
}

// Serve implements suture.Service. An embedded server cannot be restarted
// in place, so if it stops on its own the service reports
// suture.ErrDoNotRestart.
func (s *NATSServerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("NATS server shutdown failed: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.server.IsRunning() {
				return fmt.Errorf("embedded NATS server stopped: %w", suture.ErrDoNotRestart)
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *NATSServerService) String() string {
	return s.name
}
