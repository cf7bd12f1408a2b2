// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/seatcast/internal/events"
)

type mockHub struct {
	mu      sync.Mutex
	relayed []*events.RunEvent
}

func (m *mockHub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockHub) Relay(ctx context.Context, ch <-chan *events.RunEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			m.mu.Lock()
			m.relayed = append(m.relayed, e)
			m.mu.Unlock()
		}
	}
}

func (m *mockHub) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.relayed)
}

type mockSource struct {
	ch  chan *events.RunEvent
	err error
}

func (m *mockSource) Subscribe(context.Context) (<-chan *events.RunEvent, error) {
	return m.ch, m.err
}

func TestWebSocketHubService_RelaysEvents(t *testing.T) {
	hub := &mockHub{}
	src := &mockSource{ch: make(chan *events.RunEvent, 1)}
	svc := NewWebSocketHubService(hub, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	src.ch <- events.NewRunEvent(events.TopicRunStarted, "abc12345", "check", time.Now())

	deadline := time.Now().Add(2 * time.Second)
	for hub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.count() != 1 {
		t.Fatalf("relayed %d events, want 1", hub.count())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v", err)
	}
}

func TestWebSocketHubService_ClosedSubscriptionRestarts(t *testing.T) {
	src := &mockSource{ch: make(chan *events.RunEvent)}
	close(src.ch)
	svc := NewWebSocketHubService(&mockHub{}, src)

	if err := svc.Serve(context.Background()); !errors.Is(err, errSubscriptionClosed) {
		t.Errorf("Serve returned %v, want errSubscriptionClosed", err)
	}
}

func TestWebSocketHubService_SubscribeError(t *testing.T) {
	src := &mockSource{err: errors.New("bus closed")}
	svc := NewWebSocketHubService(&mockHub{}, src)

	if err := svc.Serve(context.Background()); !errors.Is(err, src.err) {
		t.Errorf("Serve returned %v", err)
	}
}

func TestWebSocketHubService_NoSource(t *testing.T) {
	svc := NewWebSocketHubService(&mockHub{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v", err)
	}
}
