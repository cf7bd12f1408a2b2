// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/logging"
)

// countingService records how often it was started and can fail its first
// runs.
type countingService struct {
	name     string
	starts   atomic.Int32
	failures int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func testTree() *Tree {
	return NewTree(logging.NewSlogLogger(zerolog.Nop()), TreeConfig{
		FailureBackoff:  50 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewTree_Defaults(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(zerolog.Nop()), TreeConfig{})
	want := DefaultTreeConfig()
	if tree.config != want {
		t.Errorf("config = %+v, want %+v", tree.config, want)
	}
}

func TestTree_StartsEveryLayer(t *testing.T) {
	tree := testTree()
	training := &countingService{name: "training"}
	messaging := &countingService{name: "messaging"}
	api := &countingService{name: "api"}
	tree.AddTrainingService(training)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool {
		return training.starts.Load() > 0 && messaging.starts.Load() > 0 && api.starts.Load() > 0
	})
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not shut down")
	}
}

func TestTree_RestartsFailedService(t *testing.T) {
	tree := testTree()
	flaky := &countingService{name: "flaky", failures: 2}
	steady := &countingService{name: "steady"}
	tree.AddTrainingService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	waitFor(t, func() bool { return flaky.starts.Load() >= 3 })
	if steady.starts.Load() != 1 {
		t.Errorf("api service restarted %d times; failures must stay in their layer", steady.starts.Load())
	}
}
