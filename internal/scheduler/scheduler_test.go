// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/events"
	"github.com/tomtom215/seatcast/internal/forecast"
	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/report"
)

type mockSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockSource) Query(ctx context.Context, weekdayOnly bool, since *time.Time) ([]models.HistoricalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return make([]models.HistoricalRecord, 12), nil
}

func (m *mockSource) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockTrainer struct {
	failTargets map[models.Target]bool
	err         error
	block       chan struct{}
	entered     chan struct{}
}

func (m *mockTrainer) Train(ctx context.Context, records []models.HistoricalRecord, targets []models.Target) (*forecast.Result, error) {
	if m.entered != nil {
		close(m.entered)
	}
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	result := &forecast.Result{
		Models:   map[models.Target]*forecast.TrainedModel{},
		Failures: map[models.Target]error{},
	}
	for _, t := range targets {
		if m.failTargets[t] {
			result.Failures[t] = &models.TrainingFailure{Target: t, Cause: errors.New("fit diverged")}
			continue
		}
		result.Models[t] = &forecast.TrainedModel{Target: t, TrainingRecordCount: len(records)}
	}
	return result, nil
}

type mockSaver struct {
	mu      sync.Mutex
	batches []map[models.Target]*forecast.TrainedModel
	err     error
}

func (m *mockSaver) Save(ctx context.Context, batch map[models.Target]*forecast.TrainedModel) (map[models.Target]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.batches = append(m.batches, batch)
	out := make(map[models.Target]int, len(batch))
	for t := range batch {
		out[t] = len(m.batches)
	}
	return out, nil
}

func (m *mockSaver) getBatches() []map[models.Target]*forecast.TrainedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[models.Target]*forecast.TrainedModel(nil), m.batches...)
}

type mockReports struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockReports) Generate(ctx context.Context, records []models.HistoricalRecord) (*report.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return &report.Snapshot{}, m.err
}

type mockPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (m *mockPublisher) Publish(ctx context.Context, e *events.RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, e.Topic)
	return nil
}

func (m *mockPublisher) getTopics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.topics...)
}

type fixture struct {
	source  *mockSource
	trainer *mockTrainer
	saver   *mockSaver
	reports *mockReports
	pub     *mockPublisher
	state   *BadgerStateStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() }) //nolint:errcheck // test cleanup

	return &fixture{
		source:  &mockSource{},
		trainer: &mockTrainer{},
		saver:   &mockSaver{},
		reports: &mockReports{},
		pub:     &mockPublisher{},
		state:   NewBadgerStateStoreFromDB(db),
	}
}

func (f *fixture) deps() Deps {
	return Deps{Source: f.source, Trainer: f.trainer, Store: f.saver, Reports: f.reports, Events: f.pub, State: f.state}
}

func (f *fixture) scheduler(t *testing.T, now time.Time) *Scheduler {
	t.Helper()
	s, err := New(context.Background(), DefaultConfig(), f.deps(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.now = func() time.Time { return now }
	return s
}

func (f *fixture) seedLastRun(t *testing.T, at time.Time) {
	t.Helper()
	if err := f.state.Save(context.Background(), SchedulerState{State: StateIdle, LastRunAt: &at}); err != nil {
		t.Fatalf("seed state: %v", err)
	}
}

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func TestCheck_DueAfterCycle(t *testing.T) {
	tests := []struct {
		name    string
		ago     time.Duration
		seed    bool
		wantRan bool
	}{
		{"never run", 0, false, true},
		{"20 days ago", 20 * 24 * time.Hour, true, true},
		{"exactly 14 days ago", 14 * 24 * time.Hour, true, true},
		{"3 days ago", 3 * 24 * time.Hour, true, false},
		{"13 days 23 hours ago", 14*24*time.Hour - time.Hour, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.seed {
				f.seedLastRun(t, now.Add(-tt.ago))
			}
			s := f.scheduler(t, now)

			out, err := s.Check(context.Background())
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if out.Ran != tt.wantRan {
				t.Errorf("Ran = %v, want %v", out.Ran, tt.wantRan)
			}
			wantQueries := 0
			if tt.wantRan {
				wantQueries = 1
			}
			if f.source.getCalls() != wantQueries {
				t.Errorf("source queried %d times, want %d", f.source.getCalls(), wantQueries)
			}

			st := s.Status()
			if tt.wantRan {
				if st.State != StateIdle || st.LastRunAt == nil || !st.LastRunAt.Equal(now) {
					t.Errorf("state after run = %+v", st)
				}
			}
		})
	}
}

func TestCheck_SuccessPersistsAcrossRestart(t *testing.T) {
	f := newFixture(t)
	s := f.scheduler(t, now)

	out, err := s.Force(context.Background())
	if err != nil {
		t.Fatalf("Force() error = %v", err)
	}
	if out.Versions[models.TargetDensity] != 1 || out.Versions[models.TargetSeats] != 1 {
		t.Errorf("Versions = %v", out.Versions)
	}
	if f.reports.calls != 1 {
		t.Errorf("report generated %d times, want 1", f.reports.calls)
	}
	topics := f.pub.getTopics()
	if len(topics) != 2 || topics[0] != events.TopicRunStarted || topics[1] != events.TopicRunSucceeded {
		t.Errorf("published topics = %v", topics)
	}

	// A new scheduler on the same store sees the run and is not due.
	restarted := f.scheduler(t, now.Add(3*24*time.Hour))
	st := restarted.Status()
	if st.LastRunAt == nil || !st.LastRunAt.Equal(now) {
		t.Fatalf("LastRunAt after restart = %v, want %v", st.LastRunAt, now)
	}
	if st.NextRunAt == nil || !st.NextRunAt.Equal(now.Add(14*24*time.Hour)) {
		t.Errorf("NextRunAt = %v", st.NextRunAt)
	}
	out, err = restarted.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if out.Ran {
		t.Error("Check() ran 3 days after a successful run")
	}
}

func TestForce_IgnoresCycle(t *testing.T) {
	f := newFixture(t)
	f.seedLastRun(t, now.Add(-time.Hour))
	s := f.scheduler(t, now)

	out, err := s.Force(context.Background())
	if err != nil {
		t.Fatalf("Force() error = %v", err)
	}
	if !out.Ran || out.Trigger != TriggerForce {
		t.Errorf("outcome = %+v", out)
	}
}

func TestRun_FailureKeepsLastRun(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"source error", func(f *fixture) { f.source.err = errors.New("connection refused") }},
		{"insufficient data", func(f *fixture) {
			f.trainer.err = &models.InsufficientDataError{Required: 10, Actual: 8}
		}},
		{"save error", func(f *fixture) { f.saver.err = errors.New("disk full") }},
		{"report error", func(f *fixture) { f.reports.err = errors.New("write failed") }},
		{"all targets fail", func(f *fixture) {
			f.trainer.failTargets = map[models.Target]bool{models.TargetDensity: true, models.TargetSeats: true}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			lastRun := now.Add(-20 * 24 * time.Hour)
			f.seedLastRun(t, lastRun)
			tt.setup(f)
			s := f.scheduler(t, now)

			out, err := s.Check(context.Background())
			if err == nil {
				t.Fatal("Check() succeeded, want error")
			}
			if out == nil || out.State != StateFailed {
				t.Fatalf("outcome = %+v, want failed", out)
			}

			st := s.Status()
			if st.State != StateFailed || st.LastError == "" || st.ConsecutiveFailures != 1 {
				t.Errorf("state = %+v", st)
			}
			if st.LastRunAt == nil || !st.LastRunAt.Equal(lastRun) {
				t.Errorf("LastRunAt = %v, want unchanged %v", st.LastRunAt, lastRun)
			}
			topics := f.pub.getTopics()
			if topics[len(topics)-1] != events.TopicRunFailed {
				t.Errorf("last topic = %s, want run.failed", topics[len(topics)-1])
			}

			// The next check retries.
			out, _ = s.Check(context.Background()) //nolint:errcheck // retry outcome checked below
			if out == nil || !out.Ran {
				t.Error("next Check() did not retry")
			}
		})
	}
}

func TestRun_PartialSuccess(t *testing.T) {
	f := newFixture(t)
	f.trainer.failTargets = map[models.Target]bool{models.TargetDensity: true}
	s := f.scheduler(t, now)

	out, err := s.Force(context.Background())
	if !errors.Is(err, models.ErrTrainingFailed) {
		t.Fatalf("Force() error = %v, want TrainingFailure", err)
	}

	batches := f.saver.getBatches()
	if len(batches) != 1 {
		t.Fatalf("saved %d batches, want 1", len(batches))
	}
	if _, ok := batches[0][models.TargetSeats]; !ok {
		t.Error("seats model was not saved")
	}
	if _, ok := batches[0][models.TargetDensity]; ok {
		t.Error("failed density target was saved")
	}
	if out.Versions[models.TargetSeats] != 1 {
		t.Errorf("Versions = %v", out.Versions)
	}
	if out.Failures[models.TargetDensity] == "" {
		t.Errorf("Failures = %v", out.Failures)
	}
	if s.Status().State != StateFailed {
		t.Errorf("State = %s, want failed", s.Status().State)
	}
}

func TestRun_LockContention(t *testing.T) {
	f := newFixture(t)
	f.trainer.block = make(chan struct{})
	f.trainer.entered = make(chan struct{})
	s := f.scheduler(t, now)

	done := make(chan error, 1)
	go func() {
		_, err := s.Force(context.Background())
		done <- err
	}()
	<-f.trainer.entered

	queriesBefore := f.source.getCalls()
	for _, call := range []func(context.Context) (*Outcome, error){s.Check, s.Force} {
		out, err := call(context.Background())
		if !errors.Is(err, models.ErrLockContention) {
			t.Errorf("concurrent call error = %v, want LockContention", err)
		}
		if out != nil {
			t.Errorf("concurrent call outcome = %+v, want nil", out)
		}
	}
	if f.source.getCalls() != queriesBefore {
		t.Error("contended call touched the data source")
	}
	if s.Status().State != StateRunning {
		t.Errorf("State during run = %s, want running", s.Status().State)
	}

	close(f.trainer.block)
	if err := <-done; err != nil {
		t.Fatalf("first run error = %v", err)
	}
}

func TestRun_CancelAfterStartStillCommits(t *testing.T) {
	f := newFixture(t)
	f.trainer.block = make(chan struct{})
	f.trainer.entered = make(chan struct{})
	s := f.scheduler(t, now)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		out *Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := s.Force(ctx)
		done <- result{out, err}
	}()
	<-f.trainer.entered
	cancel()
	close(f.trainer.block)

	res := <-done
	if res.err != nil {
		t.Fatalf("Force() error = %v", res.err)
	}
	if res.out.State != StateIdle {
		t.Errorf("State = %s, want idle", res.out.State)
	}
	if len(f.saver.getBatches()) != 1 {
		t.Errorf("saved batches = %d, want 1", len(f.saver.getBatches()))
	}
	persisted, found, err := f.state.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("Load() found=%v error = %v", found, err)
	}
	if persisted.State != StateIdle || persisted.LastRunAt == nil {
		t.Errorf("persisted state = %+v", persisted)
	}
}

func TestStart_HoldsLockOnReturn(t *testing.T) {
	f := newFixture(t)
	f.trainer.block = make(chan struct{})
	s := f.scheduler(t, now)

	done, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := s.Start(context.Background()); !errors.Is(err, models.ErrLockContention) {
		t.Errorf("second Start() error = %v, want LockContention", err)
	}
	if _, err := s.Force(context.Background()); !errors.Is(err, models.ErrLockContention) {
		t.Errorf("Force() during Start error = %v, want LockContention", err)
	}

	close(f.trainer.block)
	select {
	case res := <-done:
		if res.Err != nil || res.Outcome == nil || !res.Outcome.Ran {
			t.Errorf("result = %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("started run never finished")
	}

	if _, err := s.Force(context.Background()); err != nil {
		t.Errorf("Force() after run error = %v", err)
	}
}

func TestNew_InterruptedRunMarkedFailed(t *testing.T) {
	f := newFixture(t)
	last := now.Add(-2 * 24 * time.Hour)
	if err := f.state.Save(context.Background(), SchedulerState{State: StateRunning, LastRunAt: &last, LastRunID: "abc"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := f.scheduler(t, now)
	st := s.Status()
	if st.State != StateFailed || st.LastError == "" {
		t.Errorf("state = %+v, want failed with error", st)
	}
}

func TestStatus_DueDerived(t *testing.T) {
	f := newFixture(t)
	f.seedLastRun(t, now.Add(-30*24*time.Hour))
	s := f.scheduler(t, now)

	if got := s.Status().State; got != StateDue {
		t.Errorf("State = %s, want due", got)
	}
	if got := s.Status().CycleLengthDays; got != 14 {
		t.Errorf("CycleLengthDays = %d, want 14", got)
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(context.Background(), DefaultConfig(), Deps{}, zerolog.Nop()); err == nil {
		t.Error("New() with no deps succeeded")
	}
}

func TestOpenBadgerStateStore(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenBadgerStateStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStateStore() error = %v", err)
	}

	_, found, err := store.Load(context.Background())
	if err != nil || found {
		t.Fatalf("Load() on empty store = found %v, err %v", found, err)
	}
	at := now
	if err := store.Save(context.Background(), SchedulerState{State: StateIdle, LastRunAt: &at}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadgerStateStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }() //nolint:errcheck // test cleanup
	st, found, err := reopened.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("Load() after reopen = found %v, err %v", found, err)
	}
	if st.LastRunAt == nil || !st.LastRunAt.Equal(now) {
		t.Errorf("LastRunAt = %v, want %v", st.LastRunAt, now)
	}
}
