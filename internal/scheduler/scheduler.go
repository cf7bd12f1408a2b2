// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/events"
	"github.com/tomtom215/seatcast/internal/forecast"
	"github.com/tomtom215/seatcast/internal/metrics"
	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/report"
)

// Trigger names what started a run.
type Trigger string

// Run triggers.
const (
	TriggerCheck Trigger = "check"
	TriggerForce Trigger = "force"
)

// DefaultCycleDays is the retraining cycle.
const DefaultCycleDays = 14

// RecordSource supplies historical records ordered by created_at.
type RecordSource interface {
	Query(ctx context.Context, weekdayOnly bool, since *time.Time) ([]models.HistoricalRecord, error)
}

// ModelTrainer trains models for a set of targets.
type ModelTrainer interface {
	Train(ctx context.Context, records []models.HistoricalRecord, targets []models.Target) (*forecast.Result, error)
}

// ModelSaver persists a batch of trained models.
type ModelSaver interface {
	Save(ctx context.Context, batch map[models.Target]*forecast.TrainedModel) (map[models.Target]int, error)
}

// ReportWriter regenerates the report snapshot.
type ReportWriter interface {
	Generate(ctx context.Context, records []models.HistoricalRecord) (*report.Snapshot, error)
}

// EventPublisher publishes run events.
type EventPublisher interface {
	Publish(ctx context.Context, event *events.RunEvent) error
}

// Config holds scheduler settings.
type Config struct {
	// CycleDays is the retraining cycle in days (default: 14).
	CycleDays int

	// Targets are the targets trained on every run (default: all).
	Targets []models.Target

	// WeekdayOnly restricts the query to Monday..Friday records.
	WeekdayOnly bool

	// LookbackDays limits the query to recent records; 0 uses all history.
	LookbackDays int
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		CycleDays:   DefaultCycleDays,
		Targets:     models.AllTargets,
		WeekdayOnly: true,
	}
}

// Deps are the collaborators a scheduler drives. Events may be nil.
type Deps struct {
	Source  RecordSource
	Trainer ModelTrainer
	Store   ModelSaver
	Reports ReportWriter
	Events  EventPublisher
	State   StateStore
}

// Outcome describes one Check or Force call.
type Outcome struct {
	RunID    string                   `json:"run_id,omitempty"`
	Trigger  Trigger                  `json:"trigger"`
	Ran      bool                     `json:"ran"`
	State    State                    `json:"state"`
	Records  int                      `json:"records"`
	Versions map[models.Target]int    `json:"versions,omitempty"`
	Failures map[models.Target]string `json:"failures,omitempty"`
	Duration time.Duration            `json:"duration_ns"`
	Error    string                   `json:"error,omitempty"`
}

// Scheduler owns the retraining state machine.
type Scheduler struct {
	config Config
	deps   Deps
	logger zerolog.Logger
	now    func() time.Time

	// runMu is held for the whole of a run.
	runMu sync.Mutex

	stateMu sync.RWMutex
	state   SchedulerState
}

// New creates a scheduler and loads its persisted state.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(ctx context.Context, cfg Config, deps Deps, logger zerolog.Logger) (*Scheduler, error) {
	if cfg.CycleDays <= 0 {
		cfg.CycleDays = DefaultCycleDays
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = models.AllTargets
	}
	if deps.Source == nil || deps.Trainer == nil || deps.Store == nil || deps.Reports == nil || deps.State == nil {
		return nil, errors.New("scheduler requires source, trainer, store, reports and state")
	}

	s := &Scheduler{
		config: cfg,
		deps:   deps,
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}

	state, found, err := deps.State.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scheduler state: %w", err)
	}
	if !found {
		state = SchedulerState{State: StateIdle}
	}
	if state.State == StateRunning {
		state.State = StateFailed
		state.LastError = "run interrupted by shutdown"
		s.logger.Warn().Str("run_id", state.LastRunID).Msg("previous run did not finish, marking failed")
	}
	state.CycleLengthDays = cfg.CycleDays
	s.state = state

	metrics.SetSchedulerState(state.State.gaugeValue())
	if state.LastRunAt != nil {
		metrics.SetSchedulerLastSuccess(*state.LastRunAt)
	}
	return s, nil
}

func (s *Scheduler) cycle() time.Duration {
	return time.Duration(s.config.CycleDays) * 24 * time.Hour
}

// isDue reports whether a run is due at now.
func (s *Scheduler) isDue(state SchedulerState, now time.Time) bool {
	if state.LastRunAt == nil {
		return true
	}
	return now.Sub(*state.LastRunAt) >= s.cycle()
}

// Status returns the current state with the next due time filled in.
func (s *Scheduler) Status() SchedulerState {
	s.stateMu.RLock()
	st := s.state.clone()
	s.stateMu.RUnlock()

	if st.LastRunAt != nil {
		next := st.LastRunAt.Add(s.cycle())
		st.NextRunAt = &next
	}
	if st.State == StateIdle && s.isDue(st, s.now()) {
		st.State = StateDue
	}
	return st
}

// Check runs the pipeline when the cycle has elapsed since the last
// successful run. When nothing is due it returns an Outcome with Ran false.
func (s *Scheduler) Check(ctx context.Context) (*Outcome, error) {
	return s.run(ctx, TriggerCheck, true)
}

// Force runs the pipeline regardless of elapsed time.
func (s *Scheduler) Force(ctx context.Context) (*Outcome, error) {
	return s.run(ctx, TriggerForce, false)
}

// RunResult is delivered when a run started with Start finishes.
type RunResult struct {
	Outcome *Outcome
	Err     error
}

// Start takes the run lock and performs a forced run in the background.
// The lock is held when Start returns, so a LockContention error means no
// run was started and a nil error means this caller owns the run.
func (s *Scheduler) Start(ctx context.Context) (<-chan RunResult, error) {
	if !s.runMu.TryLock() {
		return nil, &models.LockContention{Operation: "scheduler run"}
	}
	done := make(chan RunResult, 1)
	go func() {
		defer s.runMu.Unlock()
		out, err := s.runLocked(ctx, TriggerForce, false)
		done <- RunResult{Outcome: out, Err: err}
	}()
	return done, nil
}

func (s *Scheduler) run(ctx context.Context, trigger Trigger, requireDue bool) (*Outcome, error) {
	if !s.runMu.TryLock() {
		return nil, &models.LockContention{Operation: "scheduler run"}
	}
	defer s.runMu.Unlock()
	return s.runLocked(ctx, trigger, requireDue)
}

// runLocked performs one run. The caller holds runMu.
func (s *Scheduler) runLocked(ctx context.Context, trigger Trigger, requireDue bool) (*Outcome, error) {
	start := s.now()
	if requireDue {
		s.stateMu.RLock()
		due := s.isDue(s.state, start)
		current := s.state.State
		s.stateMu.RUnlock()
		if !due {
			return &Outcome{Trigger: trigger, State: current}, nil
		}
		metrics.SetSchedulerState(StateDue.gaugeValue())
	}

	// A started run completes or fails as a unit; cancellation after this
	// point does not discard trained models or leave the state Running.
	ctx = context.WithoutCancel(ctx)

	runID := uuid.New().String()
	out := &Outcome{RunID: runID, Trigger: trigger, Ran: true}
	log := s.logger.With().Str("run_id", runID).Str("trigger", string(trigger)).Logger()

	if err := s.update(ctx, func(st *SchedulerState) {
		st.State = StateRunning
		st.LastAttemptAt = &start
		st.LastRunID = runID
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewRunEvent(events.TopicRunStarted, runID, string(trigger), start))
	log.Info().Msg("retraining run started")

	runErr := s.execute(ctx, out)

	end := s.now()
	out.Duration = end.Sub(start)
	metrics.RecordSchedulerRun(string(trigger), runErr == nil, out.Duration)

	var persistErr error
	if runErr == nil {
		persistErr = s.update(ctx, func(st *SchedulerState) {
			st.State = StateIdle
			st.LastRunAt = &end
			st.LastError = ""
			st.ConsecutiveFailures = 0
		})
		metrics.SetSchedulerLastSuccess(end)
		out.State = StateIdle
		log.Info().
			Int("records", out.Records).
			Interface("versions", out.Versions).
			Dur("duration", out.Duration).
			Msg("retraining run succeeded")
	} else {
		out.Error = runErr.Error()
		persistErr = s.update(ctx, func(st *SchedulerState) {
			st.State = StateFailed
			st.LastError = runErr.Error()
			st.ConsecutiveFailures++
		})
		out.State = StateFailed
		log.Error().
			Err(runErr).
			Int("records", out.Records).
			Interface("versions", out.Versions).
			Msg("retraining run failed, will retry on next check")
	}

	s.publish(ctx, s.finishEvent(out, end))

	if persistErr != nil {
		return out, errors.Join(runErr, persistErr)
	}
	return out, runErr
}

// execute runs source → trainer → store → report. Models that trained are
// saved even when other targets failed; the run still reports an error.
func (s *Scheduler) execute(ctx context.Context, out *Outcome) error {
	var since *time.Time
	if s.config.LookbackDays > 0 {
		t := s.now().AddDate(0, 0, -s.config.LookbackDays)
		since = &t
	}

	records, err := s.deps.Source.Query(ctx, s.config.WeekdayOnly, since)
	if err != nil {
		return fmt.Errorf("query historical records: %w", err)
	}
	out.Records = len(records)

	result, err := s.deps.Trainer.Train(ctx, records, s.config.Targets)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	if len(result.Failures) > 0 {
		out.Failures = make(map[models.Target]string, len(result.Failures))
		for target, ferr := range result.Failures {
			out.Failures[target] = ferr.Error()
		}
	}
	if len(result.Models) == 0 {
		return result.Err()
	}

	versions, err := s.deps.Store.Save(ctx, result.Models)
	if err != nil {
		return fmt.Errorf("save models: %w", err)
	}
	out.Versions = versions

	if _, err := s.deps.Reports.Generate(ctx, records); err != nil {
		return errors.Join(result.Err(), fmt.Errorf("generate report: %w", err))
	}

	return result.Err()
}

// update applies fn to the state and persists it.
func (s *Scheduler) update(ctx context.Context, fn func(*SchedulerState)) error {
	s.stateMu.Lock()
	fn(&s.state)
	snapshot := s.state.clone()
	s.stateMu.Unlock()

	metrics.SetSchedulerState(snapshot.State.gaugeValue())
	if err := s.deps.State.Save(ctx, snapshot); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist scheduler state")
		return fmt.Errorf("persist scheduler state: %w", err)
	}
	return nil
}

func (s *Scheduler) finishEvent(out *Outcome, ts time.Time) *events.RunEvent {
	topic := events.TopicRunSucceeded
	if out.State == StateFailed {
		topic = events.TopicRunFailed
	}
	e := events.NewRunEvent(topic, out.RunID, string(out.Trigger), ts)
	e.Records = out.Records
	e.Error = out.Error
	e.DurationMS = out.Duration.Milliseconds()
	if len(out.Versions) > 0 {
		e.Versions = make(map[string]int, len(out.Versions))
		for t, v := range out.Versions {
			e.Versions[string(t)] = v
		}
	}
	for t := range out.Failures {
		e.Failed = append(e.Failed, string(t))
	}
	sort.Strings(e.Failed)
	return e
}

// publish sends an event; delivery failures are logged and ignored.
func (s *Scheduler) publish(ctx context.Context, e *events.RunEvent) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("topic", e.Topic).Msg("failed to publish run event")
	}
}
