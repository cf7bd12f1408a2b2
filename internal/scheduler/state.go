// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// State is a scheduler state-machine state.
type State string

// Scheduler states.
const (
	StateIdle    State = "idle"
	StateDue     State = "due"
	StateRunning State = "running"
	StateFailed  State = "failed"
)

// gaugeValue maps a state to the scheduler state gauge.
func (s State) gaugeValue() int {
	switch s {
	case StateDue:
		return 1
	case StateRunning:
		return 2
	case StateFailed:
		return 3
	default:
		return 0
	}
}

// SchedulerState is the persisted scheduler state.
type SchedulerState struct {
	State               State      `json:"state"`
	LastRunAt           *time.Time `json:"last_run_at,omitempty"`
	LastAttemptAt       *time.Time `json:"last_attempt_at,omitempty"`
	LastRunID           string     `json:"last_run_id,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	CycleLengthDays     int        `json:"cycle_length_days"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`
}

func (s SchedulerState) clone() SchedulerState {
	out := s
	if s.LastRunAt != nil {
		t := *s.LastRunAt
		out.LastRunAt = &t
	}
	if s.LastAttemptAt != nil {
		t := *s.LastAttemptAt
		out.LastAttemptAt = &t
	}
	if s.NextRunAt != nil {
		t := *s.NextRunAt
		out.NextRunAt = &t
	}
	return out
}

// StateStore persists the scheduler state.
type StateStore interface {
	// Load returns the saved state, or ok=false when none exists.
	Load(ctx context.Context) (SchedulerState, bool, error)
	Save(ctx context.Context, state SchedulerState) error
}

const stateKey = "scheduler:state"

// BadgerStateStore keeps the scheduler state in BadgerDB.
type BadgerStateStore struct {
	db     *badger.DB
	ownsDB bool
}

// OpenBadgerStateStore opens (or creates) a BadgerDB at path.
func OpenBadgerStateStore(path string) (*BadgerStateStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for scheduler state: %w", err)
	}
	return &BadgerStateStore{db: db, ownsDB: true}, nil
}

// NewBadgerStateStoreFromDB uses an existing BadgerDB connection.
func NewBadgerStateStoreFromDB(db *badger.DB) *BadgerStateStore {
	return &BadgerStateStore{db: db}
}

// Load reads the saved state.
func (s *BadgerStateStore) Load(ctx context.Context) (SchedulerState, bool, error) {
	var state SchedulerState
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get scheduler state: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	if err != nil {
		return SchedulerState{}, false, err
	}
	return state, found, nil
}

// Save writes the state.
func (s *BadgerStateStore) Save(ctx context.Context, state SchedulerState) error {
	state.NextRunAt = nil
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal scheduler state: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(stateKey), data)
	})
}

// Close closes the database if the store opened it.
func (s *BadgerStateStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
