// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Run event topics.
const (
	TopicRunStarted   = "seatcast.run.started"
	TopicRunSucceeded = "seatcast.run.succeeded"
	TopicRunFailed    = "seatcast.run.failed"
)

// RunTopics lists every run topic.
var RunTopics = []string{TopicRunStarted, TopicRunSucceeded, TopicRunFailed}

// RunEvent describes a scheduler run transition.
type RunEvent struct {
	EventID    string         `json:"event_id"`
	Topic      string         `json:"topic"`
	RunID      string         `json:"run_id"`
	Trigger    string         `json:"trigger"`
	Timestamp  time.Time      `json:"timestamp"`
	Records    int            `json:"records,omitempty"`
	Versions   map[string]int `json:"versions,omitempty"`
	Failed     []string       `json:"failed_targets,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
}

// NewRunEvent creates an event with a fresh ID.
func NewRunEvent(topic, runID, trigger string, ts time.Time) *RunEvent {
	return &RunEvent{
		EventID:   uuid.New().String(),
		Topic:     topic,
		RunID:     runID,
		Trigger:   trigger,
		Timestamp: ts,
	}
}

// Validate checks required fields.
func (e *RunEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	switch e.Topic {
	case TopicRunStarted, TopicRunSucceeded, TopicRunFailed:
		return nil
	default:
		return fmt.Errorf("unknown topic %q", e.Topic)
	}
}

// Encode serializes the event.
func (e *RunEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeRunEvent parses an encoded event.
func DecodeRunEvent(data []byte) (*RunEvent, error) {
	var e RunEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode run event: %w", err)
	}
	return &e, nil
}
