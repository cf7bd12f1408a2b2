// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package models

import (
	"fmt"
	"strings"
	"time"
)

// Target identifies a prediction target.
type Target string

const (
	// TargetDensity is the occupancy percentage (0-100).
	TargetDensity Target = "density"
	// TargetSeats is the occupied-seat count.
	TargetSeats Target = "seats"
)

// AllTargets lists every prediction target in stable order.
var AllTargets = []Target{TargetDensity, TargetSeats}

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	return t == TargetDensity || t == TargetSeats
}

// ParseTargets converts a target selector (density, seats, both) into targets.
// An empty selector means both.
func ParseTargets(selector string) ([]Target, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "", "both", "all":
		return append([]Target(nil), AllTargets...), nil
	case string(TargetDensity):
		return []Target{TargetDensity}, nil
	case string(TargetSeats):
		return []Target{TargetSeats}, nil
	default:
		return nil, &ValidationError{
			Field:   "target",
			Value:   selector,
			Message: "must be one of density, seats, both",
		}
	}
}

// HistoricalRecord is one weekday sensor reading.
type HistoricalRecord struct {
	ID            int64     `json:"id" db:"id"`
	OccupiedSeats int       `json:"occupied_seats" db:"occupied_seats"`
	DensityRate   float64   `json:"density_rate" db:"density_rate"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	DayOfWeek     int       `json:"day_of_week" db:"day_of_week"`
}

// Label returns the value the record carries for the given target.
func (r *HistoricalRecord) Label(t Target) (float64, error) {
	switch t {
	case TargetDensity:
		return r.DensityRate, nil
	case TargetSeats:
		return float64(r.OccupiedSeats), nil
	default:
		return 0, fmt.Errorf("unknown target %q", t)
	}
}
