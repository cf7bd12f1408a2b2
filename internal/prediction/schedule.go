// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package prediction

import (
	"fmt"
	"iter"

	"github.com/tomtom215/seatcast/internal/features"
)

// ScheduleEntry is one hourly slot of a day schedule.
type ScheduleEntry struct {
	Hour  int    `json:"hour"`
	Label string `json:"time"`
	Point
}

// Schedule is the hourly schedule for one weekday. Models are day-level,
// so every slot carries the same prediction. A Schedule may be iterated
// any number of times.
type Schedule struct {
	point Point
}

// NewSchedule builds the schedule that repeats p in every hourly slot.
func NewSchedule(p Point) Schedule { return Schedule{point: p} }

// Day returns the weekday the schedule covers.
func (s Schedule) Day() int { return s.point.DayOfWeek }

// Point returns the day-level prediction every slot repeats.
func (s Schedule) Point() Point { return s.point }

// All yields hour and entry for hours 0 through 23 in order.
func (s Schedule) All() iter.Seq2[int, ScheduleEntry] {
	return func(yield func(int, ScheduleEntry) bool) {
		for hour := 0; hour < features.HoursPerDay; hour++ {
			if !yield(hour, s.entry(hour)) {
				return
			}
		}
	}
}

// Entries materializes the schedule as a slice of 24 entries.
func (s Schedule) Entries() []ScheduleEntry {
	out := make([]ScheduleEntry, 0, features.HoursPerDay)
	for _, e := range s.All() {
		out = append(out, e)
	}
	return out
}

func (s Schedule) entry(hour int) ScheduleEntry {
	return ScheduleEntry{
		Hour:  hour,
		Label: fmt.Sprintf("%02d:00", hour),
		Point: s.point,
	}
}
