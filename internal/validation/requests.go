// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package validation

// DayQuery is the path parameter of the per-day prediction endpoints.
type DayQuery struct {
	Day int `json:"day_of_week" validate:"min=0,max=4"`
}

// ScheduleQuery narrows a schedule to an hour window.
type ScheduleQuery struct {
	Day       int `json:"day_of_week" validate:"min=0,max=4"`
	StartHour int `json:"start_hour" validate:"min=0,max=23"`
	EndHour   int `json:"end_hour" validate:"min=0,max=23,gtefield=StartHour"`
}

// RecentQuery is the path parameter of the recent-history endpoint.
type RecentQuery struct {
	Limit int `json:"limit" validate:"min=1,max=1000"`
}
