// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package validation wraps a shared go-playground/validator instance.
//
// Request and config structs declare their rules in validate tags:
//
//	type DayQuery struct {
//	    Day int `json:"day_of_week" validate:"min=0,max=4"`
//	}
//
//	if err := validation.ValidateStruct(&q); err != nil {
//	    apiErr := err.ToAPIError()
//	    ...
//	}
//
// Field names in messages come from the json tag, falling back to koanf,
// so errors name the key a caller actually sent. The custom "family" tag
// accepts the regression family names the trainer knows.
package validation
