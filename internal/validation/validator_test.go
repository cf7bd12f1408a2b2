// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/seatcast/internal/models"
)

func TestValidateStruct_DayQuery(t *testing.T) {
	tests := []struct {
		day     int
		wantErr bool
	}{
		{0, false},
		{4, false},
		{-1, true},
		{5, true},
	}
	for _, tt := range tests {
		err := ValidateStruct(&DayQuery{Day: tt.day})
		if (err != nil) != tt.wantErr {
			t.Errorf("day %d: err = %v, wantErr %v", tt.day, err, tt.wantErr)
		}
		if err != nil {
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("day %d: error does not match ErrValidation", tt.day)
			}
			fe := err.Errors()[0]
			if fe.Field != "day_of_week" {
				t.Errorf("field = %q, want day_of_week", fe.Field)
			}
		}
	}
}

func TestValidateStruct_ScheduleWindow(t *testing.T) {
	if err := ValidateStruct(&ScheduleQuery{Day: 1, StartHour: 8, EndHour: 17}); err != nil {
		t.Errorf("valid window rejected: %v", err)
	}
	err := ValidateStruct(&ScheduleQuery{Day: 1, StartHour: 17, EndHour: 8})
	if err == nil {
		t.Fatal("inverted window accepted")
	}
	if err.Errors()[0].Field != "end_hour" {
		t.Errorf("field = %q, want end_hour", err.Errors()[0].Field)
	}
}

func TestValidateStruct_RecentQuery(t *testing.T) {
	for _, limit := range []int{1, 10, 1000} {
		if err := ValidateStruct(&RecentQuery{Limit: limit}); err != nil {
			t.Errorf("limit %d rejected: %v", limit, err)
		}
	}
	for _, limit := range []int{0, -5, 1001} {
		err := ValidateStruct(&RecentQuery{Limit: limit})
		if err == nil {
			t.Errorf("limit %d accepted", limit)
			continue
		}
		if err.Errors()[0].Field != "limit" {
			t.Errorf("field = %q, want limit", err.Errors()[0].Field)
		}
	}
}

func TestToAPIError(t *testing.T) {
	err := ValidateStruct(&ScheduleQuery{Day: 9, StartHour: 30, EndHour: 30})
	if err == nil {
		t.Fatal("expected errors")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Errorf("details missing fields: %v", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, "day_of_week must be at most 4") {
		t.Errorf("message = %q", apiErr.Message)
	}

	single := ValidateStruct(&DayQuery{Day: 7}).ToAPIError()
	if single.Details["field"] != "day_of_week" {
		t.Errorf("single details = %v", single.Details)
	}
}

func TestFamilyTag(t *testing.T) {
	type families struct {
		Names []string `koanf:"families" validate:"dive,family"`
	}
	if err := ValidateStruct(&families{Names: []string{"ridge", "svr"}}); err != nil {
		t.Errorf("known families rejected: %v", err)
	}
	err := ValidateStruct(&families{Names: []string{"ridge", "knn"}})
	if err == nil {
		t.Fatal("unknown family accepted")
	}
	if err.Errors()[0].Field != "families[1]" {
		t.Errorf("field = %q, want families[1]", err.Errors()[0].Field)
	}
}
