// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package features

import (
	"math"

	"github.com/tomtom215/seatcast/internal/models"
)

const (
	// MinDay is Monday.
	MinDay = 0
	// MaxDay is Friday.
	MaxDay = 4
	// DaysPerCycle is the length of the circular encoding period.
	DaysPerCycle = 7
	// HoursPerDay bounds the optional hour.
	HoursPerDay = 24
)

// WeekPosition buckets a weekday into the start, middle or end of the week.
type WeekPosition int

const (
	WeekStart WeekPosition = iota // Monday, Tuesday
	WeekMid                       // Wednesday
	WeekEnd                       // Thursday, Friday
)

func (p WeekPosition) String() string {
	switch p {
	case WeekStart:
		return "start"
	case WeekMid:
		return "mid"
	case WeekEnd:
		return "end"
	default:
		return "unknown"
	}
}

// MarshalText encodes the bucket by name.
func (p WeekPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Vector is the immutable feature vector for one weekday.
type Vector struct {
	DayOfWeek    int          `json:"day_of_week"`
	DaySin       float64      `json:"day_sin"`
	DayCos       float64      `json:"day_cos"`
	WeekPosition WeekPosition `json:"week_position_bucket"`
	Hour         *int         `json:"hour,omitempty"`
}

// NumFeatures is the width of the design row returned by Values.
const NumFeatures = 4

// Values returns the numeric design row in a fixed column order:
// day_of_week, day_sin, day_cos, week_position.
func (v Vector) Values() []float64 {
	return []float64{float64(v.DayOfWeek), v.DaySin, v.DayCos, float64(v.WeekPosition)}
}

// Encode builds the feature vector for a weekday.
func Encode(day int) (Vector, error) {
	if err := ValidateDay(day); err != nil {
		return Vector{}, err
	}
	angle := 2 * math.Pi * float64(day) / DaysPerCycle
	return Vector{
		DayOfWeek:    day,
		DaySin:       math.Sin(angle),
		DayCos:       math.Cos(angle),
		WeekPosition: positionOf(day),
	}, nil
}

// EncodeAt builds the feature vector for a weekday and hour.
func EncodeAt(day, hour int) (Vector, error) {
	v, err := Encode(day)
	if err != nil {
		return Vector{}, err
	}
	if err := ValidateHour(hour); err != nil {
		return Vector{}, err
	}
	h := hour
	v.Hour = &h
	return v, nil
}

// ValidateDay rejects anything outside Monday..Friday.
func ValidateDay(day int) error {
	if day < MinDay || day > MaxDay {
		return &models.ValidationError{
			Field:   "day_of_week",
			Value:   day,
			Message: "must be between 0 (Monday) and 4 (Friday)",
		}
	}
	return nil
}

// ValidateHour rejects anything outside 0..23.
func ValidateHour(hour int) error {
	if hour < 0 || hour >= HoursPerDay {
		return &models.ValidationError{
			Field:   "hour",
			Value:   hour,
			Message: "must be between 0 and 23",
		}
	}
	return nil
}

// DayName returns the English weekday name, or "" when out of range.
func DayName(day int) string {
	if day < MinDay || day > MaxDay {
		return ""
	}
	return dayNames[day]
}

func positionOf(day int) WeekPosition {
	switch {
	case day <= 1:
		return WeekStart
	case day == 2:
		return WeekMid
	default:
		return WeekEnd
	}
}
