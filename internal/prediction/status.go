// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package prediction

// Status is the occupancy band shown to users.
type Status string

// Occupancy bands.
const (
	StatusAvailable Status = "available"
	StatusModerate  Status = "moderate"
	StatusBusy      Status = "busy"
)

// Status thresholds on the occupancy rate (0..1).
const (
	ModerateThreshold = 0.5
	BusyThreshold     = 0.8
)

// DeriveStatus maps an occupancy rate to a band: busy above 0.8, moderate
// from 0.5 to 0.8 inclusive, available below 0.5.
func DeriveStatus(rate float64) Status {
	switch {
	case rate > BusyThreshold:
		return StatusBusy
	case rate >= ModerateThreshold:
		return StatusModerate
	default:
		return StatusAvailable
	}
}

// Confidence describes how much history backs a prediction.
type Confidence string

// Confidence levels.
const (
	ConfidenceNone    Confidence = "none"
	ConfidenceVeryLow Confidence = "very_low"
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
)

// DeriveConfidence maps a day's historical sample count to a confidence
// level.
func DeriveConfidence(samples int) Confidence {
	switch {
	case samples <= 0:
		return ConfidenceNone
	case samples == 1:
		return ConfidenceVeryLow
	case samples < 5:
		return ConfidenceLow
	case samples < 10:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}
