// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package models

import (
	"time"
)

// APIResponse is the envelope used by every HTTP endpoint.
//
// Example successful response:
//
//	{
//	  "success": true,
//	  "data": {"day_of_week": 1, "density_rate": 21.4, "occupied_seats": 3},
//	  "metadata": {"timestamp": "2026-03-02T09:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "success": false,
//	  "error": {"code": "VALIDATION_ERROR", "message": "day_of_week must be between 0 and 4"},
//	  "metadata": {"timestamp": "2026-03-02T09:00:00Z"}
//	}
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
