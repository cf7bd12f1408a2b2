// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package models

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is by the API and scheduler layers.
var (
	ErrValidation       = errors.New("validation error")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNotFound         = errors.New("not found")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrTrainingFailed   = errors.New("training failed")
	ErrLockContention   = errors.New("lock contention")
)

// ValidationError reports an out-of-range input such as a day or hour.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InsufficientDataError reports that training received too few records.
type InsufficientDataError struct {
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d records, got %d", e.Required, e.Actual)
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// NotFoundError reports a missing model or report.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ModelUnavailableError is returned when a prediction is requested before
// the first successful training.
type ModelUnavailableError struct {
	Target Target
	Cause  error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("no trained %s model available", e.Target)
}

// Unwrap returns the underlying store error.
func (e *ModelUnavailableError) Unwrap() error { return e.Cause }

// Is matches ErrModelUnavailable.
func (e *ModelUnavailableError) Is(target error) bool { return target == ErrModelUnavailable }

// TrainingFailure wraps the cause of a failed fit for one target.
type TrainingFailure struct {
	Target Target
	Cause  error
}

func (e *TrainingFailure) Error() string {
	return fmt.Sprintf("training %s model failed: %v", e.Target, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *TrainingFailure) Unwrap() error { return e.Cause }

// Is matches ErrTrainingFailed.
func (e *TrainingFailure) Is(target error) bool { return target == ErrTrainingFailed }

// LockContention is returned when another run already holds the run lock.
type LockContention struct {
	Operation string
}

func (e *LockContention) Error() string {
	return fmt.Sprintf("%s already in progress", e.Operation)
}

// Is matches ErrLockContention.
func (e *LockContention) Is(target error) bool { return target == ErrLockContention }
