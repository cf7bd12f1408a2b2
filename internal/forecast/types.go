// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package forecast

import (
	"errors"
	"sort"
	"time"

	"github.com/tomtom215/seatcast/internal/features"
	"github.com/tomtom215/seatcast/internal/forecast/algorithms"
	"github.com/tomtom215/seatcast/internal/models"
)

// TrainedModel is a fitted model for one target plus its evaluation
// metadata. It is never mutated after training; a retrain produces a new
// TrainedModel that supersedes it. TrainedAt is set when fitting finishes;
// the persisted copy carries the time its batch was saved instead.
type TrainedModel struct {
	Target              models.Target     `json:"target"`
	Algorithm           algorithms.Family `json:"algorithm"`
	Hyperparameters     algorithms.Params `json:"hyperparameters"`
	Model               *algorithms.Model `json:"-"`
	RMSE                float64           `json:"rmse"`
	R2                  float64           `json:"r2"`
	MAE                 float64           `json:"mae"`
	CVRMSE              float64           `json:"cv_rmse"`
	CVStd               float64           `json:"cv_std"`
	Trials              int               `json:"trials"`
	TrainedAt           time.Time         `json:"trained_at"`
	TrainingRecordCount int               `json:"training_record_count"`
	Version             int               `json:"version"`
}

// Predict evaluates the model at a feature vector.
func (m *TrainedModel) Predict(v features.Vector) (float64, error) {
	if m == nil || m.Model == nil {
		return 0, algorithms.ErrNotFitted
	}
	return m.Model.Predict(v.Values())
}

// FamilyScore is the best trial found for one family.
type FamilyScore struct {
	Family algorithms.Family `json:"family"`
	CVRMSE float64           `json:"cv_rmse"`
	CVStd  float64           `json:"cv_std"`
	Params algorithms.Params `json:"params"`
	Err    string            `json:"error,omitempty"`
}

// Result collects the outcome of one training run. Targets appear in
// exactly one of Models or Failures.
type Result struct {
	Models   map[models.Target]*TrainedModel
	Failures map[models.Target]error
	Scores   map[models.Target][]FamilyScore
	Duration time.Duration
}

func newResult() *Result {
	return &Result{
		Models:   make(map[models.Target]*TrainedModel),
		Failures: make(map[models.Target]error),
		Scores:   make(map[models.Target][]FamilyScore),
	}
}

// Succeeded lists the targets that produced a model, in stable order.
func (r *Result) Succeeded() []models.Target {
	out := make([]models.Target, 0, len(r.Models))
	for t := range r.Models {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Err joins every per-target failure, or returns nil when all succeeded.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	targets := make([]models.Target, 0, len(r.Failures))
	for t := range r.Failures {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	errs := make([]error, 0, len(targets))
	for _, t := range targets {
		errs = append(errs, r.Failures[t])
	}
	return errors.Join(errs...)
}

// TrainingStatus reports the trainer's current and last-run state.
type TrainingStatus struct {
	IsTraining       bool                                `json:"is_training"`
	LastStartedAt    time.Time                           `json:"last_started_at,omitempty"`
	LastCompletedAt  time.Time                           `json:"last_completed_at,omitempty"`
	LastDurationMS   int64                               `json:"last_duration_ms"`
	LastRecordCount  int                                 `json:"last_record_count"`
	LastError        string                              `json:"last_error,omitempty"`
	SelectedFamilies map[models.Target]algorithms.Family `json:"selected_families,omitempty"`
}
