// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/seatcast/internal/forecast/algorithms"
	"github.com/tomtom215/seatcast/internal/metrics"
	"github.com/tomtom215/seatcast/internal/models"
)

// Trainer fits and selects one model per target. It is safe for concurrent
// use; overlapping Train calls are rejected rather than queued.
type Trainer struct {
	config Config
	logger zerolog.Logger
	now    func() time.Time

	trainMu  sync.Mutex
	statusMu sync.RWMutex
	status   TrainingStatus
}

// NewTrainer creates a trainer. Zero-valued config fields take defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainer(cfg Config, logger zerolog.Logger) (*Trainer, error) {
	cfg = applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Trainer{
		config: cfg,
		logger: logger.With().Str("component", "trainer").Logger(),
		now:    time.Now,
	}, nil
}

// Config returns the effective configuration.
func (t *Trainer) Config() Config {
	return t.config
}

// Status returns a snapshot of the training status.
func (t *Trainer) Status() TrainingStatus {
	t.statusMu.RLock()
	defer t.statusMu.RUnlock()
	s := t.status
	if s.SelectedFamilies != nil {
		sel := make(map[models.Target]algorithms.Family, len(s.SelectedFamilies))
		for k, v := range s.SelectedFamilies {
			sel[k] = v
		}
		s.SelectedFamilies = sel
	}
	return s
}

// Train fits every requested target on the records. It returns an error
// only when the run as a whole cannot start: another run is active, no
// targets were requested, or there are fewer than MinRecords records.
// Per-target failures are reported in Result.Failures.
//
//nolint:gocritic // rangeValCopy is acceptable for small records
func (t *Trainer) Train(ctx context.Context, records []models.HistoricalRecord, targets []models.Target) (*Result, error) {
	if !t.trainMu.TryLock() {
		return nil, &models.LockContention{Operation: "training"}
	}
	defer t.trainMu.Unlock()

	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets requested")
	}
	if len(records) < t.config.MinRecords {
		return nil, &models.InsufficientDataError{Required: t.config.MinRecords, Actual: len(records)}
	}

	start := t.now()
	t.beginStatus(start, len(records))
	t.logger.Info().
		Int("records", len(records)).
		Int("trials", t.config.Trials).
		Int("targets", len(targets)).
		Msg("starting model training")

	result := newResult()
	for _, target := range targets {
		targetStart := time.Now()
		model, scores, err := t.trainTarget(ctx, records, target)
		result.Scores[target] = scores
		metrics.RecordTrainingRun(string(target), err == nil, time.Since(targetStart))

		if err != nil {
			failure := &models.TrainingFailure{Target: target, Cause: err}
			result.Failures[target] = failure
			t.logger.Warn().Err(err).Str("target", string(target)).Msg("target training failed")
			continue
		}
		result.Models[target] = model
		metrics.RecordModelSelection(string(target), string(model.Algorithm), model.CVRMSE)
		t.logger.Info().
			Str("target", string(target)).
			Str("algorithm", string(model.Algorithm)).
			Float64("cv_rmse", model.CVRMSE).
			Float64("test_rmse", model.RMSE).
			Float64("test_r2", model.R2).
			Msg("selected model")
	}
	result.Duration = t.now().Sub(start)

	t.endStatus(result)
	t.logger.Info().
		Int("succeeded", len(result.Models)).
		Int("failed", len(result.Failures)).
		Int64("duration_ms", result.Duration.Milliseconds()).
		Msg("model training complete")

	return result, nil
}

// trainTarget runs split, search, selection and holdout evaluation for one
// target.
func (t *Trainer) trainTarget(ctx context.Context, records []models.HistoricalRecord, target models.Target) (*TrainedModel, []FamilyScore, error) {
	if len(records) < t.config.MinRecords {
		return nil, nil, &models.InsufficientDataError{Required: t.config.MinRecords, Actual: len(records)}
	}

	ds, err := buildDataset(records, target)
	if err != nil {
		return nil, nil, err
	}

	trainIdx, testIdx := holdoutSplit(len(ds.y), t.config.TestFraction, t.config.Seed)
	train := ds.subset(trainIdx)
	test := ds.subset(testIdx)
	folds := kFolds(len(train.y), t.config.Folds)

	scores := t.searchAll(ctx, target, train, folds)
	best, ok := selectBest(scores)
	if !ok {
		return nil, scores, fmt.Errorf("every algorithm family failed")
	}

	final, err := algorithms.New(best.Family, best.Params)
	if err != nil {
		return nil, scores, err
	}
	if err := final.Fit(train.X, train.y, t.config.Seed); err != nil {
		return nil, scores, fmt.Errorf("refit %s: %w", best.Family, err)
	}
	pred, err := final.PredictAll(test.X)
	if err != nil {
		return nil, scores, err
	}

	return &TrainedModel{
		Target:              target,
		Algorithm:           best.Family,
		Hyperparameters:     best.Params.Clone(),
		Model:               final,
		RMSE:                rmse(pred, test.y),
		R2:                  r2(pred, test.y),
		MAE:                 mae(pred, test.y),
		CVRMSE:              best.CVRMSE,
		CVStd:               best.CVStd,
		Trials:              t.config.Trials,
		TrainedAt:           t.now(),
		TrainingRecordCount: len(records),
	}, scores, nil
}

// searchAll runs one study per configured family on a bounded pool. Each
// study writes only its own slot, so ordering is stable.
func (t *Trainer) searchAll(ctx context.Context, target models.Target, train *dataset, folds []fold) []FamilyScore {
	scores := make([]FamilyScore, len(t.config.Families))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(t.config.Workers)
	for i, family := range t.config.Families {
		g.Go(func() error {
			familyStart := time.Now()
			score, err := searchFamily(family, train, folds, t.config.Trials, t.config.Seed)
			metrics.RecordFamilySearch(string(family), time.Since(familyStart))
			if err != nil {
				score.Err = err.Error()
				t.logger.Warn().
					Err(err).
					Str("target", string(target)).
					Str("family", string(family)).
					Msg("hyperparameter search failed")
			} else {
				t.logger.Debug().
					Str("target", string(target)).
					Str("family", string(family)).
					Float64("cv_rmse", score.CVRMSE).
					Msg("hyperparameter search complete")
			}
			scores[i] = score
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // family errors are recorded per slot

	return scores
}

func (t *Trainer) beginStatus(start time.Time, records int) {
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	t.status.IsTraining = true
	t.status.LastStartedAt = start
	t.status.LastRecordCount = records
	t.status.LastError = ""
}

func (t *Trainer) endStatus(result *Result) {
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	t.status.IsTraining = false
	t.status.LastCompletedAt = t.now()
	t.status.LastDurationMS = result.Duration.Milliseconds()
	if err := result.Err(); err != nil {
		t.status.LastError = err.Error()
	}
	t.status.SelectedFamilies = make(map[models.Target]algorithms.Family, len(result.Models))
	for target, m := range result.Models {
		t.status.SelectedFamilies[target] = m.Algorithm
	}
}
