// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package forecast

import (
	"fmt"
	"math"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/cmaes"

	"github.com/tomtom215/seatcast/internal/forecast/algorithms"
)

// suggestParams draws one hyperparameter set for a family from the trial.
//
//nolint:gocritic // goptuna passes Trial by value
func suggestParams(trial goptuna.Trial, family algorithms.Family) (algorithms.Params, error) {
	p := algorithms.Params{}

	suggestInt := func(name string, low, high int) error {
		v, err := trial.SuggestInt(name, low, high)
		if err != nil {
			return err
		}
		p[name] = float64(v)
		return nil
	}
	suggestFloat := func(name string, low, high float64, log bool) error {
		var v float64
		var err error
		if log {
			v, err = trial.SuggestLogFloat(name, low, high)
		} else {
			v, err = trial.SuggestFloat(name, low, high)
		}
		if err != nil {
			return err
		}
		p[name] = v
		return nil
	}

	var steps []func() error
	switch family {
	case algorithms.RandomForest:
		steps = []func() error{
			func() error { return suggestInt("n_estimators", 50, 300) },
			func() error { return suggestInt("max_depth", 3, 20) },
			func() error { return suggestInt("min_samples_split", 2, 10) },
			func() error { return suggestInt("min_samples_leaf", 1, 10) },
		}
	case algorithms.GradientBoosting:
		steps = []func() error{
			func() error { return suggestInt("n_estimators", 50, 300) },
			func() error { return suggestInt("max_depth", 3, 20) },
			func() error { return suggestFloat("learning_rate", 0.01, 0.3, false) },
			func() error { return suggestFloat("subsample", 0.8, 1.0, false) },
		}
	case algorithms.Ridge:
		steps = []func() error{
			func() error { return suggestFloat("alpha", 1e-3, 1e3, true) },
		}
	case algorithms.ElasticNet:
		steps = []func() error{
			func() error { return suggestFloat("alpha", 1e-3, 1e3, true) },
			func() error { return suggestFloat("l1_ratio", 0, 1, false) },
		}
	case algorithms.SVR:
		steps = []func() error{
			func() error { return suggestFloat("C", 0.1, 100, true) },
			func() error { return suggestFloat("epsilon", 0.01, 1, true) },
			func() error { return suggestFloat("gamma", 1e-3, 1, true) },
		}
	default:
		return nil, fmt.Errorf("unknown algorithm family %q", family)
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("suggest %s params: %w", family, err)
		}
	}
	return p, nil
}

// crossValidate fits the family on every fold and returns the mean and
// population standard deviation of the per-fold RMSE.
func crossValidate(family algorithms.Family, params algorithms.Params, ds *dataset, folds []fold, seed int64) (float64, float64, error) {
	scores := make([]float64, 0, len(folds))
	for _, f := range folds {
		train := ds.subset(f.train)
		valid := ds.subset(f.valid)

		m, err := algorithms.New(family, params)
		if err != nil {
			return 0, 0, err
		}
		if err := m.Fit(train.X, train.y, seed); err != nil {
			return 0, 0, fmt.Errorf("fit fold: %w", err)
		}
		pred, err := m.PredictAll(valid.X)
		if err != nil {
			return 0, 0, err
		}
		score := rmse(pred, valid.y)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return 0, 0, fmt.Errorf("non-finite fold RMSE for %s", family)
		}
		scores = append(scores, score)
	}
	m, s := meanStd(scores)
	return m, s, nil
}

// startupTrials is how many trials sample uniformly before CMA-ES takes
// over a family's search space.
const startupTrials = 5

// newStudy builds a study whose every random draw comes from generators
// seeded with seed. CMA-ES drives multi-dimensional spaces; one-dimensional
// spaces (ridge) fall back to the seeded random sampler.
func newStudy(name string, seed int64) (*goptuna.Study, error) {
	return goptuna.CreateStudy(
		name,
		goptuna.StudyOptionSampler(goptuna.NewRandomSampler(goptuna.RandomSamplerOptionSeed(seed))),
		goptuna.StudyOptionRelativeSampler(cmaes.NewSampler(
			cmaes.SamplerOptionSeed(seed),
			cmaes.SamplerOptionNStartupTrials(startupTrials),
		)),
		goptuna.StudyOptionLogger(nil),
	)
}

// searchFamily runs a seeded study over one family's search space and
// returns the best trial. The study runs its trials sequentially, so the
// outcome depends only on the data, the budget and the seed.
func searchFamily(family algorithms.Family, ds *dataset, folds []fold, trials int, seed int64) (FamilyScore, error) {
	best := FamilyScore{Family: family, CVRMSE: math.Inf(1)}

	study, err := newStudy(fmt.Sprintf("%s-%d", family, seed), seed)
	if err != nil {
		return best, fmt.Errorf("create study: %w", err)
	}

	objective := func(trial goptuna.Trial) (float64, error) {
		params, err := suggestParams(trial, family)
		if err != nil {
			return 0, err
		}
		score, std, err := crossValidate(family, params, ds, folds, seed)
		if err != nil {
			return 0, err
		}
		if score < best.CVRMSE {
			best.CVRMSE = score
			best.CVStd = std
			best.Params = params
		}
		return score, nil
	}

	if err := study.Optimize(objective, trials); err != nil {
		return best, fmt.Errorf("optimize %s: %w", family, err)
	}
	if best.Params == nil {
		return best, fmt.Errorf("no successful %s trials", family)
	}
	return best, nil
}

// selectBest picks the lowest CV RMSE. Scores are visited in family
// priority order and a later family must beat the incumbent by more than a
// relative tolerance, so near-ties keep the higher-priority family.
func selectBest(scores []FamilyScore) (FamilyScore, bool) {
	const tieTolerance = 1e-9

	var best FamilyScore
	found := false
	for _, fam := range algorithms.Families {
		for _, s := range scores {
			if s.Family != fam || s.Err != "" || s.Params == nil {
				continue
			}
			if !found {
				best, found = s, true
				continue
			}
			margin := tieTolerance * math.Max(math.Abs(best.CVRMSE), math.Abs(s.CVRMSE))
			if s.CVRMSE < best.CVRMSE-margin {
				best = s
			}
		}
	}
	return best, found
}
