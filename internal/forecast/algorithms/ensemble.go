// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package algorithms

import (
	"math"
	"math/rand"
	"sort"
)

// ForestConfig contains configuration for the random forest.
type ForestConfig struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
}

func forestConfigFrom(p Params) ForestConfig {
	cfg := ForestConfig{
		NEstimators:     p.Int("n_estimators", 100),
		MaxDepth:        p.Int("max_depth", 10),
		MinSamplesSplit: p.Int("min_samples_split", 2),
		MinSamplesLeaf:  p.Int("min_samples_leaf", 1),
	}
	if cfg.NEstimators < 1 {
		cfg.NEstimators = 1
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	return cfg
}

// ForestState holds the bagged trees of a fitted random forest.
type ForestState struct {
	Trees []Tree
}

// fitForest grows NEstimators trees, each on a bootstrap sample of the rows.
func fitForest(X [][]float64, y []float64, cfg ForestConfig, seed int64) *ForestState {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic model fitting, not security
	n := len(X)
	tc := treeConfig{MaxDepth: cfg.MaxDepth, MinSamplesSplit: cfg.MinSamplesSplit, MinSamplesLeaf: cfg.MinSamplesLeaf}

	state := &ForestState{Trees: make([]Tree, 0, cfg.NEstimators)}
	idx := make([]int, n)
	for t := 0; t < cfg.NEstimators; t++ {
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		state.Trees = append(state.Trees, growTree(X, y, idx, tc))
	}
	return state
}

func (f *ForestState) predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var s float64
	for i := range f.Trees {
		s += f.Trees[i].predict(x)
	}
	return s / float64(len(f.Trees))
}

// BoostConfig contains configuration for gradient boosting.
type BoostConfig struct {
	NEstimators  int
	MaxDepth     int
	LearningRate float64
	Subsample    float64
}

func boostConfigFrom(p Params) BoostConfig {
	cfg := BoostConfig{
		NEstimators:  p.Int("n_estimators", 100),
		MaxDepth:     p.Int("max_depth", 3),
		LearningRate: p.Float("learning_rate", 0.1),
		Subsample:    p.Float("subsample", 1.0),
	}
	if cfg.NEstimators < 1 {
		cfg.NEstimators = 1
	}
	if cfg.Subsample <= 0 || cfg.Subsample > 1 {
		cfg.Subsample = 1
	}
	return cfg
}

// BoostState holds a fitted least-squares gradient boosting ensemble.
type BoostState struct {
	Init         float64
	LearningRate float64
	Trees        []Tree
}

// fitBoosting fits trees stagewise on the current residuals. With
// Subsample < 1 each stage sees a random subset drawn without replacement.
func fitBoosting(X [][]float64, y []float64, cfg BoostConfig, seed int64) *BoostState {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic model fitting, not security
	n := len(X)
	tc := treeConfig{MaxDepth: cfg.MaxDepth, MinSamplesSplit: 2, MinSamplesLeaf: 1}

	state := &BoostState{
		Init:         mean(y),
		LearningRate: cfg.LearningRate,
		Trees:        make([]Tree, 0, cfg.NEstimators),
	}

	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = state.Init
	}
	residual := make([]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	sampleSize := int(math.Max(1, math.Floor(cfg.Subsample*float64(n))))

	for m := 0; m < cfg.NEstimators; m++ {
		for i := range residual {
			residual[i] = y[i] - fitted[i]
		}
		idx := all
		if sampleSize < n {
			idx = rng.Perm(n)[:sampleSize]
			sort.Ints(idx)
		}
		tree := growTree(X, residual, idx, tc)
		for i := range fitted {
			fitted[i] += cfg.LearningRate * tree.predict(X[i])
		}
		state.Trees = append(state.Trees, tree)
	}
	return state
}

func (b *BoostState) predict(x []float64) float64 {
	v := b.Init
	for i := range b.Trees {
		v += b.LearningRate * b.Trees[i].predict(x)
	}
	return v
}
