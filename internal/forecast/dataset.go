// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package forecast

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/seatcast/internal/features"
	"github.com/tomtom215/seatcast/internal/models"
)

// dataset is a design matrix with labels for one target.
type dataset struct {
	X [][]float64
	y []float64
}

//nolint:gocritic // rangeValCopy is acceptable for small records
func buildDataset(records []models.HistoricalRecord, target models.Target) (*dataset, error) {
	ds := &dataset{
		X: make([][]float64, 0, len(records)),
		y: make([]float64, 0, len(records)),
	}
	for i := range records {
		vec, err := features.Encode(records[i].DayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", records[i].ID, err)
		}
		label, err := records[i].Label(target)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(label) || math.IsInf(label, 0) {
			return nil, fmt.Errorf("record %d: %s label is not finite", records[i].ID, target)
		}
		ds.X = append(ds.X, vec.Values())
		ds.y = append(ds.y, label)
	}
	return ds, nil
}

func (d *dataset) subset(idx []int) *dataset {
	out := &dataset{X: make([][]float64, len(idx)), y: make([]float64, len(idx))}
	for k, i := range idx {
		out.X[k] = d.X[i]
		out.y[k] = d.y[i]
	}
	return out
}

// holdoutSplit shuffles row indices with the seed and reserves
// ceil(testFraction*n) of them for testing.
func holdoutSplit(n int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible split, not security
	perm := rng.Perm(n)
	testN := int(math.Ceil(testFraction * float64(n)))
	if testN < 1 {
		testN = 1
	}
	if testN >= n {
		testN = n - 1
	}
	return perm[testN:], perm[:testN]
}

// fold is one cross-validation partition over a training set.
type fold struct {
	train []int
	valid []int
}

// kFolds cuts n rows into k contiguous folds; the first n%k folds get one
// extra row.
func kFolds(n, k int) []fold {
	folds := make([]fold, 0, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		valid := make([]int, 0, size)
		train := make([]int, 0, n-size)
		for i := 0; i < n; i++ {
			if i >= start && i < start+size {
				valid = append(valid, i)
			} else {
				train = append(train, i)
			}
		}
		folds = append(folds, fold{train: train, valid: valid})
		start += size
	}
	return folds
}

func rmse(pred, actual []float64) float64 {
	return floats.Distance(pred, actual, 2) / math.Sqrt(float64(len(pred)))
}

func mae(pred, actual []float64) float64 {
	return floats.Distance(pred, actual, 1) / float64(len(pred))
}

// r2 returns the coefficient of determination. A constant target scores 1
// when predicted exactly and 0 otherwise.
func r2(pred, actual []float64) float64 {
	if floats.Max(actual) == floats.Min(actual) {
		if floats.Equal(pred, actual) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(pred, actual, nil)
}

// meanStd returns the mean and population standard deviation.
func meanStd(xs []float64) (float64, float64) {
	return stat.PopMeanStdDev(xs, nil)
}
