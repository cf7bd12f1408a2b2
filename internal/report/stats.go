// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/sajari/regression"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// describe computes descriptive statistics. The standard deviation is the
// sample deviation and is zero for fewer than two values.
func describe(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	s := Stats{
		Count: len(xs),
		Mean:  stat.Mean(xs, nil),
		Min:   floats.Min(xs),
		Max:   floats.Max(xs),
	}
	if len(xs) > 1 {
		s.Std = stat.StdDev(xs, nil)
	}
	s.Median = median(xs)
	return s
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// correlate returns the Pearson coefficient, or nil when it is undefined.
func correlate(x, y []float64) *float64 {
	if len(x) < 2 {
		return nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}

// fitLine regresses y on x. It returns nil when there are too few points or
// x has no variance.
func fitLine(x, y []float64) *LinearFit {
	if len(x) < 3 || floats.Min(x) == floats.Max(x) {
		return nil
	}

	var r regression.Regression
	r.SetObserved("density_rate")
	r.SetVar(0, "occupied_seats")
	for i := range x {
		r.Train(regression.DataPoint(y[i], []float64{x[i]}))
	}
	if err := r.Run(); err != nil {
		return nil
	}

	fit := &LinearFit{
		Intercept: r.Coeff(0),
		Slope:     r.Coeff(1),
		R2:        r.R2,
	}
	if math.IsNaN(fit.R2) || math.IsInf(fit.R2, 0) {
		fit.R2 = 0
	}
	fit.Formula = fmt.Sprintf("density_rate = %.4f + %.4f*occupied_seats", fit.Intercept, fit.Slope)
	return fit
}
