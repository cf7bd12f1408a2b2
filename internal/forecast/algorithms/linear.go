// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package algorithms

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearState holds the coefficients of a fitted linear model over
// standardized features.
type LinearState struct {
	Intercept float64
	Coef      []float64
}

func (l *LinearState) predict(x []float64) float64 {
	v := l.Intercept
	for j, c := range l.Coef {
		v += c * x[j]
	}
	return v
}

// fitRidge solves (X'X + alpha*I) w = X'(y - mean(y)) on standardized rows.
// Columns are centered by the scaler, so the intercept is mean(y).
func fitRidge(Xs [][]float64, y []float64, alpha float64) (*LinearState, error) {
	n, p := len(Xs), len(Xs[0])
	ym := mean(y)

	X := mat.NewDense(n, p, nil)
	for i, row := range Xs {
		X.SetRow(i, row)
	}
	yc := mat.NewVecDense(n, nil)
	for i, v := range y {
		yc.SetVec(i, v-ym)
	}

	var gram mat.Dense
	gram.Mul(X.T(), X)
	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+alpha)
	}

	var rhs mat.VecDense
	rhs.MulVec(X.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&gram, &rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve normal equations: %w", err)
		}
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = w.AtVec(j)
		if math.IsNaN(coef[j]) {
			return nil, errors.New("solve normal equations: non-finite coefficients")
		}
	}
	return &LinearState{Intercept: ym, Coef: coef}, nil
}

const (
	enetMaxIter = 1000
	enetTol     = 1e-6
)

// fitElasticNet minimizes
//
//	1/(2n)*||y - Xw||^2 + alpha*l1*||w||_1 + alpha*(1-l1)/2*||w||^2
//
// by cyclic coordinate descent on standardized rows.
func fitElasticNet(Xs [][]float64, y []float64, alpha, l1Ratio float64) *LinearState {
	n, p := len(Xs), len(Xs[0])
	ym := mean(y)
	nf := float64(n)
	l1 := alpha * l1Ratio * nf
	l2 := alpha * (1 - l1Ratio) * nf

	residual := make([]float64, n)
	for i, v := range y {
		residual[i] = v - ym
	}
	colSq := make([]float64, p)
	for _, row := range Xs {
		for j, v := range row {
			colSq[j] += v * v
		}
	}

	w := make([]float64, p)
	for iter := 0; iter < enetMaxIter; iter++ {
		maxDelta := 0.0
		for j := 0; j < p; j++ {
			old := w[j]
			var rho float64
			for i, row := range Xs {
				rho += row[j] * (residual[i] + row[j]*old)
			}
			var next float64
			if denom := colSq[j] + l2; denom > 0 {
				next = softThreshold(rho, l1) / denom
			}
			if d := next - old; d != 0 {
				for i, row := range Xs {
					residual[i] -= row[j] * d
				}
				w[j] = next
				maxDelta = math.Max(maxDelta, math.Abs(d))
			}
		}
		if maxDelta < enetTol {
			break
		}
	}
	return &LinearState{Intercept: ym, Coef: w}
}

func softThreshold(z, t float64) float64 {
	switch {
	case z > t:
		return z - t
	case z < -t:
		return z + t
	default:
		return 0
	}
}
