// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package algorithms

import (
	"math"
)

// SVRConfig contains configuration for kernel support vector regression.
type SVRConfig struct {
	C       float64
	Epsilon float64
	Gamma   float64
}

func svrConfigFrom(p Params) SVRConfig {
	cfg := SVRConfig{
		C:       p.Float("C", 1.0),
		Epsilon: p.Float("epsilon", 0.1),
		Gamma:   p.Float("gamma", 0.1),
	}
	if cfg.C <= 0 {
		cfg.C = 1.0
	}
	if cfg.Epsilon < 0 {
		cfg.Epsilon = 0
	}
	if cfg.Gamma <= 0 {
		cfg.Gamma = 0.1
	}
	return cfg
}

// KernelState holds the support vectors and dual weights of a fitted SVR.
type KernelState struct {
	Support [][]float64
	Beta    []float64
	Gamma   float64
	Offset  float64
}

const (
	svrMaxSweeps = 500
	svrTol       = 1e-6
)

// fitSVR solves the epsilon-insensitive SVR dual
//
//	min 1/2 b'Kb - t'b + eps*||b||_1   subject to  -C <= b_i <= C
//
// by coordinate descent, where t is the centered label and K is the RBF
// kernel plus one. The constant term absorbs the bias, which removes the
// equality constraint of the classic dual.
func fitSVR(Xs [][]float64, y []float64, cfg SVRConfig) *KernelState {
	n := len(Xs)
	offset := mean(y)
	target := make([]float64, n)
	for i, v := range y {
		target[i] = v - offset
	}

	K := make([][]float64, n)
	for i := range K {
		K[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			k := rbf(Xs[i], Xs[j], cfg.Gamma) + 1
			K[i][j] = k
			K[j][i] = k
		}
	}

	beta := make([]float64, n)
	f := make([]float64, n)
	for sweep := 0; sweep < svrMaxSweeps; sweep++ {
		maxDelta := 0.0
		for i := 0; i < n; i++ {
			kii := K[i][i]
			z := beta[i] - (f[i]-target[i])/kii
			next := clamp(softThreshold(z, cfg.Epsilon/kii), -cfg.C, cfg.C)
			d := next - beta[i]
			if d == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				f[j] += d * K[i][j]
			}
			beta[i] = next
			maxDelta = math.Max(maxDelta, math.Abs(d))
		}
		if maxDelta < svrTol {
			break
		}
	}

	state := &KernelState{Gamma: cfg.Gamma, Offset: offset}
	for i, b := range beta {
		if b == 0 {
			continue
		}
		row := make([]float64, len(Xs[i]))
		copy(row, Xs[i])
		state.Support = append(state.Support, row)
		state.Beta = append(state.Beta, b)
	}
	return state
}

func (k *KernelState) predict(x []float64) float64 {
	v := k.Offset
	for i, sv := range k.Support {
		v += k.Beta[i] * (rbf(sv, x, k.Gamma) + 1)
	}
	return v
}

func rbf(a, b []float64, gamma float64) float64 {
	var d float64
	for j := range a {
		diff := a[j] - b[j]
		d += diff * diff
	}
	return math.Exp(-gamma * d)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
