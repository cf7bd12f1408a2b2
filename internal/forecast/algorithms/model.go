// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package algorithms

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Family identifies a regression algorithm.
type Family string

const (
	RandomForest     Family = "random_forest"
	GradientBoosting Family = "gradient_boosting"
	Ridge            Family = "ridge"
	ElasticNet       Family = "elastic_net"
	SVR              Family = "svr"
)

// Families lists every family in tie-break priority order: when two
// families score the same, the earlier one wins.
var Families = []Family{Ridge, ElasticNet, SVR, RandomForest, GradientBoosting}

// Priority returns the family's tie-break rank (lower wins), or -1 if unknown.
func (f Family) Priority() int {
	for i, fam := range Families {
		if fam == f {
			return i
		}
	}
	return -1
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool { return f.Priority() >= 0 }

// ParseFamilies converts names into families, rejecting unknown names.
func ParseFamilies(names []string) ([]Family, error) {
	out := make([]Family, 0, len(names))
	for _, n := range names {
		f := Family(n)
		if !f.Valid() {
			return nil, fmt.Errorf("unknown algorithm family %q", n)
		}
		out = append(out, f)
	}
	return out, nil
}

// Params holds hyperparameters by name. Integer parameters are stored as
// whole floats.
type Params map[string]float64

// Int returns the named parameter rounded to an int, or def when absent.
func (p Params) Int(name string, def int) int {
	if v, ok := p[name]; ok {
		return int(math.Round(v))
	}
	return def
}

// Float returns the named parameter, or def when absent.
func (p Params) Float(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ErrNotFitted is returned when predicting with an unfitted model.
var ErrNotFitted = errors.New("model not fitted")

// Model is a fitted (or fittable) regressor. Exactly one state pointer is
// populated after Fit, selected by Family.
type Model struct {
	Family Family
	Params Params
	Scaler *Scaler

	Forest *ForestState
	Boost  *BoostState
	Linear *LinearState
	Kernel *KernelState
}

// New creates an unfitted model for a family.
func New(family Family, params Params) (*Model, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("unknown algorithm family %q", family)
	}
	if params == nil {
		params = Params{}
	}
	return &Model{Family: family, Params: params.Clone()}, nil
}

// Fit trains the model on rows X and labels y. The seed drives every random
// draw the family makes.
func (m *Model) Fit(X [][]float64, y []float64, seed int64) error {
	if len(X) == 0 {
		return errors.New("no training rows")
	}
	if len(X) != len(y) {
		return fmt.Errorf("row/label mismatch: %d rows, %d labels", len(X), len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("label %d is not finite", i)
		}
	}

	m.Forest, m.Boost, m.Linear, m.Kernel, m.Scaler = nil, nil, nil, nil, nil

	switch m.Family {
	case RandomForest:
		m.Forest = fitForest(X, y, forestConfigFrom(m.Params), seed)
	case GradientBoosting:
		m.Boost = fitBoosting(X, y, boostConfigFrom(m.Params), seed)
	case Ridge:
		m.Scaler = FitScaler(X)
		state, err := fitRidge(m.Scaler.TransformAll(X), y, m.Params.Float("alpha", 1.0))
		if err != nil {
			return fmt.Errorf("ridge: %w", err)
		}
		m.Linear = state
	case ElasticNet:
		m.Scaler = FitScaler(X)
		m.Linear = fitElasticNet(m.Scaler.TransformAll(X), y,
			m.Params.Float("alpha", 1.0), m.Params.Float("l1_ratio", 0.5))
	case SVR:
		m.Scaler = FitScaler(X)
		m.Kernel = fitSVR(m.Scaler.TransformAll(X), y, svrConfigFrom(m.Params))
	default:
		return fmt.Errorf("unknown algorithm family %q", m.Family)
	}
	return nil
}

// Predict evaluates the model at one raw (unscaled) row.
func (m *Model) Predict(x []float64) (float64, error) {
	if m.Scaler != nil {
		x = m.Scaler.Transform(x)
	}
	switch {
	case m.Family == RandomForest && m.Forest != nil:
		return m.Forest.predict(x), nil
	case m.Family == GradientBoosting && m.Boost != nil:
		return m.Boost.predict(x), nil
	case (m.Family == Ridge || m.Family == ElasticNet) && m.Linear != nil:
		return m.Linear.predict(x), nil
	case m.Family == SVR && m.Kernel != nil:
		return m.Kernel.predict(x), nil
	default:
		return 0, ErrNotFitted
	}
}

// PredictAll evaluates the model at every row.
func (m *Model) PredictAll(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		v, err := m.Predict(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Scaler standardizes columns to zero mean and unit variance.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler computes per-column mean and population standard deviation.
// Constant columns get a scale of 1.
func FitScaler(X [][]float64) *Scaler {
	cols := len(X[0])
	s := &Scaler{Mean: make([]float64, cols), Scale: make([]float64, cols)}
	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		s.Mean[j], s.Scale[j] = stat.PopMeanStdDev(col, nil)
		if s.Scale[j] < 1e-12 {
			s.Scale[j] = 1
		}
	}
	return s
}

// Transform standardizes one row.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

// TransformAll standardizes every row.
func (s *Scaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		out[i] = s.Transform(x)
	}
	return out
}

func mean(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	return stat.Mean(y, nil)
}
