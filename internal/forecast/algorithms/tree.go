// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package algorithms

import (
	"sort"
)

// Node is one CART node stored in a flat slice. Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a fitted regression tree.
type Tree struct {
	Nodes []Node
}

type treeConfig struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// growTree fits a variance-reduction tree on the rows listed in idx.
// idx may contain repeats (bootstrap samples).
func growTree(X [][]float64, y []float64, idx []int, cfg treeConfig) Tree {
	t := Tree{Nodes: make([]Node, 0, 2*len(idx))}
	t.grow(X, y, idx, 0, cfg)
	return t
}

func (t *Tree) grow(X [][]float64, y []float64, idx []int, depth int, cfg treeConfig) int {
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1, Value: meanAt(y, idx)})

	if depth >= cfg.MaxDepth || len(idx) < cfg.MinSamplesSplit || len(idx) < 2*cfg.MinSamplesLeaf {
		return id
	}

	feature, threshold, ok := bestSplit(X, y, idx, cfg.MinSamplesLeaf)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := t.grow(X, y, left, depth+1, cfg)
	r := t.grow(X, y, right, depth+1, cfg)

	t.Nodes[id].Feature = feature
	t.Nodes[id].Threshold = threshold
	t.Nodes[id].Left = l
	t.Nodes[id].Right = r
	return id
}

// bestSplit scans every feature for the threshold that maximizes the
// reduction in squared error. Features are scanned in column order and only
// a strictly better gain replaces the incumbent, so ties resolve to the
// lowest column and threshold.
func bestSplit(X [][]float64, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += y[i]
	}
	base := total * total / float64(n)

	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, n)
	for f := range X[idx[0]] {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		var sumL float64
		for k := 0; k < n-1; k++ {
			sumL += y[order[k]]
			nL, nR := k+1, n-k-1
			if nL < minLeaf || nR < minLeaf {
				continue
			}
			cur, next := X[order[k]][f], X[order[k+1]][f]
			if next <= cur {
				continue
			}
			sumR := total - sumL
			gain := sumL*sumL/float64(nL) + sumR*sumR/float64(nR) - base
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s float64
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}
