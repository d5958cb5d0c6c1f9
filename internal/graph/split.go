// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package graph

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Split is the train/test partition of a layout. Masks have one bit per
// edge, aligned with the edge list.
type Split struct {
	// Enabled is false when no ratio was given; both masks are then all set
	// and every interaction row counts as train.
	Enabled bool

	// TrainRows are the selected interaction rows, ascending.
	TrainRows []int

	Train *bitset.BitSet
	Test  *bitset.BitSet
}

// IsTrainRow reports whether interaction row k is in the train split.
func (s *Split) IsTrainRow(k int) bool {
	if !s.Enabled {
		return true
	}
	_, found := slices.BinarySearch(s.TrainRows, k)
	return found
}

// RatingMask marks the interaction edges of l (both directions).
func RatingMask(l Layout) *bitset.BitSet {
	m := bitset.New(uint(l.NumEdges()))
	for k := 0; k < l.NumInteractions(); k++ {
		fwd, rev, hasRev := l.interactionEdges(k)
		m.Set(uint(fwd))
		if hasRev {
			m.Set(uint(rev))
		}
	}
	return m
}

// structuralMask marks every structural edge of l.
func structuralMask(l Layout) *bitset.BitSet {
	m := bitset.New(uint(l.NumEdges()))
	setRange(m, 0, l.RatingBegin)
	if !l.Directed {
		setRange(m, l.BlockLen, l.BlockLen+l.RatingBegin)
	}
	return m
}

func setRange(m *bitset.BitSet, from, to int) {
	for i := from; i < to; i++ {
		m.Set(uint(i))
	}
}

// Partition selects round(trainRatio * k) of the k interaction rows
// uniformly with rng as train; the rest are test. Structural edges are set
// in both masks and each selected row marks its forward and reverse edge
// alike. A nil trainRatio disables the split.
func Partition(l Layout, trainRatio *float64, rng *rand.Rand) (*Split, error) {
	n := l.NumEdges()
	k := l.NumInteractions()

	if trainRatio == nil {
		all := bitset.New(uint(n))
		setRange(all, 0, n)
		return &Split{Enabled: false, Train: all, Test: all.Clone()}, nil
	}

	r := *trainRatio
	if math.IsNaN(r) || r < 0 || r > 1 {
		return nil, fmt.Errorf("train ratio must be in [0,1], got %v", r)
	}
	if rng == nil {
		return nil, fmt.Errorf("a random source is required to split")
	}

	size := int(math.Round(r * float64(k)))
	rows := rng.Perm(k)[:size]
	slices.Sort(rows)

	train := structuralMask(l)
	test := train.Clone()
	inTrain := bitset.New(uint(k))
	for _, row := range rows {
		inTrain.Set(uint(row))
	}
	for row := 0; row < k; row++ {
		target := test
		if inTrain.Test(uint(row)) {
			target = train
		}
		fwd, rev, hasRev := l.interactionEdges(row)
		target.Set(uint(fwd))
		if hasRev {
			target.Set(uint(rev))
		}
	}

	return &Split{Enabled: true, TrainRows: rows, Train: train, Test: test}, nil
}
