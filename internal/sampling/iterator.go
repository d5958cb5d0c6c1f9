// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package sampling produces training batches from a compiled graph: shuffled
// edge batches over a mask, and (user, positive, negative) triples for
// ranking losses.
//
// All randomness comes from the caller's *rand.Rand, so a seeded source
// reproduces the same batches.
package sampling

import (
	"fmt"
	"math/rand"

	"github.com/bits-and-blooms/bitset"

	"github.com/tomtom215/hetgraph/internal/graph"
)

// Batch is a slice of edges. Edges holds positions in the graph's edge list.
type Batch struct {
	Edges    []int
	Src      []int
	Dst      []int
	Relation []int
	Weight   []float64
}

// Len returns the number of edges in the batch.
func (b Batch) Len() int {
	return len(b.Edges)
}

// EdgeIterator walks the edges selected by a mask in shuffled batches.
type EdgeIterator struct {
	g         *graph.Graph
	order     []int
	batchSize int
	pos       int
}

// NewEdgeIterator returns an iterator over the edges set in mask, shuffled
// with rng.
func NewEdgeIterator(g *graph.Graph, mask *bitset.BitSet, batchSize int, rng *rand.Rand) (*EdgeIterator, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if mask.Len() != uint(g.NumEdges()) {
		return nil, fmt.Errorf("mask length %d does not match %d edges", mask.Len(), g.NumEdges())
	}

	order := make([]int, 0, mask.Count())
	for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
		order = append(order, int(i))
	}

	it := &EdgeIterator{g: g, order: order, batchSize: batchSize}
	it.Reset(rng)
	return it, nil
}

// Len returns the number of edges per epoch.
func (it *EdgeIterator) Len() int {
	return len(it.order)
}

// NumBatches returns the number of batches per epoch.
func (it *EdgeIterator) NumBatches() int {
	return (len(it.order) + it.batchSize - 1) / it.batchSize
}

// Reset starts a new epoch, reshuffling with rng. A nil rng keeps edge order.
func (it *EdgeIterator) Reset(rng *rand.Rand) {
	it.pos = 0
	if rng != nil {
		rng.Shuffle(len(it.order), func(i, j int) {
			it.order[i], it.order[j] = it.order[j], it.order[i]
		})
	}
}

// Next returns the next batch, or false at the end of the epoch.
func (it *EdgeIterator) Next() (Batch, bool) {
	if it.pos >= len(it.order) {
		return Batch{}, false
	}
	end := min(it.pos+it.batchSize, len(it.order))
	edges := it.order[it.pos:end]
	it.pos = end

	e := it.g.Edges
	b := Batch{
		Edges:    append([]int(nil), edges...),
		Src:      make([]int, len(edges)),
		Dst:      make([]int, len(edges)),
		Relation: make([]int, len(edges)),
		Weight:   make([]float64, len(edges)),
	}
	for i, idx := range edges {
		b.Src[i], b.Dst[i] = e.Src[idx], e.Dst[idx]
		b.Relation[i], b.Weight[i] = e.Relation[idx], e.Weight[idx]
	}
	return b, true
}

// Iters are the three edge iterators of a training run.
type Iters struct {
	// TrainEdges covers every edge visible during training, structural
	// edges included.
	TrainEdges *EdgeIterator

	// TrainRatings and TestRatings cover only interaction edges.
	TrainRatings *EdgeIterator
	TestRatings  *EdgeIterator
}

// NewIters builds the train, train-rating and test-rating iterators of g.
func NewIters(g *graph.Graph, batchSize int, rng *rand.Rand) (*Iters, error) {
	train, err := NewEdgeIterator(g, g.TrainMask, batchSize, rng)
	if err != nil {
		return nil, fmt.Errorf("train edges: %w", err)
	}
	trainRatings, err := NewEdgeIterator(g, g.TrainRatingMask(), batchSize, rng)
	if err != nil {
		return nil, fmt.Errorf("train rating edges: %w", err)
	}
	testRatings, err := NewEdgeIterator(g, g.TestRatingMask(), batchSize, rng)
	if err != nil {
		return nil, fmt.Errorf("test rating edges: %w", err)
	}
	return &Iters{TrainEdges: train, TrainRatings: trainRatings, TestRatings: testRatings}, nil
}
