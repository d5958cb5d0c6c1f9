// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package graph

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/tomtom215/hetgraph/internal/dataset"
	"github.com/tomtom215/hetgraph/internal/metrics"
	"github.com/tomtom215/hetgraph/internal/secorder"
)

// Second-order variants.
const (
	VariantTrain = "train"
	VariantFull  = "full"
)

// Compile runs the whole pipeline on ds: dedupe, debug subsample, n-core
// and feature filtering, reindexing, node allocation, edge materialization,
// the train/test split, the interaction maps and, if requested, the
// second-order expansion. rng is the only source of randomness; it may be
// nil when neither a split nor a debug subsample is requested.
//
// ds is not modified.
func Compile(ds *dataset.Dataset, opts Options, rng *rand.Rand) (*Graph, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rng == nil && (opts.TrainRatio != nil || opts.Debug > 0) {
		return nil, fmt.Errorf("a random source is required for splitting or subsampling")
	}

	var prepared *dataset.Dataset
	err := stage("prepare", func() error {
		d := dataset.Dedupe(ds)
		if opts.Debug > 0 {
			d = dataset.Subsample(d, opts.Debug, rng)
		}
		d = dataset.FilterCore(d, opts.NCore)
		prepared = dataset.FilterFeatures(d, opts.NumFeatCore, opts.Schema.UserAttributes, opts.Schema.ItemAttributes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var re *dataset.Reindexed
	if err := stage("reindex", func() (err error) {
		re, err = dataset.Reindex(prepared)
		return err
	}); err != nil {
		return nil, err
	}

	g := &Graph{
		Suffix:  opts.Suffix(ds.Name),
		Dataset: ds.Name,
		Schema:  opts.Schema,
	}

	if err := stage("allocate", func() (err error) {
		g.Nodes, err = NewNodeIndex(NodeSpecs(re, opts.Schema))
		return err
	}); err != nil {
		return nil, err
	}

	g.Relations = Relations(opts.Schema, opts.Directed)
	if err := stage("materialize", func() (err error) {
		g.Edges, g.Layout, err = Materialize(re, g.Nodes, g.Relations, opts.Directed)
		return err
	}); err != nil {
		return nil, err
	}

	var split *Split
	if err := stage("split", func() (err error) {
		split, err = Partition(g.Layout, opts.TrainRatio, rng)
		return err
	}); err != nil {
		return nil, err
	}
	g.RatingMask = RatingMask(g.Layout)
	g.TrainMask, g.TestMask = split.Train, split.Test
	g.SplitEnabled, g.TrainRows = split.Enabled, split.TrainRows

	if err := stage("interactions", func() error {
		inter, err := MapInteractions(re, g.Nodes, split)
		if err != nil {
			return err
		}
		g.TrainPos, g.TestPos, g.Neg = inter.TrainPos, inter.TestPos, inter.Neg
		return nil
	}); err != nil {
		return nil, err
	}

	if opts.SecOrder {
		if err := stage("second_order", func() error {
			return g.expandSecondOrder(opts)
		}); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// expandSecondOrder computes the triples on the train edges, or on every
// edge when the graph has no split.
func (g *Graph) expandSecondOrder(opts Options) error {
	g.SecondOrderVariant = VariantFull
	var src, dst []int
	if g.SplitEnabled {
		g.SecondOrderVariant = VariantTrain
		src, dst = g.MaskedEdges(g.TrainMask)
	} else {
		src, dst = g.Edges.Src, g.Edges.Dst
	}
	if opts.SymmetrizeSecondOrder {
		src, dst = secorder.Symmetrize(src, dst)
	}

	tr, err := secorder.Expand(g.NumNodes(), src, dst, secorder.Options{ExpandDiagonal: opts.ExpandDiagonal})
	if err != nil {
		return fmt.Errorf("second-order expansion: %w", err)
	}
	g.SecondOrder = tr
	return nil
}

func stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(name, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
