// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package graph

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Options are the parameters of a compilation. Every field changes the
// output and is therefore part of the suffix.
type Options struct {
	// NCore is the minimum rating count of kept users and items; 0 disables.
	NCore int

	// NumFeatCore is the minimum number of entities per attribute value.
	NumFeatCore int

	// TrainRatio is the fraction of interaction rows in the train split.
	// nil compiles without a split.
	TrainRatio *float64

	// Seed makes the compilation reproducible. nil draws a time-based seed
	// and the result is never cached.
	Seed *int64

	// Debug keeps only this fraction of users; 0 disables.
	Debug float64

	Directed bool

	// SecOrder computes second-order triples on the train edges (or on all
	// edges without a split).
	SecOrder              bool
	SymmetrizeSecondOrder bool
	ExpandDiagonal        bool

	Schema Schema

	// Source fingerprints the raw input (file locations, parsing settings,
	// file sizes and modification times). It is set by the compiler from
	// its source; "" leaves it out of the suffix.
	Source string
}

// Float64 returns a pointer to v, for Options.TrainRatio.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v, for Options.Seed.
func Int64(v int64) *int64 { return &v }

// Validate checks ranges and combinations.
func (o Options) Validate() error {
	if o.NCore < 0 {
		return fmt.Errorf("n_core must be >= 0, got %d", o.NCore)
	}
	if o.NumFeatCore < 0 {
		return fmt.Errorf("num_feat_core must be >= 0, got %d", o.NumFeatCore)
	}
	if r := o.TrainRatio; r != nil && (math.IsNaN(*r) || *r < 0 || *r > 1) {
		return fmt.Errorf("train_ratio must be in [0,1], got %v", *r)
	}
	if math.IsNaN(o.Debug) || o.Debug < 0 || o.Debug > 1 {
		return fmt.Errorf("debug must be in [0,1], got %v", o.Debug)
	}
	if o.SecOrder && o.Directed && !o.SymmetrizeSecondOrder {
		return fmt.Errorf("second-order expansion of a directed graph requires symmetrization")
	}
	for _, r := range o.Source {
		if (r < '0' || r > '9') && (r < 'a' || r > 'z') {
			return fmt.Errorf("source fingerprint %q must be lower-case alphanumeric", o.Source)
		}
	}
	return o.Schema.Validate()
}

// Cacheable reports whether the output is reproducible from the suffix.
func (o Options) Cacheable() bool {
	return o.Seed != nil
}

// Rand returns the single random source of a compilation.
func (o Options) Rand() *rand.Rand {
	seed := time.Now().UnixNano()
	if o.Seed != nil {
		seed = *o.Seed
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible sampling, not security
}

// Suffix returns the cache key of compiling dataset with o:
//
//	{dataset}[_src_{source}]_{schema}_{directed|undirected}_core_{n}_featcore_{n}_train_{r|none}_seed_{s|none}_debug_{d}[_sec_order[_sym][_diag]]
func (o Options) Suffix(dataset string) string {
	var b strings.Builder
	b.WriteString(dataset)
	if o.Source != "" {
		b.WriteString("_src_")
		b.WriteString(o.Source)
	}
	b.WriteString("_")
	b.WriteString(o.Schema.Fingerprint())
	if o.Directed {
		b.WriteString("_directed")
	} else {
		b.WriteString("_undirected")
	}
	b.WriteString("_core_")
	b.WriteString(strconv.Itoa(o.NCore))
	b.WriteString("_featcore_")
	b.WriteString(strconv.Itoa(o.NumFeatCore))
	b.WriteString("_train_")
	if o.TrainRatio != nil {
		b.WriteString(strconv.FormatFloat(*o.TrainRatio, 'f', -1, 64))
	} else {
		b.WriteString("none")
	}
	b.WriteString("_seed_")
	if o.Seed != nil {
		b.WriteString(strconv.FormatInt(*o.Seed, 10))
	} else {
		b.WriteString("none")
	}
	b.WriteString("_debug_")
	b.WriteString(strconv.FormatFloat(o.Debug, 'f', -1, 64))
	if o.SecOrder {
		b.WriteString("_sec_order")
		if o.SymmetrizeSecondOrder {
			b.WriteString("_sym")
		}
		if o.ExpandDiagonal {
			b.WriteString("_diag")
		}
	}
	return b.String()
}
