// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package config loads hetgraph configuration from struct defaults, an
// optional YAML file and HETGRAPH_* environment variables (in that order of
// precedence, lowest first), then validates the result.
package config

import (
	"fmt"

	"github.com/tomtom215/hetgraph/internal/validation"
)

// Negative pool compositions understood by the ranking sampler.
const (
	NegativePoolUnrated        = "unrated"
	NegativePoolUnratedAndTest = "unrated_and_test"
)

// Config is the root configuration.
type Config struct {
	Dataset  DatasetConfig  `koanf:"dataset"`
	Compile  CompileConfig  `koanf:"compile"`
	Cache    CacheConfig    `koanf:"cache"`
	Sampling SamplingConfig `koanf:"sampling"`
	Logging  LoggingConfig  `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// DatasetConfig locates the raw tables read by the DuckDB loader.
type DatasetConfig struct {
	// Name identifies the dataset inside the cache suffix.
	// Default: movielens.
	Name string `koanf:"name" validate:"required,attrname"`

	// Dir holds the users, items and ratings files.
	// Default: data/ml-1m.
	Dir string `koanf:"dir" validate:"required"`

	UsersFile   string `koanf:"users_file" validate:"required"`
	ItemsFile   string `koanf:"items_file" validate:"required"`
	RatingsFile string `koanf:"ratings_file" validate:"required"`

	// Delimiter separates columns. MovieLens-1M uses "::".
	Delimiter string `koanf:"delimiter" validate:"required,max=4"`

	// Encoding of the raw files as understood by DuckDB read_csv.
	// Default: latin-1 (the MovieLens-1M movie titles are not UTF-8).
	Encoding string `koanf:"encoding" validate:"oneof=utf-8 utf-16 latin-1"`
}

// CompileConfig holds every parameter that affects the compiled graph.
// All of them are encoded in the cache suffix.
type CompileConfig struct {
	// NCore is the minimum interaction count for a user or item to be kept.
	// The bound is inclusive: an entity with exactly NCore ratings stays, so
	// the default of 10 keeps more rows than a strict "more than 10" filter.
	// Default: 10.
	NCore int `koanf:"n_core" validate:"gte=0"`

	// NumFeatCore is the minimum number of entities carrying an attribute
	// value for that value to become a node.
	// Default: 10.
	NumFeatCore int `koanf:"num_feat_core" validate:"gte=0"`

	// SplitEnabled turns on the train/test partition. When false every edge
	// is visible in both masks.
	// Default: true.
	SplitEnabled bool `koanf:"split_enabled"`

	// TrainRatio is the fraction of interaction rows assigned to train.
	// Default: 0.8.
	TrainRatio float64 `koanf:"train_ratio" validate:"gte=0,lte=1"`

	// Seeded makes the build reproducible with Seed. Unseeded builds are
	// never served from or written to the cache.
	// Default: true.
	Seeded bool  `koanf:"seeded"`
	Seed   int64 `koanf:"seed"`

	// Debug is the fraction of users kept for a quick debug build; 0 disables.
	Debug float64 `koanf:"debug" validate:"gte=0,lte=1"`

	// Directed suppresses the reverse edge blocks.
	Directed bool `koanf:"directed"`

	// SecOrder computes second-order (head, mid, tail) triples.
	SecOrder bool `koanf:"sec_order"`

	// SymmetrizeSecondOrder symmetrizes the edge list before second-order
	// expansion. Required when Directed and SecOrder are both set.
	SymmetrizeSecondOrder bool `koanf:"symmetrize_second_order"`

	// ExpandDiagonal emits one (h, m, h) triple per intermediate instead of
	// the collapsed (h, h, h) diagonal entry.
	ExpandDiagonal bool `koanf:"expand_diagonal"`

	// UserAttributes and ItemAttributes select and order the attribute
	// relations to materialize.
	UserAttributes []string `koanf:"user_attributes" validate:"dive,attrname"`
	ItemAttributes []string `koanf:"item_attributes" validate:"dive,attrname"`
}

// CacheConfig configures the compiled-artifact cache.
type CacheConfig struct {
	Enabled bool `koanf:"enabled"`

	// Dir is the badger directory.
	// Default: data/cache.
	Dir string `koanf:"dir"`

	// MemoryEntries bounds the in-process LRU of compiled graphs.
	// Default: 4.
	MemoryEntries int `koanf:"memory_entries" validate:"gte=0"`
}

// SamplingConfig configures the training-time iterators.
type SamplingConfig struct {
	// NegativePool selects the items negatives are drawn from.
	// Default: unrated.
	NegativePool string `koanf:"negative_pool" validate:"oneof=unrated unrated_and_test"`

	// BatchSize of the edge iterators.
	// Default: 1024.
	BatchSize int `koanf:"batch_size" validate:"gt=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig holds metrics export configuration.
type MetricsConfig struct {
	// Textfile, when set, receives the registry in the node-exporter
	// textfile format after each build.
	Textfile string `koanf:"textfile"`
}

// Validate checks struct tags and cross-field constraints.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when cache.enabled is true")
	}

	if c.Compile.Directed && c.Compile.SecOrder && !c.Compile.SymmetrizeSecondOrder {
		return fmt.Errorf("compile.sec_order on a directed graph requires compile.symmetrize_second_order")
	}

	seen := make(map[string]struct{})
	for _, attrs := range [][]string{c.Compile.UserAttributes, c.Compile.ItemAttributes} {
		for _, a := range attrs {
			if a == "user" || a == "item" {
				return fmt.Errorf("attribute name %q is reserved", a)
			}
			if _, dup := seen[a]; dup {
				return fmt.Errorf("attribute %q listed more than once", a)
			}
			seen[a] = struct{}{}
		}
	}

	return nil
}
