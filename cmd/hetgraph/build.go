// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/hetgraph/internal/compiler"
	"github.com/tomtom215/hetgraph/internal/database"
	"github.com/tomtom215/hetgraph/internal/graph"
	"github.com/tomtom215/hetgraph/internal/logging"
	"github.com/tomtom215/hetgraph/internal/metrics"
	"github.com/tomtom215/hetgraph/internal/sampling"
)

var (
	buildNoCache  bool
	buildSampling bool
	buildCompact  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the configured dataset",
	Long: `Compile the configured dataset into a heterogeneous graph and print a JSON
report. A seeded build is served from the memory or artifact cache when an
identical build exists, and persisted otherwise.

Examples:
  hetgraph build
  hetgraph build --no-cache
  HETGRAPH_SEC_ORDER=true hetgraph build --sampling`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "compile without reading or writing the artifact cache")
	buildCmd.Flags().BoolVar(&buildSampling, "sampling", false, "report iterator and ranking sampler sizes")
	buildCmd.Flags().BoolVar(&buildCompact, "compact", false, "print the report on a single line")
}

// buildReport is the JSON printed by the build command.
type buildReport struct {
	BuildID    string            `json:"build_id"`
	Layer      string            `json:"layer"`
	DurationMS int64             `json:"duration_ms"`
	Summary    graph.Summary     `json:"summary"`
	Stats      compiler.Stats    `json:"stats"`
	Sampling   *samplingReport   `json:"sampling,omitempty"`
	Artifact   *artifactSnapshot `json:"artifact,omitempty"`
}

// samplingReport describes the training-time views of the graph.
type samplingReport struct {
	BatchSize          int    `json:"batch_size"`
	TrainBatches       int    `json:"train_batches"`
	TrainRatingBatches int    `json:"train_rating_batches"`
	TestRatingBatches  int    `json:"test_rating_batches"`
	NegativePool       string `json:"negative_pool"`
	RankingUsers       int    `json:"ranking_users"`
	SkippedUsers       int    `json:"skipped_users"`
}

// artifactSnapshot is the persisted part of a build.
type artifactSnapshot struct {
	Checksum  string `json:"checksum"`
	SizeBytes int64  `json:"size_bytes"`
	Chunks    int    `json:"chunks"`
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := logging.ContextWithNewBuildID(cmd.Context())
	logger := *logging.Ctx(ctx)

	loader, err := database.Open(cfg.Dataset, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := loader.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing loader")
		}
	}()

	var store compiler.Store
	if cfg.Cache.Enabled && !buildNoCache {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(s)
		store = s
	}

	memoryEntries := cfg.Cache.MemoryEntries
	if buildNoCache {
		memoryEntries = 0
	}
	c, err := compiler.New(store, memoryEntries, logger)
	if err != nil {
		return err
	}

	opts := compiler.Options(&cfg.Compile)
	res, err := c.Build(ctx, loader, opts)
	if err != nil {
		return fmt.Errorf("build %s: %w", loader.Name(), err)
	}

	report := buildReport{
		BuildID:    res.BuildID,
		Layer:      res.Layer,
		DurationMS: res.Duration.Milliseconds(),
		Summary:    res.Graph.Summarize(),
		Stats:      c.Stats(),
	}
	if res.Metadata != nil {
		report.Artifact = &artifactSnapshot{
			Checksum:  res.Metadata.Checksum,
			SizeBytes: res.Metadata.SizeBytes,
			Chunks:    res.Metadata.Chunks,
		}
	}

	if buildSampling {
		sr, err := describeSampling(res.Graph, opts, cfg.Sampling.BatchSize, cfg.Sampling.NegativePool)
		if err != nil {
			return err
		}
		report.Sampling = sr
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("Failed to write metrics textfile")
		}
	}

	logger.Info().
		Str("suffix", res.Graph.Suffix).
		Str("layer", res.Layer).
		Dur("duration", res.Duration.Round(time.Millisecond)).
		Msg("Build finished")

	return writeJSON(cmd.OutOrStdout(), report, buildCompact)
}

// describeSampling builds the iterators and ranking sampler a training run
// would use and reports their sizes.
func describeSampling(g *graph.Graph, opts graph.Options, batchSize int, poolName string) (*samplingReport, error) {
	pool, err := sampling.ParsePool(poolName)
	if err != nil {
		return nil, err
	}

	rng := opts.Rand()
	iters, err := sampling.NewIters(g, batchSize, rng)
	if err != nil {
		return nil, err
	}
	ranking, err := sampling.NewRankingSampler(g, pool, rng)
	if err != nil {
		return nil, err
	}

	return &samplingReport{
		BatchSize:          batchSize,
		TrainBatches:       iters.TrainEdges.NumBatches(),
		TrainRatingBatches: iters.TrainRatings.NumBatches(),
		TestRatingBatches:  iters.TestRatings.NumBatches(),
		NegativePool:       string(pool),
		RankingUsers:       len(ranking.Users()),
		SkippedUsers:       ranking.Skipped(),
	}, nil
}

// writeJSON encodes v to w, indented unless compact is set.
func writeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
