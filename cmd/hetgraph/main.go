// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package main is the entry point of the hetgraph command line tool.
//
// hetgraph compiles a rating dataset (users, items, ratings plus categorical
// attributes) into a typed, globally indexed heterogeneous graph ready for
// GNN recommender training, and manages the cache of compiled graphs.
//
// # Architecture
//
//   - DuckDB loader: reads the raw delimited tables (MovieLens-1M layout by
//     default) and derives attribute buckets
//   - Compiler: filtering, reindexing, edge materialization, train/test
//     split, interaction sets and optional second-order triples
//   - Artifact store: BadgerDB cache of compiled graphs keyed by the build
//     suffix, fronted by an in-process LRU
//   - Sampling: edge batch iterators and ranking triples
//
// # Configuration
//
// Configuration is read from struct defaults, then hetgraph.yaml (or the file
// named by --config or HETGRAPH_CONFIG), then HETGRAPH_* environment
// variables. See internal/config for the full list.
//
// # Commands
//
//	hetgraph build             compile (or fetch from cache) and print a summary
//	hetgraph inspect <suffix>  show a cached artifact
//	hetgraph cache list        list cached artifacts
//	hetgraph cache delete <s>  remove one artifact
//	hetgraph cache purge       remove every artifact
//
// SIGINT and SIGTERM cancel the running command's context.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/hetgraph/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
