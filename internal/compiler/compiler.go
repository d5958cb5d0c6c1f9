// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package compiler coordinates a graph build: cache lookup, dataset loading,
// compilation and persistence.
//
// Builds are looked up by suffix in a bounded in-process LRU first, then in
// the artifact store. Unseeded builds are not reproducible from their suffix
// and always bypass both layers.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/hetgraph/internal/artifact"
	"github.com/tomtom215/hetgraph/internal/config"
	"github.com/tomtom215/hetgraph/internal/dataset"
	"github.com/tomtom215/hetgraph/internal/graph"
	"github.com/tomtom215/hetgraph/internal/logging"
	"github.com/tomtom215/hetgraph/internal/metrics"
)

// Cache layers and results reported to metrics and in Result.
const (
	LayerMemory = "memory"
	LayerStore  = "store"
	LayerNone   = "none"

	resultHit    = "hit"
	resultMiss   = "miss"
	resultBypass = "bypass"
)

// Source provides the raw dataset. It is implemented by database.Loader.
type Source interface {
	// Name identifies the dataset in the cache suffix.
	Name() string

	// Fingerprint identifies the raw input behind Name, so that sources
	// sharing a name but not content never share a cache entry.
	Fingerprint() (string, error)

	// Load reads all tables.
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// Store persists compiled graphs. It is implemented by artifact.Store.
type Store interface {
	Save(ctx context.Context, g *graph.Graph, meta artifact.Metadata) (*artifact.Metadata, error)
	Load(ctx context.Context, suffix string) (*graph.Graph, *artifact.Metadata, error)
}

// Result is the outcome of a build.
type Result struct {
	Graph    *graph.Graph
	Metadata *artifact.Metadata

	// Layer is where the graph came from: memory, store, or none when it
	// was compiled.
	Layer   string
	BuildID string

	Duration time.Duration
}

// Cached reports whether the graph was served from a cache layer.
func (r *Result) Cached() bool {
	return r.Layer != LayerNone
}

// Stats counts build outcomes since the compiler was created.
type Stats struct {
	MemoryHits int64 `json:"memory_hits"`
	StoreHits  int64 `json:"store_hits"`
	Compiled   int64 `json:"compiled"`
	Errors     int64 `json:"errors"`
}

// Compiler builds graphs. It is safe for concurrent use.
type Compiler struct {
	logger zerolog.Logger
	store  Store
	memory *lru.Cache[string, *graph.Graph]

	memoryHits atomic.Int64
	storeHits  atomic.Int64
	compiled   atomic.Int64
	errorCount atomic.Int64
}

// New creates a compiler. store may be nil to disable persistence and
// memoryEntries may be 0 to disable the in-process cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(store Store, memoryEntries int, logger zerolog.Logger) (*Compiler, error) {
	c := &Compiler{
		logger: logger.With().Str("component", "compiler").Logger(),
		store:  store,
	}
	if memoryEntries > 0 {
		cache, err := lru.New[string, *graph.Graph](memoryEntries)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		c.memory = cache
	}
	return c, nil
}

// Options converts the compile section of the configuration.
func Options(cfg *config.CompileConfig) graph.Options {
	opts := graph.Options{
		NCore:                 cfg.NCore,
		NumFeatCore:           cfg.NumFeatCore,
		Debug:                 cfg.Debug,
		Directed:              cfg.Directed,
		SecOrder:              cfg.SecOrder,
		SymmetrizeSecondOrder: cfg.SymmetrizeSecondOrder,
		ExpandDiagonal:        cfg.ExpandDiagonal,
		Schema: graph.Schema{
			UserAttributes: append([]string(nil), cfg.UserAttributes...),
			ItemAttributes: append([]string(nil), cfg.ItemAttributes...),
		},
	}
	if cfg.SplitEnabled {
		opts.TrainRatio = graph.Float64(cfg.TrainRatio)
	}
	if cfg.Seeded {
		opts.Seed = graph.Int64(cfg.Seed)
	}
	return opts
}

// Build returns the graph of src compiled with opts, from cache when
// possible. ctx governs loading and store I/O; compilation itself runs to
// completion once started.
func (c *Compiler) Build(ctx context.Context, src Source, opts graph.Options) (*Result, error) {
	start := time.Now()

	buildID := logging.BuildIDFromContext(ctx)
	if buildID == "" {
		buildID = logging.GenerateBuildID()
		ctx = logging.ContextWithBuildID(ctx, buildID)
	}

	fp, err := src.Fingerprint()
	if err != nil {
		c.errorCount.Add(1)
		return nil, fmt.Errorf("fingerprint source %s: %w", src.Name(), err)
	}
	opts.Source = fp

	if err := opts.Validate(); err != nil {
		c.errorCount.Add(1)
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	suffix := opts.Suffix(src.Name())
	logger := c.logger.With().Str("build_id", buildID).Str("suffix", suffix).Logger()

	if res := c.lookup(ctx, suffix, opts, logger); res != nil {
		res.BuildID = buildID
		res.Duration = time.Since(start)
		return res, nil
	}

	res, err := c.compile(ctx, src, opts, buildID, logger)
	if err != nil {
		c.errorCount.Add(1)
		logger.Error().Err(err).Msg("build failed")
		return nil, err
	}
	res.Duration = time.Since(start)

	logger.Info().
		Int("nodes", res.Graph.NumNodes()).
		Int("edges", res.Graph.NumEdges()).
		Dur("duration", res.Duration).
		Msg("graph compiled")
	return res, nil
}

// lookup consults the memory and store layers. It returns nil on a miss.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (c *Compiler) lookup(ctx context.Context, suffix string, opts graph.Options, logger zerolog.Logger) *Result {
	if !opts.Cacheable() {
		metrics.RecordCache(LayerMemory, resultBypass)
		logger.Debug().Msg("unseeded build, cache bypassed")
		return nil
	}

	if c.memory != nil {
		if g, ok := c.memory.Get(suffix); ok {
			c.memoryHits.Add(1)
			metrics.RecordCache(LayerMemory, resultHit)
			logger.Debug().Msg("memory cache hit")
			return &Result{Graph: g, Layer: LayerMemory}
		}
		metrics.RecordCache(LayerMemory, resultMiss)
	}

	if c.store == nil {
		return nil
	}

	g, meta, err := c.store.Load(ctx, suffix)
	switch {
	case err == nil:
		c.storeHits.Add(1)
		metrics.RecordCache(LayerStore, resultHit)
		if c.memory != nil {
			c.memory.Add(suffix, g)
		}
		logger.Info().Str("saved_by", meta.BuildID).Msg("artifact loaded from store")
		return &Result{Graph: g, Metadata: meta, Layer: LayerStore}
	case errors.Is(err, artifact.ErrNotFound):
		metrics.RecordCache(LayerStore, resultMiss)
	default:
		// A corrupt or unreadable artifact is rebuilt and overwritten.
		metrics.RecordCache(LayerStore, resultMiss)
		logger.Warn().Err(err).Msg("stored artifact unusable, recompiling")
	}
	return nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (c *Compiler) compile(ctx context.Context, src Source, opts graph.Options, buildID string, logger zerolog.Logger) (*Result, error) {
	loadStart := time.Now()
	ds, err := src.Load(ctx)
	metrics.RecordStage("load", time.Since(loadStart), err)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", src.Name(), err)
	}
	logger.Debug().Interface("rows", ds.Stats()).Msg("dataset loaded")

	compileStart := time.Now()
	g, err := graph.Compile(ds, opts, opts.Rand())
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", src.Name(), err)
	}
	compileDuration := time.Since(compileStart)
	c.compiled.Add(1)

	s := g.Summarize()
	metrics.RecordGraphShape(s.NodesByType, s.EdgesByRelation, s.TrainInteractions, s.TestInteractions, s.SecondOrderTriples)

	res := &Result{Graph: g, Layer: LayerNone, BuildID: buildID}
	meta := artifact.NewMetadata(g, buildID, compileDuration)
	res.Metadata = &meta

	if !opts.Cacheable() {
		return res, nil
	}

	if c.store != nil {
		persistStart := time.Now()
		saved, err := c.store.Save(ctx, g, meta)
		metrics.RecordStage("persist", time.Since(persistStart), err)
		if err != nil {
			return nil, fmt.Errorf("persist %s: %w", g.Suffix, err)
		}
		res.Metadata = saved
	}
	if c.memory != nil {
		c.memory.Add(g.Suffix, g)
	}
	return res, nil
}

// Stats returns the build counters.
func (c *Compiler) Stats() Stats {
	return Stats{
		MemoryHits: c.memoryHits.Load(),
		StoreHits:  c.storeHits.Load(),
		Compiled:   c.compiled.Load(),
		Errors:     c.errorCount.Load(),
	}
}

// Forget drops suffix from the in-process cache.
func (c *Compiler) Forget(suffix string) {
	if c.memory != nil {
		c.memory.Remove(suffix)
	}
}
