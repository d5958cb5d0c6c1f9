// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package metrics holds the Prometheus collectors for compile runs: stage
// timings, graph sizes, cache efficiency and loader throughput. A batch run
// exports them with WriteTextfile for the node-exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageDuration times each compiler stage (load, prepare, reindex,
	// allocate, materialize, split, interactions, second_order, persist).
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hetgraph_stage_duration_seconds",
			Help:    "Duration of graph compiler stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~260s
		},
		[]string{"stage"},
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hetgraph_stage_errors_total",
			Help: "Total number of failed compiler stages",
		},
		[]string{"stage"},
	)

	Nodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hetgraph_nodes",
			Help: "Number of nodes per entity type in the last compiled graph",
		},
		[]string{"type"},
	)

	Edges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hetgraph_edges",
			Help: "Number of edges per relation in the last compiled graph",
		},
		[]string{"relation"},
	)

	SplitEdges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hetgraph_split_interaction_edges",
			Help: "Number of interaction edges per split in the last compiled graph",
		},
		[]string{"split"},
	)

	SecondOrderTriples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hetgraph_second_order_triples",
			Help: "Number of second-order (head, mid, tail) triples in the last compiled graph",
		},
	)

	// CacheRequests counts artifact lookups by layer (memory, store) and
	// result (hit, miss, bypass).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hetgraph_cache_requests_total",
			Help: "Total number of compiled-graph cache lookups",
		},
		[]string{"layer", "result"},
	)

	ArtifactBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hetgraph_artifact_bytes",
			Help: "Compressed size of the last persisted artifact",
		},
	)

	LoaderRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hetgraph_loader_rows_total",
			Help: "Total number of rows read by the loader per table",
		},
		[]string{"table"},
	)
)

// RecordStage records a stage timing and, if err is non-nil, a failure.
func RecordStage(stage string, duration time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		StageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordCache records one cache lookup.
func RecordCache(layer, result string) {
	CacheRequests.WithLabelValues(layer, result).Inc()
}

// RecordLoaderRows adds rows read from table.
func RecordLoaderRows(table string, rows int) {
	LoaderRows.WithLabelValues(table).Add(float64(rows))
}

// RecordGraphShape publishes the size of a freshly compiled graph.
func RecordGraphShape(nodesByType, edgesByRelation map[string]int, train, test, triples int) {
	Nodes.Reset()
	for typ, n := range nodesByType {
		Nodes.WithLabelValues(typ).Set(float64(n))
	}
	Edges.Reset()
	for rel, n := range edgesByRelation {
		Edges.WithLabelValues(rel).Set(float64(n))
	}
	SplitEdges.WithLabelValues("train").Set(float64(train))
	SplitEdges.WithLabelValues("test").Set(float64(test))
	SecondOrderTriples.Set(float64(triples))
}

// WriteTextfile writes the default registry to path in the text exposition
// format. The write is atomic.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
