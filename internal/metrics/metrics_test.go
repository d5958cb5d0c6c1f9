// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T is not a metric", o)
	}
	var pb io_prometheus_client.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return pb.GetHistogram().GetSampleCount()
}

func TestRecordStage(t *testing.T) {
	tests := []struct {
		name     string
		stage    string
		duration time.Duration
		err      error
	}{
		{"successful split", "test_split", 10 * time.Millisecond, nil},
		{"failed expansion", "test_second_order", 2 * time.Second, errors.New("adjacency is not symmetric")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := histogramCount(t, StageDuration.WithLabelValues(tt.stage))
			beforeErr := testutil.ToFloat64(StageErrors.WithLabelValues(tt.stage))

			RecordStage(tt.stage, tt.duration, tt.err)

			if got := histogramCount(t, StageDuration.WithLabelValues(tt.stage)); got != before+1 {
				t.Errorf("sample count = %d, want %d", got, before+1)
			}
			wantErr := beforeErr
			if tt.err != nil {
				wantErr++
			}
			if got := testutil.ToFloat64(StageErrors.WithLabelValues(tt.stage)); got != wantErr {
				t.Errorf("errors = %v, want %v", got, wantErr)
			}
		})
	}
}

func TestRecordCache(t *testing.T) {
	before := testutil.ToFloat64(CacheRequests.WithLabelValues("store", "hit"))
	RecordCache("store", "hit")
	RecordCache("store", "hit")

	if got := testutil.ToFloat64(CacheRequests.WithLabelValues("store", "hit")); got != before+2 {
		t.Errorf("store hits = %v, want %v", got, before+2)
	}
}

func TestRecordGraphShape(t *testing.T) {
	RecordGraphShape(
		map[string]int{"user": 3, "item": 2},
		map[string]int{"user2item": 3, "-user2item": 3},
		2, 1, 9,
	)

	if got := testutil.ToFloat64(Nodes.WithLabelValues("user")); got != 3 {
		t.Errorf("user nodes = %v, want 3", got)
	}
	if got := testutil.ToFloat64(Edges.WithLabelValues("-user2item")); got != 3 {
		t.Errorf("reverse edges = %v, want 3", got)
	}
	if got := testutil.ToFloat64(SplitEdges.WithLabelValues("test")); got != 1 {
		t.Errorf("test edges = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SecondOrderTriples); got != 9 {
		t.Errorf("triples = %v, want 9", got)
	}

	// A second graph replaces the per-type series instead of accumulating.
	RecordGraphShape(map[string]int{"user": 1}, map[string]int{}, 0, 0, 0)
	if got := testutil.CollectAndCount(Nodes); got != 1 {
		t.Errorf("node series = %d, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordLoaderRows("ratings", 42)

	path := filepath.Join(t.TempDir(), "hetgraph.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `hetgraph_loader_rows_total{table="ratings"}`) {
		t.Errorf("textfile missing loader rows:\n%s", data)
	}
}
