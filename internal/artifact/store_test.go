// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package artifact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/hetgraph/internal/dataset"
	"github.com/tomtom215/hetgraph/internal/graph"
	"github.com/tomtom215/hetgraph/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(logging.NewNopLogger())
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testGraph(t *testing.T, seed int64) *graph.Graph {
	t.Helper()
	d := &dataset.Dataset{
		Name: "toy",
		Users: []dataset.User{
			{ID: 1, Attrs: map[string][]string{"gender": {"F"}}},
			{ID: 2, Attrs: map[string][]string{"gender": {"M"}}},
			{ID: 3, Attrs: map[string][]string{"gender": {"F"}}},
		},
		Items: []dataset.Item{
			{ID: 10, Attrs: map[string][]string{"genre": {"Drama", "Comedy"}}},
			{ID: 20, Attrs: map[string][]string{"genre": {"Drama"}}},
		},
		Ratings: []dataset.Rating{
			{UserID: 1, ItemID: 10, Value: 5},
			{UserID: 1, ItemID: 20, Value: 3},
			{UserID: 2, ItemID: 10, Value: 4},
			{UserID: 3, ItemID: 20, Value: 2},
		},
	}
	opts := graph.Options{
		TrainRatio: graph.Float64(0.5),
		Seed:       graph.Int64(seed),
		SecOrder:   true,
		Schema:     graph.Schema{UserAttributes: []string{"gender"}, ItemAttributes: []string{"genre"}},
	}
	g, err := graph.Compile(d, opts, opts.Rand())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return g
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := testGraph(t, 1)

	meta, err := s.Save(ctx, g, NewMetadata(g, "b-1", 42*time.Millisecond))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if meta.Checksum == "" || meta.SizeBytes == 0 || meta.Chunks != 1 {
		t.Errorf("Save() metadata = %+v", meta)
	}

	loaded, loadedMeta, err := s.Load(ctx, g.Suffix)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loadedMeta.BuildID != "b-1" || loadedMeta.CompileDurationMS != 42 {
		t.Errorf("Load() metadata = %+v", loadedMeta)
	}
	if loadedMeta.Nodes != g.NumNodes() || loadedMeta.Edges != g.NumEdges() {
		t.Errorf("metadata counts = (%d, %d), want (%d, %d)", loadedMeta.Nodes, loadedMeta.Edges, g.NumNodes(), g.NumEdges())
	}

	if loaded.Suffix != g.Suffix || loaded.NumNodes() != g.NumNodes() || loaded.NumEdges() != g.NumEdges() {
		t.Fatalf("loaded graph differs: %s %d %d", loaded.Suffix, loaded.NumNodes(), loaded.NumEdges())
	}
	if !loaded.TrainMask.Equal(g.TrainMask) || !loaded.TestMask.Equal(g.TestMask) || !loaded.RatingMask.Equal(g.RatingMask) {
		t.Error("masks differ after round trip")
	}
	if loaded.SecondOrder.Len() != g.SecondOrder.Len() {
		t.Errorf("SecondOrder.Len() = %d, want %d", loaded.SecondOrder.Len(), g.SecondOrder.Len())
	}
	for i, v := range g.Edges.Weight {
		if loaded.Edges.Weight[i] != v {
			t.Fatalf("weight %d = %v, want %v", i, loaded.Edges.Weight[i], v)
		}
	}

	// Lookup tables are rebuilt on the decoded index.
	id, err := loaded.Nodes.Lookup("genre", "Drama")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if want, _ := g.Nodes.Lookup("genre", "Drama"); id != want {
		t.Errorf("Lookup(genre, Drama) = %d, want %d", id, want)
	}
}

func TestStore_Chunking(t *testing.T) {
	s := newTestStore(t)
	s.chunkSize = 64
	ctx := context.Background()
	g := testGraph(t, 2)

	meta, err := s.Save(ctx, g, NewMetadata(g, "b-2", 0))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if meta.Chunks < 2 {
		t.Fatalf("Chunks = %d, want several", meta.Chunks)
	}

	if _, _, err := s.Load(ctx, g.Suffix); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Saving again with larger chunks must not leave stale slices behind.
	s.chunkSize = DefaultChunkSize
	if _, err := s.Save(ctx, g, NewMetadata(g, "b-3", 0)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, _, err := s.Load(ctx, g.Suffix); err != nil {
		t.Fatalf("Load() after resave error = %v", err)
	}
}

func TestStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Stat(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stat() error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ChecksumMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := testGraph(t, 3)

	if _, err := s.Save(ctx, g, NewMetadata(g, "b-4", 0)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	meta, err := s.Stat(ctx, g.Suffix)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	meta.Checksum = "0000"
	if err := s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return txn.Set(metaKey(g.Suffix), data)
	}); err != nil {
		t.Fatalf("corrupt metadata: %v", err)
	}

	if _, _, err := s.Load(ctx, g.Suffix); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Load() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestStore_ListDeletePurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g1, g2 := testGraph(t, 5), testGraph(t, 6)
	for _, g := range []*graph.Graph{g1, g2} {
		if _, err := s.Save(ctx, g, NewMetadata(g, "b", 0)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d artifacts, want 2", len(list))
	}
	if list[0].Suffix > list[1].Suffix {
		t.Errorf("List() not ordered by suffix: %s, %s", list[0].Suffix, list[1].Suffix)
	}

	if err := s.Delete(ctx, g1.Suffix); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Stat(ctx, g1.Suffix); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stat() after delete error = %v, want ErrNotFound", err)
	}

	n, err := s.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Purge() = %d, want 1", n)
	}
	if list, _ := s.List(ctx); len(list) != 0 {
		t.Errorf("List() after purge = %v", list)
	}
}

func TestStore_SaveRequiresSuffix(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Save(context.Background(), &graph.Graph{}, Metadata{}); err == nil {
		t.Error("Save() without suffix should fail")
	}
}
