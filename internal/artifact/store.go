// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package artifact persists compiled graphs in BadgerDB, keyed by suffix.
//
// # Storage Format
//
// Each artifact is stored as two kinds of keys:
//
//	meta:{suffix}            JSON-encoded Metadata
//	data:{suffix}:{chunk}    consecutive slices of gzip(gob(graph))
//
// The SHA-256 checksum of the uncompressed gob stream is kept in the
// metadata and verified on load. Payloads are chunked so that a large graph
// never exceeds Badger's value size limits.
package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/tomtom215/hetgraph/internal/graph"
	"github.com/tomtom215/hetgraph/internal/metrics"
)

// Key prefixes
const (
	metaKeyPrefix = "meta:"
	dataKeyPrefix = "data:"
)

// DefaultChunkSize is the payload slice stored under one data key.
const DefaultChunkSize = 4 << 20

var (
	// ErrNotFound is returned when no artifact exists for a suffix.
	ErrNotFound = errors.New("artifact not found")

	// ErrChecksumMismatch is returned when a payload fails verification.
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")
)

// Metadata describes a stored artifact.
type Metadata struct {
	Suffix  string `json:"suffix"`
	Dataset string `json:"dataset"`

	// BuildID identifies the compilation that produced the artifact.
	BuildID string `json:"build_id"`

	CreatedAt time.Time `json:"created_at"`
	SavedAt   time.Time `json:"saved_at"`

	Nodes              int `json:"nodes"`
	Edges              int `json:"edges"`
	Interactions       int `json:"interactions"`
	TrainInteractions  int `json:"train_interactions"`
	SecondOrderTriples int `json:"second_order_triples"`

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
	Chunks    int   `json:"chunks"`

	CompileDurationMS int64 `json:"compile_duration_ms"`
}

// NewMetadata fills the descriptive fields of g's metadata.
func NewMetadata(g *graph.Graph, buildID string, compileDuration time.Duration) Metadata {
	s := g.Summarize()
	return Metadata{
		Suffix:             g.Suffix,
		Dataset:            g.Dataset,
		BuildID:            buildID,
		CreatedAt:          time.Now(),
		Nodes:              s.Nodes,
		Edges:              s.Edges,
		Interactions:       g.Layout.NumInteractions(),
		TrainInteractions:  s.TrainInteractions,
		SecondOrderTriples: s.SecondOrderTriples,
		CompileDurationMS:  compileDuration.Milliseconds(),
	}
}

// Store manages artifact persistence. It is safe for concurrent use.
type Store struct {
	db        *badger.DB
	logger    zerolog.Logger
	chunkSize int
}

// Open opens (or creates) the store at dir.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for the artifact cache
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return open(badger.DefaultOptions(dir), logger)
}

// OpenInMemory opens a store that lives only as long as the process.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenInMemory(logger zerolog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

//nolint:gocritic // badger.Options is passed by value throughout the badger API
func open(opts badger.Options, logger zerolog.Logger) (*Store, error) {
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:        db,
		logger:    logger.With().Str("component", "artifact").Logger(),
		chunkSize: DefaultChunkSize,
	}
	s.logger.Debug().Str("dir", opts.Dir).Bool("in_memory", opts.InMemory).Msg("artifact store opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func metaKey(suffix string) []byte {
	return []byte(metaKeyPrefix + suffix)
}

func dataPrefix(suffix string) []byte {
	return []byte(dataKeyPrefix + suffix + ":")
}

func dataKey(suffix string, chunk int) []byte {
	return []byte(fmt.Sprintf("%s%s:%08d", dataKeyPrefix, suffix, chunk))
}

// Save encodes g and stores it under g.Suffix, replacing any previous
// artifact. The checksum, size and chunk fields of meta are filled in.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, g *graph.Graph, meta Metadata) (*Metadata, error) {
	if g.Suffix == "" {
		return nil, fmt.Errorf("graph has no suffix")
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(g); err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress graph: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	payload := compressed.Bytes()
	meta.Suffix = g.Suffix
	meta.SizeBytes = int64(len(payload))
	meta.Chunks = (len(payload) + s.chunkSize - 1) / s.chunkSize
	meta.SavedAt = time.Now()

	metaData, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	if err := s.Delete(ctx, g.Suffix); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("replace artifact: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := 0; i < meta.Chunks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min((i+1)*s.chunkSize, len(payload))
		if err := wb.Set(dataKey(g.Suffix, i), payload[i*s.chunkSize:end]); err != nil {
			return nil, fmt.Errorf("write chunk %d: %w", i, err)
		}
	}
	// Metadata last: an artifact is visible only once its payload is complete.
	if err := wb.Set(metaKey(g.Suffix), metaData); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return nil, fmt.Errorf("flush artifact: %w", err)
	}

	metrics.ArtifactBytes.Set(float64(meta.SizeBytes))
	s.logger.Info().
		Str("suffix", g.Suffix).
		Int64("size_bytes", meta.SizeBytes).
		Int("chunks", meta.Chunks).
		Msg("artifact saved")

	return &meta, nil
}

// Stat returns the metadata stored for suffix.
func (s *Store) Stat(ctx context.Context, suffix string) (*Metadata, error) {
	var meta Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(suffix))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, suffix)
		}
		if err != nil {
			return fmt.Errorf("get metadata: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Load reads and verifies the artifact stored for suffix.
func (s *Store) Load(ctx context.Context, suffix string) (*graph.Graph, *Metadata, error) {
	meta, err := s.Stat(ctx, suffix)
	if err != nil {
		return nil, nil, err
	}

	payload := make([]byte, 0, meta.SizeBytes)
	chunks := 0
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := dataPrefix(suffix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := it.Item().Value(func(val []byte) error {
				payload = append(payload, val...)
				return nil
			}); err != nil {
				return err
			}
			chunks++
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("read payload: %w", err)
	}
	if chunks != meta.Chunks {
		return nil, nil, fmt.Errorf("%w: %s has %d of %d chunks", ErrChecksumMismatch, suffix, chunks, meta.Chunks)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress graph: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != meta.Checksum {
		return nil, nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, meta.Checksum, checksum)
	}

	var g graph.Graph
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&g); err != nil {
		return nil, nil, fmt.Errorf("decode graph: %w", err)
	}
	return &g, meta, nil
}

// List returns the metadata of every stored artifact, ordered by suffix.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	var out []Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(metaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var meta Metadata
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the artifact stored for suffix.
func (s *Store) Delete(ctx context.Context, suffix string) error {
	keys := [][]byte{}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaKey(suffix)); err == nil {
			found = true
			keys = append(keys, metaKey(suffix))
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := dataPrefix(suffix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list artifact keys: %w", err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, suffix)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush delete: %w", err)
	}

	if found {
		s.logger.Debug().Str("suffix", suffix).Msg("artifact deleted")
	}
	return nil
}

// Purge removes every artifact and returns how many there were.
func (s *Store) Purge(ctx context.Context) (int, error) {
	metas, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.db.DropAll(); err != nil {
		return 0, fmt.Errorf("drop all: %w", err)
	}
	s.logger.Info().Int("artifacts", len(metas)).Msg("artifact store purged")
	return len(metas), nil
}
