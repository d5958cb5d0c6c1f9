// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package database loads raw MovieLens-style tables through an in-memory
// DuckDB instance.
//
// DuckDB parses the delimited files (multi-byte separators, latin-1
// decoding), removes duplicate rows, extracts the release year from movie
// titles and orders every table by id before the rows are handed to the
// compiler as a dataset.Dataset.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/hetgraph/internal/config"
	"github.com/tomtom215/hetgraph/internal/database/query"
	"github.com/tomtom215/hetgraph/internal/dataset"
	"github.com/tomtom215/hetgraph/internal/metrics"
)

// Attribute names produced by the loader.
const (
	AttrGender     = "gender"
	AttrAge        = "age"
	AttrOccupation = "occupation"
	AttrGenre      = "genre"
	AttrYear       = "year"
)

// genreSeparator joins the genres of one movie.
const genreSeparator = "|"

// Loader reads one dataset directory. It implements the compiler's source.
type Loader struct {
	conn   *sql.DB
	cfg    config.DatasetConfig
	logger zerolog.Logger
}

// Open starts an in-memory DuckDB instance for cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg config.DatasetConfig, logger zerolog.Logger) (*Loader, error) {
	// Extensions are not needed for read_csv; disable auto-install so the
	// loader works offline.
	conn, err := sql.Open("duckdb", ":memory:?threads=1&autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Loader{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "loader").Logger(),
	}, nil
}

// Close releases the DuckDB instance.
func (l *Loader) Close() error {
	return l.conn.Close()
}

// Name returns the dataset name used in cache suffixes.
func (l *Loader) Name() string {
	return l.cfg.Name
}

// Fingerprint identifies the raw input: the resolved directory, file names,
// delimiter and encoding, and the size and modification time of each file.
// Rewriting a file or pointing the config elsewhere changes it.
func (l *Loader) Fingerprint() (string, error) {
	dir, err := filepath.Abs(l.cfg.Dir)
	if err != nil {
		return "", fmt.Errorf("resolve dataset dir: %w", err)
	}

	h := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.WriteString(p)
			_, _ = h.WriteString("\x00")
		}
	}
	write(dir, l.cfg.Delimiter, l.cfg.Encoding)

	for _, file := range []string{l.cfg.UsersFile, l.cfg.ItemsFile, l.cfg.RatingsFile} {
		info, err := os.Stat(filepath.Join(dir, file))
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", file, err)
		}
		write(file, fmt.Sprint(info.Size()), fmt.Sprint(info.ModTime().UnixNano()))
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Load reads the users, items and ratings tables.
func (l *Loader) Load(ctx context.Context) (*dataset.Dataset, error) {
	start := time.Now()

	d := &dataset.Dataset{Name: l.cfg.Name}
	var err error
	if d.Users, err = l.loadUsers(ctx); err != nil {
		return nil, err
	}
	if d.Items, err = l.loadItems(ctx); err != nil {
		return nil, err
	}
	if d.Ratings, err = l.loadRatings(ctx); err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("dataset", d.Name).
		Int("users", len(d.Users)).
		Int("items", len(d.Items)).
		Int("ratings", len(d.Ratings)).
		Dur("duration", time.Since(start)).
		Msg("dataset loaded")
	return d, nil
}

func (l *Loader) source(file string) *query.CSVBuilder {
	return query.NewCSVBuilder(filepath.Join(l.cfg.Dir, file)).
		Delimiter(l.cfg.Delimiter).
		Encoding(l.cfg.Encoding)
}

// loadUsers reads UserID::Gender::Age::Occupation::Zip.
func (l *Loader) loadUsers(ctx context.Context) ([]dataset.User, error) {
	src := l.source(l.cfg.UsersFile).
		Column("user_id", "BIGINT").
		Column("gender", "VARCHAR").
		Column("age", "INTEGER").
		Column("occupation", "INTEGER").
		Column("zip", "VARCHAR").
		Build()

	q := `SELECT DISTINCT ON (user_id) user_id, gender, age, occupation
		FROM ` + src + `
		ORDER BY user_id`

	rows, err := l.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer closeWithLog(rows, l.logger, "rows")

	var users []dataset.User
	for rows.Next() {
		var (
			id              int64
			gender          sql.NullString
			age, occupation sql.NullInt64
		)
		if err := rows.Scan(&id, &gender, &age, &occupation); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		attrs := make(map[string][]string, 3)
		if gender.Valid && gender.String != "" {
			attrs[AttrGender] = []string{gender.String}
		}
		if age.Valid {
			attrs[AttrAge] = []string{dataset.AgeBucket(int(age.Int64))}
		}
		if occupation.Valid {
			attrs[AttrOccupation] = []string{dataset.OccupationName(int(occupation.Int64))}
		}
		users = append(users, dataset.User{ID: id, Attrs: attrs})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	metrics.RecordLoaderRows("users", len(users))
	return users, nil
}

// loadItems reads MovieID::Title (Year)::Genre|Genre. The release year is
// the trailing parenthesized four-digit number of the title.
func (l *Loader) loadItems(ctx context.Context) ([]dataset.Item, error) {
	src := l.source(l.cfg.ItemsFile).
		Column("item_id", "BIGINT").
		Column("title", "VARCHAR").
		Column("genres", "VARCHAR").
		Build()

	q := `SELECT DISTINCT ON (item_id)
			item_id,
			title,
			genres,
			TRY_CAST(regexp_extract(title, '\((\d{4})\)\s*$', 1) AS INTEGER) AS year
		FROM ` + src + `
		ORDER BY item_id`

	rows, err := l.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer closeWithLog(rows, l.logger, "rows")

	var items []dataset.Item
	for rows.Next() {
		var (
			id            int64
			title, genres sql.NullString
			year          sql.NullInt64
		)
		if err := rows.Scan(&id, &title, &genres, &year); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}

		attrs := make(map[string][]string, 2)
		if g := dataset.SplitValues(genres.String, genreSeparator); len(g) > 0 {
			attrs[AttrGenre] = g
		}
		if year.Valid {
			if bucket, ok := dataset.YearBucket(int(year.Int64)); ok {
				attrs[AttrYear] = []string{bucket}
			}
		}
		items = append(items, dataset.Item{ID: id, Title: title.String, Attrs: attrs})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	metrics.RecordLoaderRows("items", len(items))
	return items, nil
}

// loadRatings reads UserID::MovieID::Rating::Timestamp, ordered by user,
// then time.
func (l *Loader) loadRatings(ctx context.Context) ([]dataset.Rating, error) {
	src := l.source(l.cfg.RatingsFile).
		Column("user_id", "BIGINT").
		Column("item_id", "BIGINT").
		Column("rating", "DOUBLE").
		Column("ts", "BIGINT").
		Build()

	q := `SELECT DISTINCT user_id, item_id, rating, ts
		FROM ` + src + `
		WHERE user_id IS NOT NULL AND item_id IS NOT NULL AND rating IS NOT NULL
		ORDER BY user_id, ts, item_id, rating`

	rows, err := l.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer closeWithLog(rows, l.logger, "rows")

	var ratings []dataset.Rating
	for rows.Next() {
		var (
			r  dataset.Rating
			ts sql.NullInt64
		)
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Value, &ts); err != nil {
			return nil, fmt.Errorf("scan rating %d: %w", len(ratings), err)
		}
		r.Timestamp = ts.Int64
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	metrics.RecordLoaderRows("ratings", len(ratings))
	return ratings, nil
}
