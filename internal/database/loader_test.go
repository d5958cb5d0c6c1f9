// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package database

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/hetgraph/internal/config"
	"github.com/tomtom215/hetgraph/internal/dataset"
	"github.com/tomtom215/hetgraph/internal/logging"
)

// writeFixture writes a small MovieLens-1M style dataset and returns its config.
func writeFixture(t *testing.T, users, movies, ratings string) config.DatasetConfig {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{"users.dat": users, "movies.dat": movies, "ratings.dat": ratings}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return config.DatasetConfig{
		Name:        "fixture",
		Dir:         dir,
		UsersFile:   "users.dat",
		ItemsFile:   "movies.dat",
		RatingsFile: "ratings.dat",
		Delimiter:   "::",
		Encoding:    "utf-8",
	}
}

const (
	fixtureUsers = "2::M::56::16::70072\n" +
		"1::F::1::10::48067\n" +
		"1::F::1::10::48067\n"

	fixtureMovies = "3::Grumpier Old Men (1995)::Comedy|Romance\n" +
		"1::Toy Story (1995)::Animation|Children's|Comedy\n" +
		"7::Untitled::Drama\n"

	fixtureRatings = "2::3::4::978300000\n" +
		"1::3::5::978300760\n" +
		"1::1::3::978300100\n" +
		"1::1::3::978300100\n"
)

func openFixture(t *testing.T, cfg config.DatasetConfig) *Loader {
	t.Helper()
	l, err := Open(cfg, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { closeQuietly(l) })
	return l
}

func TestLoader_Load(t *testing.T) {
	l := openFixture(t, writeFixture(t, fixtureUsers, fixtureMovies, fixtureRatings))

	if l.Name() != "fixture" {
		t.Errorf("Name() = %q, want fixture", l.Name())
	}

	d, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := d.Stats(); got != (dataset.Stats{Users: 2, Items: 3, Ratings: 3}) {
		t.Errorf("Stats() = %+v", got)
	}

	wantUsers := []dataset.User{
		{ID: 1, Attrs: map[string][]string{"gender": {"F"}, "age": {"under_18"}, "occupation": {"k12_student"}}},
		{ID: 2, Attrs: map[string][]string{"gender": {"M"}, "age": {"56_plus"}, "occupation": {"self_employed"}}},
	}
	if !reflect.DeepEqual(d.Users, wantUsers) {
		t.Errorf("Users = %+v, want %+v", d.Users, wantUsers)
	}

	if d.Items[0].ID != 1 || d.Items[0].Title != "Toy Story (1995)" {
		t.Errorf("Items[0] = %+v", d.Items[0])
	}
	if got := d.Items[0].Attrs["genre"]; !reflect.DeepEqual(got, []string{"Animation", "Children's", "Comedy"}) {
		t.Errorf("Items[0] genres = %v", got)
	}
	if got := d.Items[0].Attrs["year"]; !reflect.DeepEqual(got, []string{"1990s"}) {
		t.Errorf("Items[0] year = %v", got)
	}
	if _, ok := d.Items[2].Attrs["year"]; ok {
		t.Errorf("untitled item should have no year: %+v", d.Items[2])
	}

	wantRatings := []dataset.Rating{
		{UserID: 1, ItemID: 1, Value: 3, Timestamp: 978300100},
		{UserID: 1, ItemID: 3, Value: 5, Timestamp: 978300760},
		{UserID: 2, ItemID: 3, Value: 4, Timestamp: 978300000},
	}
	if !reflect.DeepEqual(d.Ratings, wantRatings) {
		t.Errorf("Ratings = %+v, want %+v", d.Ratings, wantRatings)
	}
}

func TestLoader_Latin1(t *testing.T) {
	cfg := writeFixture(t, fixtureUsers, "", fixtureRatings)
	// "Café (1999)" with é as the single latin-1 byte 0xE9.
	movie := []byte("1::Caf\xe9 (1999)::Drama\n")
	if err := os.WriteFile(filepath.Join(cfg.Dir, cfg.ItemsFile), movie, 0o600); err != nil {
		t.Fatalf("write movies: %v", err)
	}
	cfg.Encoding = "latin-1"

	d, err := openFixture(t, cfg).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Items[0].Title != "Café (1999)" {
		t.Errorf("Title = %q, want %q", d.Items[0].Title, "Café (1999)")
	}
}

func TestLoader_TabDelimiter(t *testing.T) {
	cfg := writeFixture(t,
		"1\tF\t25\t4\t00000\n",
		"10\tHeat (1995)\tAction|Crime\n",
		"1\t10\t4.5\t1\n",
	)
	cfg.Delimiter = "\t"

	d, err := openFixture(t, cfg).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(d.Ratings) != 1 || d.Ratings[0].Value != 4.5 {
		t.Errorf("Ratings = %+v", d.Ratings)
	}
	if got := d.Users[0].Attrs["occupation"]; !reflect.DeepEqual(got, []string{"college_grad_student"}) {
		t.Errorf("occupation = %v", got)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	cfg := writeFixture(t, fixtureUsers, fixtureMovies, fixtureRatings)
	cfg.RatingsFile = "missing.dat"

	if _, err := openFixture(t, cfg).Load(context.Background()); err == nil {
		t.Error("Load() with a missing file should fail")
	}
}

func TestLoader_Fingerprint(t *testing.T) {
	cfg := writeFixture(t, fixtureUsers, fixtureMovies, fixtureRatings)
	l := openFixture(t, cfg)

	fp, err := l.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if len(fp) != 16 {
		t.Errorf("Fingerprint() = %q, want 16 hex digits", fp)
	}
	again, err := l.Fingerprint()
	if err != nil || again != fp {
		t.Errorf("Fingerprint() not stable: %q vs %q (err %v)", fp, again, err)
	}

	// Same name, different directory and content.
	other := writeFixture(t, fixtureUsers, fixtureMovies, fixtureRatings+"2::1::1::978300900\n")
	otherFP, err := openFixture(t, other).Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if otherFP == fp {
		t.Error("different directories should not share a fingerprint")
	}

	tab := cfg
	tab.Delimiter = "\t"
	if tabFP, _ := openFixture(t, tab).Fingerprint(); tabFP == fp {
		t.Error("delimiter should change the fingerprint")
	}

	// Rewrite in place with a different size and mtime.
	path := filepath.Join(cfg.Dir, cfg.RatingsFile)
	if err := os.WriteFile(path, []byte(fixtureRatings+"2::1::1::978300900\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	rewritten, err := l.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if rewritten == fp {
		t.Error("rewriting a file should change the fingerprint")
	}
}

func TestLoader_FingerprintMissingFile(t *testing.T) {
	cfg := writeFixture(t, fixtureUsers, fixtureMovies, fixtureRatings)
	cfg.ItemsFile = "missing.dat"

	if _, err := openFixture(t, cfg).Fingerprint(); err == nil {
		t.Error("Fingerprint() with a missing file should fail")
	}
}
