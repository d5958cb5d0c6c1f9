// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// isolate points the config lookup at an empty directory so files in the
// working tree do not leak into the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	orig := DefaultConfigPaths
	DefaultConfigPaths = nil
	t.Cleanup(func() { DefaultConfigPaths = orig })
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Compile.NCore != 10 {
		t.Errorf("Compile.NCore = %d, want 10", cfg.Compile.NCore)
	}
	if cfg.Compile.TrainRatio != 0.8 {
		t.Errorf("Compile.TrainRatio = %v, want 0.8", cfg.Compile.TrainRatio)
	}
	if !cfg.Compile.Seeded || cfg.Compile.Seed != 2019 {
		t.Errorf("Compile seed = (%v, %d), want (true, 2019)", cfg.Compile.Seeded, cfg.Compile.Seed)
	}
	if cfg.Compile.Directed {
		t.Error("Compile.Directed should be false by default")
	}
	if cfg.Dataset.Delimiter != "::" {
		t.Errorf("Dataset.Delimiter = %q, want ::", cfg.Dataset.Delimiter)
	}
	if cfg.Sampling.NegativePool != NegativePoolUnrated {
		t.Errorf("Sampling.NegativePool = %q, want %q", cfg.Sampling.NegativePool, NegativePoolUnrated)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"HETGRAPH_N_CORE", "compile.n_core"},
		{"HETGRAPH_TRAIN_RATIO", "compile.train_ratio"},
		{"HETGRAPH_SEC_ORDER", "compile.sec_order"},
		{"HETGRAPH_LOG_LEVEL", "logging.level"},
		{"HETGRAPH_CACHE_DIR", "cache.dir"},
		{"HETGRAPH_CONFIG", ""},
		{"HETGRAPH_UNKNOWN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Compile.UserAttributes, []string{"gender", "occupation", "age"}) {
		t.Errorf("Compile.UserAttributes = %v", cfg.Compile.UserAttributes)
	}
	if cfg.Cache.MemoryEntries != 4 {
		t.Errorf("Cache.MemoryEntries = %d, want 4", cfg.Cache.MemoryEntries)
	}
}

func TestLoadEnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("HETGRAPH_N_CORE", "5")
	t.Setenv("HETGRAPH_TRAIN_RATIO", "0.5")
	t.Setenv("HETGRAPH_SEC_ORDER", "true")
	t.Setenv("HETGRAPH_ITEM_ATTRIBUTES", "genre, director ,actor")
	t.Setenv("HETGRAPH_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Compile.NCore != 5 {
		t.Errorf("Compile.NCore = %d, want 5", cfg.Compile.NCore)
	}
	if cfg.Compile.TrainRatio != 0.5 {
		t.Errorf("Compile.TrainRatio = %v, want 0.5", cfg.Compile.TrainRatio)
	}
	if !cfg.Compile.SecOrder {
		t.Error("Compile.SecOrder should be true")
	}
	if want := []string{"genre", "director", "actor"}; !reflect.DeepEqual(cfg.Compile.ItemAttributes, want) {
		t.Errorf("Compile.ItemAttributes = %v, want %v", cfg.Compile.ItemAttributes, want)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Compile.NumFeatCore != 10 {
		t.Errorf("Compile.NumFeatCore = %d, want 10 (default)", cfg.Compile.NumFeatCore)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "hetgraph.yaml")
	content := `
dataset:
  name: lastfm
  dir: /tmp/lastfm
  delimiter: "\t"
  encoding: utf-8
compile:
  n_core: 3
  split_enabled: false
  directed: true
  user_attributes: [age]
sampling:
  negative_pool: unrated_and_test
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dataset.Name != "lastfm" {
		t.Errorf("Dataset.Name = %q, want lastfm", cfg.Dataset.Name)
	}
	if cfg.Dataset.Delimiter != "\t" {
		t.Errorf("Dataset.Delimiter = %q, want tab", cfg.Dataset.Delimiter)
	}
	if cfg.Compile.NCore != 3 || cfg.Compile.SplitEnabled || !cfg.Compile.Directed {
		t.Errorf("Compile = %+v", cfg.Compile)
	}
	if !reflect.DeepEqual(cfg.Compile.UserAttributes, []string{"age"}) {
		t.Errorf("Compile.UserAttributes = %v, want [age]", cfg.Compile.UserAttributes)
	}
	if cfg.Sampling.NegativePool != NegativePoolUnrated+"_and_test" {
		t.Errorf("Sampling.NegativePool = %q", cfg.Sampling.NegativePool)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "hetgraph.yaml")
	if err := os.WriteFile(path, []byte("compile:\n  n_core: 3\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HETGRAPH_N_CORE", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Compile.NCore != 7 {
		t.Errorf("Compile.NCore = %d, want 7 (env wins over file)", cfg.Compile.NCore)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative core", func(c *Config) { c.Compile.NCore = -1 }, "NCore"},
		{"ratio above one", func(c *Config) { c.Compile.TrainRatio = 1.2 }, "TrainRatio"},
		{"debug above one", func(c *Config) { c.Compile.Debug = 2 }, "Debug"},
		{"bad pool", func(c *Config) { c.Sampling.NegativePool = "everything" }, "NegativePool"},
		{"bad attribute", func(c *Config) { c.Compile.ItemAttributes = []string{"Genre"} }, "ItemAttributes"},
		{"reserved attribute", func(c *Config) { c.Compile.UserAttributes = []string{"item"} }, "reserved"},
		{"duplicate attribute", func(c *Config) { c.Compile.ItemAttributes = []string{"genre", "genre"} }, "more than once"},
		{"cache without dir", func(c *Config) { c.Cache.Dir = "" }, "cache.dir"},
		{"directed second order", func(c *Config) {
			c.Compile.Directed = true
			c.Compile.SecOrder = true
		}, "symmetrize_second_order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}
