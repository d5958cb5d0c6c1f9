// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, first match wins.
var DefaultConfigPaths = []string{
	"hetgraph.yaml",
	"hetgraph.yml",
	"/etc/hetgraph/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "HETGRAPH_CONFIG"

// envPrefix filters the environment variables read into the config.
const envPrefix = "HETGRAPH_"

// defaultConfig returns the built-in defaults, loaded before file and env.
func defaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Name:        "movielens",
			Dir:         "data/ml-1m",
			UsersFile:   "users.dat",
			ItemsFile:   "movies.dat",
			RatingsFile: "ratings.dat",
			Delimiter:   "::",
			Encoding:    "latin-1",
		},
		Compile: CompileConfig{
			NCore:          10,
			NumFeatCore:    10,
			SplitEnabled:   true,
			TrainRatio:     0.8,
			Seeded:         true,
			Seed:           2019,
			Debug:          0,
			Directed:       false,
			SecOrder:       false,
			UserAttributes: []string{"gender", "occupation", "age"},
			ItemAttributes: []string{"genre", "year"},
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           "data/cache",
			MemoryEntries: 4,
		},
		Sampling: SamplingConfig{
			NegativePool: NegativePoolUnrated,
			BatchSize:    1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, the config file and the
// environment. path overrides the file lookup when non-empty.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists keys that accept comma-separated env values.
var sliceConfigPaths = []string{
	"compile.user_attributes",
	"compile.item_attributes",
}

// processSliceFields splits comma-separated strings set through the
// environment into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased variable names (without the HETGRAPH_
// prefix) to config keys.
var envMappings = map[string]string{
	"dataset_name":      "dataset.name",
	"dataset_dir":       "dataset.dir",
	"users_file":        "dataset.users_file",
	"items_file":        "dataset.items_file",
	"ratings_file":      "dataset.ratings_file",
	"dataset_delimiter": "dataset.delimiter",
	"dataset_encoding":  "dataset.encoding",

	"n_core":                  "compile.n_core",
	"num_feat_core":           "compile.num_feat_core",
	"split_enabled":           "compile.split_enabled",
	"train_ratio":             "compile.train_ratio",
	"seeded":                  "compile.seeded",
	"seed":                    "compile.seed",
	"debug":                   "compile.debug",
	"directed":                "compile.directed",
	"sec_order":               "compile.sec_order",
	"symmetrize_second_order": "compile.symmetrize_second_order",
	"expand_diagonal":         "compile.expand_diagonal",
	"user_attributes":         "compile.user_attributes",
	"item_attributes":         "compile.item_attributes",

	"cache_enabled":        "cache.enabled",
	"cache_dir":            "cache.dir",
	"cache_memory_entries": "cache.memory_entries",

	"negative_pool": "sampling.negative_pool",
	"batch_size":    "sampling.batch_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"metrics_textfile": "metrics.textfile",
}

// envTransformFunc maps HETGRAPH_* variables to config keys. Unmapped
// variables (including HETGRAPH_CONFIG) return "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
	return envMappings[key]
}
