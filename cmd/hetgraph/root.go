// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/hetgraph/internal/artifact"
	"github.com/tomtom215/hetgraph/internal/config"
	"github.com/tomtom215/hetgraph/internal/logging"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded once by the root pre-run hook.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hetgraph",
	Short: "Compile rating datasets into heterogeneous training graphs",
	Long: `hetgraph turns a rating dataset into a typed heterogeneous graph of users,
items and attribute values, with a seeded train/test split, interaction sets
for ranking losses and optional second-order triples. Seeded builds are cached.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")
}

// loadConfig loads the configuration and initializes logging.
func loadConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		Caller:    c.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	if logLevel != "" {
		logging.SetLevelString(logLevel)
	}

	cfg = c
	return nil
}

// openStore opens the artifact store named by the cache configuration.
func openStore() (*artifact.Store, error) {
	if cfg.Cache.Dir == "" {
		return nil, fmt.Errorf("cache.dir is not configured")
	}
	store, err := artifact.Open(cfg.Cache.Dir, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	return store, nil
}

// closeStore closes store, logging any error.
func closeStore(store *artifact.Store) {
	if err := store.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing artifact store")
	}
}
