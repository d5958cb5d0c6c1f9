// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/hetgraph/internal/artifact"
	"github.com/tomtom215/hetgraph/internal/graph"
)

var inspectFull bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <suffix>",
	Short: "Show a cached artifact",
	Long: `Show the metadata of a cached artifact. With --full the artifact is loaded,
its checksum verified and a summary of the graph printed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectFull, "full", false, "load the artifact and print a graph summary")
}

type inspectReport struct {
	Metadata *artifact.Metadata `json:"metadata"`
	Summary  *graph.Summary     `json:"summary,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	suffix := args[0]
	report := inspectReport{}

	if inspectFull {
		g, meta, err := store.Load(cmd.Context(), suffix)
		if err != nil {
			return notFound(suffix, err)
		}
		s := g.Summarize()
		report.Metadata = meta
		report.Summary = &s
	} else {
		meta, err := store.Stat(cmd.Context(), suffix)
		if err != nil {
			return notFound(suffix, err)
		}
		report.Metadata = meta
	}

	return writeJSON(cmd.OutOrStdout(), report, false)
}

// notFound rewords artifact.ErrNotFound for the command line.
func notFound(suffix string, err error) error {
	if errors.Is(err, artifact.ErrNotFound) {
		return fmt.Errorf("no cached artifact %q: %w", suffix, err)
	}
	return err
}
