// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached artifacts",
	Long: `Manage the artifact cache.

Subcommands:
  list     - List cached artifacts
  delete   - Remove one artifact
  purge    - Remove every artifact`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached artifacts",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <suffix>",
	Short: "Remove one artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheDelete,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every artifact",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cachePurgeCmd)

	cacheListCmd.Flags().BoolVar(&cacheJSON, "json", false, "print the metadata as JSON")
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	metas, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	if cacheJSON {
		return writeJSON(cmd.OutOrStdout(), metas, false)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUFFIX\tNODES\tEDGES\tSIZE\tSAVED")
	for i := range metas {
		m := &metas[i]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
			m.Suffix, m.Nodes, m.Edges,
			humanize.Bytes(uint64(m.SizeBytes)), //nolint:gosec // sizes are never negative
			m.SavedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runCacheDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return notFound(args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	n, err := store.Purge(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d artifacts\n", n)
	return nil
}
