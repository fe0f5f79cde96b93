// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-engine/internal/arxiv"
	"github.com/pdiddy/citation-engine/internal/resolve"
	"github.com/pdiddy/citation-engine/internal/scan"
	"github.com/pdiddy/citation-engine/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <paper-id> <dir>",
	Short: "Resolve and rank the works cited by one paper",
	Long: `Analyze scans the paper's source tree, resolves each citation to an arXiv
identifier, fetches metadata for the cited works (through the local cache,
refreshed after the cache TTL), and ranks them by local influence and
relevance. The analysis replaces any earlier one stored for the paper.

Lookups that fail are reported and skipped; the run fails only when the
result cannot be stored.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "json", "output format: json or yaml")
	analyzeCmd.Flags().Duration("timeout", 0, "per-lookup timeout (default 10s)")
	analyzeCmd.Flags().Int("concurrency", 0, "simultaneous metadata lookups (default 4)")
	analyzeCmd.Flags().Float64("rate-limit", 0, "metadata requests per second (default 1 every 3s)")
	analyzeCmd.Flags().Int("top", 0, "entries kept in the ranked lists (default 10)")
	analyzeCmd.Flags().Duration("cache-ttl", 0, "metadata cache freshness (default 720h)")

	viper.BindPFlag("resolve.timeout", analyzeCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("resolve.concurrency", analyzeCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("resolve.rate_limit", analyzeCmd.Flags().Lookup("rate-limit"))
	viper.BindPFlag("resolve.top_n", analyzeCmd.Flags().Lookup("top"))
	viper.BindPFlag("resolve.cache_ttl", analyzeCmd.Flags().Lookup("cache-ttl"))

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	paperID := resolve.NormalizeIdentifier(args[0])
	if paperID == "" {
		return fmt.Errorf("paper ID is required")
	}
	format, _ := cmd.Flags().GetString("format")

	cfg := pipelineConfig()
	rcfg := cfg.Resolve.WithDefaults()

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := scan.New(cfg.Scan).Scan(cmd.Context(), args[1], os.Stderr)
	if err != nil {
		return err
	}

	client := arxiv.NewClient(rcfg.HTTPConfig, arxiv.WithRateLimit(rcfg.RateLimit))
	engine := resolve.NewEngine(client, st, st, rcfg)

	result, err := engine.Analyze(cmd.Context(), paperID, res, os.Stderr)
	if err != nil {
		return err
	}
	return encode(os.Stdout, result, format)
}
