// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Report on or purge the metadata cache",
	Long: `Cache reports how many arXiv metadata records are cached and how many
are older than the cache TTL. With --purge, stale records are deleted; they
are fetched again on the next analysis that needs them.`,
	Args: cobra.NoArgs,
	RunE: runCache,
}

func init() {
	cacheCmd.Flags().Bool("purge", false, "delete stale cache entries")

	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	purge, _ := cmd.Flags().GetBool("purge")
	cfg := pipelineConfig()
	ttl := cfg.Resolve.WithDefaults().CacheTTL
	now := time.Now()

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	if purge {
		n, err := st.PurgeStale(cmd.Context(), now, ttl)
		if err != nil {
			return err
		}
		fmt.Printf("Purged %s stale entr(ies)\n", humanize.Comma(int64(n)))
	}

	stats, err := st.CacheStats(cmd.Context(), now, ttl)
	if err != nil {
		return err
	}
	fmt.Printf("Cached papers: %s (%s fresh, %s stale, TTL %s)\n",
		humanize.Comma(int64(stats.Total)),
		humanize.Comma(int64(stats.Fresh)),
		humanize.Comma(int64(stats.Stale)),
		ttl)
	if stats.Total > 0 {
		fmt.Printf("Oldest fetch:  %s\n", humanize.Time(stats.Oldest))
		fmt.Printf("Newest fetch:  %s\n", humanize.Time(stats.Newest))
	}
	return nil
}
