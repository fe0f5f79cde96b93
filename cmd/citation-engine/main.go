// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citation-engine CLI.
//
// The CLI scans LaTeX source trees into citation and figure graphs,
// resolves citations to arXiv identifiers, ranks the cited works, and
// manages the SQLite store that holds the metadata cache and analyses.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-engine/internal/secrets"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the citation-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "citation-engine",
	Short: "Citation graph extraction and influence ranking for LaTeX papers",
	Long: `citation-engine turns an extracted LaTeX source tree into a structured
citation and figure graph, resolves each citation to an arXiv identifier,
and ranks the cited works by local influence.

scan prints the graph for a tree. analyze runs the full pipeline for one
citing paper and stores the result; show, cited-by, cache, and export read
the store.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citation-engine.yaml or ~/.config/citation-engine/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory holding citations.db and exports")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of credential files (arxiv-contact-email)")

	viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
}

func initConfig() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citation-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citation-engine"))
		}
	}

	viper.SetEnvPrefix("CITATION_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles stage configuration from flags, environment,
// and the config file, in that order of precedence. Unset values are left
// zero for the stages to default.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Scan: types.ScanConfig{
			TextExt:            viper.GetString("scan.text_ext"),
			CompiledBibExt:     viper.GetString("scan.compiled_bib_ext"),
			BibDatabaseExt:     viper.GetString("scan.bib_database_ext"),
			RespectIgnoreFiles: viper.GetBool("scan.respect_ignore_files"),
		},
		Resolve: types.ResolveConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("resolve.timeout"),
				UserAgent: viper.GetString("resolve.user_agent"),
			},
			CacheTTL:    viper.GetDuration("resolve.cache_ttl"),
			Concurrency: viper.GetInt("resolve.concurrency"),
			RateLimit:   viper.GetFloat64("resolve.rate_limit"),
			TopN:        viper.GetInt("resolve.top_n"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
	}
	if cfg.Resolve.UserAgent == "" {
		cfg.Resolve.UserAgent = userAgent()
	}
	if viper.IsSet("resolve.high_relevance_categories") {
		cfg.Resolve.HighRelevanceCategories = viper.GetStringSlice("resolve.high_relevance_categories")
	}
	if viper.IsSet("resolve.medium_relevance_categories") {
		cfg.Resolve.MediumRelevanceCategories = viper.GetStringSlice("resolve.medium_relevance_categories")
	}
	return cfg
}

// userAgent identifies the CLI to the metadata API, with the operator's
// contact address from the secrets directory when one is present.
func userAgent() string {
	creds, err := secrets.Load(viper.GetString("secrets_dir"), os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return secrets.UserAgent("citation-engine", version, creds[secrets.ContactEmail])
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
