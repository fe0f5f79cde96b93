// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-engine/internal/mapping"
	"github.com/pdiddy/citation-engine/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Extract the citation and figure graph from a LaTeX source tree",
	Long: `Scan walks an extracted LaTeX source tree and prints its citations,
bibliography entries, figure-family environments, cross-references, and the
key and label mappings that join them. Unreadable files are reported and
skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("format", "json", "output format: json or yaml")
	scanCmd.Flags().String("out", "", "write output to a file instead of stdout")
	scanCmd.Flags().Bool("respect-gitignore", false, "skip paths matched by the tree's .gitignore")

	viper.BindPFlag("scan.respect_ignore_files", scanCmd.Flags().Lookup("respect-gitignore"))

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	cfg := pipelineConfig()
	res, err := scan.New(cfg.Scan).Scan(cmd.Context(), args[0], os.Stderr)
	if err != nil {
		return err
	}

	if missing := mapping.MissingReferences(res); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d cited key(s) without a bibliography entry: %v\n", len(missing), missing)
	}
	if uncited := mapping.UncitedReferences(res); len(uncited) > 0 {
		fmt.Fprintf(os.Stderr, "%d bibliography entr(ies) never cited\n", len(uncited))
	}

	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return encode(out, res, format)
}

// encode writes v to w as indented JSON or YAML.
func encode(w io.Writer, v any, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
}
