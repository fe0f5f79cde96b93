// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/resolve"
	"github.com/pdiddy/citation-engine/internal/store"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <paper-id>",
	Short: "Show the stored analysis for a paper",
	Long: `Show prints the stored analysis for a citing paper: citation counts, the
aggregate influence score, and one ranked list of cited works (influential,
relevant, or cited).`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("list", "influential", "ranked list: influential, relevant, or cited")
	showCmd.Flags().Int("limit", 10, "maximum entries to show (0 for all)")
	showCmd.Flags().Bool("json", false, "output the list as JSON")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	paperID := resolve.NormalizeIdentifier(args[0])
	list, _ := cmd.Flags().GetString("list")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := store.NewStore(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer st.Close()

	papers, err := st.TopPapers(cmd.Context(), paperID, store.RankedList(list), limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return encode(os.Stdout, papers, "json")
	}

	rec, err := st.LoadAnalysis(cmd.Context(), paperID)
	if err != nil {
		return err
	}
	printAnalysisHeader(os.Stdout, rec)
	printRankedPapers(os.Stdout, papers)
	return nil
}

func printAnalysisHeader(w io.Writer, rec *types.AnalysisRecord) {
	fmt.Fprintf(w, "Paper:      %s\n", rec.PaperID)
	fmt.Fprintf(w, "Computed:   %s (run %s)\n", humanize.Time(rec.ComputedAt), rec.RunID)
	fmt.Fprintf(w, "Citations:  %s found, %s resolved to %s paper(s)\n",
		humanize.Comma(int64(rec.TotalCitations)),
		humanize.Comma(int64(rec.ResolvedCitations)),
		humanize.Comma(int64(rec.Summary.UniquePapersCited)))
	fmt.Fprintf(w, "Influence:  %.3f (avg %.2f citations per paper)\n\n",
		rec.InfluenceScore, rec.Summary.AverageCitationsPerPaper)
}

func printRankedPapers(w io.Writer, papers []types.RankedPaper) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No ranked papers.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-5s  %-9s  %-9s  %s\n",
		"Rank", "arXiv ID", "Cites", "Influence", "Relevance", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, p := range papers {
		title := p.Title
		if len([]rune(title)) > 50 {
			title = string([]rune(title)[:47]) + "..."
		}
		fmt.Fprintf(w, "%-4d  %-12s  %-5d  %-9.3f  %-9.3f  %s\n",
			i+1, p.Identifier, p.LocalCitations, p.InfluenceScore, p.RelevanceScore, title)
	}
}

var citedByCmd = &cobra.Command{
	Use:   "cited-by <arxiv-id>",
	Short: "List analyzed papers that cite an arXiv identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := resolve.NormalizeIdentifier(args[0])

		st, err := store.NewStore(pipelineConfig().Store)
		if err != nil {
			return err
		}
		defer st.Close()

		edges, err := st.CitedBy(cmd.Context(), id)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return encode(os.Stdout, edges, "json")
		}
		if len(edges) == 0 {
			fmt.Printf("No analyzed paper cites %s.\n", id)
			return nil
		}
		for _, e := range edges {
			fmt.Printf("%-12s  %-24s  %s:%d\n", e.CitingPaperID, e.CitationKey, e.FileName, e.LineNumber)
		}
		fmt.Printf("\n%d citation(s)\n", len(edges))
		return nil
	},
}

func init() {
	citedByCmd.Flags().Bool("json", false, "output edges as JSON")

	rootCmd.AddCommand(citedByCmd)
}
