// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps a paper's bibliography entries to external
// identifiers, gathers descriptive metadata for them, and ranks the cited
// works by local influence.
//
// Network and storage sit behind MetadataSource, MetadataCache, and
// AnalysisSink, so the resolution and ranking logic runs against in-memory
// fakes in tests.
package resolve

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// AnalysisSink persists an analysis record and its citation edges,
// replacing whatever was stored for the same citing paper.
type AnalysisSink interface {
	SaveAnalysis(ctx context.Context, rec types.AnalysisRecord, edges []types.CitationEdge) error
}

// Engine runs resolution and ranking for one citing paper at a time. An
// Engine is safe for concurrent use if its collaborators are.
type Engine struct {
	Source MetadataSource
	Cache  MetadataCache
	Sink   AnalysisSink
	Config types.ResolveConfig

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// NewEngine returns an Engine with cfg's zero values defaulted.
func NewEngine(source MetadataSource, cache MetadataCache, sink AnalysisSink, cfg types.ResolveConfig) *Engine {
	return &Engine{
		Source: source,
		Cache:  cache,
		Sink:   sink,
		Config: cfg.WithDefaults(),
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Analyze resolves the citations of scan, fetches metadata for each
// distinct identifier, ranks the cited works, and persists the record when
// a sink is configured. Individual resolution and fetch failures are
// reported to w and skipped; only a persistence failure fails the run.
func (e *Engine) Analyze(ctx context.Context, paperID string, scan *types.ScanResult, w io.Writer) (*types.AnalysisResult, error) {
	if scan == nil {
		return nil, fmt.Errorf("analyzing %s: no scan result", paperID)
	}
	cfg := e.Config.WithDefaults()
	now := e.now()
	runID := uuid.NewString()

	fmt.Fprintf(w, "analyzing %s: %d citations, %d references\n",
		paperID, len(scan.Citations), len(scan.References))

	resolved := ResolveCitations(scan, w)
	order, counts := DistinctIdentifiers(resolved)

	f := &fetcher{
		source:      e.Source,
		cache:       e.Cache,
		ttl:         cfg.CacheTTL,
		concurrency: cfg.Concurrency,
		now:         e.now,
		w:           &lockedWriter{w: w},
	}
	metadata := f.fetchAll(ctx, order)

	scorer := NewCategoryScorer(cfg.HighRelevanceCategories, cfg.MediumRelevanceCategories)
	metrics := Rank(order, counts, metadata, scorer, now)

	resolvedCount := 0
	for _, c := range resolved {
		if c.Resolved() {
			resolvedCount++
		}
	}

	rec := types.AnalysisRecord{
		PaperID:           paperID,
		RunID:             runID,
		TotalCitations:    len(scan.Citations),
		ResolvedCitations: resolvedCount,
		InfluenceScore:    metrics.OverallInfluence,
		MostInfluential:   metrics.MostInfluential,
		MostRelevant:      metrics.MostRelevant,
		MostCitedLocally:  metrics.MostCitedLocally,
		Summary:           metrics.Summary,
		ComputedAt:        now.UTC(),
	}

	if e.Sink != nil {
		if err := e.Sink.SaveAnalysis(ctx, rec, Edges(paperID, resolved, now)); err != nil {
			fmt.Fprintf(w, "failed  storing analysis for %s: %v\n", paperID, err)
			return nil, fmt.Errorf("storing analysis for %s: %w", paperID, err)
		}
	}

	fmt.Fprintf(w, "resolved %d of %d citations to %d paper(s)\n",
		resolvedCount, len(scan.Citations), len(order))

	return ResultFromRecord(rec, cfg.TopN), nil
}

// ResultFromRecord builds the public result for rec, truncating the
// influential and relevant lists to topN entries.
func ResultFromRecord(rec types.AnalysisRecord, topN int) *types.AnalysisResult {
	return &types.AnalysisResult{
		PaperID:           rec.PaperID,
		RunID:             rec.RunID,
		TotalCitations:    rec.TotalCitations,
		ResolvedCitations: rec.ResolvedCitations,
		MostInfluential:   head(rec.MostInfluential, topN),
		MostRelevant:      head(rec.MostRelevant, topN),
		InfluenceScore:    rec.InfluenceScore,
		Summary:           rec.Summary,
	}
}

// Edges returns one citation edge per resolved citation.
func Edges(paperID string, resolved []types.ResolvedCitation, at time.Time) []types.CitationEdge {
	var edges []types.CitationEdge
	for _, c := range resolved {
		if !c.Resolved() {
			continue
		}
		edges = append(edges, types.CitationEdge{
			CitingPaperID:   paperID,
			CitedPaperID:    c.Identifier,
			CitationKey:     c.CitationKey,
			Context:         c.Context,
			Command:         c.Command,
			RawReference:    c.RawReference,
			ConfidenceScore: c.ConfidenceScore,
			FileName:        c.FileName,
			LineNumber:      c.LineNumber,
			ResolvedAt:      at.UTC(),
		})
	}
	return edges
}

func head(papers []types.RankedPaper, n int) []types.RankedPaper {
	if papers == nil {
		return []types.RankedPaper{}
	}
	if n > 0 && len(papers) > n {
		return papers[:n]
	}
	return papers
}
