// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"sort"
	"time"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// Scoring weights.
const (
	influenceCitationWeight = 2.0
	influenceRecencyWeight  = 0.3
	influenceCategoryWeight = 0.2
	relevanceCitationWeight = 1.5
	relevanceRecencyWeight  = 0.5

	recencyDecayPerYear = 0.1
	categoryCap         = 2.0
	highCategoryScore   = 1.0
	mediumCategoryScore = 0.5
	otherCategoryScore  = 0.1

	abstractPreviewLen = 300
)

// RecencyScore is 1.0 for a paper published now, falling by 0.1 per year
// and floored at 0. An unknown date scores 0.
func RecencyScore(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	years := now.Sub(published).Hours() / 24 / 365
	return max(0, 1-years*recencyDecayPerYear)
}

// CategoryScorer scores category tags against high- and medium-relevance sets.
type CategoryScorer struct {
	high   map[string]bool
	medium map[string]bool
}

// NewCategoryScorer builds a scorer from the two category sets.
func NewCategoryScorer(high, medium []string) CategoryScorer {
	s := CategoryScorer{high: make(map[string]bool), medium: make(map[string]bool)}
	for _, c := range high {
		s.high[c] = true
	}
	for _, c := range medium {
		s.medium[c] = true
	}
	return s
}

// Score sums 1.0 per high-relevance tag, 0.5 per medium tag, and 0.1 per
// other tag, capped at 2.0.
func (s CategoryScorer) Score(categories []string) float64 {
	var score float64
	for _, c := range categories {
		switch {
		case s.high[c]:
			score += highCategoryScore
		case s.medium[c]:
			score += mediumCategoryScore
		default:
			score += otherCategoryScore
		}
	}
	return min(score, categoryCap)
}

// InfluenceScore combines local citation count, recency, and category relevance.
func InfluenceScore(local int, recency, category float64) float64 {
	return float64(local)*influenceCitationWeight + recency*influenceRecencyWeight + category*influenceCategoryWeight
}

// RelevanceScore combines local citation count and recency.
func RelevanceScore(local int, recency float64) float64 {
	return float64(local)*relevanceCitationWeight + recency*relevanceRecencyWeight
}

// Metrics holds the ranked lists and aggregates for one citing paper.
type Metrics struct {
	MostInfluential  []types.RankedPaper
	MostRelevant     []types.RankedPaper
	MostCitedLocally []types.RankedPaper
	OverallInfluence float64
	Summary          types.AnalysisSummary
}

// Rank scores each identifier in order and produces the three ranked
// lists. Ties keep order. Identifiers without metadata score on citation
// count alone; they appear in MostCitedLocally and the aggregates but not
// in the influential and relevant lists, which are title-dependent.
func Rank(order []string, counts map[string]int, metadata map[string]types.PaperMetadata, scorer CategoryScorer, now time.Time) Metrics {
	papers := make([]types.RankedPaper, 0, len(order))
	var (
		totalInfluence float64
		totalCitations int
	)
	for _, id := range order {
		local := counts[id]
		p := types.RankedPaper{
			Identifier:     id,
			Title:          "Unknown Title",
			Authors:        []string{},
			Categories:     []string{},
			LocalCitations: local,
		}
		if meta, ok := metadata[id]; ok {
			p.HasMetadata = true
			p.Title = meta.Title
			if meta.Authors != nil {
				p.Authors = meta.Authors
			}
			if meta.Categories != nil {
				p.Categories = meta.Categories
			}
			p.Published = meta.Published
			p.Abstract = previewAbstract(meta.Abstract)
			p.RecencyScore = RecencyScore(meta.Published, now)
			p.CategoryScore = scorer.Score(meta.Categories)
		}
		p.InfluenceScore = InfluenceScore(local, p.RecencyScore, p.CategoryScore)
		p.RelevanceScore = RelevanceScore(local, p.RecencyScore)

		totalInfluence += p.InfluenceScore
		totalCitations += local
		papers = append(papers, p)
	}

	var withMeta []types.RankedPaper
	for _, p := range papers {
		if p.HasMetadata {
			withMeta = append(withMeta, p)
		}
	}

	m := Metrics{
		MostInfluential:  sortedBy(withMeta, func(p types.RankedPaper) float64 { return p.InfluenceScore }),
		MostRelevant:     sortedBy(withMeta, func(p types.RankedPaper) float64 { return p.RelevanceScore }),
		MostCitedLocally: sortedBy(papers, func(p types.RankedPaper) float64 { return float64(p.LocalCitations) }),
	}

	if n := len(papers); n > 0 {
		m.OverallInfluence = totalInfluence / float64(n)
		m.Summary = types.AnalysisSummary{
			UniquePapersCited:        n,
			MostCitedLocally:         m.MostCitedLocally[0].LocalCitations,
			AverageCitationsPerPaper: float64(totalCitations) / float64(n),
			CitationDiversity:        n,
		}
	}
	return m
}

// sortedBy returns a copy of papers stably sorted by key, descending.
func sortedBy(papers []types.RankedPaper, key func(types.RankedPaper) float64) []types.RankedPaper {
	out := make([]types.RankedPaper, len(papers))
	copy(out, papers)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	return out
}

func previewAbstract(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) > abstractPreviewLen {
		r = r[:abstractPreviewLen]
	}
	return string(r) + "..."
}
