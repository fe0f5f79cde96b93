// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResolutionMethod records how a citation was mapped to an identifier.
type ResolutionMethod string

const (
	// MethodPattern means an identifier-shaped substring was found in the
	// raw bibliography entry text.
	MethodPattern ResolutionMethod = "pattern"

	// MethodField means the identifier came from a structured eprint field
	// when the raw text held no identifier-shaped substring.
	MethodField ResolutionMethod = "field"

	// MethodUnknown means the citation could not be resolved.
	MethodUnknown ResolutionMethod = "unknown"
)

// ResolvedCitation maps one citation occurrence to a candidate external
// identifier. It is recomputed on every analysis run.
type ResolvedCitation struct {
	CitationKey     string           `json:"citation_key" yaml:"citation_key"`
	Context         string           `json:"citation_context" yaml:"citation_context"`
	Command         string           `json:"citation_command" yaml:"citation_command"`
	RawReference    string           `json:"raw_reference" yaml:"raw_reference"`
	FileName        string           `json:"file_name" yaml:"file_name"`
	LineNumber      int              `json:"line_number" yaml:"line_number"`
	Identifier      string           `json:"resolved_arxiv_id" yaml:"resolved_arxiv_id"`
	Method          ResolutionMethod `json:"resolution_method" yaml:"resolution_method"`
	ConfidenceScore float64          `json:"confidence_score" yaml:"confidence_score"`
}

// Resolved reports whether the citation carries an identifier.
func (c ResolvedCitation) Resolved() bool { return c.Identifier != "" }

// PaperMetadata is the cached descriptive record for one external
// identifier. It is the only state shared across analyses of different
// citing papers.
type PaperMetadata struct {
	ID         string    `json:"arxiv_id" yaml:"arxiv_id"`
	Title      string    `json:"title" yaml:"title"`
	Authors    []string  `json:"authors" yaml:"authors"`
	Abstract   string    `json:"abstract" yaml:"abstract"`
	Categories []string  `json:"categories" yaml:"categories"`
	Published  time.Time `json:"published_date" yaml:"published_date"`
	Updated    time.Time `json:"updated_date" yaml:"updated_date"`
	DOI        string    `json:"doi,omitempty" yaml:"doi,omitempty"`
	JournalRef string    `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`
	Comment    string    `json:"comment,omitempty" yaml:"comment,omitempty"`
	FetchedAt  time.Time `json:"fetched_at" yaml:"fetched_at"`
	Active     bool      `json:"is_active" yaml:"is_active"`
}

// Fresh reports whether the record was fetched within ttl of now.
func (m PaperMetadata) Fresh(now time.Time, ttl time.Duration) bool {
	if m.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(m.FetchedAt) < ttl
}

// RankedPaper is one cited work with its local scores.
type RankedPaper struct {
	Identifier     string    `json:"arxiv_id" yaml:"arxiv_id"`
	Title          string    `json:"title" yaml:"title"`
	Authors        []string  `json:"authors" yaml:"authors"`
	LocalCitations int       `json:"local_citations" yaml:"local_citations"`
	InfluenceScore float64   `json:"influence_score" yaml:"influence_score"`
	RelevanceScore float64   `json:"relevance_score" yaml:"relevance_score"`
	RecencyScore   float64   `json:"recency_score" yaml:"recency_score"`
	CategoryScore  float64   `json:"category_score" yaml:"category_score"`
	Published      time.Time `json:"published_date" yaml:"published_date"`
	Categories     []string  `json:"categories" yaml:"categories"`
	Abstract       string    `json:"abstract" yaml:"abstract"`
	HasMetadata    bool      `json:"has_metadata" yaml:"has_metadata"`
}

// AnalysisSummary holds aggregate statistics for a citing paper.
type AnalysisSummary struct {
	UniquePapersCited        int     `json:"total_unique_papers_cited" yaml:"total_unique_papers_cited"`
	MostCitedLocally         int     `json:"most_cited_locally" yaml:"most_cited_locally"`
	AverageCitationsPerPaper float64 `json:"average_citations_per_paper" yaml:"average_citations_per_paper"`
	CitationDiversity        int     `json:"citation_diversity" yaml:"citation_diversity"`
}

// AnalysisResult is the serializable output of one analysis run.
type AnalysisResult struct {
	PaperID           string          `json:"arxiv_id" yaml:"arxiv_id"`
	RunID             string          `json:"run_id" yaml:"run_id"`
	TotalCitations    int             `json:"total_citations" yaml:"total_citations"`
	ResolvedCitations int             `json:"resolved_citations" yaml:"resolved_citations"`
	MostInfluential   []RankedPaper   `json:"most_influential" yaml:"most_influential"`
	MostRelevant      []RankedPaper   `json:"most_relevant" yaml:"most_relevant"`
	InfluenceScore    float64         `json:"influence_score" yaml:"influence_score"`
	Summary           AnalysisSummary `json:"analysis_summary" yaml:"analysis_summary"`
}

// AnalysisRecord is the persisted analysis for one citing paper. A new run
// replaces the previous record wholesale.
type AnalysisRecord struct {
	PaperID           string          `json:"arxiv_id" yaml:"arxiv_id"`
	RunID             string          `json:"run_id" yaml:"run_id"`
	TotalCitations    int             `json:"total_citations_found" yaml:"total_citations_found"`
	ResolvedCitations int             `json:"resolved_citations" yaml:"resolved_citations"`
	InfluenceScore    float64         `json:"influence_score" yaml:"influence_score"`
	MostInfluential   []RankedPaper   `json:"most_influential" yaml:"most_influential"`
	MostRelevant      []RankedPaper   `json:"most_relevant" yaml:"most_relevant"`
	MostCitedLocally  []RankedPaper   `json:"most_cited_locally" yaml:"most_cited_locally"`
	Summary           AnalysisSummary `json:"analysis_summary" yaml:"analysis_summary"`
	ComputedAt        time.Time       `json:"computed_at" yaml:"computed_at"`
}

// CitationEdge is one resolved citing → cited relationship, persisted
// alongside the AnalysisRecord.
type CitationEdge struct {
	CitingPaperID   string    `json:"citing_paper_id" yaml:"citing_paper_id"`
	CitedPaperID    string    `json:"cited_paper_id" yaml:"cited_paper_id"`
	CitationKey     string    `json:"citation_key" yaml:"citation_key"`
	Context         string    `json:"citation_context" yaml:"citation_context"`
	Command         string    `json:"citation_command" yaml:"citation_command"`
	RawReference    string    `json:"raw_reference" yaml:"raw_reference"`
	ConfidenceScore float64   `json:"confidence_score" yaml:"confidence_score"`
	FileName        string    `json:"file_name" yaml:"file_name"`
	LineNumber      int       `json:"line_number" yaml:"line_number"`
	ResolvedAt      time.Time `json:"resolved_at" yaml:"resolved_at"`
}
