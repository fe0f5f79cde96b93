// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds each metadata request, including retries.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citation-engine/0.1 (mailto:you@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScanConfig holds settings for the Markup Scanner.
type ScanConfig struct {
	// TextExt is the extension of source markup files (default ".tex").
	TextExt string `json:"text_ext" yaml:"text_ext"`

	// CompiledBibExt is the extension of compiled bibliographies (default ".bbl").
	CompiledBibExt string `json:"compiled_bib_ext" yaml:"compiled_bib_ext"`

	// BibDatabaseExt is the extension of bibliography databases (default ".bib").
	BibDatabaseExt string `json:"bib_database_ext" yaml:"bib_database_ext"`

	// RespectIgnoreFiles skips paths matched by a .gitignore at the scan root.
	RespectIgnoreFiles bool `json:"respect_ignore_files" yaml:"respect_ignore_files"`
}

// WithDefaults returns a copy of c with empty extensions filled in.
func (c ScanConfig) WithDefaults() ScanConfig {
	if c.TextExt == "" {
		c.TextExt = ".tex"
	}
	if c.CompiledBibExt == "" {
		c.CompiledBibExt = ".bbl"
	}
	if c.BibDatabaseExt == "" {
		c.BibDatabaseExt = ".bib"
	}
	return c
}

// ResolveConfig holds settings for the Resolution & Ranking Engine.
type ResolveConfig struct {
	HTTPConfig `yaml:",inline"`

	// CacheTTL is how long cached metadata stays fresh (default 30 days).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// Concurrency limits simultaneous metadata fetches (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// RateLimit is the sustained metadata request rate in requests per
	// second (default one request every three seconds).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// TopN truncates the public influential and relevant lists (default 10).
	TopN int `json:"top_n" yaml:"top_n"`

	// HighRelevanceCategories score 1.0 each toward category relevance.
	HighRelevanceCategories []string `json:"high_relevance_categories" yaml:"high_relevance_categories"`

	// MediumRelevanceCategories score 0.5 each toward category relevance.
	MediumRelevanceCategories []string `json:"medium_relevance_categories" yaml:"medium_relevance_categories"`
}

// Default resolution settings.
const (
	DefaultCacheTTL    = 30 * 24 * time.Hour
	DefaultConcurrency = 4
	DefaultRateLimit   = 1.0 / 3.0
	DefaultTopN        = 10
	DefaultTimeout     = 10 * time.Second
	DefaultUserAgent   = "citation-engine/0.1"
)

// DefaultHighRelevanceCategories and DefaultMediumRelevanceCategories are
// the arXiv category sets used when none are configured.
var (
	DefaultHighRelevanceCategories   = []string{"cs.LG", "cs.AI", "cs.CL", "cs.CV", "stat.ML"}
	DefaultMediumRelevanceCategories = []string{"cs.IR", "cs.NE", "cs.HC", "cs.RO"}
)

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c ResolveConfig) WithDefaults() ResolveConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.HighRelevanceCategories == nil {
		c.HighRelevanceCategories = DefaultHighRelevanceCategories
	}
	if c.MediumRelevanceCategories == nil {
		c.MediumRelevanceCategories = DefaultMediumRelevanceCategories
	}
	return c
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DataDir contains citations.db and export files (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Scan    ScanConfig    `json:"scan" yaml:"scan"`
	Resolve ResolveConfig `json:"resolve" yaml:"resolve"`
	Store   StoreConfig   `json:"store" yaml:"store"`
}
