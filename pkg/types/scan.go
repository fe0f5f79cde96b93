// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citation-engine pipeline.
// scan.go holds the Markup Scanner and Mapping Builder output; analysis.go
// holds the Resolution & Ranking Engine output; config.go holds stage settings.
//
// Every structure serializes to JSON and YAML with snake_case keys. Maps are
// emitted in sorted key order by both encoders, so a scan of an unchanged tree
// serializes byte-identically.
package types

// Citation is one textual invocation of a citation command referencing one
// key. A \citep{a,b} invocation yields two Citations with the same context
// and line.
type Citation struct {
	// Key is the bibliography key (e.g. "vaswani2017attention").
	Key string `json:"key" yaml:"key"`

	// Command is the citing command without the backslash (e.g. "citep", "cite*").
	Command string `json:"command" yaml:"command"`

	// Context is up to 50 characters either side of the invocation, trimmed.
	Context string `json:"context" yaml:"context"`

	// FileName is the source file path relative to the scanned root.
	FileName string `json:"file_name" yaml:"file_name"`

	// LineNumber is the 1-based line of the invocation.
	LineNumber int `json:"line_number" yaml:"line_number"`
}

// ReferenceSource records which bibliography form produced a Reference.
type ReferenceSource string

const (
	SourceCompiled ReferenceSource = "bbl"
	SourceDatabase ReferenceSource = "bib"
)

// Reference is the bibliographic record a citation key refers to. At most
// one Reference exists per key.
type Reference struct {
	Key       string          `json:"key" yaml:"key"`
	Title     string          `json:"title" yaml:"title"`
	Authors   string          `json:"authors" yaml:"authors"`
	Year      string          `json:"year" yaml:"year"`
	Venue     string          `json:"venue" yaml:"venue"`
	RawEntry  string          `json:"raw_entry" yaml:"raw_entry"`
	DOI       string          `json:"doi" yaml:"doi"`
	ArxivID   string          `json:"arxiv_id" yaml:"arxiv_id"`
	URL       string          `json:"url" yaml:"url"`
	ShortForm string          `json:"short_form,omitempty" yaml:"short_form,omitempty"`
	EntryType string          `json:"entry_type,omitempty" yaml:"entry_type,omitempty"`
	Source    ReferenceSource `json:"source" yaml:"source"`
}

// Merge overlays the non-empty fields of later onto r. This is how a second
// bibliography form for the same key is combined with the first: the
// later-processed form wins field by field.
func (r *Reference) Merge(later Reference) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&r.Key, later.Key)
	set(&r.Title, later.Title)
	set(&r.Authors, later.Authors)
	set(&r.Year, later.Year)
	set(&r.Venue, later.Venue)
	set(&r.RawEntry, later.RawEntry)
	set(&r.DOI, later.DOI)
	set(&r.ArxivID, later.ArxivID)
	set(&r.URL, later.URL)
	set(&r.ShortForm, later.ShortForm)
	set(&r.EntryType, later.EntryType)
	if later.Source != "" {
		r.Source = later.Source
	}
}

// FigureKind identifies the environment family of a Figure.
type FigureKind string

const (
	KindFigure    FigureKind = "figure"
	KindTable     FigureKind = "table"
	KindAlgorithm FigureKind = "algorithm"
	KindEquation  FigureKind = "equation"
)

// Figure is a labeled figure, table, algorithm, or equation environment.
// Unlabeled environments are never recorded.
type Figure struct {
	Label          string     `json:"label" yaml:"label"`
	Caption        string     `json:"caption" yaml:"caption"`
	Kind           FigureKind `json:"figure_type" yaml:"figure_type"`
	FileName       string     `json:"file_name" yaml:"file_name"`
	LineNumber     int        `json:"line_number" yaml:"line_number"`
	RawEnvironment string     `json:"raw_environment" yaml:"raw_environment"`
	Subfigures     []string   `json:"subfigures,omitempty" yaml:"subfigures,omitempty"`
}

// FigureReference is one cross-reference occurrence such as \ref{fig:arch}.
type FigureReference struct {
	Label      string `json:"ref_key" yaml:"ref_key"`
	Command    string `json:"command" yaml:"command"`
	Context    string `json:"context" yaml:"context"`
	FileName   string `json:"file_name" yaml:"file_name"`
	LineNumber int    `json:"line_number" yaml:"line_number"`
}

// CitationGroup joins a Reference with every Citation of its key.
type CitationGroup struct {
	Reference Reference  `json:"reference" yaml:"reference"`
	Citations []Citation `json:"citations" yaml:"citations"`
}

// FigureGroup joins a Figure with every cross-reference to its label.
type FigureGroup struct {
	Figure     Figure            `json:"figure" yaml:"figure"`
	References []FigureReference `json:"references" yaml:"references"`
}

// ScanStats summarizes a scan. Each count equals the length of the
// corresponding ScanResult field.
type ScanStats struct {
	TotalCitations        int `json:"total_citations" yaml:"total_citations"`
	TotalReferences       int `json:"total_references" yaml:"total_references"`
	TotalFigures          int `json:"total_figures" yaml:"total_figures"`
	TotalFigureReferences int `json:"total_figure_references" yaml:"total_figure_references"`
	FilesParsed           int `json:"files_parsed" yaml:"files_parsed"`
}

// ScanResult is the complete output of the Markup Scanner and Mapping Builder
// for one source tree.
type ScanResult struct {
	Citations        []Citation               `json:"citations" yaml:"citations"`
	References       map[string]Reference     `json:"references" yaml:"references"`
	Figures          map[string]Figure        `json:"figures" yaml:"figures"`
	FigureReferences []FigureReference        `json:"figure_references" yaml:"figure_references"`
	CitationMapping  map[string]CitationGroup `json:"citation_mapping" yaml:"citation_mapping"`
	FigureMapping    map[string]FigureGroup   `json:"figure_mapping" yaml:"figure_mapping"`
	Stats            ScanStats                `json:"stats" yaml:"stats"`
}

// FillStats recomputes Stats from the result's sequences and mappings.
// filesParsed is carried through unchanged.
func (r *ScanResult) FillStats(filesParsed int) {
	r.Stats = ScanStats{
		TotalCitations:        len(r.Citations),
		TotalReferences:       len(r.References),
		TotalFigures:          len(r.Figures),
		TotalFigureReferences: len(r.FigureReferences),
		FilesParsed:           filesParsed,
	}
}
