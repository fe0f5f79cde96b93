// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan extracts citations, figure-family environments,
// cross-references, and bibliography entries from a tree of LaTeX sources.
// Extraction is pattern-based and tolerant: a file that cannot be read is
// reported and skipped, and malformed markup yields partial results rather
// than errors.
package scan

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/pdiddy/citation-engine/internal/mapping"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Scanner walks a source tree and extracts its citation and figure graph.
// A Scanner holds no per-scan state and may be shared across goroutines.
type Scanner struct {
	cfg types.ScanConfig
}

// New returns a Scanner with cfg's empty fields defaulted.
func New(cfg types.ScanConfig) *Scanner {
	return &Scanner{cfg: cfg.WithDefaults()}
}

// sourceFiles is the enumerated content of a tree, grouped by class. Each
// slice holds root-relative slash paths in lexical order.
type sourceFiles struct {
	text     []string
	compiled []string
	database []string
}

// Scan extracts citations, references, figures, and cross-references from
// every source file under root and joins them into mappings. Per-file
// failures are written to w and skipped. ctx is checked between files.
func (s *Scanner) Scan(ctx context.Context, root string, w io.Writer) (*types.ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", root)
	}

	files, err := s.enumerate(root, w)
	if err != nil {
		return nil, err
	}

	res := &types.ScanResult{
		Citations:        []types.Citation{},
		References:       map[string]types.Reference{},
		Figures:          map[string]types.Figure{},
		FigureReferences: []types.FigureReference{},
	}

	parsed := 0
	for _, rel := range files.text {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := readSource(root, rel)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			continue
		}
		parsed++

		res.Citations = append(res.Citations, ExtractCitations(content, rel)...)
		for _, fig := range ExtractFigures(content, rel) {
			res.Figures[fig.Label] = fig
		}
		res.FigureReferences = append(res.FigureReferences, ExtractFigureReferences(content, rel)...)
	}

	// Compiled bibliographies first, so a database entry for the same key
	// is processed later and wins field by field.
	for _, rel := range files.compiled {
		content, err := readSource(root, rel)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			continue
		}
		mergeReferences(res.References, ParseCompiledBibliography(content))
	}
	for _, rel := range files.database {
		content, err := readSource(root, rel)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			continue
		}
		mergeReferences(res.References, ParseBibDatabase(content))
	}

	res.CitationMapping, res.FigureMapping = mapping.Build(res)
	res.FillStats(parsed)

	fmt.Fprintf(w, "scanned %d file(s): %d citations, %d references, %d figures\n",
		parsed, res.Stats.TotalCitations, res.Stats.TotalReferences, res.Stats.TotalFigures)
	return res, nil
}

// enumerate lists source files under root in lexical order. Hidden
// directories are skipped, as are paths matched by a root .gitignore when
// the scanner is configured to respect it.
func (s *Scanner) enumerate(root string, w io.Writer) (sourceFiles, error) {
	var matcher *ignore.GitIgnore
	if s.cfg.RespectIgnoreFiles {
		gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
		if err == nil {
			matcher = gi
		} else if !os.IsNotExist(err) {
			fmt.Fprintf(w, "warning: ignoring unreadable .gitignore: %v\n", err)
		}
	}

	var files sourceFiles
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectories are skipped; the rest of the tree is still scanned.
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				return fs.SkipDir
			}
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		switch strings.ToLower(filepath.Ext(d.Name())) {
		case s.cfg.TextExt:
			files.text = append(files.text, rel)
		case s.cfg.CompiledBibExt:
			files.compiled = append(files.compiled, rel)
		case s.cfg.BibDatabaseExt:
			files.database = append(files.database, rel)
		}
		return nil
	})
	if err != nil {
		return sourceFiles{}, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// readSource reads a root-relative file. Invalid UTF-8 is kept as-is; the
// patterns only inspect ASCII markup.
func readSource(root, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func mergeReferences(dst map[string]types.Reference, refs []types.Reference) {
	for _, ref := range refs {
		existing, ok := dst[ref.Key]
		if !ok {
			dst[ref.Key] = ref
			continue
		}
		existing.Merge(ref)
		dst[ref.Key] = existing
	}
}
