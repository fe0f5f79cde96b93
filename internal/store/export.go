// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// ExportEntry is one analyzed paper with its citation edges.
type ExportEntry struct {
	types.AnalysisRecord `yaml:",inline"`
	Edges                []types.CitationEdge `json:"edges" yaml:"edges"`
}

// ExportYAML writes every stored analysis to dataDir/export.yaml and
// returns the path written.
func (s *Store) ExportYAML(ctx context.Context) (string, error) {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.dataDir, "export.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every stored analysis to dataDir/export.json and
// returns the path written.
func (s *Store) ExportJSON(ctx context.Context) (string, error) {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.dataDir, "export.json")
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	recs, err := s.ListAnalyses(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	entries := make([]ExportEntry, len(recs))
	for i, rec := range recs {
		edges, err := s.Edges(ctx, rec.PaperID)
		if err != nil {
			return nil, err
		}
		if edges == nil {
			edges = []types.CitationEdge{}
		}
		entries[i] = ExportEntry{AnalysisRecord: rec, Edges: edges}
	}
	return entries, nil
}
