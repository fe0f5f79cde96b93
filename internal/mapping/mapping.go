// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mapping joins scanner output into lookup structures: citation key
// to reference and occurrences, and figure label to figure and the
// cross-references that point at it.
package mapping

import (
	"maps"
	"slices"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// Build returns the citation and figure mappings for r. A key or label with
// no partner on the other side is left out of the mappings; it still
// appears in r's flat sequences. Build does not modify r.
func Build(r *types.ScanResult) (map[string]types.CitationGroup, map[string]types.FigureGroup) {
	citations := make(map[string]types.CitationGroup)
	for _, c := range r.Citations {
		ref, ok := r.References[c.Key]
		if !ok {
			continue
		}
		g, seen := citations[c.Key]
		if !seen {
			g.Reference = ref
		}
		g.Citations = append(g.Citations, c)
		citations[c.Key] = g
	}

	figures := make(map[string]types.FigureGroup)
	for _, fr := range r.FigureReferences {
		fig, ok := r.Figures[fr.Label]
		if !ok {
			continue
		}
		g, seen := figures[fr.Label]
		if !seen {
			g.Figure = fig
		}
		g.References = append(g.References, fr)
		figures[fr.Label] = g
	}

	return citations, figures
}

// CitedKeys returns the distinct citation keys of r in first-occurrence order.
func CitedKeys(r *types.ScanResult) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, c := range r.Citations {
		if !seen[c.Key] {
			seen[c.Key] = true
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// UncitedReferences returns the keys of references that no citation uses.
// The order follows sorted key order so output is stable.
func UncitedReferences(r *types.ScanResult) []string {
	cited := make(map[string]bool, len(r.Citations))
	for _, c := range r.Citations {
		cited[c.Key] = true
	}
	var keys []string
	for _, k := range sortedKeys(r.References) {
		if !cited[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// MissingReferences returns cited keys that have no bibliography entry, in
// first-occurrence order.
func MissingReferences(r *types.ScanResult) []string {
	var keys []string
	for _, k := range CitedKeys(r) {
		if _, ok := r.References[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
