// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// identifierPatterns are applied in order to raw entry text. The first
// pattern with a syntactically valid capture wins.
var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)arXiv:\s*(\d{4}\.\d{4,5})(?:[^\d]|$)`),
	regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})(?:[^\d]|$)`),
	regexp.MustCompile(`(?:^|[^\d])(\d{4}\.\d{4,5})(?:[^\d]|$)`),
}

// validIdentifierRe is the accepted identifier shape: four digits, a dot,
// four or five digits.
var validIdentifierRe = regexp.MustCompile(`^\d{4}\.\d{4,5}$`)

// ValidIdentifier reports whether id has the accepted identifier shape.
func ValidIdentifier(id string) bool {
	return validIdentifierRe.MatchString(id)
}

// NormalizeIdentifier strips an "arXiv:" prefix and a version suffix
// ("2301.07041v2" → "2301.07041").
func NormalizeIdentifier(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	if v := strings.LastIndexByte(id, 'v'); v > 0 {
		digits := id[v+1:]
		if digits != "" && strings.Trim(digits, "0123456789") == "" {
			id = id[:v]
		}
	}
	return id
}

// ResolveReference maps a bibliography entry to an external identifier.
// Raw entry text is searched first (method "pattern"); a structured eprint
// field is the fallback (method "field"). No match yields ("", "unknown").
func ResolveReference(ref types.Reference) (string, types.ResolutionMethod) {
	for _, re := range identifierPatterns {
		for _, m := range re.FindAllStringSubmatch(ref.RawEntry, -1) {
			if ValidIdentifier(m[1]) {
				return m[1], types.MethodPattern
			}
		}
	}
	if id := NormalizeIdentifier(ref.ArxivID); ValidIdentifier(id) {
		return id, types.MethodField
	}
	return "", types.MethodUnknown
}

// ResolveCitations resolves every citation whose key has a bibliography
// entry. Citations without an entry are reported to w and left out.
// Each reference is resolved once, however often it is cited.
func ResolveCitations(scan *types.ScanResult, w io.Writer) []types.ResolvedCitation {
	type resolution struct {
		id     string
		method types.ResolutionMethod
	}
	byKey := make(map[string]resolution)
	missing := make(map[string]bool)

	out := make([]types.ResolvedCitation, 0, len(scan.Citations))
	for _, c := range scan.Citations {
		ref, ok := scan.References[c.Key]
		if !ok {
			if !missing[c.Key] {
				missing[c.Key] = true
				fmt.Fprintf(w, "warning: no reference found for citation key %s\n", c.Key)
			}
			continue
		}

		res, done := byKey[c.Key]
		if !done {
			res.id, res.method = ResolveReference(ref)
			byKey[c.Key] = res
			if res.id == "" {
				fmt.Fprintf(w, "unresolved %s: %s\n", c.Key, truncate(ref.RawEntry, 100))
			}
		}

		rc := types.ResolvedCitation{
			CitationKey:  c.Key,
			Context:      c.Context,
			Command:      c.Command,
			RawReference: ref.RawEntry,
			FileName:     c.FileName,
			LineNumber:   c.LineNumber,
			Identifier:   res.id,
			Method:       res.method,
		}
		if rc.Resolved() {
			rc.ConfidenceScore = 1.0
		}
		out = append(out, rc)
	}
	return out
}

// DistinctIdentifiers returns the resolved identifiers of cs in
// first-occurrence order with their local citation counts.
func DistinctIdentifiers(cs []types.ResolvedCitation) ([]string, map[string]int) {
	var order []string
	counts := make(map[string]int)
	for _, c := range cs {
		if !c.Resolved() {
			continue
		}
		if counts[c.Identifier] == 0 {
			order = append(order, c.Identifier)
		}
		counts[c.Identifier]++
	}
	return order, counts
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
