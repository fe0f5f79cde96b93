// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"regexp"
	"strings"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// Compiled bibliography (.bbl) patterns.
var (
	bibitemRe   = regexp.MustCompile(`\\bibitem\s*(?:\[((?:[^\[\]]|\[[^\]]*\])*)\])?\s*\{([^}]+)\}`)
	bibEndRe    = regexp.MustCompile(`\\end\{thebibliography\}`)
	newblockRe  = regexp.MustCompile(`\\newblock\b`)
	yearRe      = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	doiRe       = regexp.MustCompile(`(?i)(?:doi:?\s*|doi\.org/)(10\.\d{4,9}/[^\s{}]+)`)
	arxivTextRe = regexp.MustCompile(`(?i)arxiv:?\s*(\d{4}\.\d{4,5})`)
	urlRe       = regexp.MustCompile(`\\(?:url|href)\s*\{([^}]+)\}`)
)

// Title patterns for compiled entries. Quoted forms are tried in order;
// the emphasis form is followed by a balanced-brace scan.
var (
	quotedTitleRes = []*regexp.Regexp{
		regexp.MustCompile(`"([^"]+)"`),
		regexp.MustCompile("“([^”]+)”"),
		regexp.MustCompile("``(.+?)''"),
	}
	emphasisRe = regexp.MustCompile(`\\(?:textit|emph)\s*\{|\{\\(?:em|it)\s`)
)

// ParseCompiledBibliography parses \bibitem entries. Each entry spans from
// its \bibitem to the next one or the end of the bibliography environment.
// Metadata is filled heuristically and never fails: fields the heuristics
// cannot find are left empty.
func ParseCompiledBibliography(content string) []types.Reference {
	if loc := bibEndRe.FindStringIndex(content); loc != nil {
		content = content[:loc[0]]
	}

	matches := bibitemRe.FindAllStringSubmatchIndex(content, -1)
	refs := make([]types.Reference, 0, len(matches))
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		key := strings.TrimSpace(content[m[4]:m[5]])
		if key == "" {
			continue
		}
		short := ""
		if m[2] >= 0 {
			short = strings.TrimSpace(content[m[2]:m[3]])
		}
		raw := strings.TrimSpace(content[m[1]:end])

		ref := extractEntryMetadata(raw)
		ref.Key = key
		ref.ShortForm = short
		ref.RawEntry = raw
		ref.Source = types.SourceCompiled
		refs = append(refs, ref)
	}
	return refs
}

// extractEntryMetadata applies best-effort heuristics to free-text
// bibliography entry text.
func extractEntryMetadata(raw string) types.Reference {
	var ref types.Reference

	blocks := newblockRe.Split(raw, -1)
	if len(blocks) > 1 {
		ref.Authors = cleanText(blocks[0])
	}

	// Quoted title, then the second \newblock, then an emphasized span.
	ref.Title = quotedTitle(raw)
	if ref.Title == "" && len(blocks) > 1 {
		ref.Title = cleanText(blocks[1])
	}
	if ref.Title == "" {
		ref.Title = emphasizedTitle(raw)
	}
	if len(blocks) > 2 {
		ref.Venue = cleanVenue(blocks[2])
	}

	ref.Year = yearRe.FindString(raw)
	if m := doiRe.FindStringSubmatch(raw); m != nil {
		ref.DOI = strings.TrimRight(m[1], ".,;")
	}
	if m := arxivTextRe.FindStringSubmatch(raw); m != nil {
		ref.ArxivID = m[1]
	}
	if m := urlRe.FindStringSubmatch(raw); m != nil {
		ref.URL = strings.TrimSpace(m[1])
	}
	return ref
}

func quotedTitle(raw string) string {
	for _, re := range quotedTitleRes {
		if m := re.FindStringSubmatch(raw); m != nil {
			if t := cleanText(m[1]); t != "" {
				return t
			}
		}
	}
	return ""
}

func emphasizedTitle(raw string) string {
	if loc := emphasisRe.FindStringIndex(raw); loc != nil {
		var inner string
		if raw[loc[0]] == '{' {
			// {\em Title} form: the group starts at the match.
			if end, ok := matchBrace(raw, loc[0]); ok {
				inner = raw[loc[1]:end]
			}
		} else {
			inner = BalancedBraces(raw, loc[1]-1)
		}
		return cleanText(inner)
	}
	return ""
}

var (
	spaceRe   = regexp.MustCompile(`\s+`)
	commandRe = regexp.MustCompile(`\\[a-zA-Z]+\s*`)
)

// cleanText strips simple markup from a heuristic field: control words,
// grouping braces, ties, and redundant whitespace.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "~", " ")
	s = commandRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.Trim(strings.TrimSpace(s), ".,;")
}

func cleanVenue(s string) string {
	s = cleanText(s)
	s = yearRe.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "In ")
	return strings.Trim(strings.TrimSpace(s), ".,; ")
}

// Bibliography database (.bib) patterns.
var (
	bibEntryStartRe = regexp.MustCompile(`@\s*(\w+)\s*[{(]`)
	fieldNameRe     = regexp.MustCompile(`^[A-Za-z][\w\-:.]*`)
	eprintArxivRe   = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5})(?:v\d+)?$`)
)

// skippedEntryTypes are BibTeX directives rather than bibliography records.
var skippedEntryTypes = map[string]bool{
	"comment":  true,
	"string":   true,
	"preamble": true,
}

// ParseBibDatabase parses BibTeX @type{key, field = value, ...} records.
// Field names are lower-cased; values may be brace-delimited (nesting
// allowed), quote-delimited, or bare, and may be joined with #.
func ParseBibDatabase(content string) []types.Reference {
	starts := bibEntryStartRe.FindAllStringSubmatchIndex(content, -1)
	var refs []types.Reference
	for i, m := range starts {
		entryType := strings.ToLower(content[m[2]:m[3]])
		if skippedEntryTypes[entryType] {
			continue
		}

		// The entry body runs to the matching close; if the braces never
		// balance, it runs to the next entry.
		bodyStart := m[1]
		next := len(content)
		if i+1 < len(starts) {
			next = starts[i+1][0]
		}
		bodyEnd := next
		open := m[1] - 1
		if content[open] == '{' {
			if end, ok := matchBrace(content, open); ok && end <= next {
				bodyEnd = end
			}
		} else if end := strings.LastIndexByte(content[bodyStart:next], ')'); end >= 0 {
			bodyEnd = bodyStart + end
		}
		body := content[bodyStart:bodyEnd]

		comma := strings.IndexByte(body, ',')
		if comma < 0 {
			continue
		}
		key := strings.TrimSpace(body[:comma])
		if key == "" {
			continue
		}

		fields := parseBibFields(body[comma+1:])
		rawEnd := bodyEnd
		if bodyEnd < next {
			rawEnd++
		}
		raw := strings.TrimSpace(content[m[0]:rawEnd])
		refs = append(refs, referenceFromFields(key, entryType, fields, raw))
	}
	return refs
}

func referenceFromFields(key, entryType string, fields map[string]string, raw string) types.Reference {
	ref := types.Reference{
		Key:       key,
		EntryType: entryType,
		Title:     cleanText(fields["title"]),
		Authors:   spaceRe.ReplaceAllString(fields["author"], " "),
		Year:      fields["year"],
		Venue:     cleanText(fields["journal"]),
		DOI:       fields["doi"],
		URL:       fields["url"],
		RawEntry:  raw,
		Source:    types.SourceDatabase,
	}
	if ref.Venue == "" {
		ref.Venue = cleanText(fields["booktitle"])
	}
	if ref.Year == "" {
		ref.Year = yearRe.FindString(fields["date"])
	}

	eprint := strings.TrimSpace(fields["eprint"])
	archive := strings.ToLower(fields["archiveprefix"] + fields["eprinttype"])
	if m := eprintArxivRe.FindStringSubmatch(eprint); m != nil {
		ref.ArxivID = m[1]
	} else if eprint != "" && strings.Contains(archive, "arxiv") {
		ref.ArxivID = eprint
	}
	return ref
}

// parseBibFields scans name = value assignments. It stops at the first
// construct it cannot parse and returns what it has.
func parseBibFields(s string) map[string]string {
	fields := make(map[string]string)
	i := 0
	for {
		for i < len(s) && (isSpace(s[i]) || s[i] == ',') {
			i++
		}
		if i >= len(s) {
			return fields
		}
		name := fieldNameRe.FindString(s[i:])
		if name == "" {
			return fields
		}
		i += len(name)
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			return fields
		}
		i++

		var value strings.Builder
		for {
			for i < len(s) && isSpace(s[i]) {
				i++
			}
			part, next, ok := bibValue(s, i)
			if !ok {
				if value.Len() > 0 {
					fields[strings.ToLower(name)] = strings.TrimSpace(value.String())
				}
				return fields
			}
			value.WriteString(part)
			i = next
			for i < len(s) && isSpace(s[i]) {
				i++
			}
			if i < len(s) && s[i] == '#' {
				i++
				continue
			}
			break
		}
		fields[strings.ToLower(name)] = strings.TrimSpace(value.String())
	}
}

// bibValue reads one value token starting at s[i] and returns its content
// and the index just past it.
func bibValue(s string, i int) (string, int, bool) {
	if i >= len(s) {
		return "", i, false
	}
	switch s[i] {
	case '{':
		end, ok := matchBrace(s, i)
		if !ok {
			return "", i, false
		}
		return s[i+1 : end], end + 1, true
	case '"':
		depth := 0
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '\\':
				j++
			case '{':
				depth++
			case '}':
				depth--
			case '"':
				if depth == 0 {
					return s[i+1 : j], j + 1, true
				}
			}
		}
		return "", i, false
	default:
		j := i
		for j < len(s) && s[j] != ',' && s[j] != '#' && !isSpace(s[j]) && s[j] != '}' {
			j++
		}
		if j == i {
			return "", i, false
		}
		return s[i:j], j, true
	}
}
