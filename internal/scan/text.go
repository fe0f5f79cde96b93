// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/citation-engine/pkg/types"
)

const (
	citationWindow  = 50
	referenceWindow = 30
)

// commandVariant is one entry in a fixed, ordered list of command patterns.
// Each pattern captures the command name (group 1), an optional star
// (group 2), and the brace argument (group 3).
type commandVariant struct {
	family string
	re     *regexp.Regexp
}

// optArgs allows up to two bracketed optional arguments, as in
// \citep[see][p.~4]{key}.
const optArgs = `\s*(?:\[[^\]]*\]\s*){0,2}`

func citeVariant(family, names string) commandVariant {
	return commandVariant{
		family: family,
		re:     regexp.MustCompile(`(?i)\\(` + names + `)(\*?)` + optArgs + `\{([^}]*)\}`),
	}
}

func refVariant(family, names string) commandVariant {
	return commandVariant{
		family: family,
		re:     regexp.MustCompile(`\\(` + names + `)(\*?)\s*\{([^}]*)\}`),
	}
}

// citationVariants covers the natbib and biblatex citing commands. The
// names in each alternation are followed by a required star, bracket, or
// brace, so variants never match the same invocation.
var citationVariants = []commandVariant{
	citeVariant("plain", `cite`),
	citeVariant("text-paren", `citet|citep`),
	citeVariant("alphabetic", `citealt|citealp`),
	citeVariant("author-year", `citeauthor|citeyearpar|citeyear`),
	citeVariant("numeric", `citenum`),
	citeVariant("biblatex", `parencite|textcite|autocite|footcite|smartcite|supercite`),
	citeVariant("nocite", `nocite`),
}

// referenceVariants covers the cross-referencing commands.
var referenceVariants = []commandVariant{
	refVariant("ref", `ref|pageref|nameref`),
	refVariant("auto", `autoref|Autoref`),
	refVariant("clever", `cref|Cref|crefrange|Crefrange`),
	refVariant("equation", `eqref`),
	refVariant("vario", `vref|Vref`),
}

// stripComment removes a LaTeX comment from line. It reports false when the
// whole line is a comment. A % preceded by a backslash is a literal percent
// sign; a doubled backslash is a line break, so the % after it still starts
// a comment.
func stripComment(line string) (string, bool) {
	if strings.HasPrefix(strings.TrimSpace(line), "%") {
		return "", false
	}
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '%':
			return line[:i], true
		}
	}
	return line, true
}

// contextWindow returns up to n bytes either side of line[start:end],
// widened to rune boundaries and trimmed.
func contextWindow(line string, start, end, n int) string {
	lo := start - n
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(line[lo]) {
		lo--
	}
	hi := end + n
	if hi > len(line) {
		hi = len(line)
	}
	for hi < len(line) && !utf8.RuneStart(line[hi]) {
		hi++
	}
	return strings.TrimSpace(line[lo:hi])
}

// splitKeys splits a comma-separated argument into trimmed, non-empty keys.
func splitKeys(arg string) []string {
	var keys []string
	for _, k := range strings.Split(arg, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// commandMatch is one invocation found on a line.
type commandMatch struct {
	command    string
	keys       []string
	start, end int
}

// matchCommands applies variants in order to line. An invocation already
// claimed by an earlier variant is not reported twice. Matches are returned
// in position order.
func matchCommands(line string, variants []commandVariant) []commandMatch {
	var (
		out     []commandMatch
		claimed map[int]bool
	)
	for _, v := range variants {
		for _, m := range v.re.FindAllStringSubmatchIndex(line, -1) {
			if claimed[m[0]] {
				continue
			}
			if claimed == nil {
				claimed = make(map[int]bool)
			}
			claimed[m[0]] = true
			out = append(out, commandMatch{
				command: line[m[2]:m[3]] + line[m[4]:m[5]],
				keys:    splitKeys(line[m[6]:m[7]]),
				start:   m[0],
				end:     m[1],
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// sourceLines splits content into lines with trailing carriage returns removed.
func sourceLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ExtractCitations finds every citation occurrence in content. One
// invocation binding several keys yields one Citation per key, all sharing
// the invocation's context and line.
func ExtractCitations(content, fileName string) []types.Citation {
	var out []types.Citation
	for i, raw := range sourceLines(content) {
		line, ok := stripComment(raw)
		if !ok || !strings.Contains(line, `\`) {
			continue
		}
		for _, m := range matchCommands(line, citationVariants) {
			ctx := contextWindow(line, m.start, m.end, citationWindow)
			for _, key := range m.keys {
				out = append(out, types.Citation{
					Key:        key,
					Command:    m.command,
					Context:    ctx,
					FileName:   fileName,
					LineNumber: i + 1,
				})
			}
		}
	}
	return out
}

// ExtractFigureReferences finds every cross-reference occurrence in content.
// Multi-label forms such as \cref{fig:a,fig:b} yield one entry per label.
func ExtractFigureReferences(content, fileName string) []types.FigureReference {
	var out []types.FigureReference
	for i, raw := range sourceLines(content) {
		line, ok := stripComment(raw)
		if !ok || !strings.Contains(line, `\`) {
			continue
		}
		for _, m := range matchCommands(line, referenceVariants) {
			ctx := contextWindow(line, m.start, m.end, referenceWindow)
			for _, label := range m.keys {
				out = append(out, types.FigureReference{
					Label:      label,
					Command:    m.command,
					Context:    ctx,
					FileName:   fileName,
					LineNumber: i + 1,
				})
			}
		}
	}
	return out
}
