// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"regexp"
	"strings"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// envPattern matches one environment kind over whole-file content.
type envPattern struct {
	kind types.FigureKind
	re   *regexp.Regexp
}

func environment(kind types.FigureKind, name string) envPattern {
	return envPattern{
		kind: kind,
		re:   regexp.MustCompile(`(?is)\\begin\{` + name + `\}(.*?)\\end\{` + name + `\}`),
	}
}

// environments is processed in order; a label defined in a later kind
// replaces one of the same name from an earlier kind.
var environments = []envPattern{
	environment(types.KindFigure, `figure\*?`),
	environment(types.KindTable, `table\*?`),
	environment(types.KindAlgorithm, `algorithm\*?`),
	environment(types.KindEquation, `equation\*?`),
	environment(types.KindEquation, `align\*?`),
}

var (
	labelRe     = regexp.MustCompile(`\\label\s*\{([^}]+)\}`)
	captionRe   = regexp.MustCompile(`\\caption\*?\s*[\[{]`)
	subfigureRe = regexp.MustCompile(`(?s)\\begin\{subfigure\}.*?\\end\{subfigure\}|\\sub(?:float|figure|table)\s*(?:\[[^\]]*\]\s*)?\{`)
)

// ExtractFigures finds labeled figure, table, algorithm, and equation
// environments in content. Environments without a label are dropped, as
// are commented-out ones. RawEnvironment keeps the source text, comments
// included.
func ExtractFigures(content, fileName string) []types.Figure {
	text := blankComments(content)
	var out []types.Figure
	for _, env := range environments {
		for _, m := range env.re.FindAllStringSubmatchIndex(text, -1) {
			body := text[m[2]:m[3]]

			spans := subfigureSpans(body)
			label, subfigures := figureLabels(body, spans)
			if label == "" {
				continue
			}

			out = append(out, types.Figure{
				Label:          label,
				Caption:        extractCaption(body, spans),
				Kind:           env.kind,
				FileName:       fileName,
				LineNumber:     strings.Count(text[:m[0]], "\n") + 1,
				RawEnvironment: content[m[0]:m[1]],
				Subfigures:     subfigures,
			})
		}
	}
	return out
}

// blankComments overwrites comment text with spaces so that byte offsets
// and line numbers still index the original content.
func blankComments(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	for _, line := range strings.SplitAfter(content, "\n") {
		body := strings.TrimRight(line, "\r\n")
		kept, ok := stripComment(body)
		if !ok {
			kept = ""
		}
		b.WriteString(kept)
		b.WriteString(strings.Repeat(" ", len(body)-len(kept)))
		b.WriteString(line[len(body):])
	}
	return b.String()
}

// figureLabels returns the environment's own label and the labels of any
// subfigures. The own label is the first one outside a subfigure; when all
// labels sit inside subfigures the first of those is used.
func figureLabels(body string, spans [][2]int) (string, []string) {
	var (
		own        string
		subfigures []string
		inner      = make(map[int]bool)
	)
	for _, span := range spans {
		for _, lm := range labelRe.FindAllStringSubmatchIndex(body[span[0]:span[1]], -1) {
			inner[span[0]+lm[0]] = true
			subfigures = append(subfigures, strings.TrimSpace(body[span[0]+lm[2]:span[0]+lm[3]]))
		}
	}
	for _, lm := range labelRe.FindAllStringSubmatchIndex(body, -1) {
		if !inner[lm[0]] {
			own = strings.TrimSpace(body[lm[2]:lm[3]])
			break
		}
	}
	if own == "" && len(subfigures) > 0 {
		own = subfigures[0]
		subfigures = subfigures[1:]
	}
	return own, subfigures
}

// subfigureSpans returns [start, end) spans of subfigure environments and
// \subfloat-style command arguments within body.
func subfigureSpans(body string) [][2]int {
	var spans [][2]int
	for _, m := range subfigureRe.FindAllStringIndex(body, -1) {
		if strings.HasPrefix(body[m[0]:], `\begin`) {
			spans = append(spans, [2]int{m[0], m[1]})
			continue
		}
		// Command form: the match ends just past the opening brace.
		open := m[1] - 1
		if end, ok := matchBrace(body, open); ok {
			spans = append(spans, [2]int{m[0], end + 1})
		}
	}
	return spans
}

// extractCaption returns the full argument of the environment's caption,
// including nested groups. A caption outside the subfigure spans is
// preferred over a subfigure's own. An optional short caption in brackets
// is skipped. Unbalanced input yields an empty caption.
func extractCaption(body string, spans [][2]int) string {
	locs := captionRe.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return ""
	}
	loc := locs[0]
	for _, l := range locs {
		if !within(l[0], spans) {
			loc = l
			break
		}
	}
	i := loc[1] - 1
	if body[i] == '[' {
		end, ok := matchBracket(body, i)
		if !ok {
			return ""
		}
		i = end + 1
		for i < len(body) && isSpace(body[i]) {
			i++
		}
		if i >= len(body) || body[i] != '{' {
			return ""
		}
	}
	return BalancedBraces(body, i)
}

func within(pos int, spans [][2]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

// BalancedBraces returns the content between the first '{' at or after
// start and its matching '}', counting nested groups. Escaped braces (\{
// and \}) do not count. It returns "" when no opening brace exists or the
// group never closes.
func BalancedBraces(text string, start int) string {
	open := strings.IndexByte(text[min(start, len(text)):], '{')
	if open < 0 {
		return ""
	}
	open += start
	end, ok := matchBrace(text, open)
	if !ok {
		return ""
	}
	return text[open+1 : end]
}

// matchBrace returns the index of the '}' closing the '{' at text[open].
func matchBrace(text string, open int) (int, bool) {
	return matchDelim(text, open, '{', '}')
}

// matchBracket returns the index of the ']' closing the '[' at text[open].
func matchBracket(text string, open int) (int, bool) {
	return matchDelim(text, open, '[', ']')
}

func matchDelim(text string, open int, l, r byte) (int, bool) {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case l:
			depth++
		case r:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
