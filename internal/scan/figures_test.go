// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/pkg/types"
)

func TestExtractFigures(t *testing.T) {
	content := strings.Join([]string{
		`\begin{figure}[t]`,
		`  \centering`,
		`  \includegraphics{arch.pdf}`,
		`  \caption{Overview of {\bf the} model with $\frac{a}{b}$.}`,
		`  \label{fig:arch}`,
		`\end{figure}`,
		`Text`,
		`\begin{table}`,
		`  \caption{Unlabeled}`,
		`\end{table}`,
		`\begin{equation}`,
		`  E = mc^2 \label{eq:energy}`,
		`\end{equation}`,
	}, "\n")

	got := ExtractFigures(content, "main.tex")
	require.Len(t, got, 2)

	fig := got[0]
	assert.Equal(t, "fig:arch", fig.Label)
	assert.Equal(t, types.KindFigure, fig.Kind)
	assert.Equal(t, `Overview of {\bf the} model with $\frac{a}{b}$.`, fig.Caption)
	assert.Equal(t, 1, fig.LineNumber)
	assert.Equal(t, "main.tex", fig.FileName)
	assert.True(t, strings.HasPrefix(fig.RawEnvironment, `\begin{figure}`))
	assert.True(t, strings.HasSuffix(fig.RawEnvironment, `\end{figure}`))

	eq := got[1]
	assert.Equal(t, "eq:energy", eq.Label)
	assert.Equal(t, types.KindEquation, eq.Kind)
	assert.Equal(t, "", eq.Caption)
	assert.Equal(t, 11, eq.LineNumber)
}

func TestExtractFigures_IgnoresComments(t *testing.T) {
	content := strings.Join([]string{
		`% \begin{figure}`,
		`%   \label{fig:old}`,
		`% \end{figure}`,
		`\begin{figure}`,
		`  \caption{Accuracy (50\% of runs)}% draft note`,
		`  \label{fig:new} % was \label{fig:other}`,
		`\end{figure}`,
	}, "\n")

	got := ExtractFigures(content, "a.tex")
	require.Len(t, got, 1)
	assert.Equal(t, "fig:new", got[0].Label)
	assert.Equal(t, `Accuracy (50\% of runs)`, got[0].Caption)
	assert.Equal(t, 4, got[0].LineNumber)
	assert.Contains(t, got[0].RawEnvironment, `% was \label{fig:other}`)
}

func TestBlankComments(t *testing.T) {
	in := "a % c\r\n% whole\nb 50\\% x"
	out := blankComments(in)
	assert.Equal(t, len(in), len(out))
	assert.Equal(t, "a "+strings.Repeat(" ", 3)+"\r\n"+strings.Repeat(" ", 7)+"\nb 50\\% x", out)
}

func TestExtractFigures_Kinds(t *testing.T) {
	tests := []struct {
		env  string
		kind types.FigureKind
	}{
		{"figure", types.KindFigure},
		{"figure*", types.KindFigure},
		{"table", types.KindTable},
		{"table*", types.KindTable},
		{"algorithm", types.KindAlgorithm},
		{"equation", types.KindEquation},
		{"equation*", types.KindEquation},
		{"align", types.KindEquation},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			content := `\begin{` + tt.env + `}\label{x}\end{` + tt.env + `}`
			got := ExtractFigures(content, "a.tex")
			require.Len(t, got, 1)
			assert.Equal(t, tt.kind, got[0].Kind)
		})
	}
}

func TestExtractFigures_ShortCaption(t *testing.T) {
	content := `\begin{figure}\caption[Short]{Long {nested} caption}\label{fig:x}\end{figure}`
	got := ExtractFigures(content, "a.tex")
	require.Len(t, got, 1)
	assert.Equal(t, "Long {nested} caption", got[0].Caption)
}

func TestExtractFigures_Subfigures(t *testing.T) {
	content := strings.Join([]string{
		`\begin{figure}`,
		`\begin{subfigure}{0.5\textwidth}\caption{A}\label{fig:a}\end{subfigure}`,
		`\begin{subfigure}{0.5\textwidth}\caption{B}\label{fig:b}\end{subfigure}`,
		`\caption{Both panels}\label{fig:both}`,
		`\end{figure}`,
	}, "\n")

	got := ExtractFigures(content, "a.tex")
	require.Len(t, got, 1)
	assert.Equal(t, "fig:both", got[0].Label)
	assert.Equal(t, "Both panels", got[0].Caption)
	assert.Equal(t, []string{"fig:a", "fig:b"}, got[0].Subfigures)
}

func TestExtractFigures_SubfloatOnlyLabels(t *testing.T) {
	content := `\begin{figure}\subfloat[Left]{\includegraphics{l}\label{fig:l}}\subfloat[Right]{\includegraphics{r}\label{fig:r}}\end{figure}`
	got := ExtractFigures(content, "a.tex")
	require.Len(t, got, 1)
	assert.Equal(t, "fig:l", got[0].Label)
	assert.Equal(t, []string{"fig:r"}, got[0].Subfigures)
}

func TestExtractFigures_UnbalancedCaption(t *testing.T) {
	content := `\begin{figure}\caption{Broken {group}\label{fig:x}\end{figure}`
	got := ExtractFigures(content, "a.tex")
	require.Len(t, got, 1)
	assert.Equal(t, "fig:x", got[0].Label)
	assert.Equal(t, "", got[0].Caption)
}

func TestBalancedBraces(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		start int
		want  string
	}{
		{"nested", `\caption{a {b {c}} d} tail`, 0, "a {b {c}} d"},
		{"start mid-text", `x{one}{two}`, 5, "two"},
		{"escaped braces", `{a \} b}`, 0, `a \} b`},
		{"unbalanced", `{a {b`, 0, ""},
		{"no brace", `plain`, 0, ""},
		{"start past end", `{a}`, 10, ""},
		{"empty group", `{}`, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BalancedBraces(tt.text, tt.start))
		})
	}
}
