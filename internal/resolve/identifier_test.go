// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/pkg/types"
)

func TestResolveReference(t *testing.T) {
	tests := []struct {
		name       string
		ref        types.Reference
		wantID     string
		wantMethod types.ResolutionMethod
	}{
		{"explicit prefix", types.Reference{RawEntry: "Some title. arXiv:2309.15028, 2023."}, "2309.15028", types.MethodPattern},
		{"prefix with space", types.Reference{RawEntry: "arXiv: 1706.03762"}, "1706.03762", types.MethodPattern},
		{"prefix with version", types.Reference{RawEntry: "arXiv:2301.07041v3"}, "2301.07041", types.MethodPattern},
		{"abs URL", types.Reference{RawEntry: `\url{https://arxiv.org/abs/2301.07041v2}`}, "2301.07041", types.MethodPattern},
		{"pdf URL", types.Reference{RawEntry: "http://arxiv.org/pdf/1810.04805.pdf"}, "1810.04805", types.MethodPattern},
		{"bare token", types.Reference{RawEntry: "CoRR, abs/1810.04805, 2018."}, "1810.04805", types.MethodPattern},
		{"four-digit suffix", types.Reference{RawEntry: "preprint 0704.0001"}, "0704.0001", types.MethodPattern},
		{"no identifier", types.Reference{RawEntry: "Nature 521, 436-444 (2015)."}, "", types.MethodUnknown},
		{"DOI digits not mistaken", types.Reference{RawEntry: "doi:10.1145/3292500.3330701"}, "", types.MethodUnknown},
		{"six-digit suffix rejected", types.Reference{RawEntry: "number 1234.567890 here"}, "", types.MethodUnknown},
		{"prefix with six-digit suffix rejected", types.Reference{RawEntry: "arXiv:2309.150281"}, "", types.MethodUnknown},
		{"URL with six-digit suffix rejected", types.Reference{RawEntry: "https://arxiv.org/abs/2309.150281"}, "", types.MethodUnknown},
		{"overlong prefix falls back to field", types.Reference{RawEntry: "arXiv:2309.150281", ArxivID: "2309.15028"}, "2309.15028", types.MethodField},
		{"field fallback", types.Reference{RawEntry: "Scaling laws.", ArxivID: "2001.08361v2"}, "2001.08361", types.MethodField},
		{"raw text wins over field", types.Reference{RawEntry: "arXiv:1111.22222", ArxivID: "2222.33333"}, "1111.22222", types.MethodPattern},
		{"old-style field rejected", types.Reference{RawEntry: "String theory.", ArxivID: "hep-th/9901001"}, "", types.MethodUnknown},
		{"empty", types.Reference{}, "", types.MethodUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, method := ResolveReference(tt.ref)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantMethod, method)
		})
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2301.07041", "2301.07041"},
		{"2301.07041v2", "2301.07041"},
		{"arXiv:2301.07041v12", "2301.07041"},
		{"ARXIV:2301.07041", "2301.07041"},
		{"  2301.07041  ", "2301.07041"},
		{"review", "review"},
		{"v2", "v2"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIdentifier(tt.in))
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("2309.15028"))
	assert.True(t, ValidIdentifier("0704.0001"))
	assert.False(t, ValidIdentifier("2309.150"))
	assert.False(t, ValidIdentifier("2309.150281"))
	assert.False(t, ValidIdentifier("23091.5028"))
	assert.False(t, ValidIdentifier("2309.15028v1"))
}

func citationScan() *types.ScanResult {
	return &types.ScanResult{
		Citations: []types.Citation{
			{Key: "vaswani", Command: "citep", Context: "attention", FileName: "main.tex", LineNumber: 3},
			{Key: "missing", Command: "cite", FileName: "main.tex", LineNumber: 4},
			{Key: "nature", Command: "cite", FileName: "main.tex", LineNumber: 5},
			{Key: "vaswani", Command: "cite", FileName: "intro.tex", LineNumber: 9},
			{Key: "missing", Command: "cite", FileName: "main.tex", LineNumber: 12},
		},
		References: map[string]types.Reference{
			"vaswani": {Key: "vaswani", RawEntry: "Attention is all you need. arXiv:1706.03762"},
			"nature":  {Key: "nature", RawEntry: "Deep learning. Nature 521, 2015."},
		},
	}
}

func TestResolveCitations(t *testing.T) {
	var log strings.Builder
	got := ResolveCitations(citationScan(), &log)
	require.Len(t, got, 3)

	assert.Equal(t, types.ResolvedCitation{
		CitationKey:     "vaswani",
		Context:         "attention",
		Command:         "citep",
		RawReference:    "Attention is all you need. arXiv:1706.03762",
		FileName:        "main.tex",
		LineNumber:      3,
		Identifier:      "1706.03762",
		Method:          types.MethodPattern,
		ConfidenceScore: 1.0,
	}, got[0])

	assert.Equal(t, "nature", got[1].CitationKey)
	assert.False(t, got[1].Resolved())
	assert.Equal(t, types.MethodUnknown, got[1].Method)
	assert.Zero(t, got[1].ConfidenceScore)

	assert.Equal(t, "1706.03762", got[2].Identifier)
	assert.Equal(t, "intro.tex", got[2].FileName)

	// A missing key is reported once however often it is cited.
	assert.Equal(t, 1, strings.Count(log.String(), "no reference found for citation key missing"))
	assert.Contains(t, log.String(), "unresolved nature")
}

func TestDistinctIdentifiers(t *testing.T) {
	cs := []types.ResolvedCitation{
		{Identifier: "2222.22222"},
		{Identifier: ""},
		{Identifier: "1111.11111"},
		{Identifier: "2222.22222"},
		{Identifier: "3333.33333"},
		{Identifier: "2222.22222"},
	}
	order, counts := DistinctIdentifiers(cs)
	assert.Equal(t, []string{"2222.22222", "1111.11111", "3333.33333"}, order)
	assert.Equal(t, map[string]int{"2222.22222": 3, "1111.11111": 1, "3333.33333": 1}, counts)
}

func TestDistinctIdentifiers_Empty(t *testing.T) {
	order, counts := DistinctIdentifiers(nil)
	assert.Empty(t, order)
	assert.Empty(t, counts)
}
