package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumbersSectionsContiguously(t *testing.T) {
	f := NewReferenceFormatter("http://localhost:8000")

	docs := []Document{
		{Content: "EBITDA measures operating performance.", Metadata: map[string]any{"source": "/data/docs/a.pdf", "page": 3}},
		{Content: "   ", Metadata: map[string]any{"source": "/data/docs/skip.pdf", "page": 1}}, // dropped
		{Content: "Net revenue grew 12% year over year.", Metadata: map[string]any{"source": "/data/docs/b.pdf", "page": 7}},
	}

	result := f.Format(docs)
	require.Equal(t, 2, result.Kept)
	require.Equal(t, 1, result.Dropped)

	assert.Contains(t, result.References, "# Retrieved content 1:")
	assert.Contains(t, result.References, "# Retrieved content 2:")
	assert.NotContains(t, result.References, "# Retrieved content 3:")

	assert.Contains(t, result.References, "Source: a.pdf | Page number: 3 | [View PDF](http://localhost:8000/a.pdf)")
	assert.Contains(t, result.References, "Source: b.pdf | Page number: 7 | [View PDF](http://localhost:8000/b.pdf)")
}

func TestFormatEmptyInput(t *testing.T) {
	f := NewReferenceFormatter("http://localhost:8000")

	result := f.Format(nil)
	assert.Equal(t, NoDocumentsFound, result.References)
	assert.Zero(t, result.Kept)
	assert.Zero(t, result.Dropped)
}

func TestFormatAllDocumentsDropped(t *testing.T) {
	f := NewReferenceFormatter("http://localhost:8000")

	docs := []Document{
		{Content: "", Metadata: map[string]any{"source": "a.pdf"}},
		{Content: " <EOS> <pad> ", Metadata: map[string]any{"source": "b.pdf"}},
	}

	result := f.Format(docs)
	assert.Equal(t, NoDocumentsFound, result.References)
	assert.Equal(t, 2, result.Dropped)
}

func TestFormatMissingMetadataDefaults(t *testing.T) {
	f := NewReferenceFormatter("http://localhost:8000")

	result := f.Format([]Document{{Content: "orphan passage"}})
	assert.Contains(t, result.References, "Source: Unknown source")
	assert.Contains(t, result.References, "Page number: N/A")
}

func TestFormatRawFallback(t *testing.T) {
	f := NewReferenceFormatter("http://localhost:8000")

	raws := []string{
		`page_content='Total assets were $4.2B.' metadata={'source': '/srv/docs/report.pdf', 'page': 12}`,
		`garbage that matches nothing`,
	}

	result := f.FormatRaw(raws)
	require.Equal(t, 1, result.Kept)
	assert.Equal(t, 1, result.Dropped)
	assert.Contains(t, result.References, "# Retrieved content 1:")
	assert.Contains(t, result.References, "Total assets were $4.2B.")
	assert.Contains(t, result.References, "Source: report.pdf | Page number: 12 | [View PDF](http://localhost:8000/report.pdf)")
}

func TestFormatRawAllUnparseable(t *testing.T) {
	f := NewReferenceFormatter("http://localhost:8000")

	result := f.FormatRaw([]string{"nope", "also nope"})
	assert.Equal(t, NoDocumentsFound, result.References)
	assert.Equal(t, 2, result.Dropped)
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "escaped newlines",
			in:   `line one\nline two`,
			want: "line one line two",
		},
		{
			name: "sentinel tokens",
			in:   "before <EOS> <pad> after",
			want: "before after",
		},
		{
			name: "whitespace collapse",
			in:   "  too   many\t spaces \n here ",
			want: "too many spaces here",
		},
		{
			name: "html entities",
			in:   "profit &amp; loss",
			want: "profit & loss",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanContent(tt.in))
		})
	}
}

func TestCleanContentIdempotent(t *testing.T) {
	inputs := []string{
		`quarterly \n results <EOS> <pad> for   2023`,
		"already clean text",
		"entity &lt;kept&gt; once",
	}

	for _, in := range inputs {
		once := CleanContent(in)
		twice := CleanContent(once)
		assert.Equal(t, once, twice, "cleaning should be idempotent for %q", in)
	}
}

func TestFormatManyDocuments(t *testing.T) {
	f := NewReferenceFormatter("http://localhost:8000")

	var docs []Document
	for i := 0; i < 10; i++ {
		docs = append(docs, Document{
			Content:  fmt.Sprintf("passage %d", i),
			Metadata: map[string]any{"source": fmt.Sprintf("doc%d.pdf", i), "page": i},
		})
	}

	result := f.Format(docs)
	require.Equal(t, 10, result.Kept)
	for i := 1; i <= 10; i++ {
		assert.True(t, strings.Contains(result.References, fmt.Sprintf("# Retrieved content %d:", i)))
	}
}
