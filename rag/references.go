package rag

import (
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/smallnest/finchat/log"
)

// NoDocumentsFound is returned by the formatter when nothing was retrieved
// or when every retrieved document failed to parse. Callers that need to
// tell those cases apart should check FormatResult.Dropped.
const NoDocumentsFound = "no documents found"

var (
	escapedNewlinePattern = regexp.MustCompile(`\\n`)
	sentinelTokenPattern  = regexp.MustCompile(`\s*<EOS>\s*<pad>\s*`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
)

// FormatResult carries the rendered reference block plus counts of how many
// documents survived cleaning and how many were dropped.
type FormatResult struct {
	References string
	Kept       int
	Dropped    int
}

// ReferenceFormatter renders retrieved documents as a numbered markdown
// reference block. Each entry links back to the source file through a
// companion file server, so ServerURL must match the address that server
// listens on.
type ReferenceFormatter struct {
	ServerURL string
	logger    log.Logger
}

// NewReferenceFormatter creates a formatter that builds viewer links
// against serverURL.
func NewReferenceFormatter(serverURL string) *ReferenceFormatter {
	return &ReferenceFormatter{
		ServerURL: strings.TrimSuffix(serverURL, "/"),
		logger:    log.GetDefaultLogger(),
	}
}

// Format renders the documents as a reference block. Documents whose
// content is empty after cleaning are dropped and do not reserve a section
// number; numbering is contiguous from 1. An empty input, or an input where
// every document was dropped, yields the NoDocumentsFound marker.
func (f *ReferenceFormatter) Format(docs []Document) FormatResult {
	var b strings.Builder
	counter := 1
	dropped := 0

	for _, doc := range docs {
		content := CleanContent(doc.Content)
		if content == "" {
			f.logger.Warn("dropping retrieved document from %s: empty after cleaning", doc.Source())
			dropped++
			continue
		}

		basename := filepath.Base(doc.Source())
		viewerURL := f.ServerURL + "/" + basename

		fmt.Fprintf(&b, "# Retrieved content %d:\n%s\n\n", counter, content)
		fmt.Fprintf(&b, "Source: %s | Page number: %s | [View PDF](%s)\n\n",
			basename, doc.Page(), viewerURL)
		counter++
	}

	if counter == 1 {
		return FormatResult{References: NoDocumentsFound, Dropped: dropped}
	}
	return FormatResult{References: b.String(), Kept: counter - 1, Dropped: dropped}
}

// FormatRaw renders stringified document representations, parsing each one
// with ParseRawDocument first. A document that fails to parse is skipped
// with a logged warning; the rest of the block is still produced.
func (f *ReferenceFormatter) FormatRaw(raws []string) FormatResult {
	docs := make([]Document, 0, len(raws))
	failed := 0
	for _, raw := range raws {
		doc, err := ParseRawDocument(raw)
		if err != nil {
			f.logger.Warn("skipping unparseable document: %v", err)
			failed++
			continue
		}
		docs = append(docs, doc)
	}

	result := f.Format(docs)
	result.Dropped += failed
	if result.Kept == 0 {
		result.References = NoDocumentsFound
	}
	return result
}

// CleanContent normalizes the text of a retrieved document: backslash
// escaped newlines become real newlines, end-of-sequence and padding
// sentinels become a single space, runs of whitespace collapse to one
// space, and HTML entities are decoded. Cleaning is idempotent.
func CleanContent(content string) string {
	content = escapedNewlinePattern.ReplaceAllString(content, "\n")
	content = sentinelTokenPattern.ReplaceAllString(content, " ")
	content = whitespacePattern.ReplaceAllString(content, " ")
	content = strings.TrimSpace(content)
	return html.UnescapeString(content)
}
