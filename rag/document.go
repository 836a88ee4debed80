package rag

import (
	"fmt"
	"regexp"
	"strings"
)

// Document is one retrieved passage together with its provenance metadata.
// The vector store produces these transiently per query; the pipeline never
// persists them.
type Document struct {
	Content  string
	Metadata map[string]any
}

// Source returns the source path recorded in the metadata, or
// "Unknown source" when the key is absent.
func (d Document) Source() string {
	if s, ok := d.Metadata["source"]; ok {
		return fmt.Sprintf("%v", s)
	}
	return "Unknown source"
}

// Page returns the page number recorded in the metadata rendered as a
// string, or "N/A" when the key is absent.
func (d Document) Page() string {
	if p, ok := d.Metadata["page"]; ok {
		return fmt.Sprintf("%v", p)
	}
	return "N/A"
}

var (
	rawContentPattern  = regexp.MustCompile(`(?s)page_content='(.*?)'\s*metadata=`)
	rawMetadataPattern = regexp.MustCompile(`(?s)metadata=(\{.*\})`)
	rawSourcePattern   = regexp.MustCompile(`'source':\s*'([^']*)'`)
	rawPagePattern     = regexp.MustCompile(`'page':\s*(\d+)`)
)

// ParseRawDocument parses the stringified debug representation of a
// retrieved document ("page_content='...' metadata={...}"). It exists only
// for store adapters that do not expose structured content and metadata;
// adapters that do should construct a Document directly.
func ParseRawDocument(text string) (Document, error) {
	contentMatch := rawContentPattern.FindStringSubmatch(text)
	if contentMatch == nil {
		return Document{}, fmt.Errorf("no page_content found in %q", truncate(text, 80))
	}

	metadataMatch := rawMetadataPattern.FindStringSubmatch(text)
	if metadataMatch == nil {
		return Document{}, fmt.Errorf("no metadata found in %q", truncate(text, 80))
	}

	metadata := make(map[string]any)
	if m := rawSourcePattern.FindStringSubmatch(metadataMatch[1]); m != nil {
		metadata["source"] = m[1]
	}
	if m := rawPagePattern.FindStringSubmatch(metadataMatch[1]); m != nil {
		metadata["page"] = m[1]
	}

	return Document{
		Content:  contentMatch[1],
		Metadata: metadata,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
