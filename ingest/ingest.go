// Package ingest builds vector indexes from source documents: files are
// loaded, split into overlapping chunks, embedded and persisted into a
// store directory that the chatbot can later bind to.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/smallnest/finchat/log"
	"github.com/smallnest/finchat/rag"
	"github.com/smallnest/finchat/store"
)

// UploadReadyMessage is appended to the conversation after a successful
// user upload.
const UploadReadyMessage = "Uploaded files are ready for querying."

// Pipeline loads, chunks and embeds documents into a persisted index.
type Pipeline struct {
	embedder     embeddings.Embedder
	chunkSize    int
	chunkOverlap int
	logger       log.Logger
}

// New creates a pipeline chunking with the given size and overlap.
func New(embedder embeddings.Embedder, chunkSize, chunkOverlap int) *Pipeline {
	return &Pipeline{
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       log.GetDefaultLogger(),
	}
}

func (p *Pipeline) splitter() textsplitter.RecursiveCharacter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
}

// LoadFile loads one document and splits it into chunks. PDF, plain text
// and markdown files are supported; every chunk carries the source path
// in its metadata so references can link back to the file.
func (p *Pipeline) LoadFile(ctx context.Context, path string) ([]rag.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var loaded []schema.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		loaded, err = documentloaders.NewPDF(f, info.Size()).LoadAndSplit(ctx, p.splitter())
		if err != nil {
			return nil, fmt.Errorf("failed to load PDF %s: %w", path, err)
		}
	case ".txt", ".md":
		loaded, err = documentloaders.NewText(f).LoadAndSplit(ctx, p.splitter())
		if err != nil {
			return nil, fmt.Errorf("failed to load text %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	docs := make([]rag.Document, 0, len(loaded))
	for _, d := range loaded {
		metadata := make(map[string]any, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			metadata[k] = v
		}
		metadata["source"] = path
		docs = append(docs, rag.Document{Content: d.PageContent, Metadata: metadata})
	}

	p.logger.Debug("loaded %s into %d chunks", path, len(docs))
	return docs, nil
}

// IngestFiles loads every listed file and persists the embedded chunks
// under persistDir, creating the index if needed. Returns the number of
// chunks written.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string, persistDir string) (int, error) {
	if len(paths) == 0 {
		return 0, fmt.Errorf("no files to ingest")
	}

	var docs []rag.Document
	for _, path := range paths {
		chunks, err := p.LoadFile(ctx, path)
		if err != nil {
			return 0, err
		}
		docs = append(docs, chunks...)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no content extracted from %d files", len(paths))
	}

	st, err := store.Create(persistDir, p.embedder)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	if err := st.AddDocuments(ctx, docs); err != nil {
		return 0, err
	}

	p.logger.Info("indexed %d chunks from %d files into %s", len(docs), len(paths), persistDir)
	return len(docs), nil
}

// BuildIndex ingests every supported document under sourceDir into
// persistDir. Returns the number of chunks written.
func (p *Pipeline) BuildIndex(ctx context.Context, sourceDir, persistDir string) (int, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read source directory %s: %w", sourceDir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".txt", ".md":
			paths = append(paths, filepath.Join(sourceDir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no supported documents in %s", sourceDir)
	}

	return p.IngestFiles(ctx, paths, persistDir)
}
