package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/smallnest/finchat/rag"
)

// InMemoryStore is a simple in-memory vector store. It is used by tests
// and as a scratch index while previewing uploaded documents.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents []rag.Document
	vectors   [][]float32
	embedder  embeddings.Embedder
}

var (
	_ VectorStore = (*InMemoryStore)(nil)
	_ Indexer     = (*InMemoryStore)(nil)
)

// NewInMemoryStore creates an empty in-memory vector store.
func NewInMemoryStore(embedder embeddings.Embedder) *InMemoryStore {
	return &InMemoryStore{
		embedder: embedder,
	}
}

// AddDocuments embeds and stores the given documents.
func (s *InMemoryStore) AddDocuments(ctx context.Context, docs []rag.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, docs...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// SimilaritySearch embeds the query and returns the k nearest documents by
// cosine similarity.
func (s *InMemoryStore) SimilaritySearch(ctx context.Context, query string, k int) ([]rag.Document, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.documents) == 0 {
		return []rag.Document{}, nil
	}

	type scored struct {
		index int
		score float64
	}

	scores := make([]scored, len(s.documents))
	for i, vec := range s.vectors {
		scores[i] = scored{index: i, score: cosineSimilarity32(queryVec, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]rag.Document, k)
	for i := 0; i < k; i++ {
		results[i] = s.documents[scores[i].index]
	}
	return results, nil
}

// Len returns the number of stored documents.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Close clears the store.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = nil
	s.vectors = nil
	return nil
}
