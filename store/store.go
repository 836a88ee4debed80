package store

import (
	"context"
	"math"

	"github.com/smallnest/finchat/rag"
)

// VectorStore is the document store adapter contract consumed by the
// chatbot. SimilaritySearch returns at most k documents, most relevant
// first; no scores or distances are exposed.
type VectorStore interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]rag.Document, error)
	Close() error
}

// Indexer is the write side of a vector store, used by ingestion.
type Indexer interface {
	AddDocuments(ctx context.Context, docs []rag.Document) error
}

// cosineSimilarity32 calculates cosine similarity between two float32 vectors.
func cosineSimilarity32(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
