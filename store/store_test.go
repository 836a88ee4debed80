package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/finchat/rag"
)

// keywordEmbedder is a deterministic test embedder: each dimension counts
// occurrences of one keyword.
type keywordEmbedder struct {
	keywords []string
}

func newKeywordEmbedder(keywords ...string) *keywordEmbedder {
	return &keywordEmbedder{keywords: keywords}
}

func (e *keywordEmbedder) embed(text string) []float32 {
	vec := make([]float32, len(e.keywords))
	lower := strings.ToLower(text)
	for i, kw := range e.keywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	return vec
}

func (e *keywordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *keywordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func sampleDocs() []rag.Document {
	return []rag.Document{
		{Content: "revenue revenue revenue", Metadata: map[string]any{"source": "a.pdf", "page": 1}},
		{Content: "ebitda margin expanded", Metadata: map[string]any{"source": "b.pdf", "page": 2}},
		{Content: "revenue and ebitda both grew", Metadata: map[string]any{"source": "c.pdf", "page": 3}},
	}
}

func TestInMemoryStoreSearchOrdering(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder("revenue", "ebitda")
	s := NewInMemoryStore(embedder)

	require.NoError(t, s.AddDocuments(ctx, sampleDocs()))
	assert.Equal(t, 3, s.Len())

	docs, err := s.SimilaritySearch(ctx, "ebitda", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "ebitda margin expanded", docs[0].Content)
}

func TestInMemoryStoreKLargerThanCorpus(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(newKeywordEmbedder("revenue", "ebitda"))

	require.NoError(t, s.AddDocuments(ctx, sampleDocs()))

	docs, err := s.SimilaritySearch(ctx, "revenue", 10)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestInMemoryStoreEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(newKeywordEmbedder("x"))

	docs, err := s.SimilaritySearch(ctx, "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestInMemoryStoreRejectsNonPositiveK(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(newKeywordEmbedder("x"))

	_, err := s.SimilaritySearch(ctx, "anything", 0)
	assert.Error(t, err)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	embedder := newKeywordEmbedder("revenue", "ebitda")

	s, err := Create(dir, embedder)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.AddDocuments(ctx, sampleDocs()))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	docs, err := s.SimilaritySearch(ctx, "ebitda", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ebitda margin expanded", docs[0].Content)
	assert.Equal(t, "b.pdf", docs[0].Metadata["source"])
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	embedder := newKeywordEmbedder("revenue", "ebitda")

	s, err := Create(dir, embedder)
	require.NoError(t, err)
	require.NoError(t, s.AddDocuments(ctx, sampleDocs()))
	require.NoError(t, s.Close())

	reopened, err := Open(dir, embedder)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOpenMissingDirectory(t *testing.T) {
	_, err := Open("/nonexistent/persist/dir", newKeywordEmbedder("x"))
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity32([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity32([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity32([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosineSimilarity32([]float32{0, 0}, []float32{1, 1}))
}
