package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/smallnest/finchat/rag"
)

// IndexFileName is the SQLite database file created inside a persist
// directory.
const IndexFileName = "index.db"

// SQLiteStore is a vector store persisted to a SQLite database inside a
// persist directory. Embeddings are stored as JSON-encoded float32 arrays
// and search is an exact cosine scan; index structure internals (HNSW,
// IVF) are out of scope here.
type SQLiteStore struct {
	db       *sql.DB
	embedder embeddings.Embedder
}

var (
	_ VectorStore = (*SQLiteStore)(nil)
	_ Indexer     = (*SQLiteStore)(nil)
)

// Open opens the vector store persisted under dir. The directory must
// already exist; a missing directory means no index has been built there
// yet and the caller should surface that, not create an empty one.
func Open(dir string, embedder embeddings.Embedder) (*SQLiteStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("persist directory %s not available: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("persist path %s is not a directory", dir)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, IndexFileName))
	if err != nil {
		return nil, fmt.Errorf("unable to open index: %w", err)
	}

	s := &SQLiteStore{db: db, embedder: embedder}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Create makes dir (if needed) and opens a fresh store there. Used by
// ingestion when building a new index.
func Create(dir string, embedder embeddings.Embedder) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create persist directory: %w", err)
	}
	return Open(dir, embedder)
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL,
			embedding TEXT NOT NULL
		);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// AddDocuments embeds the documents and persists them.
func (s *SQLiteStore) AddDocuments(ctx context.Context, docs []rag.Document) error {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, content, metadata, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		embeddingJSON, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, uuid.NewString(), doc.Content, string(metadataJSON), string(embeddingJSON)); err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
	}

	return tx.Commit()
}

// SimilaritySearch embeds the query, scans all stored chunks and returns
// the k nearest by cosine similarity.
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, query string, k int) ([]rag.Document, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT content, metadata, embedding FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	type scored struct {
		doc   rag.Document
		score float64
	}

	var scores []scored
	for rows.Next() {
		var content, metadataJSON, embeddingJSON string
		if err := rows.Scan(&content, &metadataJSON, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("corrupted metadata in index: %w", err)
		}
		var embedding []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			return nil, fmt.Errorf("corrupted embedding in index: %w", err)
		}

		scores = append(scores, scored{
			doc:   rag.Document{Content: content, Metadata: metadata},
			score: cosineSimilarity32(queryVec, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]rag.Document, k)
	for i := 0; i < k; i++ {
		results[i] = scores[i].doc
	}
	return results, nil
}

// Count returns the number of stored chunks.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
