// Package store provides the vector stores backing document retrieval: an
// in-memory implementation for tests and ingestion previews, and a
// SQLite-backed implementation persisted to a directory on disk. Both
// satisfy the VectorStore contract the chatbot consumes: embed the query,
// scan for the nearest document chunks by cosine similarity, return at
// most k of them, most relevant first.
package store
