// Package rag implements the hybrid dense/sparse retriever, agentic
// multi-step refinement and cross-lingual query normalization.
package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// Source tags which side of the fusion a result came from.
// result").
type Source int

const (
	SourceDense Source = iota
	SourceSparse
	SourceHybrid
)

func (s Source) String() string {
	switch s {
	case SourceDense:
		return "dense"
	case SourceSparse:
		return "sparse"
	case SourceHybrid:
		return "hybrid"
	}
	return "unknown"
}

// Result is one retrieval result.
type Result struct {
	ID              string
	Text            string
	Score           float64
	Metadata        map[string]string
	Source          Source
	RerankExitLayer int
	HasExitLayer    bool
}

// VectorStore is the dense-search boundary: Search(embedding, topK,
// optional filter) returns ranked results; EnsureCollection is an
// idempotent create. Distance metric is cosine.
type VectorStore interface {
	Search(ctx context.Context, embedding []float32, topK int, filter map[string]string) ([]Result, error)
	EnsureCollection(ctx context.Context) error
}

// SparseStore is the inverted-index search boundary consumed by the
// hybrid retriever's sparse side.
type SparseStore interface {
	Search(ctx context.Context, query string, topK int) ([]Result, error)
}

// Embedder computes a dense embedding for a query string, off the
// cooperative scheduler: callers are expected to invoke it from a
// blocking-pool-gated goroutine.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// InMemoryStore is the test/no-op VectorStore: a linear cosine-similarity
// scan over an in-memory document set, for tests and small corpora.
type InMemoryStore struct {
	docs []inMemoryDoc
}

type inMemoryDoc struct {
	id        string
	text      string
	embedding []float32
	metadata  map[string]string
}

func NewInMemoryStore() *InMemoryStore { return &InMemoryStore{} }

func (s *InMemoryStore) Add(id, text string, embedding []float32, metadata map[string]string) {
	s.docs = append(s.docs, inMemoryDoc{id: id, text: text, embedding: embedding, metadata: metadata})
}

func (s *InMemoryStore) EnsureCollection(ctx context.Context) error { return nil }

func (s *InMemoryStore) Search(ctx context.Context, embedding []float32, topK int, filter map[string]string) ([]Result, error) {
	type scored struct {
		doc   inMemoryDoc
		score float64
	}
	var candidates []scored
	for _, d := range s.docs {
		if !matchesFilter(d.metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{doc: d, score: cosineSimilarity(embedding, d.embedding)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{ID: c.doc.id, Text: c.doc.text, Score: c.score, Metadata: c.doc.metadata, Source: SourceDense}
	}
	return out, nil
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// NoopSparseStore is the test/no-op SparseStore: it returns no
// results for any query. A production deployment wires a real inverted
// index (e.g. an OpenSearch/Elasticsearch client) behind the same
// interface.
type NoopSparseStore struct{}

func NewNoopSparseStore() *NoopSparseStore { return &NoopSparseStore{} }

func (s *NoopSparseStore) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	return nil, nil
}

// NoopEmbedder is the test/no-op Embedder: it returns a zero vector
// of the requested dimension, making any InMemoryStore search against it
// score every document identically. A production deployment wires a real
// embedding model (local or API-backed) behind the same interface.
type NoopEmbedder struct {
	Dim int
}

func NewNoopEmbedder(dim int) *NoopEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &NoopEmbedder{Dim: dim}
}

func (e *NoopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, e.Dim), nil
}

// PGVectorStore is the production VectorStore: a PostgreSQL table with a
// pgvector column, queried by cosine distance (`<=>` operator).
type PGVectorStore struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewPGVectorStore wraps an existing pgx connection pool.
func NewPGVectorStore(pool *pgxpool.Pool, tableName string) *PGVectorStore {
	return &PGVectorStore{pool: pool, tableName: tableName}
}

// EnsureCollection idempotently creates the pgvector-backed table.
func (s *PGVectorStore) EnsureCollection(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding VECTOR(1536),
			metadata JSONB
		)`, s.tableName)
	_, err := s.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("rag: ensure collection: %w", err)
	}
	return nil
}

// Search performs a cosine-distance nearest-neighbour query, ordered by
// ascending distance (most similar first), mirrored back as descending
// similarity scores (1 - distance). A non-empty filter keeps only rows
// whose JSONB metadata contains every filter key/value pair.
func (s *PGVectorStore) Search(ctx context.Context, embedding []float32, topK int, filter map[string]string) ([]Result, error) {
	vec := pgvector.NewVector(embedding)
	args := []any{vec, topK}
	where := ""
	if len(filter) > 0 {
		where = "WHERE metadata @> $3::jsonb"
		args = append(args, filter)
	}
	q := fmt.Sprintf(`
		SELECT id, content, embedding <=> $1 AS distance
		FROM %s
		%s
		ORDER BY distance
		LIMIT $2`, s.tableName, where)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("rag: dense search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Result, error) {
		var (
			id, text string
			distance float64
		)
		if err := row.Scan(&id, &text, &distance); err != nil {
			return Result{}, err
		}
		return Result{ID: id, Text: text, Score: 1 - distance, Source: SourceDense}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("rag: scan rows: %w", err)
	}
	return results, nil
}
