// Package vectorstore defines the contract this service requires from a
// nearest-neighbor store. The store is treated as a black box: the index
// itself lives elsewhere.
package vectorstore

import "context"

// Vector is one stored item. Upserts are idempotent by ID.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

// Match is a query candidate, ordered by similarity (higher = closer).
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

type QueryOptions struct {
	TopK int
	// Filter restricts matches to vectors whose metadata contains every
	// key/value pair.
	Filter map[string]string
	// IncludeValues returns stored embeddings with each match.
	IncludeValues bool
}

type Stats struct {
	VectorCount int `json:"vector_count"`
}

type VectorStore interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error)
	DeleteByIDs(ctx context.Context, ids []string) error
	DescribeStats(ctx context.Context) (*Stats, error)
}
