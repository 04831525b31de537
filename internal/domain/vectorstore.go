package domain

import "context"

// Record is a single vector upsert payload.
type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Filter scopes a query by content type and, optionally, source ID.
// Every retrieval must scope by both to avoid cross-source leakage; an empty
// Source is only valid for unscoped overview queries.
type Filter struct {
	Type   ContentType
	Source string
}

// Query is a similarity query against the vector store.
type Query struct {
	Vector []float32
	TopK   int
	Filter Filter
}

// QueryMatch is a raw store hit before metadata validation.
type QueryMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorStore is the storage contract. Implementations are eventually
// consistent and offer no transactional guarantees; upserts overwrite by ID.
type VectorStore interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, q Query) ([]QueryMatch, error)
}
