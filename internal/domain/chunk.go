package domain

import "fmt"

// ContentType discriminates the two kinds of indexed source material.
type ContentType string

const (
	// ContentDocument marks chunks extracted from an uploaded PDF.
	ContentDocument ContentType = "document"
	// ContentVideo marks chunks extracted from a YouTube transcript.
	ContentVideo ContentType = "video"
)

// Valid reports whether the content type is one of the known discriminants.
func (t ContentType) Valid() bool {
	return t == ContentDocument || t == ContentVideo
}

// Chunk is the atomic indexing unit: a bounded slice of source text with
// positional metadata and its embedding. Chunks are created once at ingestion
// and never mutated.
type Chunk struct {
	ID        string
	Text      string
	Source    string
	Type      ContentType
	Page      int // page number for documents, 0 for videos
	Seq       int // sequential chunk index within the source
	Title     string
	Embedding []float32
}

// ChunkID derives the globally unique record ID. Re-ingesting the same source
// with the same chunking produces the same IDs, making upserts idempotent.
func ChunkID(source string, seq int) string {
	return fmt.Sprintf("%s-%d", source, seq)
}

// Match is an ephemeral retrieval result: validated chunk metadata plus the
// similarity score of the query vector against the stored vector.
type Match struct {
	Meta  ChunkMetadata
	Score float64
}
