package ingest

import (
	"context"

	"github.com/castforge/castforge/internal/domain"
	"github.com/castforge/castforge/internal/extract"
)

// PageExtractor pulls per-page text out of an uploaded PDF.
type PageExtractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]extract.Page, error)
}

// VideoExtractor resolves YouTube transcripts and titles.
type VideoExtractor interface {
	Transcript(ctx context.Context, videoID string) (string, error)
	Title(ctx context.Context, videoURL string) (string, error)
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store writes and queries the vector index.
type Store interface {
	Upsert(ctx context.Context, records []domain.Record) error
	Query(ctx context.Context, q domain.Query) ([]domain.QueryMatch, error)
}
