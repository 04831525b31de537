package retrieval

import (
	"context"

	"github.com/castforge/castforge/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store runs similarity queries against the vector index.
type Store interface {
	Query(ctx context.Context, q domain.Query) ([]domain.QueryMatch, error)
}
