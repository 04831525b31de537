package podcast

import (
	"context"

	"github.com/castforge/castforge/internal/domain"
)

// Retriever fetches chunks for a source. Seed retrieval is unthresholded:
// scripts cover the whole source, so low-scoring chunks stay in.
type Retriever interface {
	SemanticAll(ctx context.Context, query string, filter domain.Filter, topK int) ([]domain.Match, error)
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, params domain.CompletionParams) (string, error)
}
