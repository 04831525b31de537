package chat

import (
	"context"

	"github.com/castforge/castforge/internal/domain"
)

// Retriever fetches chunks semantically or by source scan.
type Retriever interface {
	Semantic(ctx context.Context, query string, filter domain.Filter, topK int) ([]domain.Match, error)
	ScanBySource(ctx context.Context, filter domain.Filter, topK int) ([]domain.Match, error)
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, params domain.CompletionParams) (string, error)
}
