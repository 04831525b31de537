// Package retrieval turns questions into scored, validated chunk matches.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/castforge/castforge/internal/domain"
	"github.com/castforge/castforge/internal/logger"
)

// minScore is the similarity threshold applied after every semantic query.
const minScore = 0.7

// maxScanTopK bounds metadata-only scans.
const maxScanTopK = 100

// Service handles chunk retrieval against the vector store.
type Service struct {
	store Store
	embed Embedder
	dim   int
}

// New creates a retrieval service. dim is the index vector dimension.
func New(store Store, embed Embedder, dim int) *Service {
	if dim <= 0 {
		dim = domain.DefaultVectorDim
	}
	return &Service{store: store, embed: embed, dim: dim}
}

// Semantic embeds the query, runs a filtered similarity search, and keeps
// matches scoring above the threshold. An empty result is a valid outcome.
func (s *Service) Semantic(
	ctx context.Context, query string, filter domain.Filter, topK int,
) ([]domain.Match, error) {
	matches, err := s.semantic(ctx, query, filter, topK)
	if err != nil {
		return nil, err
	}

	kept := matches[:0]
	for _, m := range matches {
		if m.Score > minScore {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// SemanticAll is Semantic without the score threshold. Generic seed queries
// score low against most sources; callers assembling full-source content
// need every topK match, not just the close ones.
func (s *Service) SemanticAll(
	ctx context.Context, query string, filter domain.Filter, topK int,
) ([]domain.Match, error) {
	return s.semantic(ctx, query, filter, topK)
}

func (s *Service) semantic(
	ctx context.Context, query string, filter domain.Filter, topK int,
) ([]domain.Match, error) {
	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	raw, err := s.store.Query(ctx, domain.Query{
		Vector: domain.AdjustDimension(embResult.Embedding, s.dim),
		TopK:   topK,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	return s.parseMatches(ctx, raw, filter), nil
}

// ScanBySource fetches chunks for a source with a zero-vector query. Scores
// are meaningless in this mode and must not be compared or filtered on.
func (s *Service) ScanBySource(
	ctx context.Context, filter domain.Filter, topK int,
) ([]domain.Match, error) {
	if topK > maxScanTopK {
		topK = maxScanTopK
	}

	raw, err := s.store.Query(ctx, domain.Query{
		Vector: domain.ZeroVector(s.dim),
		TopK:   topK,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("scan query: %w", err)
	}

	return s.parseMatches(ctx, raw, filter), nil
}

// parseMatches validates raw store metadata against the chunk metadata union
// and re-checks the filter. Records that fail either are skipped, not fatal.
func (s *Service) parseMatches(
	ctx context.Context, raw []domain.QueryMatch, filter domain.Filter,
) []domain.Match {
	log := logger.FromContext(ctx)

	matches := make([]domain.Match, 0, len(raw))
	for _, r := range raw {
		meta, err := domain.ParseChunkMetadata(r.Metadata)
		if err != nil {
			log.Warn("skipping chunk with malformed metadata", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		if meta.Type() != filter.Type {
			continue
		}
		if filter.Source != "" && meta.SourceID() != filter.Source {
			continue
		}
		matches = append(matches, domain.Match{Meta: meta, Score: r.Score})
	}
	return matches
}
