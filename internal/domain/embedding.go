package domain

import "context"

// DefaultVectorDim is the native output dimension of the default embedding
// model (Gemini embedding-001).
const DefaultVectorDim = 768

// Embedder is the shared text vectorization contract between layers.
// Provider failures wrap ErrEmbeddingProvider; callers propagate, never retry.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// ZeroVector returns the all-zero query vector used for metadata-only scans.
// Similarity scores against it are meaningless; see retrieval.ScanBySource.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// AdjustDimension pads a vector with zeros or truncates it to the target
// dimension. This is a lossy compatibility shim for stores whose index
// dimension differs from the provider's native output; the adjusted vector
// carries no semantic meaning beyond the original dimensions.
func AdjustDimension(vec []float32, target int) []float32 {
	if len(vec) == target {
		return vec
	}
	if len(vec) > target {
		return vec[:target]
	}
	out := make([]float32, target)
	copy(out, vec)
	return out
}
