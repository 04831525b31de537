// Package pinecone implements domain.VectorStore over the Pinecone index
// REST API (query and upsert). The used surface is small enough that the two
// endpoints are called directly rather than through an SDK.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/castforge/castforge/internal/domain"
)

// Store is a Pinecone-backed vector store.
type Store struct {
	host   string
	apiKey string
	client *http.Client
}

// Config holds Pinecone index connection settings.
type Config struct {
	// Host is the index endpoint, e.g. https://idx-xxxx.svc.pinecone.io.
	Host   string
	APIKey string
	// Client overrides the HTTP client (tests). Nil uses a 60s-timeout default.
	Client *http.Client
}

// New creates a Pinecone store.
func New(cfg Config) *Store {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Store{host: cfg.Host, apiKey: cfg.APIKey, client: client}
}

type upsertRequest struct {
	Vectors []vector `json:"vectors"`
}

type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Upsert writes records to the index. IDs overwrite; the caller batches.
func (s *Store) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	req := upsertRequest{Vectors: make([]vector, len(records))}
	for i, r := range records {
		req.Vectors[i] = vector{ID: r.ID, Values: r.Values, Metadata: r.Metadata}
	}

	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := s.post(ctx, "/vectors/upsert", req, &resp); err != nil {
		return fmt.Errorf("pinecone upsert: %w", err)
	}
	return nil
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Filter          map[string]any `json:"filter,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Query runs a similarity query with a metadata equality filter.
func (s *Store) Query(ctx context.Context, q domain.Query) ([]domain.QueryMatch, error) {
	req := queryRequest{
		Vector:          q.Vector,
		TopK:            q.TopK,
		IncludeMetadata: true,
		Filter:          encodeFilter(q.Filter),
	}

	var resp queryResponse
	if err := s.post(ctx, "/query", req, &resp); err != nil {
		return nil, fmt.Errorf("pinecone query: %w: %w", err, domain.ErrRetrieval)
	}

	matches := make([]domain.QueryMatch, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = domain.QueryMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	return matches, nil
}

// encodeFilter renders the Pinecone $eq filter expression. Type is always
// present; source only when scoped.
func encodeFilter(f domain.Filter) map[string]any {
	filter := map[string]any{
		"type": map[string]any{"$eq": string(f.Type)},
	}
	if f.Source != "" {
		filter["source"] = map[string]any{"$eq": f.Source}
	}
	return filter
}

func (s *Store) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("pinecone %s: %w", path, domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pinecone %s returned %d: %s", path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
