// Package redisvec implements domain.VectorStore on Redis 8+ via rueidis,
// storing chunks as hashes and searching with FT.SEARCH KNN. It is the
// self-hosted alternative to the Pinecone driver.
package redisvec

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/castforge/castforge/internal/domain"
)

// Store is a Redis-backed vector store.
type Store struct {
	client    rueidis.Client
	keyPrefix string
	dim       int
}

// Config holds connection parameters for the Redis store.
type Config struct {
	Addrs     []string
	Password  string
	KeyPrefix string
	// Dim is the index vector dimension.
	Dim int
}

// New creates a Redis store and ensures the chunk index exists.
func New(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	dim := cfg.Dim
	if dim <= 0 {
		dim = domain.DefaultVectorDim
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, keyPrefix: cfg.KeyPrefix, dim: dim}, nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or the timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for redis: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) indexName() string { return s.keyPrefix + "idx" }

func (s *Store) chunkKey(id string) string { return s.keyPrefix + "chunk:" + id }

// EnsureIndex creates the FT index over chunk hashes if it does not exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	args := []string{
		s.indexName(), "ON", "HASH",
		"PREFIX", "1", s.keyPrefix + "chunk:",
		"SCHEMA",
		"type", "TAG",
		"source", "TAG",
		"chunk", "NUMERIC",
		"pageNumber", "NUMERIC",
		"vector", "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dim),
		"DISTANCE_METRIC", "COSINE",
	}

	cmd := s.client.B().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "index already exists") {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert writes records as hashes in a single pipeline. IDs overwrite.
func (s *Store) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(records))
	for _, r := range records {
		hset := s.client.B().Hset().Key(s.chunkKey(r.ID)).FieldValue()
		hset = hset.FieldValue("vector", vectorToBytes(r.Values))
		for k, v := range r.Metadata {
			hset = hset.FieldValue(k, metadataToString(v))
		}
		cmds = append(cmds, hset.Build())
	}

	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("hset chunk: %w", err)
		}
	}
	return nil
}

// Query runs an FT.SEARCH query pre-filtered on type and source tags.
func (s *Store) Query(ctx context.Context, q domain.Query) ([]domain.QueryMatch, error) {
	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(buildSearchArgs(s.indexName(), q)...).Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("ft.search: %w: %w", err, domain.ErrRetrieval)
	}

	return parseSearchResult(raw, s.keyPrefix+"chunk:")
}

// buildSearchArgs assembles the FT.SEARCH arguments. A zero query vector
// means a metadata-only scan; cosine distance to the zero vector is
// undefined, so the KNN clause is replaced with a plain filter search.
func buildSearchArgs(index string, q domain.Query) []string {
	filter := fmt.Sprintf("@type:{%s}", q.Filter.Type)
	if q.Filter.Source != "" {
		filter += fmt.Sprintf(" @source:{%s}", escapeTag(q.Filter.Source))
	}

	if isZeroVector(q.Vector) {
		return []string{
			index, filter,
			"RETURN", "6", "text", "source", "type", "chunk", "pageNumber", "title",
			"LIMIT", "0", strconv.Itoa(q.TopK),
			"DIALECT", "2",
		}
	}

	return []string{
		index, fmt.Sprintf("(%s)=>[KNN %d @vector $BLOB]", filter, q.TopK),
		"RETURN", "7", "text", "source", "type", "chunk", "pageNumber", "title", "__vector_score",
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	}
}

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// parseSearchResult converts the RESP2 reply into matches.
// Layout: [total, key1, fields1, key2, fields2, ...].
func parseSearchResult(raw []rueidis.RedisMessage, keyPrefix string) ([]domain.QueryMatch, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	matches := make([]domain.QueryMatch, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		fields := parseFieldPairs(fieldArr)
		match := domain.QueryMatch{
			ID:       strings.TrimPrefix(key, keyPrefix),
			Metadata: fieldsToMetadata(fields),
		}
		if distStr, ok := fields["__vector_score"]; ok {
			if dist, err := strconv.ParseFloat(distStr, 64); err == nil {
				match.Score = max(0, 1.0-dist) // cosine distance → similarity, clamped to [0,1]
			}
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func parseFieldPairs(arr []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		k, err := arr[i].ToString()
		if err != nil {
			continue
		}
		v, err := arr[i+1].ToString()
		if err != nil {
			continue
		}
		fields[k] = v
	}
	return fields
}

// fieldsToMetadata rebuilds the wire metadata map from flat hash fields,
// restoring numeric types so the tagged-union validation sees what the
// Pinecone driver would return.
func fieldsToMetadata(fields map[string]string) map[string]any {
	meta := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case "__vector_score", "vector":
			// score handled separately; the raw vector is never surfaced
		case "chunk", "pageNumber":
			if n, err := strconv.Atoi(v); err == nil {
				meta[k] = n
			}
		default:
			meta[k] = v
		}
	}
	return meta
}

// vectorToBytes encodes float32 values as little-endian binary for the
// VECTOR field blob.
func vectorToBytes(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return rueidis.BinaryString(buf)
}

func metadataToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// escapeTag escapes characters with TAG syntax meaning (source IDs are file
// names and may contain dots or dashes).
var tagEscaper = strings.NewReplacer(
	",", "\\,", ".", "\\.", "<", "\\<", ">", "\\>", "{", "\\{", "}", "\\}",
	"[", "\\[", "]", "\\]", "\"", "\\\"", "'", "\\'", ":", "\\:", ";", "\\;",
	"!", "\\!", "@", "\\@", "#", "\\#", "$", "\\$", "%", "\\%", "^", "\\^",
	"&", "\\&", "*", "\\*", "(", "\\(", ")", "\\)", "-", "\\-", "+", "\\+",
	"=", "\\=", "~", "\\~", " ", "\\ ",
)

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}
