// Package ingest turns uploaded documents and YouTube videos into embedded,
// indexed chunks.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/castforge/castforge/internal/chunker"
	"github.com/castforge/castforge/internal/domain"
	"github.com/castforge/castforge/internal/extract"
	"github.com/castforge/castforge/internal/logger"
)

// Config sets chunking and batching parameters.
type Config struct {
	DocumentChunkSize    int
	DocumentChunkOverlap int
	VideoChunkSize       int
	UpsertBatchSize      int
	// Dim is the index vector dimension.
	Dim int
}

// Service ingests sources into the vector store.
type Service struct {
	pages  PageExtractor
	videos VideoExtractor
	embed  Embedder
	store  Store
	cfg    Config
}

// New creates an ingest service.
func New(pages PageExtractor, videos VideoExtractor, embed Embedder, store Store, cfg Config) *Service {
	if cfg.Dim <= 0 {
		cfg.Dim = domain.DefaultVectorDim
	}
	if cfg.UpsertBatchSize <= 0 {
		cfg.UpsertBatchSize = 100
	}
	return &Service{pages: pages, videos: videos, embed: embed, store: store, cfg: cfg}
}

// DocumentResult reports what an ingestion did.
type DocumentResult struct {
	AlreadyProcessed bool
	Chunks           int
}

// Document extracts, chunks, embeds, and indexes a PDF. The source ID is the
// uploaded filename; re-ingesting an indexed source is a no-op.
func (s *Service) Document(ctx context.Context, filename string, data []byte) (DocumentResult, error) {
	pages, err := s.pages.ExtractPages(ctx, data)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("extract pages: %w", err)
	}

	exists, err := s.sourceExists(ctx, domain.Filter{Type: domain.ContentDocument, Source: filename})
	if err != nil {
		return DocumentResult{}, err
	}
	if exists {
		return DocumentResult{AlreadyProcessed: true}, nil
	}

	var chunks []*domain.Chunk
	seq := 0
	for _, page := range pages {
		for _, text := range chunker.SplitFixed(page.Text, s.cfg.DocumentChunkSize, s.cfg.DocumentChunkOverlap) {
			chunks = append(chunks, &domain.Chunk{
				ID:     domain.ChunkID(filename, seq),
				Text:   text,
				Source: filename,
				Type:   domain.ContentDocument,
				Page:   page.Number,
				Seq:    seq,
			})
			seq++
		}
	}
	if len(chunks) == 0 {
		return DocumentResult{}, domain.ErrNoText
	}

	if err := s.embedAll(ctx, chunks); err != nil {
		return DocumentResult{}, err
	}
	if err := s.upsertBatched(ctx, chunks); err != nil {
		return DocumentResult{}, err
	}

	logger.FromContext(ctx).Info("document indexed",
		zap.String("source", filename), zap.Int("chunks", len(chunks)))
	return DocumentResult{Chunks: len(chunks)}, nil
}

// VideoResult reports what a video ingestion did.
type VideoResult struct {
	VideoID          string
	AlreadyProcessed bool
	Chunks           int
}

// Video parses the video ID from the URL, fetches the transcript, and indexes
// it as fixed-size chunks with the video title attached.
func (s *Service) Video(ctx context.Context, videoURL string) (VideoResult, error) {
	videoID, err := extract.ParseVideoID(videoURL)
	if err != nil {
		return VideoResult{}, err
	}

	exists, err := s.sourceExists(ctx, domain.Filter{Type: domain.ContentVideo, Source: videoID})
	if err != nil {
		return VideoResult{}, err
	}
	if exists {
		return VideoResult{VideoID: videoID, AlreadyProcessed: true}, nil
	}

	title, err := s.videos.Title(ctx, videoURL)
	if err != nil {
		logger.FromContext(ctx).Warn("video title lookup failed", zap.String("videoId", videoID), zap.Error(err))
		title = ""
	}

	transcript, err := s.videos.Transcript(ctx, videoID)
	if err != nil {
		return VideoResult{}, fmt.Errorf("fetch transcript: %w", err)
	}

	var chunks []*domain.Chunk
	for seq, text := range chunker.SplitFixed(transcript, s.cfg.VideoChunkSize, 0) {
		chunks = append(chunks, &domain.Chunk{
			ID:     domain.ChunkID(videoID, seq),
			Text:   text,
			Source: videoID,
			Type:   domain.ContentVideo,
			Seq:    seq,
			Title:  title,
		})
	}
	if len(chunks) == 0 {
		return VideoResult{}, domain.ErrNoCaptions
	}

	if err := s.embedAll(ctx, chunks); err != nil {
		return VideoResult{}, err
	}
	if err := s.upsertBatched(ctx, chunks); err != nil {
		return VideoResult{}, err
	}

	logger.FromContext(ctx).Info("video indexed",
		zap.String("videoId", videoID), zap.Int("chunks", len(chunks)))
	return VideoResult{VideoID: videoID, Chunks: len(chunks)}, nil
}

// sourceExists probes the index with a zero-vector query. Any match means the
// source was already ingested and the whole run short-circuits.
func (s *Service) sourceExists(ctx context.Context, filter domain.Filter) (bool, error) {
	matches, err := s.store.Query(ctx, domain.Query{
		Vector: domain.ZeroVector(s.cfg.Dim),
		TopK:   1,
		Filter: filter,
	})
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return len(matches) > 0, nil
}

// embedAll vectorizes every chunk concurrently and waits for all of them.
// Any failure aborts the ingestion before anything is written.
func (s *Service) embedAll(ctx context.Context, chunks []*domain.Chunk) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range chunks {
		g.Go(func() error {
			result, err := s.embed.Embed(ctx, c.Text)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", c.ID, err)
			}
			c.Embedding = result.Embedding
			return nil
		})
	}
	return g.Wait()
}

// upsertBatched writes chunks in sequential batches.
func (s *Service) upsertBatched(ctx context.Context, chunks []*domain.Chunk) error {
	for start := 0; start < len(chunks); start += s.cfg.UpsertBatchSize {
		end := min(start+s.cfg.UpsertBatchSize, len(chunks))

		records := make([]domain.Record, 0, end-start)
		for _, c := range chunks[start:end] {
			records = append(records, domain.Record{
				ID:       c.ID,
				Values:   c.Embedding,
				Metadata: domain.ChunkToMetadata(c),
			})
		}
		if err := s.store.Upsert(ctx, records); err != nil {
			return fmt.Errorf("upsert batch at %d: %w", start, err)
		}
	}
	return nil
}
