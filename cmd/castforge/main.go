package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/castforge/castforge/internal/config"
	"github.com/castforge/castforge/internal/domain"
	"github.com/castforge/castforge/internal/extract"
	logpkg "github.com/castforge/castforge/internal/logger"
	"github.com/castforge/castforge/internal/metrics"
	"github.com/castforge/castforge/internal/prompt"
	"github.com/castforge/castforge/internal/repository/redisvec"
	chiTransport "github.com/castforge/castforge/internal/transport/chi"
	"github.com/castforge/castforge/internal/transport/openai"
	"github.com/castforge/castforge/internal/transport/pinecone"
	chatuc "github.com/castforge/castforge/internal/usecase/chat"
	healthuc "github.com/castforge/castforge/internal/usecase/health"
	ingestuc "github.com/castforge/castforge/internal/usecase/ingest"
	podcastuc "github.com/castforge/castforge/internal/usecase/podcast"
	retrievaluc "github.com/castforge/castforge/internal/usecase/retrieval"
	"github.com/castforge/castforge/internal/version"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting castforge API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
	)

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	ctx := context.Background()

	store, storePinger, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer cleanup()

	embedder := openai.NewEmbedder(&openai.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	completer := openai.NewCompleter(&openai.CompleterConfig{
		APIKey:  cfg.Completion.APIKey,
		BaseURL: cfg.Completion.BaseURL,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("chat_model", cfg.Completion.ChatModel),
		zap.String("dialogue_model", cfg.Completion.DialogueModel),
	)

	prompts, err := prompt.NewBuilder()
	if err != nil {
		logger.Fatal("Failed to parse prompt templates", zap.Error(err))
	}

	// Create use case services
	retriever := retrievaluc.New(store, embedder, cfg.Embedding.Dimensions)
	ingestSvc := ingestuc.New(
		extract.NewPDFExtractor(), extract.NewYouTubeExtractor(), embedder, store,
		ingestuc.Config{
			DocumentChunkSize:    cfg.Ingest.DocumentChunkSize,
			DocumentChunkOverlap: cfg.Ingest.DocumentChunkOverlap,
			VideoChunkSize:       cfg.Ingest.VideoChunkSize,
			UpsertBatchSize:      cfg.Ingest.UpsertBatchSize,
			Dim:                  cfg.Embedding.Dimensions,
		})
	chatSvc := chatuc.New(retriever, completer, prompts, chatuc.Config{
		Model: cfg.Completion.ChatModel,
	})
	podcastSvc := podcastuc.New(retriever, completer, prompts, podcastuc.Config{
		Model:       cfg.Completion.DialogueModel,
		MinLines:    cfg.Podcast.MinLines,
		TargetLines: cfg.Podcast.TargetLines,
		MaxRetries:  cfg.Podcast.MaxRetries,
	})
	healthSvc := healthuc.New(storePinger, embedder)

	server := chiTransport.NewServer(ingestSvc, chatSvc, podcastSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// vectorStore is the store surface the usecases need.
type vectorStore interface {
	Upsert(ctx context.Context, records []domain.Record) error
	Query(ctx context.Context, q domain.Query) ([]domain.QueryMatch, error)
}

// buildStore creates the configured vector store driver. The Pinecone driver
// exposes no ping, so its health pinger is nil.
func buildStore(
	ctx context.Context, cfg config.Config, logger *zap.Logger,
) (vectorStore, healthuc.StorePinger, func(), error) {
	switch cfg.Store.Driver {
	case "pinecone":
		store := pinecone.New(pinecone.Config{
			Host:   cfg.Store.Pinecone.Host,
			APIKey: cfg.Store.Pinecone.APIKey,
		})
		return store, nil, func() {}, nil

	case "redis":
		store, err := redisvec.New(redisvec.Config{
			Addrs:     cfg.Store.Redis.Addrs,
			Password:  cfg.Store.Redis.Password,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
			Dim:       cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, nil, nil, err
		}

		timeout := time.Duration(cfg.Store.Redis.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		if err := store.EnsureIndex(ctx); err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		logger.Info("Connected to redis vector store", zap.Strings("addrs", cfg.Store.Redis.Addrs))
		return store, store, store.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
