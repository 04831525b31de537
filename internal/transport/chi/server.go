// Package chi exposes the HTTP API: ingestion, chat, and podcast generation.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/castforge/castforge/internal/domain"
	chatuc "github.com/castforge/castforge/internal/usecase/chat"
	healthuc "github.com/castforge/castforge/internal/usecase/health"
	ingestuc "github.com/castforge/castforge/internal/usecase/ingest"
	podcastuc "github.com/castforge/castforge/internal/usecase/podcast"
)

// maxUploadBytes bounds multipart PDF uploads.
const maxUploadBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the API handlers.
type Server struct {
	ingest        *ingestuc.Service
	chat          *chatuc.Service
	podcasts      *podcastuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	chat *chatuc.Service,
	podcasts *podcastuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:   ingest,
		chat:     chat,
		podcasts: podcasts,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		dialogueTooShortHandler,
		sentinelHandler(domain.ErrNoContent, http.StatusNotFound),
		sentinelHandler(domain.ErrInvalidVideoURL, http.StatusBadRequest),
		sentinelHandler(domain.ErrNoText, http.StatusBadRequest),
		sentinelHandler(domain.ErrNoCaptions, http.StatusUnprocessableEntity),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway),
		sentinelHandler(domain.ErrCompletionProvider, http.StatusBadGateway),
		sentinelHandler(domain.ErrRetrieval, http.StatusBadGateway),
	}
	return s
}

// Routes mounts all API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.uploadDocument)
		r.Post("/videos", s.ingestVideo)
		r.Post("/chat", s.documentChat)
		r.Post("/documents/chat", s.documentPodcastChat)
		r.Post("/podcasts", s.generatePodcast)
		r.Post("/podcasts/chat", s.podcastChat)
		r.Post("/videos/chat", s.videoPodcastChat)
		r.Post("/videos/podcasts", s.generateVideoPodcast)
	})
	r.Get("/healthz", s.healthCheck)
}

// turn is the wire form of a conversation turn.
type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func turnsFromWire(ts []turn) []domain.Turn {
	out := make([]domain.Turn, len(ts))
	for i, t := range ts {
		out[i] = domain.Turn{Role: t.Role, Content: t.Content}
	}
	return out
}

// uploadDocument handles POST /api/documents (multipart PDF upload).
func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	result, err := s.ingest.Document(r.Context(), header.Filename, data)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	if result.AlreadyProcessed {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "document already processed",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "document processed successfully",
		"chunks":  result.Chunks,
	})
}

// ingestVideo handles POST /api/videos.
func (s *Server) ingestVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := s.ingest.Video(r.Context(), req.URL)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	if result.AlreadyProcessed {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"videoId": result.VideoID,
			"message": "video already processed",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"videoId": result.VideoID,
		"chunks":  result.Chunks,
	})
}

// documentChat handles POST /api/chat.
func (s *Server) documentChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		History []turn `json:"history"`
		Source  string `json:"source"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.chat.Document(r.Context(), req.Message, turnsFromWire(req.History), req.Source)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": result.Response,
		"context":  result.Context,
	})
}

// podcastChat handles POST /api/podcasts/chat.
func (s *Server) podcastChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		History []turn `json:"history"`
		Source  string `json:"source"`
		Script  string `json:"script"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" || req.Source == "" || req.Script == "" {
		writeError(w, http.StatusBadRequest, "message, source, and script are required")
		return
	}

	result, err := s.chat.Podcast(r.Context(), req.Message, turnsFromWire(req.History), req.Source, req.Script)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": result.Response,
		"context":  result.Context,
	})
}

// documentPodcastChat handles POST /api/documents/chat (condensed, single
// completion; /api/podcasts/chat is the exhaustive segmented variant).
func (s *Server) documentPodcastChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		History []turn `json:"history"`
		Source  string `json:"source"`
		Script  string `json:"script"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" || req.Source == "" || req.Script == "" {
		writeError(w, http.StatusBadRequest, "message, source, and script are required")
		return
	}

	result, err := s.chat.DocumentPodcast(r.Context(), req.Message, turnsFromWire(req.History), req.Source, req.Script)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": result.Response,
		"context":  result.Context,
	})
}

// videoPodcastChat handles POST /api/videos/chat.
func (s *Server) videoPodcastChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		History []turn `json:"history"`
		VideoID string `json:"videoId"`
		Script  string `json:"script"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" || req.VideoID == "" {
		writeError(w, http.StatusBadRequest, "message and videoId are required")
		return
	}

	result, err := s.chat.VideoPodcast(r.Context(), req.Message, turnsFromWire(req.History), req.VideoID, req.Script)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": result.Response,
		"context":  result.Context,
	})
}

// generatePodcast handles POST /api/podcasts.
func (s *Server) generatePodcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	script, err := s.podcasts.GenerateDocument(r.Context(), req.Source)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"script": script})
}

// generateVideoPodcast handles POST /api/videos/podcasts.
func (s *Server) generateVideoPodcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"videoId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VideoID == "" {
		writeError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	script, err := s.podcasts.GenerateVideo(r.Context(), req.VideoID)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"script": script})
}

// healthCheck handles GET /healthz.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNoContent,
		domain.ErrInvalidVideoURL,
		domain.ErrNoText,
		domain.ErrNoCaptions,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProvider,
		domain.ErrCompletionProvider,
		domain.ErrRetrieval,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, safeDomainMessage(err))
		return true
	}
}

// dialogueTooShortHandler surfaces the quality gate failure with its line
// count so the caller can see how close generation came.
func dialogueTooShortHandler(w http.ResponseWriter, err error) bool {
	var tooShort *domain.DialogueTooShortError
	if !errors.As(err, &tooShort) {
		return false
	}
	writeError(w, http.StatusBadGateway, tooShort.Error())
	return true
}

func (s *Server) handleDomainError(r *http.Request, w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
