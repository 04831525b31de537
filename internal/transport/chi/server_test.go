package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/castforge/castforge/internal/domain"
	"github.com/castforge/castforge/internal/extract"
	"github.com/castforge/castforge/internal/metrics"
	"github.com/castforge/castforge/internal/prompt"
	chatuc "github.com/castforge/castforge/internal/usecase/chat"
	healthuc "github.com/castforge/castforge/internal/usecase/health"
	ingestuc "github.com/castforge/castforge/internal/usecase/ingest"
	podcastuc "github.com/castforge/castforge/internal/usecase/podcast"
	retrievaluc "github.com/castforge/castforge/internal/usecase/retrieval"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

type stubStore struct {
	matches []domain.QueryMatch
	err     error
}

func (s *stubStore) Query(context.Context, domain.Query) ([]domain.QueryMatch, error) {
	return s.matches, s.err
}

func (s *stubStore) Upsert(context.Context, []domain.Record) error { return s.err }

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.5, 0.5}}, nil
}

type stubCompleter struct {
	response string
	err      error
}

func (s *stubCompleter) Complete(context.Context, string, domain.CompletionParams) (string, error) {
	return s.response, s.err
}

type stubPages struct {
	pages []extract.Page
	err   error
}

func (s *stubPages) ExtractPages(context.Context, []byte) ([]extract.Page, error) {
	return s.pages, s.err
}

type stubVideos struct{}

func (stubVideos) Transcript(context.Context, string) (string, error) { return "a transcript", nil }
func (stubVideos) Title(context.Context, string) (string, error)      { return "a title", nil }

type serverDeps struct {
	store     *stubStore
	embedder  *stubEmbedder
	completer *stubCompleter
	pages     *stubPages
}

func newTestServer(t *testing.T, deps serverDeps) http.Handler {
	t.Helper()

	builder, err := prompt.NewBuilder()
	if err != nil {
		t.Fatalf("build prompts: %v", err)
	}

	retriever := retrievaluc.New(deps.store, deps.embedder, 2)
	ingestSvc := ingestuc.New(deps.pages, stubVideos{}, deps.embedder, deps.store, ingestuc.Config{
		DocumentChunkSize: 500, DocumentChunkOverlap: 50, VideoChunkSize: 1500,
		UpsertBatchSize: 100, Dim: 2,
	})
	chatSvc := chatuc.New(retriever, deps.completer, builder, chatuc.Config{Model: "m"})
	podcastSvc := podcastuc.New(retriever, deps.completer, builder, podcastuc.Config{
		Model: "m", MinLines: 10, TargetLines: 55, MaxRetries: 2,
	})
	healthSvc := healthuc.New(nil, nil)

	server := NewServer(ingestSvc, chatSvc, podcastSvc, healthSvc, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func docMeta(text string, page, chunk int) map[string]any {
	return map[string]any{
		"text": text, "source": "doc1", "type": "document",
		"pageNumber": page, "chunk": chunk,
	}
}

func TestUploadDocument(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store:     &stubStore{},
		embedder:  &stubEmbedder{},
		completer: &stubCompleter{},
		pages:     &stubPages{pages: []extract.Page{{Number: 1, Text: "page one text"}}},
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "report.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Chunks  int  `json:"chunks"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Chunks != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestUploadDocument_NoText_400(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{}, embedder: &stubEmbedder{}, completer: &stubCompleter{},
		pages: &stubPages{err: domain.ErrNoText},
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "scan.pdf")
	_, _ = fw.Write([]byte("%PDF"))
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rr.Code)
	}
}

func TestIngestVideo_InvalidURL_400(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{}, embedder: &stubEmbedder{}, completer: &stubCompleter{},
		pages: &stubPages{},
	})

	rr := postJSON(t, handler, "/api/videos", map[string]string{"url": "https://example.com/nope"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rr.Code)
	}
}

func TestIngestVideo_Success(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{}, embedder: &stubEmbedder{}, completer: &stubCompleter{},
		pages: &stubPages{},
	})

	rr := postJSON(t, handler, "/api/videos",
		map[string]string{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		VideoID string `json:"videoId"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("unexpected videoId %q", resp.VideoID)
	}
}

func TestDocumentChat(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store:     &stubStore{matches: []domain.QueryMatch{{ID: "doc1-0", Score: 0.9, Metadata: docMeta("ctx", 1, 0)}}},
		embedder:  &stubEmbedder{},
		completer: &stubCompleter{response: "the answer"},
		pages:     &stubPages{},
	})

	rr := postJSON(t, handler, "/api/chat", map[string]any{
		"message": "what?", "source": "doc1",
		"history": []map[string]string{{"role": "user", "content": "hi"}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Response string `json:"response"`
		Context  string `json:"context"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Response != "the answer" || !strings.Contains(resp.Context, "[Page 1] ctx") {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDocumentChat_MissingMessage_400(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{}, embedder: &stubEmbedder{}, completer: &stubCompleter{},
		pages: &stubPages{},
	})

	rr := postJSON(t, handler, "/api/chat", map[string]string{"source": "doc1"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rr.Code)
	}
}

func TestDocumentChat_StoreFailure_502(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{err: domain.ErrRetrieval}, embedder: &stubEmbedder{},
		completer: &stubCompleter{}, pages: &stubPages{},
	})

	rr := postJSON(t, handler, "/api/chat", map[string]string{"message": "q", "source": "doc1"})
	if rr.Code != http.StatusBadGateway {
		t.Errorf("got %d, want 502", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "retrieval error") {
		t.Errorf("error body should carry the sentinel message: %s", rr.Body.String())
	}
}

func TestDocumentPodcastChat(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store:     &stubStore{matches: []domain.QueryMatch{{ID: "doc1-0", Score: 0.9, Metadata: docMeta("ctx", 1, 0)}}},
		embedder:  &stubEmbedder{},
		completer: &stubCompleter{response: "condensed answer"},
		pages:     &stubPages{},
	})

	rr := postJSON(t, handler, "/api/documents/chat", map[string]string{
		"message": "q", "source": "doc1", "script": "Alex: hi",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Response string `json:"response"`
		Context  string `json:"context"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Response != "condensed answer" || !strings.Contains(resp.Context, "[Page 1] ctx") {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDocumentPodcastChat_MissingScript_400(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{}, embedder: &stubEmbedder{}, completer: &stubCompleter{},
		pages: &stubPages{},
	})

	rr := postJSON(t, handler, "/api/documents/chat", map[string]string{
		"message": "q", "source": "doc1",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rr.Code)
	}
}

func TestGeneratePodcast_NoContent_404(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{}, embedder: &stubEmbedder{}, completer: &stubCompleter{},
		pages: &stubPages{},
	})

	rr := postJSON(t, handler, "/api/podcasts", map[string]string{"source": "ghost.pdf"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rr.Code)
	}
}

func TestGeneratePodcast_TooShort_502(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store:     &stubStore{matches: []domain.QueryMatch{{ID: "doc1-0", Score: 0.9, Metadata: docMeta("content", 1, 0)}}},
		embedder:  &stubEmbedder{},
		completer: &stubCompleter{response: "Alex: hi\nSarah: hello"},
		pages:     &stubPages{},
	})

	rr := postJSON(t, handler, "/api/podcasts", map[string]string{"source": "doc1"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want 502", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "2 lines") {
		t.Errorf("error should carry the line count: %s", rr.Body.String())
	}
}

func TestGeneratePodcast_Success(t *testing.T) {
	var script strings.Builder
	for i := 0; i < 12; i++ {
		script.WriteString("Alex: line\nSarah: line\n")
	}

	handler := newTestServer(t, serverDeps{
		store:     &stubStore{matches: []domain.QueryMatch{{ID: "doc1-0", Score: 0.9, Metadata: docMeta("content", 1, 0)}}},
		embedder:  &stubEmbedder{},
		completer: &stubCompleter{response: script.String()},
		pages:     &stubPages{},
	})

	rr := postJSON(t, handler, "/api/podcasts", map[string]string{"source": "doc1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Script string `json:"script"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if !strings.HasPrefix(resp.Script, "Alex:") {
		t.Errorf("unexpected script %q", resp.Script)
	}
}

func TestPodcastChat_RateLimited_429(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{err: domain.ErrRateLimited}, embedder: &stubEmbedder{},
		completer: &stubCompleter{}, pages: &stubPages{},
	})

	rr := postJSON(t, handler, "/api/podcasts/chat", map[string]string{
		"message": "q", "source": "doc1", "script": "Alex: hi",
	})
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("got %d, want 429", rr.Code)
	}
}

func TestVideoPodcastChat_ProviderError_502(t *testing.T) {
	videoMeta := map[string]any{
		"text": "part", "source": "dQw4w9WgXcQ", "type": "video", "chunk": 0,
	}
	handler := newTestServer(t, serverDeps{
		store:    &stubStore{matches: []domain.QueryMatch{{ID: "dQw4w9WgXcQ-0", Metadata: videoMeta}}},
		embedder: &stubEmbedder{err: domain.ErrEmbeddingProvider},
		completer: &stubCompleter{}, pages: &stubPages{},
	})

	rr := postJSON(t, handler, "/api/videos/chat", map[string]string{
		"message": "q", "videoId": "dQw4w9WgXcQ", "script": "s",
	})
	if rr.Code != http.StatusBadGateway {
		t.Errorf("got %d, want 502", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(t, serverDeps{
		store: &stubStore{}, embedder: &stubEmbedder{}, completer: &stubCompleter{},
		pages: &stubPages{},
	})

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want 200", rr.Code)
	}
}
