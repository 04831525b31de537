package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/castforge/castforge/internal/domain"
)

func TestCompleter_Complete(t *testing.T) {
	var gotReq struct {
		Model            string  `json:"model"`
		Temperature      float32 `json:"temperature"`
		MaxTokens        int     `json:"max_tokens"`
		TopP             float32 `json:"top_p"`
		FrequencyPenalty float32 `json:"frequency_penalty"`
		PresencePenalty  float32 `json:"presence_penalty"`
		Messages         []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"role":"assistant","content":"Alex: hi\nSarah: hello"}}],
			"usage":{"prompt_tokens":10,"completion_tokens":20,"total_tokens":30}
		}`))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{APIKey: "k", BaseURL: server.URL})

	out, err := c.Complete(context.Background(), "make a podcast", domain.DialogueParams("llama-3.2-90b-text-preview"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Alex: hi\nSarah: hello" {
		t.Errorf("unexpected output %q", out)
	}

	if gotReq.Model != "llama-3.2-90b-text-preview" {
		t.Errorf("unexpected model %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.9 || gotReq.TopP != 0.95 || gotReq.MaxTokens != 8192 {
		t.Errorf("dialogue params not forwarded: %+v", gotReq)
	}
	if gotReq.FrequencyPenalty != 0.5 || gotReq.PresencePenalty != 0.5 {
		t.Errorf("penalties not forwarded: %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("prompt not sent as single user message: %+v", gotReq.Messages)
	}
}

func TestCompleter_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{APIKey: "k", BaseURL: server.URL})

	_, err := c.Complete(context.Background(), "p", domain.AnswerParams("mixtral-8x7b-32768", 500))
	if !errors.Is(err, domain.ErrCompletionProvider) {
		t.Errorf("expected ErrCompletionProvider, got %v", err)
	}
}

func TestCompleter_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[],"usage":{}}`))
	}))
	defer server.Close()

	c := NewCompleter(&CompleterConfig{APIKey: "k", BaseURL: server.URL})

	_, err := c.Complete(context.Background(), "p", domain.AnswerParams("mixtral-8x7b-32768", 500))
	if !errors.Is(err, domain.ErrCompletionProvider) {
		t.Errorf("expected ErrCompletionProvider, got %v", err)
	}
}
