package pinecone

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/castforge/castforge/internal/domain"
)

func TestStore_Query(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Api-Key") != "pc-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matches":[
			{"id":"doc1-0","score":0.91,"metadata":{"text":"a","source":"doc1","type":"document","pageNumber":1,"chunk":0}},
			{"id":"doc1-1","score":0.72,"metadata":{"text":"b","source":"doc1","type":"document","pageNumber":2,"chunk":1}}
		]}`))
	}))
	defer server.Close()

	store := New(Config{Host: server.URL, APIKey: "pc-key", Client: server.Client()})

	matches, err := store.Query(context.Background(), domain.Query{
		Vector: []float32{0.1, 0.2},
		TopK:   10,
		Filter: domain.Filter{Type: domain.ContentDocument, Source: "doc1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "doc1-0" || matches[0].Score != 0.91 {
		t.Errorf("unexpected matches %+v", matches)
	}

	if gotBody["topK"].(float64) != 10 {
		t.Errorf("topK not forwarded: %v", gotBody["topK"])
	}
	if gotBody["includeMetadata"] != true {
		t.Error("includeMetadata not set")
	}
	filter := gotBody["filter"].(map[string]any)
	typeEq := filter["type"].(map[string]any)
	srcEq := filter["source"].(map[string]any)
	if typeEq["$eq"] != "document" || srcEq["$eq"] != "doc1" {
		t.Errorf("unexpected filter %v", filter)
	}
}

func TestStore_Query_UnscopedFilterOmitsSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		filter := body["filter"].(map[string]any)
		if _, ok := filter["source"]; ok {
			t.Error("source filter should be omitted when unscoped")
		}
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer server.Close()

	store := New(Config{Host: server.URL, APIKey: "k", Client: server.Client()})

	matches, err := store.Query(context.Background(), domain.Query{
		Vector: domain.ZeroVector(4),
		TopK:   1,
		Filter: domain.Filter{Type: domain.ContentDocument},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestStore_Upsert(t *testing.T) {
	var gotBody upsertRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vectors/upsert" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"upsertedCount":2}`))
	}))
	defer server.Close()

	store := New(Config{Host: server.URL, APIKey: "k", Client: server.Client()})

	err := store.Upsert(context.Background(), []domain.Record{
		{ID: "doc1-0", Values: []float32{0.1}, Metadata: map[string]any{"type": "document"}},
		{ID: "doc1-1", Values: []float32{0.2}, Metadata: map[string]any{"type": "document"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotBody.Vectors) != 2 || gotBody.Vectors[1].ID != "doc1-1" {
		t.Errorf("unexpected payload %+v", gotBody)
	}
}

func TestStore_Upsert_Empty(t *testing.T) {
	store := New(Config{Host: "http://unreachable.invalid", APIKey: "k"})
	if err := store.Upsert(context.Background(), nil); err != nil {
		t.Errorf("empty upsert should be a no-op, got %v", err)
	}
}

func TestStore_Query_RetrievalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := New(Config{Host: server.URL, APIKey: "k", Client: server.Client()})

	_, err := store.Query(context.Background(), domain.Query{
		Vector: []float32{0.1}, TopK: 1,
		Filter: domain.Filter{Type: domain.ContentVideo, Source: "vid"},
	})
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Errorf("expected ErrRetrieval, got %v", err)
	}
}

func TestStore_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	store := New(Config{Host: server.URL, APIKey: "k", Client: server.Client()})

	err := store.Upsert(context.Background(), []domain.Record{{ID: "x"}})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}
