package domain

import "testing"

func TestParseChunkMetadata_Document(t *testing.T) {
	raw := map[string]any{
		"text":       "page text",
		"source":     "report.pdf",
		"type":       "document",
		"pageNumber": float64(3),
		"chunk":      float64(7),
	}

	meta, err := ParseChunkMetadata(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, ok := meta.(DocumentChunkMetadata)
	if !ok {
		t.Fatalf("expected DocumentChunkMetadata, got %T", meta)
	}
	if doc.PageNumber != 3 || doc.Chunk != 7 {
		t.Errorf("unexpected position: page=%d chunk=%d", doc.PageNumber, doc.Chunk)
	}
	if meta.OrderKey() != 3 || meta.TieBreak() != 7 {
		t.Errorf("unexpected order keys: %d/%d", meta.OrderKey(), meta.TieBreak())
	}
}

func TestParseChunkMetadata_Video(t *testing.T) {
	raw := map[string]any{
		"text":   "transcript text",
		"source": "dQw4w9WgXcQ",
		"type":   "video",
		"title":  "Some Talk",
		"chunk":  2,
	}

	meta, err := ParseChunkMetadata(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vid, ok := meta.(VideoChunkMetadata)
	if !ok {
		t.Fatalf("expected VideoChunkMetadata, got %T", meta)
	}
	if vid.Title != "Some Talk" {
		t.Errorf("unexpected title %q", vid.Title)
	}
	if meta.OrderKey() != 2 {
		t.Errorf("expected order key 2, got %d", meta.OrderKey())
	}
}

func TestParseChunkMetadata_Rejects(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
	}{
		{"nil map", nil},
		{"missing type", map[string]any{"text": "x"}},
		{"unknown type", map[string]any{"text": "x", "type": "audio"}},
		{"non-string text", map[string]any{"text": 42, "type": "document"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseChunkMetadata(tc.raw); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestChunkToMetadata_RoundTrip(t *testing.T) {
	c := &Chunk{
		ID:     ChunkID("report.pdf", 4),
		Text:   "chunk text",
		Source: "report.pdf",
		Type:   ContentDocument,
		Page:   2,
		Seq:    4,
	}
	if c.ID != "report.pdf-4" {
		t.Fatalf("unexpected chunk ID %q", c.ID)
	}

	meta, err := ParseChunkMetadata(ChunkToMetadata(c))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.SourceID() != "report.pdf" || meta.OrderKey() != 2 || meta.TieBreak() != 4 {
		t.Errorf("round trip lost position: %+v", meta)
	}
}
