package domain

import "fmt"

// ChunkMetadata is the tagged union of per-type chunk metadata stored alongside
// vectors. The vector store returns untyped maps; ParseChunkMetadata validates
// them at the retrieval boundary so nothing downstream handles ambiguous shapes.
type ChunkMetadata interface {
	ChunkText() string
	SourceID() string
	Type() ContentType
	// OrderKey and Seq define the stable positional ordering of retrieved
	// fragments: page number (documents) or chunk index (videos), with the
	// chunk index breaking ties between chunks on the same page.
	OrderKey() int
	TieBreak() int
}

// DocumentChunkMetadata describes a chunk of an uploaded PDF.
type DocumentChunkMetadata struct {
	Text       string
	Source     string
	PageNumber int
	Chunk      int
}

func (m DocumentChunkMetadata) ChunkText() string { return m.Text }
func (m DocumentChunkMetadata) SourceID() string  { return m.Source }
func (m DocumentChunkMetadata) Type() ContentType { return ContentDocument }
func (m DocumentChunkMetadata) OrderKey() int     { return m.PageNumber }
func (m DocumentChunkMetadata) TieBreak() int     { return m.Chunk }

// VideoChunkMetadata describes a chunk of a YouTube transcript.
type VideoChunkMetadata struct {
	Text   string
	Source string
	Title  string
	Chunk  int
}

func (m VideoChunkMetadata) ChunkText() string { return m.Text }
func (m VideoChunkMetadata) SourceID() string  { return m.Source }
func (m VideoChunkMetadata) Type() ContentType { return ContentVideo }
func (m VideoChunkMetadata) OrderKey() int     { return m.Chunk }
func (m VideoChunkMetadata) TieBreak() int     { return m.Chunk }

// ChunkToMetadata renders the wire-format metadata map stored with a vector.
func ChunkToMetadata(c *Chunk) map[string]any {
	meta := map[string]any{
		"text":   c.Text,
		"source": c.Source,
		"type":   string(c.Type),
		"chunk":  c.Seq,
	}
	switch c.Type {
	case ContentDocument:
		meta["pageNumber"] = c.Page
	case ContentVideo:
		if c.Title != "" {
			meta["title"] = c.Title
		}
	}
	return meta
}

// ParseChunkMetadata validates an untyped metadata map into the tagged union.
// Records with a missing discriminant, unknown type, or non-string text are
// rejected; callers skip them rather than propagate ambiguous shapes.
func ParseChunkMetadata(raw map[string]any) (ChunkMetadata, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil metadata")
	}

	typ, _ := raw["type"].(string)
	text, ok := raw["text"].(string)
	if !ok {
		return nil, fmt.Errorf("metadata text is not a string")
	}
	source, _ := raw["source"].(string)

	switch ContentType(typ) {
	case ContentDocument:
		return DocumentChunkMetadata{
			Text:       text,
			Source:     source,
			PageNumber: intField(raw, "pageNumber"),
			Chunk:      intField(raw, "chunk"),
		}, nil
	case ContentVideo:
		title, _ := raw["title"].(string)
		return VideoChunkMetadata{
			Text:   text,
			Source: source,
			Title:  title,
			Chunk:  intField(raw, "chunk"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown content type %q", typ)
	}
}

// intField reads a numeric metadata field. JSON decoding yields float64,
// some stores return int; both are accepted.
func intField(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
