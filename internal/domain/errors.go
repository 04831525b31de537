package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrCompletionProvider signals a completion provider failure.
	ErrCompletionProvider = errors.New("completion provider error")
	// ErrRetrieval signals a vector store failure or malformed filter.
	ErrRetrieval = errors.New("retrieval error")
	// ErrRateLimited signals an upstream rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoContent signals that a source-existence precondition failed:
	// no indexed content was found for the requested source.
	ErrNoContent = errors.New("no content found for source")
	// ErrNoText signals that no text could be extracted from an input.
	ErrNoText = errors.New("no extractable text")
	// ErrNoCaptions signals that a video has no usable English captions.
	ErrNoCaptions = errors.New("no English captions available")
	// ErrInvalidVideoURL signals an unparseable YouTube URL.
	ErrInvalidVideoURL = errors.New("invalid YouTube URL")
	// ErrDialogueTooShort signals that dialogue synthesis stayed below the
	// minimum line count after the retry budget was exhausted.
	ErrDialogueTooShort = errors.New("insufficient dialogue length")
)

// DialogueTooShortError wraps ErrDialogueTooShort with the last observed
// speaker line count.
type DialogueTooShortError struct {
	Lines int
	Min   int
}

func (e *DialogueTooShortError) Error() string {
	return fmt.Sprintf("%s: generated script has only %d lines (minimum %d required)",
		ErrDialogueTooShort.Error(), e.Lines, e.Min)
}

func (e *DialogueTooShortError) Unwrap() error { return ErrDialogueTooShort }

// NewDialogueTooShort creates a dialogue quality gate failure.
func NewDialogueTooShort(lines, minLines int) error {
	return &DialogueTooShortError{Lines: lines, Min: minLines}
}
