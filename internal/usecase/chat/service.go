// Package chat answers questions over indexed documents, videos, and their
// generated podcast scripts.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/castforge/castforge/internal/domain"
	"github.com/castforge/castforge/internal/prompt"
	"github.com/castforge/castforge/internal/usecase/assemble"
)

const (
	documentChatTopK     = 10
	podcastScanTopK      = 5
	podcastSemanticTopK  = 5
	documentPodcastTopK  = 10
	videoPodcastTopK     = 10
	answerMaxTokens      = 500
	longAnswerMaxTokens  = 1000
	scriptExcerptLen     = 1000
	historyTailTurns     = 3
	keyPointChunks       = 3
	relevantSectionCount = 3
)

// Config sets the chat completion model.
type Config struct {
	Model string
}

// Service answers conversational questions with retrieved context.
type Service struct {
	retriever Retriever
	completer Completer
	prompts   *prompt.Builder
	cfg       Config
}

// New creates a chat service.
func New(retriever Retriever, completer Completer, prompts *prompt.Builder, cfg Config) *Service {
	return &Service{retriever: retriever, completer: completer, prompts: prompts, cfg: cfg}
}

// Result carries the answer plus the context it was grounded on.
type Result struct {
	Response string
	Context  string
}

// Document answers a question over indexed document chunks. Empty context is
// soft: the model is asked anyway and says what it cannot find.
func (s *Service) Document(ctx context.Context, message string, history []domain.Turn, source string) (Result, error) {
	matches, err := s.retriever.Semantic(ctx, message,
		domain.Filter{Type: domain.ContentDocument, Source: source}, documentChatTopK)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve context: %w", err)
	}

	contextText := assemble.RelevanceText(matches)

	p, err := s.prompts.Render(prompt.TaskDocumentQA, prompt.DocumentQAData{
		Context:  contextText,
		History:  prompt.RenderHistory(history),
		Question: message,
	})
	if err != nil {
		return Result{}, err
	}

	response, err := s.completer.Complete(ctx, p, domain.AnswerParams(s.cfg.Model, answerMaxTokens))
	if err != nil {
		return Result{}, fmt.Errorf("answer completion: %w", err)
	}
	return Result{Response: response, Context: contextText}, nil
}

// Podcast answers a question about a document and its podcast script. The
// document context is segmented and each segment is answered independently;
// any failed segment fails the whole answer.
func (s *Service) Podcast(
	ctx context.Context, message string, history []domain.Turn, source, script string,
) (Result, error) {
	filter := domain.Filter{Type: domain.ContentDocument, Source: source}

	scanned, err := s.retriever.ScanBySource(ctx, filter, podcastScanTopK)
	if err != nil {
		return Result{}, fmt.Errorf("scan source: %w", err)
	}
	if len(scanned) == 0 {
		return Result{}, fmt.Errorf("document %q: %w", source, domain.ErrNoContent)
	}

	relevant, err := s.retriever.Semantic(ctx, message, filter, podcastSemanticTopK)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve relevant sections: %w", err)
	}

	docContext := assemble.PositionalText(scanned)
	relevantContext := assemble.RelevanceText(relevant)
	historyText := prompt.RenderHistory(history)

	segments := assemble.Segment(docContext)
	responses := make([]string, 0, len(segments))
	for i, segment := range segments {
		p, err := s.prompts.Render(prompt.TaskPodcastChat, prompt.PodcastChatData{
			SpeakerOne:      domain.SpeakerAlex,
			SpeakerTwo:      domain.SpeakerSarah,
			SegmentIndex:    i + 1,
			SegmentCount:    len(segments),
			Segment:         segment,
			RelevantContext: relevantContext,
			Script:          script,
			History:         historyText,
			Question:        message,
		})
		if err != nil {
			return Result{}, err
		}

		response, err := s.completer.Complete(ctx, p, domain.AnswerParams(s.cfg.Model, longAnswerMaxTokens))
		if err != nil {
			return Result{}, fmt.Errorf("segment %d/%d completion: %w", i+1, len(segments), err)
		}
		responses = append(responses, response)
	}

	return Result{Response: strings.Join(responses, " "), Context: relevantContext}, nil
}

// DocumentPodcast answers a question about a document and its podcast script
// in a single completion built from trimmed context sections. Podcast is the
// exhaustive variant; this one trades coverage for a single provider call.
func (s *Service) DocumentPodcast(
	ctx context.Context, message string, history []domain.Turn, source, script string,
) (Result, error) {
	filter := domain.Filter{Type: domain.ContentDocument, Source: source}

	scanned, err := s.retriever.ScanBySource(ctx, filter, documentPodcastTopK)
	if err != nil {
		return Result{}, fmt.Errorf("scan source: %w", err)
	}
	if len(scanned) == 0 {
		return Result{}, fmt.Errorf("document %q: %w", source, domain.ErrNoContent)
	}

	relevant, err := s.retriever.Semantic(ctx, message, filter, documentPodcastTopK)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve relevant sections: %w", err)
	}

	ordered := assemble.Positional(scanned)
	keyPoints := assemble.PositionalText(head(ordered, keyPointChunks))
	relevantContext := assemble.RelevanceText(head(assemble.Relevance(relevant), relevantSectionCount))

	p, err := s.prompts.Render(prompt.TaskDocumentPodcastChat, prompt.DocumentPodcastChatData{
		KeyPoints:       keyPoints,
		RelevantContext: relevantContext,
		ScriptExcerpt:   truncate(script, scriptExcerptLen),
		History:         prompt.RenderHistory(prompt.LastTurns(history, historyTailTurns)),
		Question:        message,
	})
	if err != nil {
		return Result{}, err
	}

	response, err := s.completer.Complete(ctx, p, domain.AnswerParams(s.cfg.Model, longAnswerMaxTokens))
	if err != nil {
		return Result{}, fmt.Errorf("answer completion: %w", err)
	}
	return Result{Response: response, Context: relevantContext}, nil
}

// VideoPodcast answers a question about a video and its podcast script in a
// single completion built from trimmed context sections.
func (s *Service) VideoPodcast(
	ctx context.Context, message string, history []domain.Turn, videoID, script string,
) (Result, error) {
	filter := domain.Filter{Type: domain.ContentVideo, Source: videoID}

	scanned, err := s.retriever.ScanBySource(ctx, filter, videoPodcastTopK)
	if err != nil {
		return Result{}, fmt.Errorf("scan video: %w", err)
	}
	if len(scanned) == 0 {
		return Result{}, fmt.Errorf("video %q: %w", videoID, domain.ErrNoContent)
	}

	relevant, err := s.retriever.Semantic(ctx, message, filter, videoPodcastTopK)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve relevant sections: %w", err)
	}

	ordered := assemble.Positional(scanned)
	keyPoints := assemble.PositionalText(head(ordered, keyPointChunks))
	relevantContext := assemble.RelevanceText(head(assemble.Relevance(relevant), relevantSectionCount))

	p, err := s.prompts.Render(prompt.TaskVideoPodcastChat, prompt.VideoPodcastChatData{
		KeyPoints:       keyPoints,
		RelevantContext: relevantContext,
		ScriptExcerpt:   truncate(script, scriptExcerptLen),
		History:         prompt.RenderHistory(prompt.LastTurns(history, historyTailTurns)),
		Question:        message,
	})
	if err != nil {
		return Result{}, err
	}

	response, err := s.completer.Complete(ctx, p, domain.AnswerParams(s.cfg.Model, longAnswerMaxTokens))
	if err != nil {
		return Result{}, fmt.Errorf("answer completion: %w", err)
	}
	return Result{Response: response, Context: relevantContext}, nil
}

func head(matches []domain.Match, n int) []domain.Match {
	if len(matches) <= n {
		return matches
	}
	return matches[:n]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
