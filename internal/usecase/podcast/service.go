// Package podcast synthesizes two-speaker scripts from indexed content, with
// a line-count quality gate on the generated dialogue.
package podcast

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/castforge/castforge/internal/domain"
	"github.com/castforge/castforge/internal/logger"
	"github.com/castforge/castforge/internal/metrics"
	"github.com/castforge/castforge/internal/prompt"
	"github.com/castforge/castforge/internal/usecase/assemble"
)

// seedTopK is how many chunks the seed query pulls for script content.
const seedTopK = 30

// Seed queries steer retrieval toward broad coverage of the source.
const (
	documentSeedQuery = "summary overview main points"
	videoSeedQuery    = "video content main points summary"
)

// Config sets the dialogue quality gate.
type Config struct {
	Model       string
	MinLines    int
	TargetLines int
	MaxRetries  int
}

// Service generates podcast scripts.
type Service struct {
	retriever Retriever
	completer Completer
	prompts   *prompt.Builder
	cfg       Config
}

// New creates a podcast service.
func New(retriever Retriever, completer Completer, prompts *prompt.Builder, cfg Config) *Service {
	return &Service{retriever: retriever, completer: completer, prompts: prompts, cfg: cfg}
}

// GenerateDocument produces a script discussing an indexed document.
func (s *Service) GenerateDocument(ctx context.Context, source string) (string, error) {
	return s.generate(ctx, documentSeedQuery, prompt.TaskDocumentDialogue,
		domain.Filter{Type: domain.ContentDocument, Source: source})
}

// GenerateVideo produces a script discussing an indexed video transcript.
func (s *Service) GenerateVideo(ctx context.Context, videoID string) (string, error) {
	return s.generate(ctx, videoSeedQuery, prompt.TaskVideoDialogue,
		domain.Filter{Type: domain.ContentVideo, Source: videoID})
}

func (s *Service) generate(
	ctx context.Context, seedQuery string, task prompt.Task, filter domain.Filter,
) (string, error) {
	matches, err := s.retriever.SemanticAll(ctx, seedQuery, filter, seedTopK)
	if err != nil {
		return "", fmt.Errorf("retrieve content: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no indexed content for %s %q: %w", filter.Type, filter.Source, domain.ErrNoContent)
	}

	p, err := s.prompts.Render(task, prompt.DialogueData{
		SpeakerOne:  domain.SpeakerAlex,
		SpeakerTwo:  domain.SpeakerSarah,
		TargetLines: s.cfg.TargetLines,
		Content:     assemble.PositionalText(matches),
	})
	if err != nil {
		return "", err
	}

	return s.generateDialogue(ctx, p)
}

// generateDialogue runs the quality-gated synthesis loop. Each retry sends
// the identical prompt; only the line count decides acceptance.
func (s *Service) generateDialogue(ctx context.Context, p string) (string, error) {
	log := logger.FromContext(ctx)

	var lines int
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		script, err := s.completer.Complete(ctx, p, domain.DialogueParams(s.cfg.Model))
		if err != nil {
			return "", fmt.Errorf("dialogue completion: %w", err)
		}

		lines = CountSpeakerLines(script)
		metrics.DialogueLineCount.Observe(float64(lines))

		if lines >= s.cfg.MinLines {
			metrics.DialogueAttemptsTotal.WithLabelValues("accepted").Inc()
			return script, nil
		}

		if attempt < s.cfg.MaxRetries {
			metrics.DialogueAttemptsTotal.WithLabelValues("retried").Inc()
			log.Warn("dialogue below minimum length, retrying",
				zap.Int("lines", lines), zap.Int("attempt", attempt+1))
		}
	}

	metrics.DialogueAttemptsTotal.WithLabelValues("exhausted").Inc()
	return "", domain.NewDialogueTooShort(lines, s.cfg.MinLines)
}

// CountSpeakerLines counts trimmed lines spoken by either host. Narration and
// stage directions do not count toward the gate.
func CountSpeakerLines(script string) int {
	count := 0
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, domain.SpeakerAlex+":") ||
			strings.HasPrefix(trimmed, domain.SpeakerSarah+":") {
			count++
		}
	}
	return count
}
