package domain

import "context"

// CompletionParams are the per-task generation parameters passed through to
// the completion provider.
type CompletionParams struct {
	Model            string
	Temperature      float32
	MaxTokens        int
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
}

// Completer is the completion provider contract. The provider is stochastic,
// rate-limited, and fallible; failures wrap ErrCompletionProvider.
type Completer interface {
	Complete(ctx context.Context, prompt string, params CompletionParams) (string, error)
}

// AnswerParams returns the generation parameters for factual Q&A.
func AnswerParams(model string, maxTokens int) CompletionParams {
	return CompletionParams{
		Model:       model,
		Temperature: 0.7,
		MaxTokens:   maxTokens,
		TopP:        0.9,
	}
}

// DialogueParams returns the generation parameters for podcast dialogue
// synthesis: higher temperature and repetition penalties for diversity.
func DialogueParams(model string) CompletionParams {
	return CompletionParams{
		Model:            model,
		Temperature:      0.9,
		MaxTokens:        8192,
		TopP:             0.95,
		FrequencyPenalty: 0.5,
		PresencePenalty:  0.5,
	}
}
