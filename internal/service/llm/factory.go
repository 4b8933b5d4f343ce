package llm

import (
	"context"
	"fmt"

	"support-chat/internal/config"
	"support-chat/internal/logger"
)

// NewCompleter creates the completer selected by llmConfig.Provider.
// Without an API key it returns Disabled.
func NewCompleter(ctx context.Context, llmConfig config.LLMConfig) (Completer, error) {
	if llmConfig.APIKey == "" {
		logger.Log.Warn("No LLM API key configured, using disabled completer")
		return Disabled{}, nil
	}

	switch llmConfig.Provider {
	case "", "openai":
		logger.Log.Info("Using OpenAI-compatible provider")
		return NewOpenAIProvider(llmConfig), nil
	case "gemini":
		logger.Log.Info("Using Gemini provider")
		provider, err := NewGeminiProvider(ctx, llmConfig)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, gemini)", llmConfig.Provider)
	}
}
