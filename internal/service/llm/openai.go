package llm

import (
	"context"
	"fmt"

	"support-chat/internal/config"
	"support-chat/internal/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements Completer against any OpenAI-compatible chat endpoint
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider. An empty BaseURL keeps the public OpenAI endpoint.
func NewOpenAIProvider(llmConfig config.LLMConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(llmConfig.APIKey)
	if llmConfig.BaseURL != "" {
		clientConfig.BaseURL = llmConfig.BaseURL
	}

	model := llmConfig.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Complete sends the turns as a single non-streaming chat completion
func (p *OpenAIProvider) Complete(ctx context.Context, turns []Turn) (Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(turn.Role),
			Content: turn.Content,
		})
	}

	logger.Log.WithFields(logrus.Fields{
		"model":         p.model,
		"message_count": len(messages),
	}).Info("Calling OpenAI-compatible API")

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("error calling completion API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Completion{Kind: KindUnrecognized}, nil
	}
	return openAICompletion(resp.Choices[0].Message), nil
}

func openAIRole(role Role) string {
	switch role {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// openAICompletion maps string content to Text and array content to Parts
func openAICompletion(msg openai.ChatCompletionMessage) Completion {
	if len(msg.MultiContent) > 0 {
		parts := make([]Part, 0, len(msg.MultiContent))
		for _, part := range msg.MultiContent {
			parts = append(parts, Part{Type: string(part.Type), Text: part.Text})
		}
		return Completion{Kind: KindParts, Parts: parts}
	}
	if msg.Content != "" {
		return Completion{Kind: KindText, Text: msg.Content}
	}
	return Completion{Kind: KindUnrecognized}
}
