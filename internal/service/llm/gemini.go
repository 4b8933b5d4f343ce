package llm

import (
	"context"
	"fmt"

	"support-chat/internal/config"
	"support-chat/internal/logger"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash-latest"

// GeminiProvider implements Completer using the Gemini chat API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini client using the configured API key
func NewGeminiProvider(ctx context.Context, llmConfig config.LLMConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(llmConfig.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := llmConfig.Model
	if model == "" {
		model = defaultGeminiModel
	}

	logger.Log.WithField("model", model).Info("Initialized Gemini provider")
	return &GeminiProvider{client: client, model: model}, nil
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Complete sends the final turn with the preceding turns as chat history
func (p *GeminiProvider) Complete(ctx context.Context, turns []Turn) (Completion, error) {
	system, history, last := geminiContents(turns)
	if last == nil {
		return Completion{}, fmt.Errorf("no user turn to send")
	}

	model := p.client.GenerativeModel(p.model)
	model.SystemInstruction = system

	session := model.StartChat()
	session.History = history

	logger.Log.WithFields(logrus.Fields{
		"model":         p.model,
		"message_count": len(history) + 1,
	}).Info("Calling Gemini API")

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return Completion{}, fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}
	return geminiCompletion(resp), nil
}

// geminiContents splits turns into the system instruction, prior history and the turn to send.
// System turns are merged into one instruction; assistant turns use the "model" role.
func geminiContents(turns []Turn) (*genai.Content, []*genai.Content, *genai.Content) {
	var system *genai.Content
	var history []*genai.Content

	for _, turn := range turns {
		if turn.Role == RoleSystem {
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.Text(turn.Content))
			continue
		}

		role := "user"
		if turn.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	if len(history) == 0 {
		return system, nil, nil
	}
	return system, history[:len(history)-1], history[len(history)-1]
}

func geminiCompletion(resp *genai.GenerateContentResponse) Completion {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Completion{Kind: KindUnrecognized}
	}

	parts := make([]Part, 0, len(resp.Candidates[0].Content.Parts))
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			parts = append(parts, Part{Type: PartText, Text: string(txt)})
		} else {
			parts = append(parts, Part{Type: fmt.Sprintf("%T", part)})
		}
	}
	return Completion{Kind: KindParts, Parts: parts}
}
