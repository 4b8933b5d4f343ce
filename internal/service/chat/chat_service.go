package chat

import (
	"context"
	"fmt"

	"support-chat/internal/app"
	"support-chat/internal/logger"
	"support-chat/internal/repository/db"
	"support-chat/internal/service/assistant"
	"support-chat/internal/service/conversation"

	"github.com/sirupsen/logrus"
)

// AskRequest contains the parameters of a standalone assistant question
type AskRequest struct {
	Query        string
	SystemPrompt string
	History      []assistant.HistoryEntry
	UserID       int64 // Extracted from auth context
}

// SendMessageResponse contains both messages of a completed turn
type SendMessageResponse struct {
	UserMessage *db.Message `json:"userMessage"`
	BotMessage  *db.Message `json:"botMessage"`
}

// ChatService handles the business logic for assistant turns
type ChatService struct {
	db            db.Database
	config        *app.Config
	assistant     *assistant.Assistant
	conversations *conversation.ConversationService
}

// NewChatService creates a new ChatService
func NewChatService(database db.Database, config *app.Config) *ChatService {
	return &ChatService{
		db:            database,
		config:        config,
		assistant:     assistant.NewAssistant(config.Completer, config.AppConfig.LLM.SystemPrompt),
		conversations: conversation.NewConversationService(database),
	}
}

// AskAI answers a question with caller-supplied history. It never fails; provider
// errors become the fallback answer.
func (s *ChatService) AskAI(ctx context.Context, req AskRequest) string {
	return s.assistant.Answer(ctx, assistant.Request{
		Query:        req.Query,
		SystemPrompt: req.SystemPrompt,
		History:      req.History,
		Account:      s.accountFor(req.UserID),
	})
}

// SendMessage runs a complete turn: the user message is saved and recorded in search
// history, the assistant answers from the prior messages, and the answer is saved.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID int64, query string) (*SendMessageResponse, error) {
	if err := s.conversations.Authorize(userID, conversationID); err != nil {
		return nil, err
	}

	prior, err := s.db.ListMessages(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve conversation history: %w", err)
	}

	userMsg, err := s.db.SaveMessage(conversationID, db.SenderUser, query)
	if err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	if err := s.db.AddSearchEntry(userID, query); err != nil {
		logger.Log.WithError(err).Warn("Failed to record search history")
	}

	answer := s.assistant.Answer(ctx, assistant.Request{
		Query:   query,
		History: assistant.HistoryFromMessages(prior),
		Account: s.accountFor(userID),
	})

	botMsg, err := s.db.SaveMessage(conversationID, db.SenderBot, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to save bot message: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"history":         len(prior),
	}).Info("Completed chat turn")

	return &SendMessageResponse{UserMessage: userMsg, BotMessage: botMsg}, nil
}

func (s *ChatService) accountFor(userID int64) *db.BankAccount {
	account, err := s.db.GetBankAccount(userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("Failed to load bank account")
		return nil
	}
	return account
}
