package conversation

import (
	"errors"
	"fmt"
	"strings"

	"support-chat/internal/logger"
	"support-chat/internal/repository/db"

	"github.com/sirupsen/logrus"
)

// DefaultTitle is used when a conversation is created without a title
const DefaultTitle = "New conversation"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
)

// ConversationService handles the business logic for conversation management.
// Every operation is scoped to the calling user.
type ConversationService struct {
	db db.Database
}

// NewConversationService creates a new ConversationService
func NewConversationService(database db.Database) *ConversationService {
	return &ConversationService{
		db: database,
	}
}

// CreateConversation creates a conversation owned by userID
func (s *ConversationService) CreateConversation(userID int64, title string) (*db.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	conv, err := s.db.CreateConversation(userID, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversations returns the user's conversations, most recently updated first
func (s *ConversationService) GetConversations(userID int64) ([]db.Conversation, error) {
	conversations, err := s.db.ListConversations(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// GetMessages returns a conversation's messages, oldest first
func (s *ConversationService) GetMessages(userID, conversationID int64) ([]db.Message, error) {
	if err := s.Authorize(userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.db.ListMessages(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// SaveMessage appends a message to a conversation owned by userID
func (s *ConversationService) SaveMessage(userID, conversationID int64, sender db.Sender, content string) (*db.Message, error) {
	if err := s.Authorize(userID, conversationID); err != nil {
		return nil, err
	}

	msg, err := s.db.SaveMessage(conversationID, sender, content)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

// RateMessage stores the rating of a message in one of the user's conversations
func (s *ConversationService) RateMessage(userID, messageID int64, rating db.Rating) error {
	msg, err := s.db.GetMessage(messageID)
	if err != nil {
		return fmt.Errorf("failed to get message: %w", err)
	}
	if msg == nil {
		if s.db.Available() {
			return ErrMessageNotFound
		}
	} else if err := s.Authorize(userID, msg.ConversationID); err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if err := s.db.UpsertMessageRating(messageID, rating); err != nil {
		return fmt.Errorf("failed to rate message: %w", err)
	}
	return nil
}

// Authorize reports ErrConversationNotFound for conversations that are missing or
// owned by someone else. An unavailable store skips the check.
func (s *ConversationService) Authorize(userID, conversationID int64) error {
	conv, err := s.db.GetConversation(conversationID)
	if err != nil {
		return fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		if s.db.Available() {
			return ErrConversationNotFound
		}
		return nil
	}
	if conv.UserID != userID {
		logger.Log.WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"user_id":         userID,
		}).Warn("Conversation access denied")
		return ErrConversationNotFound
	}
	return nil
}
