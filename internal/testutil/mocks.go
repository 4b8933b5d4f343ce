package testutil

import (
	"context"
	"errors"
	"time"

	"support-chat/internal/app"
	"support-chat/internal/config"
	"support-chat/internal/repository/db"
	"support-chat/internal/service/llm"
)

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	AvailableFunc func() bool

	// User mocks
	UpsertUserFunc      func(user db.UserUpsert) error
	GetUserByOpenIDFunc func(openID string) (*db.User, error)

	// Conversation mocks
	CreateConversationFunc func(userID int64, title string) (*db.Conversation, error)
	GetConversationFunc    func(id int64) (*db.Conversation, error)
	ListConversationsFunc  func(userID int64) ([]db.Conversation, error)

	// Message mocks
	SaveMessageFunc         func(conversationID int64, sender db.Sender, content string) (*db.Message, error)
	GetMessageFunc          func(id int64) (*db.Message, error)
	ListMessagesFunc        func(conversationID int64) ([]db.Message, error)
	UpsertMessageRatingFunc func(messageID int64, rating db.Rating) error
	GetMessageRatingFunc    func(messageID int64) (*db.MessageRating, error)

	// Account mocks
	GetBankAccountFunc     func(userID int64) (*db.BankAccount, error)
	CreateBankAccountFunc  func(userID int64, accountName, accountNumber string) (*db.BankAccount, error)
	AddSearchEntryFunc     func(userID int64, query string) error
	ListRecentSearchesFunc func(userID int64, limit int) ([]db.SearchEntry, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *MockDatabase) Available() bool {
	if m.AvailableFunc != nil {
		return m.AvailableFunc()
	}
	return true
}

func (m *MockDatabase) Close() error { return nil }

// User methods
func (m *MockDatabase) UpsertUser(user db.UserUpsert) error {
	if m.UpsertUserFunc != nil {
		return m.UpsertUserFunc(user)
	}
	return errNotImplemented
}

func (m *MockDatabase) GetUserByOpenID(openID string) (*db.User, error) {
	if m.GetUserByOpenIDFunc != nil {
		return m.GetUserByOpenIDFunc(openID)
	}
	return nil, errNotImplemented
}

// Conversation methods
func (m *MockDatabase) CreateConversation(userID int64, title string) (*db.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(userID, title)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversation(id int64) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(id)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) ListConversations(userID int64) ([]db.Conversation, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(userID)
	}
	return nil, errNotImplemented
}

// Message methods
func (m *MockDatabase) SaveMessage(conversationID int64, sender db.Sender, content string) (*db.Message, error) {
	if m.SaveMessageFunc != nil {
		return m.SaveMessageFunc(conversationID, sender, content)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetMessage(id int64) (*db.Message, error) {
	if m.GetMessageFunc != nil {
		return m.GetMessageFunc(id)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) ListMessages(conversationID int64) ([]db.Message, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(conversationID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) UpsertMessageRating(messageID int64, rating db.Rating) error {
	if m.UpsertMessageRatingFunc != nil {
		return m.UpsertMessageRatingFunc(messageID, rating)
	}
	return errNotImplemented
}

func (m *MockDatabase) GetMessageRating(messageID int64) (*db.MessageRating, error) {
	if m.GetMessageRatingFunc != nil {
		return m.GetMessageRatingFunc(messageID)
	}
	return nil, errNotImplemented
}

// Account methods
func (m *MockDatabase) GetBankAccount(userID int64) (*db.BankAccount, error) {
	if m.GetBankAccountFunc != nil {
		return m.GetBankAccountFunc(userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) CreateBankAccount(userID int64, accountName, accountNumber string) (*db.BankAccount, error) {
	if m.CreateBankAccountFunc != nil {
		return m.CreateBankAccountFunc(userID, accountName, accountNumber)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) AddSearchEntry(userID int64, query string) error {
	if m.AddSearchEntryFunc != nil {
		return m.AddSearchEntryFunc(userID, query)
	}
	return errNotImplemented
}

func (m *MockDatabase) ListRecentSearches(userID int64, limit int) ([]db.SearchEntry, error) {
	if m.ListRecentSearchesFunc != nil {
		return m.ListRecentSearchesFunc(userID, limit)
	}
	return nil, errNotImplemented
}

// MockCompleter is a mock implementation of llm.Completer for testing
type MockCompleter struct {
	CompleteFunc func(ctx context.Context, turns []llm.Turn) (llm.Completion, error)
	Calls        [][]llm.Turn
}

func (m *MockCompleter) Complete(ctx context.Context, turns []llm.Turn) (llm.Completion, error) {
	m.Calls = append(m.Calls, turns)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, turns)
	}
	return llm.Completion{Kind: llm.KindText, Text: "mock answer"}, nil
}

// TestJWTSecret is a signing key long enough for config validation
const TestJWTSecret = "0123456789abcdef0123456789abcdef"

// NewMockConfig creates an app.Config for testing around the given store and completer
func NewMockConfig(database db.Database, completer llm.Completer) *app.Config {
	return app.NewConfig(database, &config.AppConfig{
		Server: config.ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"*"},
		},
		LLM: config.LLMConfig{
			Provider:     "openai",
			SystemPrompt: "You are the support assistant.",
		},
		Auth: config.AuthConfig{
			JWTSecret:  []byte(TestJWTSecret),
			CookieName: "app_session_id",
			SessionTTL: time.Hour,
		},
		LogLevel: "info",
	}, completer)
}
