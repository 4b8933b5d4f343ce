package db

import "errors"

// ErrStoreUnavailable is returned when no database handle could be established.
// Only UpsertUser surfaces it; every other operation degrades to an empty result.
var ErrStoreUnavailable = errors.New("database not available")

// Database defines the persistence operations used by the services
type Database interface {
	// Available reports whether the store has a live handle
	Available() bool
	Close() error

	// Users
	UpsertUser(user UserUpsert) error
	GetUserByOpenID(openID string) (*User, error)

	// Conversations
	CreateConversation(userID int64, title string) (*Conversation, error)
	GetConversation(id int64) (*Conversation, error)
	ListConversations(userID int64) ([]Conversation, error)

	// Messages
	SaveMessage(conversationID int64, sender Sender, content string) (*Message, error)
	GetMessage(id int64) (*Message, error)
	ListMessages(conversationID int64) ([]Message, error)

	// Ratings
	UpsertMessageRating(messageID int64, rating Rating) error
	GetMessageRating(messageID int64) (*MessageRating, error)

	// Bank accounts
	GetBankAccount(userID int64) (*BankAccount, error)
	CreateBankAccount(userID int64, accountName, accountNumber string) (*BankAccount, error)

	// Search history
	AddSearchEntry(userID int64, query string) error
	ListRecentSearches(userID int64, limit int) ([]SearchEntry, error)
}
