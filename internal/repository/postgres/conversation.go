package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"support-chat/internal/logger"
	"support-chat/internal/repository/db"

	"github.com/sirupsen/logrus"
)

// CreateConversation creates a new conversation for a user
func (p *PostgresDB) CreateConversation(userID int64, title string) (*db.Conversation, error) {
	if p.unavailable("create conversation") {
		return nil, nil
	}

	var conv db.Conversation
	query := `
	INSERT INTO conversations (user_id, title)
	VALUES ($1, $2)
	RETURNING id, user_id, title, created_at, updated_at
	`
	if err := p.conn.QueryRowx(query, userID, title).StructScan(&conv); err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"conversation_id": conv.ID, "user_id": userID}).Info("Created new conversation")
	return &conv, nil
}

// GetConversation retrieves a specific conversation, nil when absent
func (p *PostgresDB) GetConversation(id int64) (*db.Conversation, error) {
	if p.unavailable("get conversation") {
		return nil, nil
	}

	var conv db.Conversation
	query := `SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = $1`
	if err := p.conn.Get(&conv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations retrieves a user's conversations, most recently updated first
func (p *PostgresDB) ListConversations(userID int64) ([]db.Conversation, error) {
	conversations := []db.Conversation{}
	if p.unavailable("list conversations") {
		return conversations, nil
	}

	query := `
	SELECT id, user_id, title, created_at, updated_at
	FROM conversations
	WHERE user_id = $1
	ORDER BY updated_at DESC, id DESC
	`
	if err := p.conn.Select(&conversations, query, userID); err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	return conversations, nil
}

// SaveMessage appends a message and bumps the conversation's updated_at
func (p *PostgresDB) SaveMessage(conversationID int64, sender db.Sender, content string) (*db.Message, error) {
	if p.unavailable("save message") {
		return nil, nil
	}

	var msg db.Message
	query := `
	INSERT INTO messages (conversation_id, sender, content)
	VALUES ($1, $2, $3)
	RETURNING id, conversation_id, sender, content, created_at
	`
	if err := p.conn.QueryRowx(query, conversationID, string(sender), content).StructScan(&msg); err != nil {
		return nil, fmt.Errorf("error saving message: %w", err)
	}

	updateQuery := `UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := p.conn.Exec(updateQuery, conversationID); err != nil {
		logger.Log.WithError(err).Warn("Error updating conversation timestamp")
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"message_id":      msg.ID,
		"sender":          sender,
	}).Debug("Saved message")

	return &msg, nil
}

// GetMessage retrieves a message by id, nil when absent
func (p *PostgresDB) GetMessage(id int64) (*db.Message, error) {
	if p.unavailable("get message") {
		return nil, nil
	}

	var msg db.Message
	query := `SELECT id, conversation_id, sender, content, created_at FROM messages WHERE id = $1`
	if err := p.conn.Get(&msg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving message: %w", err)
	}
	return &msg, nil
}

// ListMessages retrieves a conversation's messages, oldest first
func (p *PostgresDB) ListMessages(conversationID int64) ([]db.Message, error) {
	messages := []db.Message{}
	if p.unavailable("list messages") {
		return messages, nil
	}

	query := `
	SELECT id, conversation_id, sender, content, created_at
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at ASC, id ASC
	`
	if err := p.conn.Select(&messages, query, conversationID); err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	return messages, nil
}

// UpsertMessageRating stores the rating, replacing any previous one for the message
func (p *PostgresDB) UpsertMessageRating(messageID int64, rating db.Rating) error {
	if p.unavailable("save rating") {
		return nil
	}

	query := `
	INSERT INTO message_ratings (message_id, rating)
	VALUES ($1, $2)
	ON CONFLICT (message_id) DO UPDATE SET rating = EXCLUDED.rating
	`
	if _, err := p.conn.Exec(query, messageID, string(rating)); err != nil {
		return fmt.Errorf("error saving rating: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"message_id": messageID, "rating": rating}).Info("Saved message rating")
	return nil
}

// GetMessageRating retrieves the rating of a message, nil when unrated
func (p *PostgresDB) GetMessageRating(messageID int64) (*db.MessageRating, error) {
	if p.unavailable("get rating") {
		return nil, nil
	}

	var rating db.MessageRating
	query := `SELECT id, message_id, rating, created_at FROM message_ratings WHERE message_id = $1`
	if err := p.conn.Get(&rating, query, messageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving rating: %w", err)
	}
	return &rating, nil
}
