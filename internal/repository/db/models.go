package db

import "time"

// Role is the authorization role of a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Sender identifies who wrote a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Rating is the feedback value attached to a message
type Rating string

const (
	RatingPositive Rating = "positive"
	RatingNegative Rating = "negative"
)

// User represents a user in the database
type User struct {
	ID           int64     `db:"id" json:"id"`
	OpenID       string    `db:"open_id" json:"openId"`
	Name         *string   `db:"name" json:"name"`
	Email        *string   `db:"email" json:"email"`
	LoginMethod  *string   `db:"login_method" json:"loginMethod"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
	LastSignedIn time.Time `db:"last_signed_in" json:"lastSignedIn"`
}

// BankAccount is the account linked to a user, exposed to the assistant as account facts
type BankAccount struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"userId"`
	AccountName   string    `db:"account_name" json:"accountName"`
	AccountNumber string    `db:"account_number" json:"accountNumber"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// SearchEntry is one query a user typed into the chat
type SearchEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Query     string    `db:"query" json:"query"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Conversation represents a conversation in the database
type Conversation struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Message represents a message in a conversation
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID int64     `db:"conversation_id" json:"conversationId"`
	Sender         Sender    `db:"sender" json:"sender"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// MessageRating is the single rating a message can hold
type MessageRating struct {
	ID        int64     `db:"id" json:"id"`
	MessageID int64     `db:"message_id" json:"messageId"`
	Rating    Rating    `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
