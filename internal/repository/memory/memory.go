package memory

import (
	"sort"
	"sync"
	"time"

	"support-chat/internal/logger"
	"support-chat/internal/repository/db"

	"github.com/sirupsen/logrus"
)

// Ensure Store implements db.Database interface
var _ db.Database = (*Store)(nil)

// Store is an in-process db.Database used for local runs and tests.
// Rows are kept by value; callers always receive copies.
type Store struct {
	mu          sync.RWMutex
	ownerOpenID string
	lastStamp   time.Time
	nextID      int64

	users         map[string]*db.User
	accounts      map[int64]*db.BankAccount
	searches      []db.SearchEntry
	conversations map[int64]*db.Conversation
	messages      map[int64][]db.Message
	ratings       map[int64]*db.MessageRating
}

// NewStore creates an empty store. ownerOpenID receives the admin role on upsert.
func NewStore(ownerOpenID string) *Store {
	return &Store{
		ownerOpenID:   ownerOpenID,
		users:         make(map[string]*db.User),
		accounts:      make(map[int64]*db.BankAccount),
		conversations: make(map[int64]*db.Conversation),
		messages:      make(map[int64][]db.Message),
		ratings:       make(map[int64]*db.MessageRating),
	}
}

// Available always reports true
func (s *Store) Available() bool { return true }

// Close is a no-op
func (s *Store) Close() error { return nil }

// now returns a timestamp strictly after the previous one. Callers hold mu.
func (s *Store) now() time.Time {
	t := time.Now()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = t
	return t
}

// id returns the next identifier. Callers hold mu.
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// UpsertUser inserts a user or merges the supplied fields into the existing one
func (s *Store) UpsertUser(user db.UserUpsert) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	plan := user.Plan(s.ownerOpenID, now)

	existing, ok := s.users[plan.OpenID]
	if !ok {
		existing = &db.User{
			ID:        s.id(),
			OpenID:    plan.OpenID,
			Role:      db.RoleUser,
			CreatedAt: now,
		}
		applyUserFields(existing, plan.Insert)
		s.users[plan.OpenID] = existing
	} else {
		applyUserFields(existing, plan.Update)
	}
	existing.UpdatedAt = now

	logger.Log.WithFields(logrus.Fields{"open_id": plan.OpenID, "created": !ok}).Debug("Upserted user")
	return nil
}

func applyUserFields(u *db.User, f db.UserFields) {
	if f.Name != nil {
		name := *f.Name
		u.Name = &name
	}
	if f.Email != nil {
		email := *f.Email
		u.Email = &email
	}
	if f.LoginMethod != nil {
		method := *f.LoginMethod
		u.LoginMethod = &method
	}
	if f.Role != nil {
		u.Role = *f.Role
	}
	if f.LastSignedIn != nil {
		u.LastSignedIn = *f.LastSignedIn
	}
}

// GetUserByOpenID retrieves a user by external identity, nil when absent
func (s *Store) GetUserByOpenID(openID string) (*db.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[openID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// CreateConversation creates a conversation for userID
func (s *Store) CreateConversation(userID int64, title string) (*db.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	conv := &db.Conversation{
		ID:        s.id(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv

	cp := *conv
	return &cp, nil
}

// GetConversation retrieves a conversation by ID, nil when absent
func (s *Store) GetConversation(id int64) (*db.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	cp := *conv
	return &cp, nil
}

// ListConversations retrieves a user's conversations, most recently updated first
func (s *Store) ListConversations(userID int64) ([]db.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []db.Conversation{}
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			result = append(result, *conv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// SaveMessage appends a message and bumps the conversation's updated_at
func (s *Store) SaveMessage(conversationID int64, sender db.Sender, content string) (*db.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	msg := db.Message{
		ID:             s.id(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      now,
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	if conv, ok := s.conversations[conversationID]; ok {
		conv.UpdatedAt = now
	}
	return &msg, nil
}

// GetMessage retrieves a message by ID, nil when absent
func (s *Store) GetMessage(id int64) (*db.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, msgs := range s.messages {
		for _, msg := range msgs {
			if msg.ID == id {
				cp := msg
				return &cp, nil
			}
		}
	}
	return nil, nil
}

// ListMessages retrieves a conversation's messages, oldest first
func (s *Store) ListMessages(conversationID int64) ([]db.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	result := make([]db.Message, len(msgs))
	copy(result, msgs)
	return result, nil
}

// UpsertMessageRating sets the rating of a message, keeping one row per message
func (s *Store) UpsertMessageRating(messageID int64, rating db.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.ratings[messageID]; ok {
		existing.Rating = rating
		return nil
	}
	s.ratings[messageID] = &db.MessageRating{
		ID:        s.id(),
		MessageID: messageID,
		Rating:    rating,
		CreatedAt: s.now(),
	}
	return nil
}

// GetMessageRating retrieves a message rating, nil when unrated
func (s *Store) GetMessageRating(messageID int64) (*db.MessageRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.ratings[messageID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

// GetBankAccount retrieves a user's bank account, nil when none is linked
func (s *Store) GetBankAccount(userID int64) (*db.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

// CreateBankAccount links a bank account, replacing the current one
func (s *Store) CreateBankAccount(userID int64, accountName, accountNumber string) (*db.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	acc, ok := s.accounts[userID]
	if !ok {
		acc = &db.BankAccount{ID: s.id(), UserID: userID, CreatedAt: now}
		s.accounts[userID] = acc
	}
	acc.AccountName = accountName
	acc.AccountNumber = accountNumber
	acc.UpdatedAt = now

	cp := *acc
	return &cp, nil
}

// AddSearchEntry records a search query
func (s *Store) AddSearchEntry(userID int64, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches = append(s.searches, db.SearchEntry{
		ID:        s.id(),
		UserID:    userID,
		Query:     query,
		CreatedAt: s.now(),
	})
	return nil
}

// ListRecentSearches retrieves at most limit entries, newest first
func (s *Store) ListRecentSearches(userID int64, limit int) ([]db.SearchEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []db.SearchEntry{}
	for i := len(s.searches) - 1; i >= 0 && len(result) < limit; i-- {
		if s.searches[i].UserID == userID {
			result = append(result, s.searches[i])
		}
	}
	return result, nil
}
