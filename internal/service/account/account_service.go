package account

import (
	"fmt"

	"support-chat/internal/repository/db"
)

// RecentSearchLimit is the number of entries returned by GetRecentSearches
const RecentSearchLimit = 5

// AccountService handles the linked bank account and search history of a user
type AccountService struct {
	db db.Database
}

// NewAccountService creates a new AccountService
func NewAccountService(database db.Database) *AccountService {
	return &AccountService{db: database}
}

// GetBankAccount returns the user's account, nil when none is linked
func (s *AccountService) GetBankAccount(userID int64) (*db.BankAccount, error) {
	account, err := s.db.GetBankAccount(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return account, nil
}

// CreateBankAccount links an account, replacing the current one
func (s *AccountService) CreateBankAccount(userID int64, accountName, accountNumber string) (*db.BankAccount, error) {
	account, err := s.db.CreateBankAccount(userID, accountName, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to create bank account: %w", err)
	}
	return account, nil
}

// AddSearch records a query
func (s *AccountService) AddSearch(userID int64, query string) error {
	if err := s.db.AddSearchEntry(userID, query); err != nil {
		return fmt.Errorf("failed to add search history: %w", err)
	}
	return nil
}

// GetRecentSearches returns the most recent queries, newest first
func (s *AccountService) GetRecentSearches(userID int64) ([]db.SearchEntry, error) {
	entries, err := s.db.ListRecentSearches(userID, RecentSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent searches: %w", err)
	}
	return entries, nil
}
