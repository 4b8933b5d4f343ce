package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"support-chat/internal/logger"
	"support-chat/internal/repository/db"
)

// GetBankAccount retrieves the bank account linked to a user, nil when none
func (p *PostgresDB) GetBankAccount(userID int64) (*db.BankAccount, error) {
	if p.unavailable("get bank account") {
		return nil, nil
	}

	var account db.BankAccount
	query := `
	SELECT id, user_id, account_name, account_number, created_at, updated_at
	FROM bank_accounts
	WHERE user_id = $1
	LIMIT 1
	`
	if err := p.conn.Get(&account, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving bank account: %w", err)
	}
	return &account, nil
}

// CreateBankAccount links an account to the user. A user holds one account, so a
// second call replaces the name and number and returns the current record.
func (p *PostgresDB) CreateBankAccount(userID int64, accountName, accountNumber string) (*db.BankAccount, error) {
	if p.unavailable("create bank account") {
		return nil, nil
	}

	var account db.BankAccount
	query := `
	INSERT INTO bank_accounts (user_id, account_name, account_number)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id) DO UPDATE
	SET account_name = EXCLUDED.account_name,
	    account_number = EXCLUDED.account_number,
	    updated_at = CURRENT_TIMESTAMP
	RETURNING id, user_id, account_name, account_number, created_at, updated_at
	`
	if err := p.conn.QueryRowx(query, userID, accountName, accountNumber).StructScan(&account); err != nil {
		return nil, fmt.Errorf("error creating bank account: %w", err)
	}

	logger.Log.WithField("user_id", userID).Info("Saved bank account")
	return &account, nil
}

// AddSearchEntry records a query in the user's search history
func (p *PostgresDB) AddSearchEntry(userID int64, query string) error {
	if p.unavailable("add search history") {
		return nil
	}

	if _, err := p.conn.Exec(`INSERT INTO search_history (user_id, query) VALUES ($1, $2)`, userID, query); err != nil {
		return fmt.Errorf("error adding search history: %w", err)
	}
	return nil
}

// ListRecentSearches retrieves at most limit entries, newest first
func (p *PostgresDB) ListRecentSearches(userID int64, limit int) ([]db.SearchEntry, error) {
	entries := []db.SearchEntry{}
	if limit <= 0 || p.unavailable("list recent searches") {
		return entries, nil
	}

	query := `
	SELECT id, user_id, query, created_at
	FROM search_history
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2
	`
	if err := p.conn.Select(&entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("error querying search history: %w", err)
	}
	return entries, nil
}
