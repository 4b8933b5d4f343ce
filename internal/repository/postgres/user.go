package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"support-chat/internal/logger"
	"support-chat/internal/repository/db"

	"github.com/sirupsen/logrus"
)

// UpsertUser inserts the user or merges the provided fields into the existing row
func (p *PostgresDB) UpsertUser(user db.UserUpsert) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if p.unavailable("upsert user") {
		return db.ErrStoreUnavailable
	}

	plan := user.Plan(p.ownerOpenID, time.Now())

	insertCols, insertArgs := userColumns(plan.Insert)
	cols := append([]string{"open_id"}, insertCols...)
	args := append([]any{plan.OpenID}, insertArgs...)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	updateCols, updateArgs := userColumns(plan.Update)
	sets := make([]string, 0, len(updateCols)+1)
	for i, col := range updateCols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)+i+1))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, updateArgs...)

	query := fmt.Sprintf(
		"INSERT INTO users (%s) VALUES (%s) ON CONFLICT (open_id) DO UPDATE SET %s",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "),
	)

	if _, err := p.conn.Exec(query, args...); err != nil {
		logger.Log.WithError(err).WithField("open_id", plan.OpenID).Error("Failed to upsert user")
		return fmt.Errorf("error upserting user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"open_id": plan.OpenID, "fields": len(updateCols)}).Debug("Upserted user")
	return nil
}

// userColumns lists the set columns of f in a fixed order with their values
func userColumns(f db.UserFields) ([]string, []any) {
	var cols []string
	var args []any
	if f.Name != nil {
		cols, args = append(cols, "name"), append(args, *f.Name)
	}
	if f.Email != nil {
		cols, args = append(cols, "email"), append(args, *f.Email)
	}
	if f.LoginMethod != nil {
		cols, args = append(cols, "login_method"), append(args, *f.LoginMethod)
	}
	if f.Role != nil {
		cols, args = append(cols, "role"), append(args, string(*f.Role))
	}
	if f.LastSignedIn != nil {
		cols, args = append(cols, "last_signed_in"), append(args, *f.LastSignedIn)
	}
	return cols, args
}

// GetUserByOpenID retrieves a user by external identity, nil when absent
func (p *PostgresDB) GetUserByOpenID(openID string) (*db.User, error) {
	if p.unavailable("get user") {
		return nil, nil
	}

	var user db.User
	query := `
	SELECT id, open_id, name, email, login_method, role, created_at, updated_at, last_signed_in
	FROM users
	WHERE open_id = $1
	LIMIT 1
	`
	if err := p.conn.Get(&user, query, openID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return &user, nil
}
