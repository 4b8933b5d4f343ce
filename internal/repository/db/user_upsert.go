package db

import (
	"time"

	"support-chat/pkg/validation"
)

// UserUpsert is a partial user record keyed by OpenID. Nil fields are left untouched
// on update and take their column default on insert.
type UserUpsert struct {
	OpenID       string
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         *Role
	LastSignedIn *time.Time
}

// UserFields is the set of columns written by one side of an upsert
type UserFields struct {
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         *Role
	LastSignedIn *time.Time
}

// IsEmpty reports whether no column is set
func (f UserFields) IsEmpty() bool {
	return f.Name == nil && f.Email == nil && f.LoginMethod == nil && f.Role == nil && f.LastSignedIn == nil
}

// UpsertPlan is the resolved insert row and conflict update set for a UserUpsert
type UpsertPlan struct {
	OpenID string
	Insert UserFields
	Update UserFields
}

// Validate checks that the upsert can be keyed
func (u UserUpsert) Validate() error {
	if u.OpenID == "" {
		return validation.NewError("openId", "is required")
	}
	return nil
}

// Plan resolves the upsert against the owner identity at time now.
// An absent role becomes admin for the owner; lastSignedIn defaults to now on insert,
// and an otherwise empty update still refreshes lastSignedIn.
func (u UserUpsert) Plan(ownerOpenID string, now time.Time) UpsertPlan {
	fields := UserFields{
		Name:         u.Name,
		Email:        u.Email,
		LoginMethod:  u.LoginMethod,
		Role:         u.Role,
		LastSignedIn: u.LastSignedIn,
	}
	if fields.Role == nil && ownerOpenID != "" && u.OpenID == ownerOpenID {
		admin := RoleAdmin
		fields.Role = &admin
	}

	plan := UpsertPlan{OpenID: u.OpenID, Insert: fields, Update: fields}
	if plan.Insert.LastSignedIn == nil {
		plan.Insert.LastSignedIn = &now
	}
	if plan.Update.IsEmpty() {
		plan.Update.LastSignedIn = &now
	}
	return plan
}
