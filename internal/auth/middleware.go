package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"support-chat/internal/logger"
	"support-chat/internal/repository/db"

	"github.com/sirupsen/logrus"
)

type contextKey string

const UserContextKey contextKey = "user"

var ErrUnauthenticated = errors.New("auth: authentication required")

// Authenticator resolves the session of each request to a stored user
type Authenticator struct {
	sessions *SessionManager
	db       db.Database
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(sessions *SessionManager, database db.Database) *Authenticator {
	return &Authenticator{sessions: sessions, db: database}
}

// Middleware attaches the caller to the request context when the session is valid.
// Requests without a usable session continue anonymously.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.sessions.ReadToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.sessions.Verify(token)
		if err != nil {
			logger.Log.WithError(err).Debug("Ignoring invalid session")
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.resolve(claims)
		if err != nil {
			logger.Log.WithError(err).WithField("open_id", claims.OpenID).Warn("Failed to resolve session user")
			next.ServeHTTP(w, r)
			return
		}
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve records the sign-in and loads the user
func (a *Authenticator) resolve(claims *Claims) (*db.User, error) {
	now := time.Now()
	upsert := db.UserUpsert{
		OpenID:       claims.OpenID,
		Name:         optional(claims.Name),
		Email:        optional(claims.Email),
		LoginMethod:  optional(claims.LoginMethod),
		LastSignedIn: &now,
	}
	if err := a.db.UpsertUser(upsert); err != nil {
		return nil, err
	}

	user, err := a.db.GetUserByOpenID(claims.OpenID)
	if err != nil {
		return nil, err
	}

	if user != nil {
		logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Debug("Authenticated request")
	}
	return user, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// UserFromContext returns the authenticated user, or nil for anonymous requests
func UserFromContext(ctx context.Context) *db.User {
	user, _ := ctx.Value(UserContextKey).(*db.User)
	return user
}

// RequireUser returns the authenticated user or ErrUnauthenticated
func RequireUser(ctx context.Context) (*db.User, error) {
	if user := UserFromContext(ctx); user != nil {
		return user, nil
	}
	return nil, ErrUnauthenticated
}
