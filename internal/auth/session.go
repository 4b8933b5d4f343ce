package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"support-chat/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("auth: invalid session token")

// Identity is what a session asserts about its holder
type Identity struct {
	OpenID      string
	Name        string
	Email       string
	LoginMethod string
}

// Claims is the signed session payload
type Claims struct {
	OpenID      string `json:"openId"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	LoginMethod string `json:"loginMethod,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session tokens carried in a cookie or bearer header
type SessionManager struct {
	secret       []byte
	ttl          time.Duration
	cookieName   string
	cookieSecure bool
	now          func() time.Time
}

// NewSessionManager creates a SessionManager from auth configuration
func NewSessionManager(authConfig config.AuthConfig) *SessionManager {
	ttl := authConfig.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		secret:       authConfig.JWTSecret,
		ttl:          ttl,
		cookieName:   authConfig.CookieName,
		cookieSecure: authConfig.CookieSecure,
		now:          time.Now,
	}
}

// Issue signs a token for identity and returns it with its expiry
func (m *SessionManager) Issue(identity Identity) (string, time.Time, error) {
	if identity.OpenID == "" {
		return "", time.Time{}, fmt.Errorf("auth: openId is required")
	}

	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)
	claims := Claims{
		OpenID:      identity.OpenID,
		Name:        identity.Name,
		Email:       identity.Email,
		LoginMethod: identity.LoginMethod,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.OpenID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing session token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of token
func (m *SessionManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.OpenID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ReadToken returns the session token of r, preferring the cookie over the Authorization header
func (m *SessionManager) ReadToken(r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	bearerToken := strings.SplitN(authHeader, " ", 2)
	if len(bearerToken) == 2 && strings.EqualFold(bearerToken[0], "Bearer") {
		return strings.TrimSpace(bearerToken[1])
	}
	return ""
}

// Cookie builds the session cookie carrying token
func (m *SessionManager) Cookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	cookie := m.Cookie("", time.Time{})
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}
