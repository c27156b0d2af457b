package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Provider string

const (
	ProviderCredentials Provider = "credentials"
	ProviderGoogle      Provider = "google"
	ProviderBoth        Provider = "both"
)

// LinkedToGoogle reports whether the account can sign in through Google.
func (p Provider) LinkedToGoogle() bool {
	return p == ProviderGoogle || p == ProviderBoth
}

const (
	SessionCookie = "session"
	RefreshCookie = "refresh_token"

	SessionTTL = 24 * time.Hour
	RefreshTTL = 7 * 24 * time.Hour

	tokenTypeSession = "session"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Context is the identity resolved once per request and handed to handlers.
// The zero value means "no session".
type Context struct {
	UserID   string
	Email    string
	Role     Role
	Provider Provider
}

func (c Context) Authenticated() bool { return c.UserID != "" }

type SessionClaims struct {
	Email    string   `json:"email"`
	Role     Role     `json:"role"`
	Provider Provider `json:"provider"`
	Type     string   `json:"typ"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies session tokens with a shared HMAC secret.
type Sessions struct {
	secret []byte
	now    func() time.Time
}

func NewSessions(secret string) (*Sessions, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return &Sessions{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a 24 hour session token for ac.
func (s *Sessions) Issue(ac Context) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(SessionTTL)
	claims := SessionClaims{
		Email:    ac.Email,
		Role:     ac.Role,
		Provider: ac.Provider,
		Type:     tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ac.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates a session token and returns its identity.
func (s *Sessions) Parse(tokenStr string) (Context, error) {
	claims := &SessionClaims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Context{}, ErrInvalidSession
	}
	if claims.Type != tokenTypeSession || claims.Subject == "" {
		return Context{}, ErrInvalidSession
	}
	if !claims.VerifyExpiresAt(s.now(), true) {
		return Context{}, ErrInvalidSession
	}
	return Context{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Role:     claims.Role,
		Provider: claims.Provider,
	}, nil
}

// Resolve reads the session from the cookie, falling back to a bearer token.
// Any failure yields the zero Context.
func (s *Sessions) Resolve(r *http.Request) Context {
	var raw string
	if ck, err := r.Cookie(SessionCookie); err == nil {
		raw = ck.Value
	} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	}
	if raw == "" {
		return Context{}
	}
	ac, err := s.Parse(raw)
	if err != nil {
		return Context{}
	}
	return ac
}
