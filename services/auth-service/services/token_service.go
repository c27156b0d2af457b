package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrMalformedRefreshToken = errors.New("malformed refresh token")

// RefreshToken is a freshly minted opaque token. Raw goes to the client as
// "<userId>.<secret>"; only Hash is stored.
type RefreshToken struct {
	Raw       string
	Hash      string
	ExpiresAt time.Time
}

// TokenService mints and checks opaque refresh tokens.
type TokenService struct {
	now func() time.Time
}

func NewTokenService() *TokenService {
	return &TokenService{now: time.Now}
}

// Generate creates a new refresh token for userID.
func (s *TokenService) Generate(userID primitive.ObjectID) (*RefreshToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)
	return &RefreshToken{
		Raw:       userID.Hex() + "." + secret,
		Hash:      hashSecret(secret),
		ExpiresAt: s.now().Add(auth.RefreshTTL),
	}, nil
}

// Split returns the user id a raw token names and the hash of its secret.
func (s *TokenService) Split(raw string) (primitive.ObjectID, string, error) {
	idPart, secret, ok := strings.Cut(raw, ".")
	if !ok || secret == "" {
		return primitive.NilObjectID, "", ErrMalformedRefreshToken
	}
	id, err := primitive.ObjectIDFromHex(idPart)
	if err != nil {
		return primitive.NilObjectID, "", ErrMalformedRefreshToken
	}
	return id, hashSecret(secret), nil
}

// Matches compares a presented hash against the stored one in constant time
// and checks the stored expiry.
func (s *TokenService) Matches(stored, presented string, expiry *time.Time) bool {
	if stored == "" || expiry == nil || !s.now().Before(*expiry) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
