package services

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

var (
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 characters long")
	ErrPasswordNoLetter = errors.New("Password must contain at least one letter")
	ErrPasswordNoNumber = errors.New("Password must contain at least one number")
	ErrPasswordCommon   = errors.New("Password is too common")
	ErrPasswordEmail    = errors.New("Password must not contain your email address")
)

// PasswordValidator validates passwords against security requirements
type PasswordValidator struct {
	minLength       int
	maxLength       int
	commonPasswords map[string]bool
}

// NewPasswordValidator creates a new password validator with default settings
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		minLength: 8,
		// bcrypt ignores everything past 72 bytes.
		maxLength: 72,
		commonPasswords: map[string]bool{
			"password":   true,
			"password1":  true,
			"12345678":   true,
			"123456789":  true,
			"qwerty123":  true,
			"iloveyou1":  true,
			"admin123":   true,
			"welcome1":   true,
			"laptop123":  true,
			"letmein123": true,
		},
	}
}

// ValidatePassword checks password for the account identified by email.
func (pv *PasswordValidator) ValidatePassword(password, email string) error {
	if len(password) < pv.minLength {
		return ErrPasswordTooShort
	}
	if len(password) > pv.maxLength {
		return ErrPasswordTooLong
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	if !hasLetter {
		return ErrPasswordNoLetter
	}
	if !hasNumber {
		return ErrPasswordNoNumber
	}

	lower := strings.ToLower(password)
	if pv.commonPasswords[lower] {
		return ErrPasswordCommon
	}
	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && len(local) >= 4 && strings.Contains(lower, local) {
		return ErrPasswordEmail
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. An empty hash never
// matches, which keeps Google-only accounts out of the credentials flow.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
